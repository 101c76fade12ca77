package command

import (
	"time"

	"github.com/example/ec-dispatch/internal/domain/order"
	"github.com/example/ec-dispatch/internal/domain/rider"
)

// Product Commands
type CreateProduct struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	SellingPrice int    `json:"selling_price"`
	Stock        int    `json:"stock"`
	ImageURL     string `json:"image_url,omitempty"`
}

type UpdateProduct struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	SellingPrice int    `json:"selling_price"`
}

type DeleteProduct struct {
	ProductID string `json:"product_id"`
}

type AddStock struct {
	ProductID string `json:"product_id"`
	ActorID   string `json:"actor_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason,omitempty"`
}

// Cart Commands
type AddToCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

type ClearCart struct {
	UserID string `json:"user_id"`
}

// Order Commands
type CreateOrder struct {
	UserID          string        `json:"user_id"`
	DeliveryAddress order.Address `json:"delivery_address"`
}

type CancelOrder struct {
	UserID  string `json:"user_id"`
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

type AdminSetStatus struct {
	OrderID string       `json:"order_id"`
	Status  order.Status `json:"status"`
	ActorID string       `json:"actor_id"`
}

type AdminDeleteOrder struct {
	OrderID string `json:"order_id"`
}

type SetDeliveryDate struct {
	OrderID      string    `json:"order_id"`
	DeliveryDate time.Time `json:"delivery_date"`
}

type AssignRider struct {
	OrderID string `json:"order_id"`
	RiderID string `json:"rider_id"`
	ActorID string `json:"actor_id"`
}

// Dispatch Commands (rider-initiated)
type MarkReadyToDispatch struct {
	RiderID string `json:"rider_id"`
	OrderID string `json:"order_id"`
}

type StartDelivery struct {
	RiderID string              `json:"rider_id"`
	OrderID string              `json:"order_id"`
	Point   order.TrackingPoint `json:"point"`
}

type UpdateLocation struct {
	RiderID string              `json:"rider_id"`
	OrderID string              `json:"order_id"`
	Point   order.TrackingPoint `json:"point"`
}

type CompleteDelivery struct {
	RiderID string      `json:"rider_id"`
	OrderID string      `json:"order_id"`
	Proof   order.Proof `json:"proof"`
}

type FailDelivery struct {
	RiderID string `json:"rider_id"`
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

// Rider Commands
type RegisterRider struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone"`
	VehicleType string `json:"vehicle_type"`
}

type SetRiderActive struct {
	RiderID string `json:"rider_id"`
	Active  bool   `json:"active"`
}

type SetRiderStatus struct {
	RiderID string       `json:"rider_id"`
	Status  rider.Status `json:"status"`
}
