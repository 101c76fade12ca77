package readmodel

import "time"

// ProductReadModel is the read model for catalog products
type ProductReadModel struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	SellingPrice int       `json:"selling_price"`
	Stock        int       `json:"stock"`
	ImageURL     string    `json:"image_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CartItemReadModel represents an item in the cart
type CartItemReadModel struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int    `json:"price"`
}

// CartReadModel is the read model for shopping carts
type CartReadModel struct {
	ID         string              `json:"id"`
	UserID     string              `json:"user_id"`
	Items      []CartItemReadModel `json:"items"`
	TotalPrice int                 `json:"total_price"`
}

// OrderItemReadModel represents an item in an order
type OrderItemReadModel struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// TrackingPointReadModel is one GPS sample on an order's delivery route
type TrackingPointReadModel struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// ProofReadModel is the captured proof of delivery
type ProofReadModel struct {
	ImageURL   string    `json:"image_url"`
	Signature  string    `json:"signature,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// AddressReadModel is the delivery address carried on an order
type AddressReadModel struct {
	Street    string  `json:"street,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	ZipCode   string  `json:"zip_code,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// OrderReadModel is the read model for orders
type OrderReadModel struct {
	ID              string                   `json:"id"`
	UserID          string                   `json:"user_id"`
	Items           []OrderItemReadModel     `json:"items"`
	TotalAmount     int                      `json:"total_amount"`
	Status          string                   `json:"status"`
	RiderStatus     string                   `json:"rider_status"`
	AssignedRider   string                   `json:"assigned_rider,omitempty"`
	DeliveryDate    *time.Time               `json:"delivery_date,omitempty"`
	DeliveryAddress AddressReadModel         `json:"delivery_address"`
	TrackingUpdates []TrackingPointReadModel `json:"tracking_updates,omitempty"`
	ProofOfDelivery *ProofReadModel          `json:"proof_of_delivery,omitempty"`
	AssignedAt      *time.Time               `json:"assigned_at,omitempty"`
	DispatchedAt    *time.Time               `json:"dispatched_at,omitempty"`
	DeliveredAt     *time.Time               `json:"delivered_at,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// InventoryReadModel is the read model for product stock
type InventoryReadModel struct {
	ProductID string    `json:"product_id"`
	Stock     int       `json:"stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InventoryMovementReadModel is one row of the append-only stock ledger.
// Rows are only ever inserted, never updated or deleted.
type InventoryMovementReadModel struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	ActorID   string    `json:"actor_id"`
	OrderID   string    `json:"order_id,omitempty"`
	Quantity  int       `json:"quantity"`
	Type      string    `json:"type"` // IN or OUT
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// LocationReadModel is a rider's last known position
type LocationReadModel struct {
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// RiderReadModel is the read model for dispatch riders
type RiderReadModel struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Email               string            `json:"email"`
	PasswordHash        string            `json:"-"` // Never expose in JSON
	Phone               string            `json:"phone"`
	VehicleType         string            `json:"vehicle_type"`
	IsActive            bool              `json:"is_active"`
	Status              string            `json:"status"`
	CurrentLocation     LocationReadModel `json:"current_location"`
	TotalDeliveries     int               `json:"total_deliveries"`
	CompletedDeliveries int               `json:"completed_deliveries"`
	CancelledDeliveries int               `json:"cancelled_deliveries"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// RiderSummaryReadModel is the public subset of rider fields returned to
// customers on the tracking read path.
type RiderSummaryReadModel struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Phone           string            `json:"phone"`
	VehicleType     string            `json:"vehicle_type"`
	CurrentLocation LocationReadModel `json:"current_location"`
}

// UserReadModel is the read model for users
type UserReadModel struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
