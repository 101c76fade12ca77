package order

import "time"

const (
	EventOrderCreated      = "OrderCreated"
	EventOrderCancelled    = "OrderCancelled"
	EventOrderStatusSet    = "OrderStatusSet"
	EventOrderDeleted      = "OrderDeleted"
	EventRiderAssigned     = "RiderAssigned"
	EventDeliveryDateSet   = "DeliveryDateSet"
	EventMarkedReady       = "OrderMarkedReady"
	EventDeliveryStarted   = "DeliveryStarted"
	EventTrackingAppended  = "TrackingPointAppended"
	EventDeliveryCompleted = "DeliveryCompleted"
	EventDeliveryFailed    = "DeliveryFailed"
)

type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"` // captured at order time, never recomputed
}

// TrackingPoint is one GPS sample. Timestamp is always server-stamped;
// client ordering is not trusted.
type TrackingPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed,omitempty"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Proof is the evidence captured when a delivery terminates. ImageURL is
// mandatory, the rest optional.
type Proof struct {
	ImageURL   string    `json:"image_url"`
	Signature  string    `json:"signature,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type Address struct {
	Street    string  `json:"street,omitempty"`
	City      string  `json:"city,omitempty"`
	State     string  `json:"state,omitempty"`
	ZipCode   string  `json:"zip_code,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

type OrderCreated struct {
	OrderID         string      `json:"order_id"`
	UserID          string      `json:"user_id"`
	Items           []OrderItem `json:"items"`
	TotalAmount     int         `json:"total_amount"`
	DeliveryAddress Address     `json:"delivery_address"`
	CreatedAt       time.Time   `json:"created_at"`
}

type OrderCancelled struct {
	OrderID     string    `json:"order_id"`
	CancelledBy string    `json:"cancelled_by"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// OrderStatusSet records an admin overriding the commercial status directly.
// RiderStatus carries the normalized delivery axis for the new pair.
type OrderStatusSet struct {
	OrderID     string      `json:"order_id"`
	Status      Status      `json:"status"`
	RiderStatus RiderStatus `json:"rider_status"`
	Reason      string      `json:"reason,omitempty"`
	SetAt       time.Time   `json:"set_at"`
}

type OrderDeleted struct {
	OrderID   string    `json:"order_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

type OrderRiderAssigned struct {
	OrderID    string    `json:"order_id"`
	RiderID    string    `json:"rider_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

type DeliveryDateSet struct {
	OrderID      string    `json:"order_id"`
	DeliveryDate time.Time `json:"delivery_date"`
	SetAt        time.Time `json:"set_at"`
}

type MarkedReady struct {
	OrderID string    `json:"order_id"`
	RiderID string    `json:"rider_id"`
	ReadyAt time.Time `json:"ready_at"`
}

type DeliveryStarted struct {
	OrderID   string        `json:"order_id"`
	RiderID   string        `json:"rider_id"`
	Point     TrackingPoint `json:"point"`
	StartedAt time.Time     `json:"started_at"`
}

type TrackingAppended struct {
	OrderID string        `json:"order_id"`
	RiderID string        `json:"rider_id"`
	Point   TrackingPoint `json:"point"`
}

type DeliveryCompleted struct {
	OrderID     string    `json:"order_id"`
	RiderID     string    `json:"rider_id"`
	Proof       Proof     `json:"proof"`
	CompletedAt time.Time `json:"completed_at"`
}

type DeliveryFailed struct {
	OrderID  string    `json:"order_id"`
	RiderID  string    `json:"rider_id"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}
