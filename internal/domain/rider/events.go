package rider

import "time"

const (
	EventRiderRegistered    = "RiderRegistered"
	EventRiderClaimed       = "RiderClaimed"
	EventRiderClaimReleased = "RiderClaimReleased"
	EventRiderCompleted     = "RiderCompletedDelivery"
	EventRiderCancelled     = "RiderDeliveryCancelled"
	EventLocationUpdated    = "RiderLocationUpdated"
	EventRiderStatusSet     = "RiderStatusSet"
	EventRiderActivationSet = "RiderActivationSet"
)

type RiderRegistered struct {
	RiderID      string    `json:"rider_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Phone        string    `json:"phone"`
	VehicleType  string    `json:"vehicle_type"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RiderClaimed marks the rider taken for an order. The claim is where the
// workload counter increments: "assigned" already counts toward it.
type RiderClaimed struct {
	RiderID   string    `json:"rider_id"`
	OrderID   string    `json:"order_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// RiderClaimReleased rolls back a claim whose order-side assignment did not
// go through. Counters stay put; only availability is restored.
type RiderClaimReleased struct {
	RiderID    string    `json:"rider_id"`
	OrderID    string    `json:"order_id"`
	ReleasedAt time.Time `json:"released_at"`
}

type RiderCompleted struct {
	RiderID     string    `json:"rider_id"`
	OrderID     string    `json:"order_id"`
	CompletedAt time.Time `json:"completed_at"`
}

type RiderCancelled struct {
	RiderID     string    `json:"rider_id"`
	OrderID     string    `json:"order_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type LocationUpdated struct {
	RiderID   string    `json:"rider_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RiderStatusSet struct {
	RiderID string    `json:"rider_id"`
	Status  Status    `json:"status"`
	SetAt   time.Time `json:"set_at"`
}

type RiderActivationSet struct {
	RiderID  string    `json:"rider_id"`
	IsActive bool      `json:"is_active"`
	SetAt    time.Time `json:"set_at"`
}
