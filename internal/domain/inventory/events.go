package inventory

import "time"

const (
	EventStockAdded    = "StockAdded"
	EventStockReserved = "StockReserved"
	EventStockReleased = "StockReleased"
)

// Every stock-affecting event carries the actor and reason so the projector
// can write the matching ledger row.

type StockAdded struct {
	ProductID string    `json:"product_id"`
	ActorID   string    `json:"actor_id"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
	AddedAt   time.Time `json:"added_at"`
}

type StockReserved struct {
	ProductID  string    `json:"product_id"`
	OrderID    string    `json:"order_id"`
	ActorID    string    `json:"actor_id"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason"`
	ReservedAt time.Time `json:"reserved_at"`
}

type StockReleased struct {
	ProductID  string    `json:"product_id"`
	OrderID    string    `json:"order_id"`
	ActorID    string    `json:"actor_id"`
	Quantity   int       `json:"quantity"`
	Reason     string    `json:"reason"`
	ReleasedAt time.Time `json:"released_at"`
}
