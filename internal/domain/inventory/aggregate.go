package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/example/ec-dispatch/internal/domain/aggregate"
	"github.com/example/ec-dispatch/internal/infrastructure/store"
)

const AggregateType = "Inventory"

// reserveAttempts bounds the check-and-append retry loop under contention.
const reserveAttempts = 3

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

// Inventory tracks one product's stock. The aggregate ID is the product ID.
type Inventory struct {
	ProductID string `json:"product_id"`
	Stock     int    `json:"stock"`
	Version   int    `json:"version"`
}

// Aggregate interface implementation
func (i *Inventory) GetID() string    { return i.ProductID }
func (i *Inventory) GetVersion() int  { return i.Version }
func (i *Inventory) SetVersion(v int) { i.Version = v }

// ApplyEvent applies a single event to the inventory state (implements aggregate.Aggregate)
func (i *Inventory) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventStockAdded:
		var data StockAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.ProductID = data.ProductID
		i.Stock += data.Quantity
	case EventStockReserved:
		var data StockReserved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.ProductID = data.ProductID
		i.Stock -= data.Quantity
	case EventStockReleased:
		var data StockReleased
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.ProductID = data.ProductID
		i.Stock += data.Quantity
	}
	i.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// loadInventory loads inventory by replaying events, using snapshot if
// available. A product with no stock history loads as zero stock.
func (s *Service) loadInventory(ctx context.Context, productID string) (*Inventory, error) {
	inv, _, err := aggregate.LoadAggregate(ctx, s.eventStore, productID, func() *Inventory {
		return &Inventory{ProductID: productID}
	})
	if err != nil {
		return nil, err
	}
	if inv.ProductID == "" {
		inv.ProductID = productID
	}
	return inv, nil
}

// Stock returns the current stock level for a product.
func (s *Service) Stock(ctx context.Context, productID string) (int, error) {
	inv, err := s.loadInventory(ctx, productID)
	if err != nil {
		return 0, err
	}
	return inv.Stock, nil
}

func (s *Service) append(ctx context.Context, inv *Inventory, eventType string, data any) error {
	storedEvent, err := s.eventStore.Append(ctx, inv.ProductID, AggregateType, eventType, data, inv.Version)
	if err != nil {
		return err
	}

	if err := inv.ApplyEvent(*storedEvent); err != nil {
		return err
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, inv, AggregateType); err != nil {
		log.Printf("[Inventory] Failed to create snapshot for product %s: %v", inv.ProductID, err)
	}
	return nil
}

// CheckAvailable verifies stock covers quantity without mutating anything.
// Used as the pre-flight pass over every cart line before any reservation.
func (s *Service) CheckAvailable(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	inv, err := s.loadInventory(ctx, productID)
	if err != nil {
		return err
	}
	if quantity > inv.Stock {
		return ErrInsufficientStock
	}
	return nil
}

// AddStock increases a product's stock level.
func (s *Service) AddStock(ctx context.Context, productID, actorID string, quantity int, reason string) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	inv, err := s.loadInventory(ctx, productID)
	if err != nil {
		return err
	}

	event := StockAdded{
		ProductID: productID,
		ActorID:   actorID,
		Quantity:  quantity,
		Reason:    reason,
		AddedAt:   time.Now(),
	}
	return s.append(ctx, inv, EventStockAdded, event)
}

// Reserve decrements stock if and only if enough is available, as one
// conditional append. Read-then-write without the version condition is a
// known race: two concurrent orders could both pass the check. The loop
// re-reads and re-checks on conflict, so stock never goes negative.
func (s *Service) Reserve(ctx context.Context, productID, orderID, actorID string, quantity int, reason string) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	var lastErr error
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		inv, err := s.loadInventory(ctx, productID)
		if err != nil {
			return err
		}
		if quantity > inv.Stock {
			return ErrInsufficientStock
		}

		event := StockReserved{
			ProductID:  productID,
			OrderID:    orderID,
			ActorID:    actorID,
			Quantity:   quantity,
			Reason:     reason,
			ReservedAt: time.Now(),
		}
		err = s.append(ctx, inv, EventStockReserved, event)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// Release returns reserved stock, paired with a ledger IN entry by the
// projector. Called once per line on cancellation.
func (s *Service) Release(ctx context.Context, productID, orderID, actorID string, quantity int, reason string) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	var lastErr error
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		inv, err := s.loadInventory(ctx, productID)
		if err != nil {
			return err
		}

		event := StockReleased{
			ProductID:  productID,
			OrderID:    orderID,
			ActorID:    actorID,
			Quantity:   quantity,
			Reason:     reason,
			ReleasedAt: time.Now(),
		}
		err = s.append(ctx, inv, EventStockReleased, event)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
