package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/example/ec-dispatch/internal/domain/aggregate"
	"github.com/example/ec-dispatch/internal/infrastructure/store"
)

const AggregateType = "Cart"

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrEmptyCart       = errors.New("cart is empty")
)

type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int    `json:"price"`
}

type Cart struct {
	ID      string              `json:"id"`
	UserID  string              `json:"user_id"`
	Items   map[string]CartItem `json:"items"` // productID -> item
	Version int                 `json:"version"`
}

// Aggregate interface implementation
func (c *Cart) GetID() string    { return c.ID }
func (c *Cart) GetVersion() int  { return c.Version }
func (c *Cart) SetVersion(v int) { c.Version = v }

// TotalPrice sums the cart's line subtotals.
func (c *Cart) TotalPrice() int {
	var total int
	for _, item := range c.Items {
		total += item.Price * item.Quantity
	}
	return total
}

// SortedItems returns the cart lines ordered by product ID. The items map
// has no stable iteration order; checkout uses this so two identical carts
// always produce the same order line sequence.
func (c *Cart) SortedItems() []CartItem {
	items := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ProductID < items[j].ProductID
	})
	return items
}

// GetCartID returns the cart ID for a user (using userID as cartID for simplicity)
func GetCartID(userID string) string {
	return "cart-" + userID
}

// ApplyEvent applies a single event to the cart state (implements aggregate.Aggregate)
func (c *Cart) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventItemAdded:
		var data ItemAddedToCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		if c.Items == nil {
			c.Items = make(map[string]CartItem)
		}
		c.ID = data.CartID
		c.UserID = data.UserID
		// Add or update item quantity
		if existing, ok := c.Items[data.ProductID]; ok {
			existing.Quantity += data.Quantity
			existing.Price = data.Price
			c.Items[data.ProductID] = existing
		} else {
			c.Items[data.ProductID] = CartItem{
				ProductID: data.ProductID,
				Quantity:  data.Quantity,
				Price:     data.Price,
			}
		}
	case EventItemRemoved:
		var data ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		delete(c.Items, data.ProductID)
	case EventCartCleared:
		var data CartCleared
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.Items = make(map[string]CartItem)
	}
	c.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// loadCart loads a cart by replaying events, using snapshot if available.
// A user with no cart history gets an empty cart.
func (s *Service) loadCart(ctx context.Context, userID string) (*Cart, error) {
	cartID := GetCartID(userID)
	c, _, err := aggregate.LoadAggregate(ctx, s.eventStore, cartID, func() *Cart {
		return &Cart{ID: cartID, UserID: userID, Items: make(map[string]CartItem)}
	})
	if err != nil {
		return nil, err
	}
	if c.ID == "" {
		c.ID = cartID
		c.UserID = userID
	}
	if c.Items == nil {
		c.Items = make(map[string]CartItem)
	}
	return c, nil
}

// Get returns the user's current cart snapshot.
func (s *Service) Get(ctx context.Context, userID string) (*Cart, error) {
	return s.loadCart(ctx, userID)
}

func (s *Service) append(ctx context.Context, c *Cart, eventType string, data any) error {
	storedEvent, err := s.eventStore.Append(ctx, c.ID, AggregateType, eventType, data, c.Version)
	if err != nil {
		return err
	}

	if err := c.ApplyEvent(*storedEvent); err != nil {
		return err
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, c, AggregateType); err != nil {
		log.Printf("[Cart] Failed to create snapshot for cart %s: %v", c.ID, err)
	}
	return nil
}

func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity, price int) error {
	if productID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	c, err := s.loadCart(ctx, userID)
	if err != nil {
		return err
	}

	event := ItemAddedToCart{
		CartID:    c.ID,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
		AddedAt:   time.Now(),
	}
	return s.append(ctx, c, EventItemAdded, event)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) error {
	if productID == "" {
		return ErrInvalidProduct
	}

	c, err := s.loadCart(ctx, userID)
	if err != nil {
		return err
	}

	event := ItemRemovedFromCart{
		CartID:    c.ID,
		UserID:    userID,
		ProductID: productID,
		RemovedAt: time.Now(),
	}
	return s.append(ctx, c, EventItemRemoved, event)
}

// Clear empties the cart. Reason distinguishes a checkout clear from a
// user-initiated one.
func (s *Service) Clear(ctx context.Context, userID, reason string) error {
	c, err := s.loadCart(ctx, userID)
	if err != nil {
		return err
	}

	event := CartCleared{
		CartID:    c.ID,
		UserID:    userID,
		Reason:    reason,
		ClearedAt: time.Now(),
	}
	return s.append(ctx, c, EventCartCleared, event)
}
