package product

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/example/ec-dispatch/internal/domain/aggregate"
	"github.com/example/ec-dispatch/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Product"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidPrice    = errors.New("selling price must be positive")
	ErrInvalidName     = errors.New("name is required")
)

// Product is the catalog entity. Stock lives in the inventory aggregate
// keyed by the same product ID; the catalog only carries pricing and copy.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	SellingPrice int       `json:"selling_price"`
	ImageURL     string    `json:"image_url,omitempty"`
	IsDeleted    bool      `json:"is_deleted,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

// Aggregate interface implementation
func (p *Product) GetID() string    { return p.ID }
func (p *Product) GetVersion() int  { return p.Version }
func (p *Product) SetVersion(v int) { p.Version = v }

// ApplyEvent applies a single event to the product state (implements aggregate.Aggregate)
func (p *Product) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventProductCreated:
		var data ProductCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.ID = data.ProductID
		p.Name = data.Name
		p.Description = data.Description
		p.SellingPrice = data.SellingPrice
		p.ImageURL = data.ImageURL
		p.CreatedAt = data.CreatedAt
		p.UpdatedAt = data.CreatedAt
	case EventProductUpdated:
		var data ProductUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Name = data.Name
		p.Description = data.Description
		p.SellingPrice = data.SellingPrice
		p.UpdatedAt = data.UpdatedAt
	case EventProductDeleted:
		var data ProductDeleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.IsDeleted = true
		p.UpdatedAt = data.DeletedAt
	case EventProductImageUpdated:
		var data ProductImageUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.ImageURL = data.ImageURL
		p.UpdatedAt = data.UpdatedAt
	}
	p.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) loadProduct(ctx context.Context, productID string) (*Product, error) {
	p, found, err := aggregate.LoadAggregate(ctx, s.eventStore, productID, func() *Product {
		return &Product{}
	})
	if err != nil {
		return nil, err
	}
	if !found || p.IsDeleted {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// Get returns the current product state.
func (s *Service) Get(ctx context.Context, productID string) (*Product, error) {
	return s.loadProduct(ctx, productID)
}

func (s *Service) append(ctx context.Context, p *Product, eventType string, data any) error {
	storedEvent, err := s.eventStore.Append(ctx, p.ID, AggregateType, eventType, data, p.Version)
	if err != nil {
		return err
	}

	if err := p.ApplyEvent(*storedEvent); err != nil {
		return err
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, p, AggregateType); err != nil {
		log.Printf("[Product] Failed to create snapshot for product %s: %v", p.ID, err)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, name, description string, sellingPrice int, imageURL string) (*Product, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if sellingPrice <= 0 {
		return nil, ErrInvalidPrice
	}

	productID := uuid.New().String()
	event := ProductCreated{
		ProductID:    productID,
		Name:         name,
		Description:  description,
		SellingPrice: sellingPrice,
		ImageURL:     imageURL,
		CreatedAt:    time.Now(),
	}

	p := &Product{ID: productID}
	if err := s.append(ctx, p, EventProductCreated, event); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, productID, name, description string, sellingPrice int) error {
	if name == "" {
		return ErrInvalidName
	}
	if sellingPrice <= 0 {
		return ErrInvalidPrice
	}

	p, err := s.loadProduct(ctx, productID)
	if err != nil {
		return err
	}

	event := ProductUpdated{
		ProductID:    productID,
		Name:         name,
		Description:  description,
		SellingPrice: sellingPrice,
		UpdatedAt:    time.Now(),
	}
	return s.append(ctx, p, EventProductUpdated, event)
}

func (s *Service) UpdateImage(ctx context.Context, productID, imageURL string) error {
	p, err := s.loadProduct(ctx, productID)
	if err != nil {
		return err
	}

	event := ProductImageUpdated{
		ProductID: productID,
		ImageURL:  imageURL,
		UpdatedAt: time.Now(),
	}
	return s.append(ctx, p, EventProductImageUpdated, event)
}

func (s *Service) Delete(ctx context.Context, productID string) error {
	p, err := s.loadProduct(ctx, productID)
	if err != nil {
		return err
	}

	event := ProductDeleted{
		ProductID: productID,
		DeletedAt: time.Now(),
	}
	return s.append(ctx, p, EventProductDeleted, event)
}
