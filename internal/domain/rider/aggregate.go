package rider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/ec-dispatch/internal/domain/aggregate"
	"github.com/example/ec-dispatch/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Rider"

// Status reflects the rider's current assignment state, stored separately
// from any order's delivery sub-state.
type Status string

const (
	StatusAvailable  Status = "Available"
	StatusOnDelivery Status = "On Delivery"
	StatusOffline    Status = "Offline"
)

var (
	ErrRiderNotFound    = errors.New("rider not found")
	ErrRiderUnavailable = errors.New("rider is not available")
	ErrRiderInactive    = errors.New("rider account is deactivated")
	ErrRiderOnDelivery  = errors.New("rider has an active delivery")
	ErrInvalidVehicle   = errors.New("invalid vehicle type")
	ErrInvalidRStatus   = errors.New("invalid rider status value")
)

var vehicleTypes = map[string]bool{
	"Bike":  true,
	"Car":   true,
	"Van":   true,
	"Truck": true,
}

// ValidVehicle reports whether v is a known vehicle type.
func ValidVehicle(v string) bool { return vehicleTypes[v] }

type Location struct {
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

type Rider struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	PasswordHash    string   `json:"password_hash"`
	Phone           string   `json:"phone"`
	VehicleType     string   `json:"vehicle_type"`
	IsActive        bool     `json:"is_active"`
	Status          Status   `json:"status"`
	ActiveOrderID   string   `json:"active_order_id,omitempty"`
	CurrentLocation Location `json:"current_location"`

	// Monotonic counters, never decremented.
	TotalDeliveries     int `json:"total_deliveries"`
	CompletedDeliveries int `json:"completed_deliveries"`
	CancelledDeliveries int `json:"cancelled_deliveries"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"` // Current event version
}

// Aggregate interface implementation
func (r *Rider) GetID() string    { return r.ID }
func (r *Rider) GetVersion() int  { return r.Version }
func (r *Rider) SetVersion(v int) { r.Version = v }

// ApplyEvent applies a single event to the rider state (implements aggregate.Aggregate)
func (r *Rider) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventRiderRegistered:
		var data RiderRegistered
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.ID = data.RiderID
		r.Name = data.Name
		r.Email = data.Email
		r.PasswordHash = data.PasswordHash
		r.Phone = data.Phone
		r.VehicleType = data.VehicleType
		r.IsActive = true
		r.Status = StatusAvailable
		r.CreatedAt = data.RegisteredAt
		r.UpdatedAt = data.RegisteredAt
	case EventRiderClaimed:
		var data RiderClaimed
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.Status = StatusOnDelivery
		r.ActiveOrderID = data.OrderID
		r.TotalDeliveries++
		r.UpdatedAt = data.ClaimedAt
	case EventRiderClaimReleased:
		var data RiderClaimReleased
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.Status = StatusAvailable
		r.ActiveOrderID = ""
		r.UpdatedAt = data.ReleasedAt
	case EventRiderCompleted:
		var data RiderCompleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.Status = StatusAvailable
		r.ActiveOrderID = ""
		r.CompletedDeliveries++
		r.UpdatedAt = data.CompletedAt
	case EventRiderCancelled:
		var data RiderCancelled
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.Status = StatusAvailable
		r.ActiveOrderID = ""
		r.CancelledDeliveries++
		r.UpdatedAt = data.CancelledAt
	case EventLocationUpdated:
		var data LocationUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		t := data.UpdatedAt
		r.CurrentLocation = Location{
			Latitude:    data.Latitude,
			Longitude:   data.Longitude,
			LastUpdated: &t,
		}
		r.UpdatedAt = data.UpdatedAt
	case EventRiderStatusSet:
		var data RiderStatusSet
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.Status = data.Status
		r.UpdatedAt = data.SetAt
	case EventRiderActivationSet:
		var data RiderActivationSet
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		r.IsActive = data.IsActive
		r.UpdatedAt = data.SetAt
	}
	r.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) loadRider(ctx context.Context, riderID string) (*Rider, error) {
	r, found, err := aggregate.LoadAggregate(ctx, s.eventStore, riderID, func() *Rider {
		return &Rider{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrRiderNotFound
	}
	return r, nil
}

// Get returns the current rider state.
func (s *Service) Get(ctx context.Context, riderID string) (*Rider, error) {
	return s.loadRider(ctx, riderID)
}

func (s *Service) append(ctx context.Context, r *Rider, eventType string, data any) error {
	storedEvent, err := s.eventStore.Append(ctx, r.ID, AggregateType, eventType, data, r.Version)
	if err != nil {
		return err
	}

	if err := r.ApplyEvent(*storedEvent); err != nil {
		return err
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, r, AggregateType); err != nil {
		log.Printf("[Rider] Failed to create snapshot for rider %s: %v", r.ID, err)
	}
	return nil
}

// Register creates a rider account. The password arrives already hashed.
func (s *Service) Register(ctx context.Context, name, email, passwordHash, phone, vehicleType string) (*Rider, error) {
	if !ValidVehicle(vehicleType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVehicle, vehicleType)
	}

	riderID := uuid.New().String()
	event := RiderRegistered{
		RiderID:      riderID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Phone:        phone,
		VehicleType:  vehicleType,
		RegisteredAt: time.Now(),
	}

	r := &Rider{ID: riderID}
	if err := s.append(ctx, r, EventRiderRegistered, event); err != nil {
		return nil, err
	}
	return r, nil
}

// Claim atomically takes an available rider for an order. Two concurrent
// claims race on the expected version; the loser's append is rejected and
// surfaces as ErrRiderUnavailable, never a silent double assignment.
func (s *Service) Claim(ctx context.Context, riderID, orderID string) (*Rider, error) {
	r, err := s.loadRider(ctx, riderID)
	if err != nil {
		return nil, err
	}

	if !r.IsActive {
		return nil, ErrRiderInactive
	}
	if r.Status != StatusAvailable {
		return nil, ErrRiderUnavailable
	}

	event := RiderClaimed{
		RiderID:   riderID,
		OrderID:   orderID,
		ClaimedAt: time.Now(),
	}
	if err := s.append(ctx, r, EventRiderClaimed, event); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, ErrRiderUnavailable
		}
		return nil, err
	}
	return r, nil
}

// ReleaseClaim undoes a claim when the order-side assignment failed after
// the rider was already taken. The rider becomes available again; counters
// are left alone.
func (s *Service) ReleaseClaim(ctx context.Context, riderID, orderID string) error {
	r, err := s.loadRider(ctx, riderID)
	if err != nil {
		return err
	}

	event := RiderClaimReleased{
		RiderID:    riderID,
		OrderID:    orderID,
		ReleasedAt: time.Now(),
	}
	return s.append(ctx, r, EventRiderClaimReleased, event)
}

// CompleteDelivery releases the rider back to available and counts the
// completed delivery.
func (s *Service) CompleteDelivery(ctx context.Context, riderID, orderID string) (*Rider, error) {
	r, err := s.loadRider(ctx, riderID)
	if err != nil {
		return nil, err
	}

	event := RiderCompleted{
		RiderID:     riderID,
		OrderID:     orderID,
		CompletedAt: time.Now(),
	}
	if err := s.append(ctx, r, EventRiderCompleted, event); err != nil {
		return nil, err
	}
	return r, nil
}

// RecordCancellation releases the rider when their active order is cancelled
// and counts the cancelled delivery.
func (s *Service) RecordCancellation(ctx context.Context, riderID, orderID string) (*Rider, error) {
	r, err := s.loadRider(ctx, riderID)
	if err != nil {
		return nil, err
	}

	event := RiderCancelled{
		RiderID:     riderID,
		OrderID:     orderID,
		CancelledAt: time.Now(),
	}
	if err := s.append(ctx, r, EventRiderCancelled, event); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateLocation overwrites the rider's last known position. This is the
// rider half of a location ping; the order keeps the full history.
func (s *Service) UpdateLocation(ctx context.Context, riderID string, lat, lon float64) (*Rider, error) {
	r, err := s.loadRider(ctx, riderID)
	if err != nil {
		return nil, err
	}

	event := LocationUpdated{
		RiderID:   riderID,
		Latitude:  lat,
		Longitude: lon,
		UpdatedAt: time.Now(),
	}
	if err := s.append(ctx, r, EventLocationUpdated, event); err != nil {
		return nil, err
	}
	return r, nil
}

// SetStatus lets a rider toggle between available and offline. A rider with
// an active delivery cannot change status by hand.
func (s *Service) SetStatus(ctx context.Context, riderID string, status Status) (*Rider, error) {
	if status != StatusAvailable && status != StatusOffline {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRStatus, status)
	}

	r, err := s.loadRider(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if r.Status == StatusOnDelivery {
		return nil, ErrRiderOnDelivery
	}

	event := RiderStatusSet{
		RiderID: riderID,
		Status:  status,
		SetAt:   time.Now(),
	}
	if err := s.append(ctx, r, EventRiderStatusSet, event); err != nil {
		return nil, err
	}
	return r, nil
}

// SetActive activates or deactivates a rider account. Deactivation gates
// both login and future assignment; it does not interrupt an active delivery.
func (s *Service) SetActive(ctx context.Context, riderID string, active bool) (*Rider, error) {
	r, err := s.loadRider(ctx, riderID)
	if err != nil {
		return nil, err
	}

	event := RiderActivationSet{
		RiderID:  riderID,
		IsActive: active,
		SetAt:    time.Now(),
	}
	if err := s.append(ctx, r, EventRiderActivationSet, event); err != nil {
		return nil, err
	}
	return r, nil
}
