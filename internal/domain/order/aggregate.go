package order

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

const AggregateType = "Order"

// Status is the customer-facing commercial lifecycle of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// RiderStatus is the delivery sub-lifecycle, constrained by Status.
type RiderStatus string

const (
	RiderNotAssigned     RiderStatus = "Not Assigned"
	RiderAssigned        RiderStatus = "Assigned"
	RiderReadyToDispatch RiderStatus = "Ready to Dispatch"
	RiderOutForDelivery  RiderStatus = "Out for Delivery"
	RiderDelivered       RiderStatus = "Delivered"
	RiderFailed          RiderStatus = "Failed"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order must have at least one item")
	ErrInvalidStatus     = errors.New("invalid order status value")
	ErrInvalidTransition = errors.New("invalid order state transition")
	ErrOrderCancelled    = errors.New("order is already cancelled")
	ErrOrderDelivered    = errors.New("order is already delivered")
	ErrOrderShipped      = errors.New("cannot cancel an order that has shipped")
	ErrAlreadyAssigned   = errors.New("order already has a rider assigned")
	ErrDeliveryCompleted = errors.New("delivery is already completed")
	ErrProofRequired     = errors.New("proof of delivery image is required")
	ErrOrderNotCancelled = errors.New("only cancelled orders can be deleted")
)

// State is the combined (Status, RiderStatus) pair. Modelling both axes as
// one tagged state keeps illegal combinations like cancelled+OutForDelivery
// unrepresentable in the transition table.
type State struct {
	Status Status
	Rider  RiderStatus
}

// validTransitions defines allowed combined-state transitions. Admin status
// overrides go through SetStatus, which skips the per-edge checks but still
// refuses to leave a terminal state and normalizes the rider axis so the
// resulting pair is always one of these keys.
var validTransitions = map[State][]State{
	{StatusPending, RiderNotAssigned}: {
		{StatusPaid, RiderNotAssigned},
		{StatusShipped, RiderNotAssigned},
		{StatusCancelled, RiderNotAssigned},
		{StatusPending, RiderAssigned},
	},
	{StatusPaid, RiderNotAssigned}: {
		{StatusShipped, RiderNotAssigned},
		{StatusCancelled, RiderNotAssigned},
		{StatusPaid, RiderAssigned},
	},
	{StatusShipped, RiderNotAssigned}: {
		{StatusDelivered, RiderNotAssigned},
		{StatusCancelled, RiderNotAssigned},
		{StatusShipped, RiderAssigned},
	},
	{StatusPending, RiderAssigned}: {
		{StatusPaid, RiderAssigned},
		{StatusPending, RiderReadyToDispatch},
		{StatusShipped, RiderOutForDelivery},
		{StatusCancelled, RiderNotAssigned},
	},
	{StatusPaid, RiderAssigned}: {
		{StatusPaid, RiderReadyToDispatch},
		{StatusShipped, RiderOutForDelivery},
		{StatusCancelled, RiderNotAssigned},
	},
	{StatusShipped, RiderAssigned}: {
		{StatusShipped, RiderReadyToDispatch},
		{StatusShipped, RiderOutForDelivery},
		{StatusCancelled, RiderNotAssigned},
	},
	{StatusPending, RiderReadyToDispatch}: {
		{StatusPaid, RiderReadyToDispatch},
		{StatusShipped, RiderOutForDelivery},
		{StatusCancelled, RiderNotAssigned},
	},
	{StatusPaid, RiderReadyToDispatch}: {
		{StatusShipped, RiderOutForDelivery},
		{StatusCancelled, RiderNotAssigned},
	},
	{StatusShipped, RiderReadyToDispatch}: {
		{StatusShipped, RiderOutForDelivery},
		{StatusCancelled, RiderNotAssigned},
	},
	{StatusShipped, RiderOutForDelivery}: {
		{StatusDelivered, RiderDelivered},
		{StatusShipped, RiderFailed},
		{StatusCancelled, RiderNotAssigned},
	},
	{StatusShipped, RiderFailed}: {
		{StatusShipped, RiderOutForDelivery},
		{StatusCancelled, RiderNotAssigned},
	},
	// terminal states
	{StatusDelivered, RiderDelivered}:   {},
	{StatusDelivered, RiderNotAssigned}: {},
	{StatusCancelled, RiderNotAssigned}: {},
}

// ValidStatus reports whether s is one of the five known status values.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     int             `json:"total_amount"`
	Status          Status          `json:"status"`
	RiderStatus     RiderStatus     `json:"rider_status"`
	AssignedRider   string          `json:"assigned_rider,omitempty"`
	DeliveryDate    *time.Time      `json:"delivery_date,omitempty"`
	DeliveryAddress Address         `json:"delivery_address"`
	TrackingUpdates []TrackingPoint `json:"tracking_updates,omitempty"`
	ProofOfDelivery *Proof          `json:"proof_of_delivery,omitempty"`
	AssignedAt      *time.Time      `json:"assigned_at,omitempty"`
	DispatchedAt    *time.Time      `json:"dispatched_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Deleted         bool            `json:"deleted,omitempty"`
	Version         int             `json:"version"` // Current event version
}

// Aggregate interface implementation
func (o *Order) GetID() string    { return o.ID }
func (o *Order) GetVersion() int  { return o.Version }
func (o *Order) SetVersion(v int) { o.Version = v }

// State returns the combined lifecycle pair.
func (o *Order) State() State {
	return State{Status: o.Status, Rider: o.RiderStatus}
}

// CanTransitionTo checks if the order can move to the target combined state
func (o *Order) CanTransitionTo(target State) bool {
	allowed, exists := validTransitions[o.State()]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// transitionError returns an appropriate error for an invalid transition
func (o *Order) transitionError(target State) error {
	switch {
	case o.Status == StatusCancelled:
		return ErrOrderCancelled
	case o.Status == StatusDelivered:
		return ErrOrderDelivered
	case o.RiderStatus == RiderDelivered:
		return ErrDeliveryCompleted
	case target.Rider == RiderAssigned && o.RiderStatus != RiderNotAssigned:
		return ErrAlreadyAssigned
	default:
		return fmt.Errorf("%w: cannot transition from %s/%s to %s/%s",
			ErrInvalidTransition, o.Status, o.RiderStatus, target.Status, target.Rider)
	}
}

// ApplyEvent applies a single event to the order state (implements aggregate.Aggregate)
func (o *Order) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventOrderCreated:
		var data OrderCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.ID = data.OrderID
		o.UserID = data.UserID
		o.Items = data.Items
		o.TotalAmount = data.TotalAmount
		o.DeliveryAddress = data.DeliveryAddress
		o.Status = StatusPending
		o.RiderStatus = RiderNotAssigned
		o.CreatedAt = data.CreatedAt
		o.UpdatedAt = data.CreatedAt
	case EventOrderCancelled:
		var data OrderCancelled
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusCancelled
		o.RiderStatus = RiderNotAssigned
		o.UpdatedAt = data.CancelledAt
	case EventOrderStatusSet:
		var data OrderStatusSet
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = data.Status
		o.RiderStatus = data.RiderStatus
		if data.Status == StatusDelivered && o.DeliveredAt == nil {
			t := data.SetAt
			o.DeliveredAt = &t
		}
		o.UpdatedAt = data.SetAt
	case EventOrderDeleted:
		var data OrderDeleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Deleted = true
		o.UpdatedAt = data.DeletedAt
	case EventRiderAssigned:
		var data OrderRiderAssigned
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.AssignedRider = data.RiderID
		o.RiderStatus = RiderAssigned
		t := data.AssignedAt
		o.AssignedAt = &t
		o.UpdatedAt = data.AssignedAt
	case EventDeliveryDateSet:
		var data DeliveryDateSet
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		d := data.DeliveryDate
		o.DeliveryDate = &d
		o.UpdatedAt = data.SetAt
	case EventMarkedReady:
		var data MarkedReady
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.RiderStatus = RiderReadyToDispatch
		o.UpdatedAt = data.ReadyAt
	case EventDeliveryStarted:
		var data DeliveryStarted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusShipped
		o.RiderStatus = RiderOutForDelivery
		o.TrackingUpdates = append(o.TrackingUpdates, data.Point)
		t := data.StartedAt
		o.DispatchedAt = &t
		o.UpdatedAt = data.StartedAt
	case EventTrackingAppended:
		var data TrackingAppended
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.TrackingUpdates = append(o.TrackingUpdates, data.Point)
		o.UpdatedAt = data.Point.Timestamp
	case EventDeliveryCompleted:
		var data DeliveryCompleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.Status = StatusDelivered
		o.RiderStatus = RiderDelivered
		p := data.Proof
		o.ProofOfDelivery = &p
		t := data.CompletedAt
		o.DeliveredAt = &t
		o.UpdatedAt = data.CompletedAt
	case EventDeliveryFailed:
		var data DeliveryFailed
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		o.RiderStatus = RiderFailed
		o.UpdatedAt = data.FailedAt
	}
	o.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// loadOrder loads an order by replaying events, using snapshot if available
func (s *Service) loadOrder(ctx context.Context, orderID string) (*Order, error) {
	ord, found, err := aggregate.LoadAggregate(ctx, s.eventStore, orderID, func() *Order {
		return &Order{}
	})
	if err != nil {
		return nil, err
	}
	if !found || ord.Deleted {
		return nil, ErrOrderNotFound
	}
	return ord, nil
}

// Get returns the current order state.
func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	return s.loadOrder(ctx, orderID)
}

// append records the event against the order's current version and bumps the
// in-memory aggregate, then snapshots if due.
func (s *Service) append(ctx context.Context, ord *Order, eventType string, data any) error {
	storedEvent, err := s.eventStore.Append(ctx, ord.ID, AggregateType, eventType, data, ord.Version)
	if err != nil {
		return err
	}

	if err := ord.ApplyEvent(*storedEvent); err != nil {
		return err
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, ord, AggregateType); err != nil {
		log.Printf("[Order] Failed to create snapshot for order %s: %v", ord.ID, err)
	}
	return nil
}

// Create records a new order from an already-reserved set of items. Stock
// reservation happens before this in the command handler, keyed by the same
// orderID; an empty orderID gets a generated one.
func (s *Service) Create(ctx context.Context, orderID, userID string, items []OrderItem, address Address) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	if orderID == "" {
		orderID = uuid.New().String()
	}
	now := time.Now()

	var total int
	for _, item := range items {
		total += item.UnitPrice * item.Quantity
	}

	event := OrderCreated{
		OrderID:         orderID,
		UserID:          userID,
		Items:           items,
		TotalAmount:     total,
		DeliveryAddress: address,
		CreatedAt:       now,
	}

	ord := &Order{ID: orderID}
	if err := s.append(ctx, ord, EventOrderCreated, event); err != nil {
		return nil, err
	}
	return ord, nil
}

// Cancel is the customer-initiated cancellation. It is refused once the
// order has shipped; admins go through SetStatus instead.
func (s *Service) Cancel(ctx context.Context, orderID, cancelledBy, reason string) (*Order, error) {
	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch ord.Status {
	case StatusCancelled:
		return nil, ErrOrderCancelled
	case StatusDelivered:
		return nil, ErrOrderDelivered
	case StatusShipped:
		return nil, ErrOrderShipped
	}

	target := State{StatusCancelled, RiderNotAssigned}
	if !ord.CanTransitionTo(target) {
		return nil, ord.transitionError(target)
	}

	event := OrderCancelled{
		OrderID:     orderID,
		CancelledBy: cancelledBy,
		Reason:      reason,
		CancelledAt: time.Now(),
	}
	if err := s.append(ctx, ord, EventOrderCancelled, event); err != nil {
		return nil, err
	}
	return ord, nil
}

// SetStatus is the admin override path: a direct set to any of the five
// status values, with the rider axis normalized to keep the combined state
// one the transition table knows. Delivered and cancelled stay terminal even
// here; re-setting the same terminal status is accepted so a repeated cancel
// stays idempotent, but it must not re-release stock. Returns the order and
// the combined state it held before the change so the caller can decide on
// stock and rider release.
func (s *Service) SetStatus(ctx context.Context, orderID string, target Status, reason string) (*Order, State, error) {
	if !ValidStatus(target) {
		return nil, State{}, fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}

	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, State{}, err
	}
	previous := ord.State()

	if previous.Status == StatusDelivered && target != StatusDelivered {
		return nil, State{}, ErrOrderDelivered
	}
	if previous.Status == StatusCancelled && target != StatusCancelled {
		return nil, State{}, ErrOrderCancelled
	}

	var riderAxis RiderStatus
	switch target {
	case StatusCancelled:
		riderAxis = RiderNotAssigned
	case StatusDelivered:
		if ord.AssignedRider != "" {
			riderAxis = RiderDelivered
		} else {
			riderAxis = RiderNotAssigned
		}
	default:
		riderAxis = ord.RiderStatus
		// OutForDelivery and Failed only pair with shipped. Stepping the
		// order back before shipment keeps the rider attached but returns
		// the delivery flow to Assigned, so it can restart cleanly.
		if target != StatusShipped && (riderAxis == RiderOutForDelivery || riderAxis == RiderFailed) {
			riderAxis = RiderAssigned
		}
	}

	event := OrderStatusSet{
		OrderID:     orderID,
		Status:      target,
		RiderStatus: riderAxis,
		Reason:      reason,
		SetAt:       time.Now(),
	}
	if err := s.append(ctx, ord, EventOrderStatusSet, event); err != nil {
		return nil, State{}, err
	}
	return ord, previous, nil
}

// Delete hard-removes an order from the read side. Only cancelled orders may
// be deleted; ledger entries survive independently.
func (s *Service) Delete(ctx context.Context, orderID string) error {
	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if ord.Status != StatusCancelled {
		return ErrOrderNotCancelled
	}

	event := OrderDeleted{
		OrderID:   orderID,
		DeletedAt: time.Now(),
	}
	return s.append(ctx, ord, EventOrderDeleted, event)
}

// AssignRider records the rider on the order. The rider aggregate must be
// claimed (Available -> OnDelivery) before this is called; the claim is the
// guard against double assignment, this is bookkeeping on the order side.
func (s *Service) AssignRider(ctx context.Context, orderID, riderID string) (*Order, error) {
	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	target := State{ord.Status, RiderAssigned}
	if !ord.CanTransitionTo(target) {
		return nil, ord.transitionError(target)
	}

	event := OrderRiderAssigned{
		OrderID:    orderID,
		RiderID:    riderID,
		AssignedAt: time.Now(),
	}
	if err := s.append(ctx, ord, EventRiderAssigned, event); err != nil {
		return nil, err
	}
	return ord, nil
}

// SetDeliveryDate records the scheduled delivery date on an open order.
func (s *Service) SetDeliveryDate(ctx context.Context, orderID string, date time.Time) (*Order, error) {
	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if ord.Status == StatusCancelled {
		return nil, ErrOrderCancelled
	}
	if ord.Status == StatusDelivered {
		return nil, ErrOrderDelivered
	}

	event := DeliveryDateSet{
		OrderID:      orderID,
		DeliveryDate: date,
		SetAt:        time.Now(),
	}
	if err := s.append(ctx, ord, EventDeliveryDateSet, event); err != nil {
		return nil, err
	}
	return ord, nil
}

// MarkReady is the rider's "picked up, ready to dispatch" transition.
// A mismatched rider sees not-found, never another rider's order.
func (s *Service) MarkReady(ctx context.Context, orderID, riderID string) (*Order, error) {
	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.AssignedRider != riderID {
		return nil, ErrOrderNotFound
	}

	target := State{ord.Status, RiderReadyToDispatch}
	if !ord.CanTransitionTo(target) {
		return nil, ord.transitionError(target)
	}

	event := MarkedReady{
		OrderID: orderID,
		RiderID: riderID,
		ReadyAt: time.Now(),
	}
	if err := s.append(ctx, ord, EventMarkedReady, event); err != nil {
		return nil, err
	}
	return ord, nil
}

// StartDelivery moves the order out for delivery: the commercial status flips
// to shipped and the first tracking point is recorded in the same event.
func (s *Service) StartDelivery(ctx context.Context, orderID, riderID string, point TrackingPoint) (*Order, error) {
	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.AssignedRider != riderID {
		return nil, ErrOrderNotFound
	}

	target := State{StatusShipped, RiderOutForDelivery}
	if !ord.CanTransitionTo(target) {
		return nil, ord.transitionError(target)
	}

	point.Timestamp = time.Now()
	event := DeliveryStarted{
		OrderID:   orderID,
		RiderID:   riderID,
		Point:     point,
		StartedAt: point.Timestamp,
	}
	if err := s.append(ctx, ord, EventDeliveryStarted, event); err != nil {
		return nil, err
	}
	return ord, nil
}

// AppendTracking records one GPS sample on the order's route history.
// Location pings are frequent, best-effort telemetry: when no active
// delivery matches, the ping is dropped silently rather than failing the
// rider's device. Returns the number of stored points.
func (s *Service) AppendTracking(ctx context.Context, orderID, riderID string, point TrackingPoint) (int, error) {
	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if ord.AssignedRider != riderID || ord.RiderStatus != RiderOutForDelivery {
		return len(ord.TrackingUpdates), nil
	}

	point.Timestamp = time.Now()
	event := TrackingAppended{
		OrderID: orderID,
		RiderID: riderID,
		Point:   point,
	}
	if err := s.append(ctx, ord, EventTrackingAppended, event); err != nil {
		return len(ord.TrackingUpdates), err
	}
	return len(ord.TrackingUpdates), nil
}

// CompleteDelivery terminates the delivery with mandatory proof. A second
// call on an already delivered order is rejected, never reapplied.
func (s *Service) CompleteDelivery(ctx context.Context, orderID, riderID string, proof Proof) (*Order, error) {
	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.AssignedRider != riderID {
		return nil, ErrOrderNotFound
	}
	if ord.RiderStatus == RiderDelivered {
		return nil, ErrDeliveryCompleted
	}
	if proof.ImageURL == "" {
		return nil, ErrProofRequired
	}

	target := State{StatusDelivered, RiderDelivered}
	if !ord.CanTransitionTo(target) {
		return nil, ord.transitionError(target)
	}

	now := time.Now()
	if proof.UploadedAt.IsZero() {
		proof.UploadedAt = now
	}
	event := DeliveryCompleted{
		OrderID:     orderID,
		RiderID:     riderID,
		Proof:       proof,
		CompletedAt: now,
	}
	if err := s.append(ctx, ord, EventDeliveryCompleted, event); err != nil {
		return nil, err
	}
	return ord, nil
}

// FailDelivery records a failed delivery attempt. The order stays shipped
// with the rider axis at failed; it can be re-dispatched or cancelled.
func (s *Service) FailDelivery(ctx context.Context, orderID, riderID, reason string) (*Order, error) {
	ord, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.AssignedRider != riderID {
		return nil, ErrOrderNotFound
	}

	target := State{StatusShipped, RiderFailed}
	if !ord.CanTransitionTo(target) {
		return nil, ord.transitionError(target)
	}

	event := DeliveryFailed{
		OrderID:  orderID,
		RiderID:  riderID,
		Reason:   reason,
		FailedAt: time.Now(),
	}
	if err := s.append(ctx, ord, EventDeliveryFailed, event); err != nil {
		return nil, err
	}
	return ord, nil
}
