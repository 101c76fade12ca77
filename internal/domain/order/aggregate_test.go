package order

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-dispatch/internal/infrastructure/store"
	"github.com/example/ec-dispatch/internal/infrastructure/store/mocks"
)

func newTestOrderService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	return service, eventStore
}

func seedOrder(es *mocks.MockEventStore, orderID string) {
	_ = es.AddEvent(orderID, AggregateType, EventOrderCreated, OrderCreated{
		OrderID: orderID,
		UserID:  "user-1",
		Items: []OrderItem{
			{ProductID: "prod-1", Quantity: 2, UnitPrice: 1000},
		},
		TotalAmount: 2000,
		CreatedAt:   time.Now(),
	})
}

func seedAssignedOrder(es *mocks.MockEventStore, orderID, riderID string) {
	seedOrder(es, orderID)
	_ = es.AddEvent(orderID, AggregateType, EventOrderStatusSet, OrderStatusSet{
		OrderID: orderID, Status: StatusPaid, RiderStatus: RiderNotAssigned, SetAt: time.Now(),
	})
	_ = es.AddEvent(orderID, AggregateType, EventRiderAssigned, OrderRiderAssigned{
		OrderID: orderID, RiderID: riderID, AssignedAt: time.Now(),
	})
}

func seedOutForDelivery(es *mocks.MockEventStore, orderID, riderID string) {
	seedAssignedOrder(es, orderID, riderID)
	_ = es.AddEvent(orderID, AggregateType, EventMarkedReady, MarkedReady{
		OrderID: orderID, RiderID: riderID, ReadyAt: time.Now(),
	})
	_ = es.AddEvent(orderID, AggregateType, EventDeliveryStarted, DeliveryStarted{
		OrderID: orderID, RiderID: riderID,
		Point:     TrackingPoint{Latitude: 35.68, Longitude: 139.76, Timestamp: time.Now()},
		StartedAt: time.Now(),
	})
}

// ============================================
// Create Tests
// ============================================

func TestService_Create_Success(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	items := []OrderItem{
		{ProductID: "prod-1", Quantity: 2, UnitPrice: 1000},
		{ProductID: "prod-2", Quantity: 1, UnitPrice: 2000},
	}

	ord, err := service.Create(ctx, "order-1", "user-123", items, Address{City: "Springfield"})

	require.NoError(t, err)
	assert.Equal(t, "order-1", ord.ID)
	assert.Equal(t, "user-123", ord.UserID)
	assert.Equal(t, 4000, ord.TotalAmount)
	assert.Equal(t, StatusPending, ord.Status)
	assert.Equal(t, RiderNotAssigned, ord.RiderStatus)

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventOrderCreated, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, AggregateType, eventStore.AppendCalls[0].AggregateType)
	assert.Equal(t, 0, eventStore.AppendCalls[0].ExpectedVersion)
}

func TestService_Create_GeneratesID(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	ord, err := service.Create(ctx, "", "user-123", []OrderItem{
		{ProductID: "prod-1", Quantity: 1, UnitPrice: 500},
	}, Address{})

	require.NoError(t, err)
	assert.NotEmpty(t, ord.ID)
}

func TestService_Create_EmptyItems(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	ord, err := service.Create(ctx, "order-1", "user-123", nil, Address{})

	assert.ErrorIs(t, err, ErrEmptyOrder)
	assert.Nil(t, ord)
	assert.Empty(t, eventStore.AppendCalls)
}

// ============================================
// Cancel Tests
// ============================================

func TestService_Cancel_FromPending(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOrder(eventStore, "order-1")

	ord, err := service.Cancel(ctx, "order-1", "user-1", "changed my mind")

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, ord.Status)
	assert.Equal(t, RiderNotAssigned, ord.RiderStatus)
	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventOrderCancelled, eventStore.AppendCalls[0].EventType)
}

func TestService_Cancel_WithAssignedRider(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedAssignedOrder(eventStore, "order-1", "rider-1")

	ord, err := service.Cancel(ctx, "order-1", "user-1", "")

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, ord.Status)
	assert.Equal(t, RiderNotAssigned, ord.RiderStatus)
}

func TestService_Cancel_NotFound(t *testing.T) {
	service, _ := newTestOrderService()
	ctx := context.Background()

	_, err := service.Cancel(ctx, "missing", "user-1", "")

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestService_Cancel_AlreadyCancelled(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOrder(eventStore, "order-1")
	_ = eventStore.AddEvent("order-1", AggregateType, EventOrderCancelled, OrderCancelled{
		OrderID: "order-1", CancelledAt: time.Now(),
	})

	_, err := service.Cancel(ctx, "order-1", "user-1", "")

	assert.ErrorIs(t, err, ErrOrderCancelled)
}

func TestService_Cancel_AfterShipment(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOutForDelivery(eventStore, "order-1", "rider-1")

	_, err := service.Cancel(ctx, "order-1", "user-1", "")

	assert.ErrorIs(t, err, ErrOrderShipped)
}

func TestService_Cancel_AfterDelivery(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOutForDelivery(eventStore, "order-1", "rider-1")
	_ = eventStore.AddEvent("order-1", AggregateType, EventDeliveryCompleted, DeliveryCompleted{
		OrderID: "order-1", RiderID: "rider-1",
		Proof:       Proof{ImageURL: "https://cdn.example.com/p.jpg", UploadedAt: time.Now()},
		CompletedAt: time.Now(),
	})

	_, err := service.Cancel(ctx, "order-1", "user-1", "")

	assert.ErrorIs(t, err, ErrOrderDelivered)
}

// ============================================
// SetStatus Tests (admin override)
// ============================================

func TestService_SetStatus_ToPaid(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOrder(eventStore, "order-1")

	ord, previous, err := service.SetStatus(ctx, "order-1", StatusPaid, "payment confirmed")

	require.NoError(t, err)
	assert.Equal(t, State{StatusPending, RiderNotAssigned}, previous)
	assert.Equal(t, StatusPaid, ord.Status)
	assert.Equal(t, RiderNotAssigned, ord.RiderStatus)
}

func TestService_SetStatus_InvalidValue(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOrder(eventStore, "order-1")

	_, _, err := service.SetStatus(ctx, "order-1", "refunded", "")

	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_SetStatus_CancelNormalizesRiderAxis(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOutForDelivery(eventStore, "order-1", "rider-1")

	ord, previous, err := service.SetStatus(ctx, "order-1", StatusCancelled, "fraud")

	require.NoError(t, err)
	assert.Equal(t, State{StatusShipped, RiderOutForDelivery}, previous)
	assert.Equal(t, StatusCancelled, ord.Status)
	assert.Equal(t, RiderNotAssigned, ord.RiderStatus)
}

func TestService_SetStatus_DeliveredWithRider(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOutForDelivery(eventStore, "order-1", "rider-1")

	ord, _, err := service.SetStatus(ctx, "order-1", StatusDelivered, "")

	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, ord.Status)
	assert.Equal(t, RiderDelivered, ord.RiderStatus)
}

func TestService_SetStatus_DeliveredWithoutRider(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOrder(eventStore, "order-1")

	ord, _, err := service.SetStatus(ctx, "order-1", StatusDelivered, "picked up in store")

	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, ord.Status)
	assert.Equal(t, RiderNotAssigned, ord.RiderStatus)
}

func TestService_SetStatus_RepeatedCancelReportsPreviousState(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOrder(eventStore, "order-1")
	_ = eventStore.AddEvent("order-1", AggregateType, EventOrderCancelled, OrderCancelled{
		OrderID: "order-1", CancelledAt: time.Now(),
	})

	_, previous, err := service.SetStatus(ctx, "order-1", StatusCancelled, "")

	// Accepted, but the caller sees it was already cancelled and must not
	// release stock again.
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, previous.Status)
}

func TestService_SetStatus_DeliveredIsTerminal(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOutForDelivery(eventStore, "order-1", "rider-1")
	_, _, err := service.SetStatus(ctx, "order-1", StatusDelivered, "")
	require.NoError(t, err)
	appended := len(eventStore.AppendCalls)

	_, _, err = service.SetStatus(ctx, "order-1", StatusPending, "undo")

	assert.ErrorIs(t, err, ErrOrderDelivered)
	assert.Len(t, eventStore.AppendCalls, appended)

	// The order must not reappear in the customer's cancellable set either.
	_, err = service.Cancel(ctx, "order-1", "user-1", "changed my mind")
	assert.ErrorIs(t, err, ErrOrderDelivered)
}

func TestService_SetStatus_CancelledIsTerminal(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOrder(eventStore, "order-1")
	_ = eventStore.AddEvent("order-1", AggregateType, EventOrderCancelled, OrderCancelled{
		OrderID: "order-1", CancelledAt: time.Now(),
	})

	// Reactivating would bring the order back without re-reserving the
	// stock the cancellation released.
	_, _, err := service.SetStatus(ctx, "order-1", StatusPaid, "reactivate")

	assert.ErrorIs(t, err, ErrOrderCancelled)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_SetStatus_StepBackReturnsRiderToAssigned(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOutForDelivery(eventStore, "order-1", "rider-1")

	ord, previous, err := service.SetStatus(ctx, "order-1", StatusPaid, "payment dispute")

	require.NoError(t, err)
	assert.Equal(t, State{StatusShipped, RiderOutForDelivery}, previous)
	assert.Equal(t, State{StatusPaid, RiderAssigned}, ord.State())
	assert.Equal(t, "rider-1", ord.AssignedRider)
}

// ============================================
// Delete Tests
// ============================================

func TestService_Delete_RequiresCancelled(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOrder(eventStore, "order-1")

	err := service.Delete(ctx, "order-1")

	assert.ErrorIs(t, err, ErrOrderNotCancelled)
}

func TestService_Delete_Cancelled(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOrder(eventStore, "order-1")
	_ = eventStore.AddEvent("order-1", AggregateType, EventOrderCancelled, OrderCancelled{
		OrderID: "order-1", CancelledAt: time.Now(),
	})

	err := service.Delete(ctx, "order-1")

	require.NoError(t, err)

	// A deleted order is gone for every subsequent operation
	_, err = service.Get(ctx, "order-1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

// ============================================
// AssignRider Tests
// ============================================

func TestService_AssignRider_Success(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOrder(eventStore, "order-1")

	ord, err := service.AssignRider(ctx, "order-1", "rider-1")

	require.NoError(t, err)
	assert.Equal(t, "rider-1", ord.AssignedRider)
	assert.Equal(t, RiderAssigned, ord.RiderStatus)
	assert.Equal(t, StatusPending, ord.Status)
}

func TestService_AssignRider_AlreadyAssigned(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedAssignedOrder(eventStore, "order-1", "rider-1")

	_, err := service.AssignRider(ctx, "order-1", "rider-2")

	assert.ErrorIs(t, err, ErrAlreadyAssigned)
}

func TestService_AssignRider_CancelledOrder(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOrder(eventStore, "order-1")
	_ = eventStore.AddEvent("order-1", AggregateType, EventOrderCancelled, OrderCancelled{
		OrderID: "order-1", CancelledAt: time.Now(),
	})

	_, err := service.AssignRider(ctx, "order-1", "rider-1")

	assert.ErrorIs(t, err, ErrOrderCancelled)
}

// ============================================
// MarkReady / StartDelivery Tests
// ============================================

func TestService_MarkReady_Success(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedAssignedOrder(eventStore, "order-1", "rider-1")

	ord, err := service.MarkReady(ctx, "order-1", "rider-1")

	require.NoError(t, err)
	assert.Equal(t, RiderReadyToDispatch, ord.RiderStatus)
}

func TestService_MarkReady_WrongRider(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedAssignedOrder(eventStore, "order-1", "rider-1")

	_, err := service.MarkReady(ctx, "order-1", "rider-2")

	// another rider's order looks like a missing order
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestService_StartDelivery_Success(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedAssignedOrder(eventStore, "order-1", "rider-1")
	_ = eventStore.AddEvent("order-1", AggregateType, EventMarkedReady, MarkedReady{
		OrderID: "order-1", RiderID: "rider-1", ReadyAt: time.Now(),
	})

	ord, err := service.StartDelivery(ctx, "order-1", "rider-1", TrackingPoint{Latitude: 35.68, Longitude: 139.76})

	require.NoError(t, err)
	assert.Equal(t, StatusShipped, ord.Status)
	assert.Equal(t, RiderOutForDelivery, ord.RiderStatus)
	require.Len(t, ord.TrackingUpdates, 1)
	assert.False(t, ord.TrackingUpdates[0].Timestamp.IsZero())
}

func TestService_StartDelivery_SkipReadyFromAssigned(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedAssignedOrder(eventStore, "order-1", "rider-1")

	ord, err := service.StartDelivery(ctx, "order-1", "rider-1", TrackingPoint{})

	require.NoError(t, err)
	assert.Equal(t, RiderOutForDelivery, ord.RiderStatus)
}

func TestService_StartDelivery_Twice(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOutForDelivery(eventStore, "order-1", "rider-1")

	_, err := service.StartDelivery(ctx, "order-1", "rider-1", TrackingPoint{})

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// ============================================
// AppendTracking Tests
// ============================================

func TestService_AppendTracking_Success(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOutForDelivery(eventStore, "order-1", "rider-1")

	count, err := service.AppendTracking(ctx, "order-1", "rider-1", TrackingPoint{Latitude: 35.69, Longitude: 139.77})

	require.NoError(t, err)
	assert.Equal(t, 2, count) // start point + this one
}

func TestService_AppendTracking_UnknownOrderIsDropped(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	count, err := service.AppendTracking(ctx, "missing", "rider-1", TrackingPoint{})

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_AppendTracking_WrongRiderIsDropped(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOutForDelivery(eventStore, "order-1", "rider-1")

	_, err := service.AppendTracking(ctx, "order-1", "rider-2", TrackingPoint{})

	require.NoError(t, err)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_AppendTracking_BeforeDispatchIsDropped(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedAssignedOrder(eventStore, "order-1", "rider-1")

	count, err := service.AppendTracking(ctx, "order-1", "rider-1", TrackingPoint{})

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, eventStore.AppendCalls)
}

// ============================================
// CompleteDelivery Tests
// ============================================

func TestService_CompleteDelivery_Success(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOutForDelivery(eventStore, "order-1", "rider-1")

	ord, err := service.CompleteDelivery(ctx, "order-1", "rider-1", Proof{
		ImageURL:  "https://cdn.example.com/proof.jpg",
		Signature: "sig",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, ord.Status)
	assert.Equal(t, RiderDelivered, ord.RiderStatus)
	require.NotNil(t, ord.ProofOfDelivery)
	assert.False(t, ord.ProofOfDelivery.UploadedAt.IsZero())
}

func TestService_CompleteDelivery_ProofRequired(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOutForDelivery(eventStore, "order-1", "rider-1")

	_, err := service.CompleteDelivery(ctx, "order-1", "rider-1", Proof{})

	assert.ErrorIs(t, err, ErrProofRequired)
}

func TestService_CompleteDelivery_Twice(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOutForDelivery(eventStore, "order-1", "rider-1")
	_ = eventStore.AddEvent("order-1", AggregateType, EventDeliveryCompleted, DeliveryCompleted{
		OrderID: "order-1", RiderID: "rider-1",
		Proof:       Proof{ImageURL: "https://cdn.example.com/p.jpg", UploadedAt: time.Now()},
		CompletedAt: time.Now(),
	})

	_, err := service.CompleteDelivery(ctx, "order-1", "rider-1", Proof{ImageURL: "x"})

	assert.ErrorIs(t, err, ErrDeliveryCompleted)
}

// ============================================
// FailDelivery Tests
// ============================================

func TestService_FailDelivery_ThenRetry(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOutForDelivery(eventStore, "order-1", "rider-1")

	ord, err := service.FailDelivery(ctx, "order-1", "rider-1", "nobody home")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, ord.Status)
	assert.Equal(t, RiderFailed, ord.RiderStatus)

	// A failed delivery can go back out
	ord, err = service.StartDelivery(ctx, "order-1", "rider-1", TrackingPoint{})
	require.NoError(t, err)
	assert.Equal(t, RiderOutForDelivery, ord.RiderStatus)
}

func TestService_FailDelivery_NotOutForDelivery(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedAssignedOrder(eventStore, "order-1", "rider-1")

	_, err := service.FailDelivery(ctx, "order-1", "rider-1", "")

	assert.ErrorIs(t, err, ErrInvalidTransition)
}

// ============================================
// Concurrency Tests
// ============================================

func TestService_Append_VersionConflict(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOrder(eventStore, "order-1")

	// A concurrent writer bumped the aggregate between load and append
	eventStore.AppendErr = store.ErrVersionConflict

	_, err := service.Cancel(ctx, "order-1", "user-1", "")

	assert.ErrorIs(t, err, store.ErrVersionConflict)
}

// ============================================
// Snapshot Tests
// ============================================

func TestService_SnapshotCreatedAtThreshold(t *testing.T) {
	service, eventStore := newTestOrderService()
	ctx := context.Background()

	seedOrder(eventStore, "order-1")

	// Drive the aggregate past the snapshot threshold with date changes
	for i := 0; i < store.SnapshotThreshold; i++ {
		_, err := service.SetDeliveryDate(ctx, "order-1", time.Now().AddDate(0, 0, i+1))
		require.NoError(t, err)
	}

	snap, err := eventStore.GetSnapshot(ctx, "order-1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, AggregateType, snap.AggregateType)
	assert.GreaterOrEqual(t, snap.Version, store.SnapshotThreshold)
}
