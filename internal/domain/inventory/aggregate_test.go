package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-dispatch/internal/infrastructure/store"
	"github.com/example/ec-dispatch/internal/infrastructure/store/mocks"
)

func newTestInventoryService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	return service, eventStore
}

func seedStock(es *mocks.MockEventStore, productID string, quantity int) {
	_ = es.AddEvent(productID, AggregateType, EventStockAdded, StockAdded{
		ProductID: productID,
		ActorID:   "admin-1",
		Quantity:  quantity,
		Reason:    "initial stock",
		AddedAt:   time.Now(),
	})
}

// ============================================
// Stock / CheckAvailable Tests
// ============================================

func TestService_Stock_NoHistory(t *testing.T) {
	service, _ := newTestInventoryService()
	ctx := context.Background()

	stock, err := service.Stock(ctx, "prod-1")

	require.NoError(t, err)
	assert.Equal(t, 0, stock)
}

func TestService_CheckAvailable_Success(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	seedStock(eventStore, "prod-1", 10)

	err := service.CheckAvailable(ctx, "prod-1", 10)

	require.NoError(t, err)
	// check must not mutate anything
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_CheckAvailable_Insufficient(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	seedStock(eventStore, "prod-1", 3)

	err := service.CheckAvailable(ctx, "prod-1", 4)

	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestService_CheckAvailable_InvalidQuantity(t *testing.T) {
	service, _ := newTestInventoryService()
	ctx := context.Background()

	assert.ErrorIs(t, service.CheckAvailable(ctx, "prod-1", 0), ErrInvalidQuantity)
	assert.ErrorIs(t, service.CheckAvailable(ctx, "prod-1", -1), ErrInvalidQuantity)
}

// ============================================
// AddStock Tests
// ============================================

func TestService_AddStock_Accumulates(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	require.NoError(t, service.AddStock(ctx, "prod-1", "admin-1", 5, "restock"))
	require.NoError(t, service.AddStock(ctx, "prod-1", "admin-1", 7, "restock"))

	stock, err := service.Stock(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 12, stock)

	require.Len(t, eventStore.AppendCalls, 2)
	assert.Equal(t, EventStockAdded, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, 0, eventStore.AppendCalls[0].ExpectedVersion)
	assert.Equal(t, 1, eventStore.AppendCalls[1].ExpectedVersion)
}

func TestService_AddStock_InvalidQuantity(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	err := service.AddStock(ctx, "prod-1", "admin-1", 0, "")

	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Empty(t, eventStore.AppendCalls)
}

// ============================================
// Reserve Tests
// ============================================

func TestService_Reserve_Success(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	seedStock(eventStore, "prod-1", 10)

	err := service.Reserve(ctx, "prod-1", "order-1", "user-1", 4, "order placed")

	require.NoError(t, err)
	stock, _ := service.Stock(ctx, "prod-1")
	assert.Equal(t, 6, stock)

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventStockReserved, eventStore.AppendCalls[0].EventType)
}

func TestService_Reserve_ExactStock(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	seedStock(eventStore, "prod-1", 4)

	require.NoError(t, service.Reserve(ctx, "prod-1", "order-1", "user-1", 4, ""))

	stock, _ := service.Stock(ctx, "prod-1")
	assert.Equal(t, 0, stock)
}

func TestService_Reserve_Insufficient(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	seedStock(eventStore, "prod-1", 3)

	err := service.Reserve(ctx, "prod-1", "order-1", "user-1", 5, "")

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_Reserve_RetriesOnConflict(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	seedStock(eventStore, "prod-1", 10)

	// First append loses a version race; the retry re-reads and wins.
	eventStore.AppendCallback = func(ctx context.Context, aggregateID, aggregateType, eventType string, data any, expectedVersion int) (*store.Event, error) {
		eventStore.AppendCallback = nil
		return nil, store.ErrVersionConflict
	}

	err := service.Reserve(ctx, "prod-1", "order-1", "user-1", 4, "")

	require.NoError(t, err)
	assert.Len(t, eventStore.AppendCalls, 2)

	stock, _ := service.Stock(ctx, "prod-1")
	assert.Equal(t, 6, stock)
}

func TestService_Reserve_GivesUpAfterRetries(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	seedStock(eventStore, "prod-1", 10)
	eventStore.AppendErr = store.ErrVersionConflict

	err := service.Reserve(ctx, "prod-1", "order-1", "user-1", 4, "")

	assert.ErrorIs(t, err, store.ErrVersionConflict)
	assert.Len(t, eventStore.AppendCalls, reserveAttempts)
}

// ============================================
// Release Tests
// ============================================

func TestService_Release_RestoresStock(t *testing.T) {
	service, eventStore := newTestInventoryService()
	ctx := context.Background()

	seedStock(eventStore, "prod-1", 10)
	require.NoError(t, service.Reserve(ctx, "prod-1", "order-1", "user-1", 4, ""))

	err := service.Release(ctx, "prod-1", "order-1", "user-1", 4, "order cancelled")

	require.NoError(t, err)
	stock, _ := service.Stock(ctx, "prod-1")
	assert.Equal(t, 10, stock)
}

func TestService_Release_InvalidQuantity(t *testing.T) {
	service, _ := newTestInventoryService()
	ctx := context.Background()

	err := service.Release(ctx, "prod-1", "order-1", "user-1", 0, "")

	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
