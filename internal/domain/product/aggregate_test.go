package product

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-dispatch/internal/infrastructure/store/mocks"
)

func newTestProductService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	return service, eventStore
}

func seedProduct(es *mocks.MockEventStore, productID string) {
	_ = es.AddEvent(productID, AggregateType, EventProductCreated, ProductCreated{
		ProductID:    productID,
		Name:         "Wireless Mouse",
		Description:  "2.4GHz wireless mouse",
		SellingPrice: 2980,
		CreatedAt:    time.Now(),
	})
}

// ============================================
// Create Tests
// ============================================

func TestService_Create_Success(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()

	p, err := service.Create(ctx, "Wireless Mouse", "2.4GHz wireless mouse", 2980, "https://cdn.example.com/mouse.jpg")

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Wireless Mouse", p.Name)
	assert.Equal(t, 2980, p.SellingPrice)
	assert.False(t, p.IsDeleted)

	require.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventProductCreated, eventStore.AppendCalls[0].EventType)
}

func TestService_Create_Validation(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()

	_, err := service.Create(ctx, "", "desc", 100, "")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = service.Create(ctx, "Mouse", "desc", 0, "")
	assert.ErrorIs(t, err, ErrInvalidPrice)

	assert.Empty(t, eventStore.AppendCalls)
}

// ============================================
// Update Tests
// ============================================

func TestService_Update_Success(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()

	seedProduct(eventStore, "prod-1")

	err := service.Update(ctx, "prod-1", "Wireless Mouse v2", "updated copy", 3480)

	require.NoError(t, err)
	p, err := service.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "Wireless Mouse v2", p.Name)
	assert.Equal(t, 3480, p.SellingPrice)
}

func TestService_Update_NotFound(t *testing.T) {
	service, _ := newTestProductService()
	ctx := context.Background()

	err := service.Update(ctx, "missing", "Name", "desc", 100)

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_UpdateImage(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()

	seedProduct(eventStore, "prod-1")

	err := service.UpdateImage(ctx, "prod-1", "https://cdn.example.com/mouse-v2.jpg")

	require.NoError(t, err)
	p, _ := service.Get(ctx, "prod-1")
	assert.Equal(t, "https://cdn.example.com/mouse-v2.jpg", p.ImageURL)
}

// ============================================
// Delete Tests
// ============================================

func TestService_Delete_HidesProduct(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()

	seedProduct(eventStore, "prod-1")

	require.NoError(t, service.Delete(ctx, "prod-1"))

	_, err := service.Get(ctx, "prod-1")
	assert.ErrorIs(t, err, ErrProductNotFound)

	// Deleted products cannot be modified either
	err = service.Update(ctx, "prod-1", "Name", "desc", 100)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
