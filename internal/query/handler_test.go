package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-dispatch/internal/domain/cart"
	"github.com/example/ec-dispatch/internal/infrastructure/store/mocks"
	"github.com/example/ec-dispatch/internal/readmodel"
)

func newTestQueryHandler() (*Handler, *mocks.MockReadStore) {
	readStore := mocks.NewMockReadStore()
	handler := NewHandler(readStore)
	return handler, readStore
}

// ============================================
// Product Tests
// ============================================

func TestHandler_GetProduct(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	readStore.Set("products", "prod-1", &readmodel.ProductReadModel{
		ID: "prod-1", Name: "Wireless Mouse", SellingPrice: 2980, Stock: 10,
	})

	p, ok := handler.GetProduct("prod-1")
	require.True(t, ok)
	assert.Equal(t, "Wireless Mouse", p.Name)

	_, ok = handler.GetProduct("missing")
	assert.False(t, ok)
}

func TestHandler_ListProducts(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	readStore.Set("products", "prod-1", &readmodel.ProductReadModel{ID: "prod-1"})
	readStore.Set("products", "prod-2", &readmodel.ProductReadModel{ID: "prod-2"})

	assert.Len(t, handler.ListProducts(), 2)
}

// ============================================
// Cart Tests
// ============================================

func TestHandler_GetCart_Empty(t *testing.T) {
	handler, _ := newTestQueryHandler()

	c := handler.GetCart("user-1")

	require.NotNil(t, c)
	assert.Equal(t, cart.GetCartID("user-1"), c.ID)
	assert.Empty(t, c.Items)
}

// ============================================
// Order Tests
// ============================================

func TestHandler_GetOrderForUser_Owner(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	readStore.Set("orders", "order-1", &readmodel.OrderReadModel{
		ID: "order-1", UserID: "user-1", Status: "pending",
	})

	o, err := handler.GetOrderForUser("user-1", "order-1")
	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
}

func TestHandler_GetOrderForUser_Forbidden(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	readStore.Set("orders", "order-1", &readmodel.OrderReadModel{
		ID: "order-1", UserID: "user-1",
	})

	_, err := handler.GetOrderForUser("user-2", "order-1")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestHandler_GetOrderForUser_NotFound(t *testing.T) {
	handler, _ := newTestQueryHandler()

	_, err := handler.GetOrderForUser("user-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandler_ListOrdersByUser_SortedNewestFirst(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	base := time.Now()
	readStore.Set("orders", "order-old", &readmodel.OrderReadModel{
		ID: "order-old", UserID: "user-1", CreatedAt: base.Add(-2 * time.Hour),
	})
	readStore.Set("orders", "order-new", &readmodel.OrderReadModel{
		ID: "order-new", UserID: "user-1", CreatedAt: base,
	})
	readStore.Set("orders", "order-other", &readmodel.OrderReadModel{
		ID: "order-other", UserID: "user-2", CreatedAt: base,
	})

	orders := handler.ListOrdersByUser("user-1")

	require.Len(t, orders, 2)
	assert.Equal(t, "order-new", orders[0].ID)
	assert.Equal(t, "order-old", orders[1].ID)
}

func TestHandler_ListAllOrders_Filters(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	readStore.Set("orders", "o1", &readmodel.OrderReadModel{ID: "o1", Status: "pending", RiderStatus: "Not Assigned"})
	readStore.Set("orders", "o2", &readmodel.OrderReadModel{ID: "o2", Status: "shipped", RiderStatus: "Out for Delivery"})
	readStore.Set("orders", "o3", &readmodel.OrderReadModel{ID: "o3", Status: "shipped", RiderStatus: "Failed"})

	assert.Len(t, handler.ListAllOrders("", ""), 3)
	assert.Len(t, handler.ListAllOrders("shipped", ""), 2)
	assert.Len(t, handler.ListAllOrders("shipped", "Failed"), 1)
	assert.Empty(t, handler.ListAllOrders("cancelled", ""))
}

func TestHandler_ListRiderOrders(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	readStore.Set("orders", "o1", &readmodel.OrderReadModel{ID: "o1", AssignedRider: "rider-1"})
	readStore.Set("orders", "o2", &readmodel.OrderReadModel{ID: "o2", AssignedRider: "rider-2"})
	readStore.Set("orders", "o3", &readmodel.OrderReadModel{ID: "o3"})

	orders := handler.ListRiderOrders("rider-1")

	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)
}

// ============================================
// Live Tracking Tests
// ============================================

func TestHandler_GetLiveTracking_Success(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	now := time.Now()
	readStore.Set("orders", "order-1", &readmodel.OrderReadModel{
		ID: "order-1", UserID: "user-1",
		Status: "shipped", RiderStatus: "Out for Delivery",
		AssignedRider: "rider-1",
		TrackingUpdates: []readmodel.TrackingPointReadModel{
			{Latitude: 35.68, Longitude: 139.76, Timestamp: now},
		},
	})
	readStore.Set("riders", "rider-1", &readmodel.RiderReadModel{
		ID: "rider-1", Name: "Dana", Phone: "090-0000-0000", VehicleType: "Bike",
		PasswordHash: "secret-hash",
		CurrentLocation: readmodel.LocationReadModel{
			Latitude: 35.68, Longitude: 139.76,
		},
	})

	tracking, err := handler.GetLiveTracking("user-1", "order-1")

	require.NoError(t, err)
	assert.Equal(t, "Out for Delivery", tracking.RiderStatus)
	require.Len(t, tracking.Points, 1)
	require.NotNil(t, tracking.Rider)
	assert.Equal(t, "Dana", tracking.Rider.Name)
	assert.Equal(t, 35.68, tracking.Rider.CurrentLocation.Latitude)
}

func TestHandler_GetLiveTracking_Forbidden(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	readStore.Set("orders", "order-1", &readmodel.OrderReadModel{ID: "order-1", UserID: "user-1"})

	_, err := handler.GetLiveTracking("user-2", "order-1")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestHandler_GetLiveTracking_WindowsPoints(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	points := make([]readmodel.TrackingPointReadModel, 0, trackingWindow+20)
	base := time.Now()
	for i := 0; i < trackingWindow+20; i++ {
		points = append(points, readmodel.TrackingPointReadModel{
			Latitude:  35.0 + float64(i)*0.001,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
	}
	readStore.Set("orders", "order-1", &readmodel.OrderReadModel{
		ID: "order-1", UserID: "user-1", TrackingUpdates: points,
	})

	tracking, err := handler.GetLiveTracking("user-1", "order-1")

	require.NoError(t, err)
	require.Len(t, tracking.Points, trackingWindow)
	// The window keeps the most recent points
	assert.Equal(t, points[len(points)-1].Latitude, tracking.Points[trackingWindow-1].Latitude)
	assert.Equal(t, points[20].Latitude, tracking.Points[0].Latitude)
}

func TestHandler_GetLiveTracking_NoPoints(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	readStore.Set("orders", "order-1", &readmodel.OrderReadModel{ID: "order-1", UserID: "user-1"})

	tracking, err := handler.GetLiveTracking("user-1", "order-1")

	require.NoError(t, err)
	assert.NotNil(t, tracking.Points)
	assert.Empty(t, tracking.Points)
	assert.Nil(t, tracking.Rider)
}

// ============================================
// Inventory Tests
// ============================================

func TestHandler_GetInventory(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	readStore.Set("inventory", "prod-1", &readmodel.InventoryReadModel{ProductID: "prod-1", Stock: 7})

	inv, ok := handler.GetInventory("prod-1")
	require.True(t, ok)
	assert.Equal(t, 7, inv.Stock)
}

func TestHandler_ListInventoryMovements_FilterAndSort(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	base := time.Now()
	for i, m := range []struct {
		product string
		typ     string
	}{
		{"prod-1", "IN"},
		{"prod-2", "IN"},
		{"prod-1", "OUT"},
	} {
		id := fmt.Sprintf("mov-%d", i)
		readStore.Set("inventory_movements", id, &readmodel.InventoryMovementReadModel{
			ID: id, ProductID: m.product, Type: m.typ,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	all := handler.ListInventoryMovements("")
	require.Len(t, all, 3)
	// oldest first
	assert.Equal(t, "mov-0", all[0].ID)
	assert.Equal(t, "mov-2", all[2].ID)

	filtered := handler.ListInventoryMovements("prod-1")
	require.Len(t, filtered, 2)
	assert.Equal(t, "IN", filtered[0].Type)
	assert.Equal(t, "OUT", filtered[1].Type)
}

// ============================================
// Rider Tests
// ============================================

func TestHandler_ListAvailableRiders(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	readStore.Set("riders", "r1", &readmodel.RiderReadModel{ID: "r1", IsActive: true, Status: "Available"})
	readStore.Set("riders", "r2", &readmodel.RiderReadModel{ID: "r2", IsActive: true, Status: "On Delivery"})
	readStore.Set("riders", "r3", &readmodel.RiderReadModel{ID: "r3", IsActive: false, Status: "Available"})
	readStore.Set("riders", "r4", &readmodel.RiderReadModel{ID: "r4", IsActive: true, Status: "Offline"})

	riders := handler.ListAvailableRiders()

	require.Len(t, riders, 1)
	assert.Equal(t, "r1", riders[0].ID)
}

func TestHandler_GetRiderByEmail(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	readStore.Set("riders", "r1", &readmodel.RiderReadModel{ID: "r1", Email: "dana@example.com"})

	r, ok := handler.GetRiderByEmail("dana@example.com")
	require.True(t, ok)
	assert.Equal(t, "r1", r.ID)

	_, ok = handler.GetRiderByEmail("nobody@example.com")
	assert.False(t, ok)
}

// ============================================
// User Tests
// ============================================

func TestHandler_GetUserByEmail(t *testing.T) {
	handler, readStore := newTestQueryHandler()

	readStore.Set("users", "u1", &readmodel.UserReadModel{ID: "u1", Email: "alice@example.com"})

	u, ok := handler.GetUserByEmail("alice@example.com")
	require.True(t, ok)
	assert.Equal(t, "u1", u.ID)

	_, ok = handler.GetUserByEmail("nobody@example.com")
	assert.False(t, ok)
}
