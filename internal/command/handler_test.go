package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ec-dispatch/internal/auth"
	"github.com/example/ec-dispatch/internal/domain/cart"
	"github.com/example/ec-dispatch/internal/domain/inventory"
	"github.com/example/ec-dispatch/internal/domain/order"
	"github.com/example/ec-dispatch/internal/domain/product"
	"github.com/example/ec-dispatch/internal/domain/rider"
	"github.com/example/ec-dispatch/internal/infrastructure/store/mocks"
)

func newTestHandler() (*Handler, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()

	productSvc := product.NewService(eventStore)
	cartSvc := cart.NewService(eventStore)
	orderSvc := order.NewService(eventStore)
	inventorySvc := inventory.NewService(eventStore)
	riderSvc := rider.NewService(eventStore)

	handler := NewHandler(productSvc, cartSvc, orderSvc, inventorySvc, riderSvc)
	return handler, eventStore
}

func seedProduct(es *mocks.MockEventStore, productID string, price int) {
	_ = es.AddEvent(productID, product.AggregateType, product.EventProductCreated, product.ProductCreated{
		ProductID:    productID,
		Name:         "Product " + productID,
		SellingPrice: price,
		CreatedAt:    time.Now(),
	})
}

func seedStock(es *mocks.MockEventStore, productID string, quantity int) {
	_ = es.AddEvent(productID, inventory.AggregateType, inventory.EventStockAdded, inventory.StockAdded{
		ProductID: productID,
		ActorID:   "admin-1",
		Quantity:  quantity,
		AddedAt:   time.Now(),
	})
}

func seedCartItem(es *mocks.MockEventStore, userID, productID string, quantity, price int) {
	cartID := cart.GetCartID(userID)
	_ = es.AddEvent(cartID, cart.AggregateType, cart.EventItemAdded, cart.ItemAddedToCart{
		CartID:    cartID,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Price:     price,
		AddedAt:   time.Now(),
	})
}

func seedRider(es *mocks.MockEventStore, riderID string) {
	_ = es.AddEvent(riderID, rider.AggregateType, rider.EventRiderRegistered, rider.RiderRegistered{
		RiderID:      riderID,
		Name:         "Dana",
		Email:        "dana@example.com",
		VehicleType:  "Bike",
		RegisteredAt: time.Now(),
	})
}

// countEvents tallies appended events of one type across all calls.
func countEvents(es *mocks.MockEventStore, eventType string) int {
	var n int
	for _, call := range es.AppendCalls {
		if call.EventType == eventType {
			n++
		}
	}
	return n
}

// ============================================
// Product Tests
// ============================================

func TestHandler_CreateProduct_SeedsInventory(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	p, err := handler.CreateProduct(ctx, CreateProduct{
		Name:         "Wireless Mouse",
		Description:  "2.4GHz wireless mouse",
		SellingPrice: 2980,
		Stock:        50,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	require.Len(t, eventStore.AppendCalls, 2)
	assert.Equal(t, product.EventProductCreated, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, inventory.EventStockAdded, eventStore.AppendCalls[1].EventType)
}

func TestHandler_CreateProduct_NoStock(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	_, err := handler.CreateProduct(ctx, CreateProduct{Name: "Mouse", SellingPrice: 2980})

	require.NoError(t, err)
	assert.Len(t, eventStore.AppendCalls, 1)
}

func TestHandler_AddStock_MissingProduct(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	err := handler.AddStock(ctx, AddStock{ProductID: "missing", ActorID: "admin-1", Quantity: 5})

	assert.ErrorIs(t, err, product.ErrProductNotFound)
	assert.Empty(t, eventStore.AppendCalls)
}

// ============================================
// Cart Tests
// ============================================

func TestHandler_AddToCart_CapturesSellingPrice(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	seedProduct(eventStore, "prod-1", 1500)

	err := handler.AddToCart(ctx, AddToCart{UserID: "user-1", ProductID: "prod-1", Quantity: 2})

	require.NoError(t, err)
	require.Len(t, eventStore.AppendCalls, 1)
	data, ok := eventStore.AppendCalls[0].Data.(cart.ItemAddedToCart)
	require.True(t, ok)
	assert.Equal(t, 1500, data.Price)
}

func TestHandler_AddToCart_MissingProduct(t *testing.T) {
	handler, _ := newTestHandler()
	ctx := context.Background()

	err := handler.AddToCart(ctx, AddToCart{UserID: "user-1", ProductID: "missing", Quantity: 1})

	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

// ============================================
// CreateOrder Tests
// ============================================

func TestHandler_CreateOrder_Success(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	seedProduct(eventStore, "prod-1", 1000)
	seedStock(eventStore, "prod-1", 10)
	seedCartItem(eventStore, "user-1", "prod-1", 3, 1000)

	o, err := handler.CreateOrder(ctx, CreateOrder{UserID: "user-1"})

	require.NoError(t, err)
	assert.Equal(t, 3000, o.TotalAmount)
	assert.Equal(t, order.StatusPending, o.Status)

	assert.Equal(t, 1, countEvents(eventStore, inventory.EventStockReserved))
	assert.Equal(t, 1, countEvents(eventStore, order.EventOrderCreated))
	assert.Equal(t, 1, countEvents(eventStore, cart.EventCartCleared))
}

func TestHandler_CreateOrder_ItemsSortedByProduct(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	for _, productID := range []string{"prod-7", "prod-2", "prod-5"} {
		seedProduct(eventStore, productID, 1000)
		seedStock(eventStore, productID, 10)
		seedCartItem(eventStore, "user-1", productID, 1, 1000)
	}

	o, err := handler.CreateOrder(ctx, CreateOrder{UserID: "user-1"})

	require.NoError(t, err)
	require.Len(t, o.Items, 3)
	assert.Equal(t, "prod-2", o.Items[0].ProductID)
	assert.Equal(t, "prod-5", o.Items[1].ProductID)
	assert.Equal(t, "prod-7", o.Items[2].ProductID)
}

func TestHandler_CreateOrder_EmptyCart(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	_, err := handler.CreateOrder(ctx, CreateOrder{UserID: "user-1"})

	assert.ErrorIs(t, err, cart.ErrEmptyCart)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestHandler_CreateOrder_PreflightBlocksAllLines(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	seedProduct(eventStore, "prod-1", 1000)
	seedProduct(eventStore, "prod-2", 2000)
	seedStock(eventStore, "prod-1", 10)
	// prod-2 has no stock at all
	seedCartItem(eventStore, "user-1", "prod-1", 1, 1000)
	seedCartItem(eventStore, "user-1", "prod-2", 1, 2000)

	_, err := handler.CreateOrder(ctx, CreateOrder{UserID: "user-1"})

	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	// The failing pre-flight must leave every line untouched, including
	// the one that had cover.
	assert.Equal(t, 0, countEvents(eventStore, inventory.EventStockReserved))
	assert.Equal(t, 0, countEvents(eventStore, order.EventOrderCreated))
	assert.Equal(t, 0, countEvents(eventStore, cart.EventCartCleared))
}

func TestHandler_RollbackReservations(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	seedStock(eventStore, "prod-1", 10)
	require.NoError(t, handler.inventorySvc.Reserve(ctx, "prod-1", "order-1", "user-1", 4, "order order-1 placed"))

	handler.rollbackReservations(ctx, []order.OrderItem{
		{ProductID: "prod-1", Quantity: 4, UnitPrice: 1000},
	}, "order-1", "user-1")

	stock, err := handler.inventorySvc.Stock(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 10, stock)
	assert.Equal(t, 1, countEvents(eventStore, inventory.EventStockReleased))
}

// ============================================
// CancelOrder Tests
// ============================================

func placeOrder(t *testing.T, handler *Handler, eventStore *mocks.MockEventStore, userID string) *order.Order {
	t.Helper()
	seedProduct(eventStore, "prod-1", 1000)
	seedStock(eventStore, "prod-1", 10)
	seedCartItem(eventStore, userID, "prod-1", 2, 1000)

	o, err := handler.CreateOrder(context.Background(), CreateOrder{UserID: userID})
	require.NoError(t, err)
	return o
}

func TestHandler_CancelOrder_ReleasesStock(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := placeOrder(t, handler, eventStore, "user-1")

	cancelled, err := handler.CancelOrder(ctx, CancelOrder{UserID: "user-1", OrderID: o.ID})

	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)

	stock, err := handler.inventorySvc.Stock(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 10, stock)
}

func TestHandler_CancelOrder_WrongUser(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := placeOrder(t, handler, eventStore, "user-1")

	_, err := handler.CancelOrder(ctx, CancelOrder{UserID: "user-2", OrderID: o.ID})

	// someone else's order looks like a missing order
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
	assert.Equal(t, 0, countEvents(eventStore, order.EventOrderCancelled))
}

func TestHandler_CancelOrder_FreesAssignedRider(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := placeOrder(t, handler, eventStore, "user-1")
	seedRider(eventStore, "rider-1")
	_, err := handler.AssignRider(ctx, AssignRider{OrderID: o.ID, RiderID: "rider-1"})
	require.NoError(t, err)

	_, err = handler.CancelOrder(ctx, CancelOrder{UserID: "user-1", OrderID: o.ID})
	require.NoError(t, err)

	r, err := handler.riderSvc.Get(ctx, "rider-1")
	require.NoError(t, err)
	assert.Equal(t, rider.StatusAvailable, r.Status)
	assert.Equal(t, 1, r.CancelledDeliveries)
}

func TestHandler_CancelOrder_AfterDispatch(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := placeOrder(t, handler, eventStore, "user-1")
	seedRider(eventStore, "rider-1")
	_, err := handler.AssignRider(ctx, AssignRider{OrderID: o.ID, RiderID: "rider-1"})
	require.NoError(t, err)
	_, err = handler.StartDelivery(ctx, StartDelivery{OrderID: o.ID, RiderID: "rider-1"})
	require.NoError(t, err)

	_, err = handler.CancelOrder(ctx, CancelOrder{UserID: "user-1", OrderID: o.ID})

	assert.ErrorIs(t, err, order.ErrOrderShipped)
	assert.Equal(t, 0, countEvents(eventStore, inventory.EventStockReleased))
}

// ============================================
// AdminSetStatus Tests
// ============================================

func TestHandler_AdminSetStatus_CancelReleasesStockOnce(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := placeOrder(t, handler, eventStore, "user-1")

	_, err := handler.AdminSetStatus(ctx, AdminSetStatus{OrderID: o.ID, Status: order.StatusCancelled, ActorID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, countEvents(eventStore, inventory.EventStockReleased))

	// Setting cancelled again must not release a second time.
	_, err = handler.AdminSetStatus(ctx, AdminSetStatus{OrderID: o.ID, Status: order.StatusCancelled, ActorID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, countEvents(eventStore, inventory.EventStockReleased))

	stock, err := handler.inventorySvc.Stock(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 10, stock)
}

func TestHandler_AdminSetStatus_DeliveredStaysDelivered(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := placeOrder(t, handler, eventStore, "user-1")
	_, err := handler.AdminSetStatus(ctx, AdminSetStatus{OrderID: o.ID, Status: order.StatusDelivered, ActorID: "admin-1"})
	require.NoError(t, err)

	_, err = handler.AdminSetStatus(ctx, AdminSetStatus{OrderID: o.ID, Status: order.StatusPending, ActorID: "admin-1"})
	assert.ErrorIs(t, err, order.ErrOrderDelivered)

	_, err = handler.CancelOrder(ctx, CancelOrder{UserID: "user-1", OrderID: o.ID})
	assert.ErrorIs(t, err, order.ErrOrderDelivered)

	// The delivered stock stays consumed.
	stock, err := handler.inventorySvc.Stock(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 8, stock)
}

func TestHandler_AdminSetStatus_CancelFreesRider(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := placeOrder(t, handler, eventStore, "user-1")
	seedRider(eventStore, "rider-1")
	_, err := handler.AssignRider(ctx, AssignRider{OrderID: o.ID, RiderID: "rider-1"})
	require.NoError(t, err)

	_, err = handler.AdminSetStatus(ctx, AdminSetStatus{OrderID: o.ID, Status: order.StatusCancelled, ActorID: "admin-1"})
	require.NoError(t, err)

	r, err := handler.riderSvc.Get(ctx, "rider-1")
	require.NoError(t, err)
	assert.Equal(t, rider.StatusAvailable, r.Status)
	assert.Equal(t, 1, r.CancelledDeliveries)
}

func TestHandler_AdminSetStatus_DeliveredCompletesRider(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := placeOrder(t, handler, eventStore, "user-1")
	seedRider(eventStore, "rider-1")
	_, err := handler.AssignRider(ctx, AssignRider{OrderID: o.ID, RiderID: "rider-1"})
	require.NoError(t, err)
	_, err = handler.StartDelivery(ctx, StartDelivery{OrderID: o.ID, RiderID: "rider-1"})
	require.NoError(t, err)

	updated, err := handler.AdminSetStatus(ctx, AdminSetStatus{OrderID: o.ID, Status: order.StatusDelivered, ActorID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, order.RiderDelivered, updated.RiderStatus)

	r, err := handler.riderSvc.Get(ctx, "rider-1")
	require.NoError(t, err)
	assert.Equal(t, rider.StatusAvailable, r.Status)
	assert.Equal(t, 1, r.CompletedDeliveries)
}

func TestHandler_AdminSetStatus_InvalidStatus(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := placeOrder(t, handler, eventStore, "user-1")

	_, err := handler.AdminSetStatus(ctx, AdminSetStatus{OrderID: o.ID, Status: "refunded", ActorID: "admin-1"})

	assert.ErrorIs(t, err, order.ErrInvalidStatus)
}

// ============================================
// AssignRider Tests
// ============================================

func TestHandler_AssignRider_Success(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := placeOrder(t, handler, eventStore, "user-1")
	seedRider(eventStore, "rider-1")

	assigned, err := handler.AssignRider(ctx, AssignRider{OrderID: o.ID, RiderID: "rider-1"})

	require.NoError(t, err)
	assert.Equal(t, "rider-1", assigned.AssignedRider)
	assert.Equal(t, order.RiderAssigned, assigned.RiderStatus)

	r, err := handler.riderSvc.Get(ctx, "rider-1")
	require.NoError(t, err)
	assert.Equal(t, rider.StatusOnDelivery, r.Status)
	assert.Equal(t, o.ID, r.ActiveOrderID)
}

func TestHandler_AssignRider_OrderAlreadyAssigned(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := placeOrder(t, handler, eventStore, "user-1")
	seedRider(eventStore, "rider-1")
	seedRider(eventStore, "rider-2")
	_, err := handler.AssignRider(ctx, AssignRider{OrderID: o.ID, RiderID: "rider-1"})
	require.NoError(t, err)

	_, err = handler.AssignRider(ctx, AssignRider{OrderID: o.ID, RiderID: "rider-2"})

	assert.ErrorIs(t, err, order.ErrAlreadyAssigned)
	// The pre-check spares rider-2 from a wasted claim
	r, err := handler.riderSvc.Get(ctx, "rider-2")
	require.NoError(t, err)
	assert.Equal(t, rider.StatusAvailable, r.Status)
	assert.Equal(t, 0, r.TotalDeliveries)
}

func TestHandler_AssignRider_RiderBusy(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	oFirst := placeOrder(t, handler, eventStore, "user-1")
	seedRider(eventStore, "rider-1")
	_, err := handler.AssignRider(ctx, AssignRider{OrderID: oFirst.ID, RiderID: "rider-1"})
	require.NoError(t, err)

	seedCartItem(eventStore, "user-2", "prod-1", 1, 1000)
	oSecond, err := handler.CreateOrder(ctx, CreateOrder{UserID: "user-2"})
	require.NoError(t, err)

	_, err = handler.AssignRider(ctx, AssignRider{OrderID: oSecond.ID, RiderID: "rider-1"})

	assert.ErrorIs(t, err, rider.ErrRiderUnavailable)
	// The second order is untouched
	current, err := handler.orderSvc.Get(ctx, oSecond.ID)
	require.NoError(t, err)
	assert.Equal(t, order.RiderNotAssigned, current.RiderStatus)
}

func TestHandler_AssignRider_OrderRejectsClaim(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	// Delivered without a rider: the cheap pre-check passes but the
	// order-side assignment is a dead end, so the claim must be undone.
	o := placeOrder(t, handler, eventStore, "user-1")
	_, err := handler.AdminSetStatus(ctx, AdminSetStatus{OrderID: o.ID, Status: order.StatusDelivered, ActorID: "admin-1"})
	require.NoError(t, err)

	seedRider(eventStore, "rider-1")

	_, err = handler.AssignRider(ctx, AssignRider{OrderID: o.ID, RiderID: "rider-1"})
	require.Error(t, err)

	r, err := handler.riderSvc.Get(ctx, "rider-1")
	require.NoError(t, err)
	assert.Equal(t, rider.StatusAvailable, r.Status)
	assert.Empty(t, r.ActiveOrderID)
}

// ============================================
// Delivery Flow Tests
// ============================================

func dispatchOrder(t *testing.T, handler *Handler, eventStore *mocks.MockEventStore) *order.Order {
	t.Helper()
	ctx := context.Background()

	o := placeOrder(t, handler, eventStore, "user-1")
	seedRider(eventStore, "rider-1")
	_, err := handler.AssignRider(ctx, AssignRider{OrderID: o.ID, RiderID: "rider-1"})
	require.NoError(t, err)
	_, err = handler.MarkReadyToDispatch(ctx, MarkReadyToDispatch{OrderID: o.ID, RiderID: "rider-1"})
	require.NoError(t, err)

	started, err := handler.StartDelivery(ctx, StartDelivery{
		OrderID: o.ID,
		RiderID: "rider-1",
		Point:   order.TrackingPoint{Latitude: 35.68, Longitude: 139.76},
	})
	require.NoError(t, err)
	return started
}

func TestHandler_StartDelivery_SeedsBothSides(t *testing.T) {
	handler, eventStore := newTestHandler()

	o := dispatchOrder(t, handler, eventStore)

	assert.Equal(t, order.StatusShipped, o.Status)
	require.Len(t, o.TrackingUpdates, 1)

	r, err := handler.riderSvc.Get(context.Background(), "rider-1")
	require.NoError(t, err)
	assert.Equal(t, 35.68, r.CurrentLocation.Latitude)
}

func TestHandler_UpdateLocation_DualWrite(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := dispatchOrder(t, handler, eventStore)

	count, err := handler.UpdateLocation(ctx, UpdateLocation{
		OrderID: o.ID,
		RiderID: "rider-1",
		Point:   order.TrackingPoint{Latitude: 35.69, Longitude: 139.77},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, count)

	current, err := handler.orderSvc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, current.TrackingUpdates, 2)

	r, err := handler.riderSvc.Get(ctx, "rider-1")
	require.NoError(t, err)
	assert.Equal(t, 35.69, r.CurrentLocation.Latitude)
}

func TestHandler_UpdateLocation_UnknownOrderStillMovesRider(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	seedRider(eventStore, "rider-1")

	count, err := handler.UpdateLocation(ctx, UpdateLocation{
		OrderID: "missing",
		RiderID: "rider-1",
		Point:   order.TrackingPoint{Latitude: 35.70, Longitude: 139.78},
	})

	// A ping against an unknown order is dropped on the order side but
	// still refreshes the rider's position.
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	r, err := handler.riderSvc.Get(ctx, "rider-1")
	require.NoError(t, err)
	assert.Equal(t, 35.70, r.CurrentLocation.Latitude)
}

func TestHandler_CompleteDelivery_FreesRider(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := dispatchOrder(t, handler, eventStore)

	done, err := handler.CompleteDelivery(ctx, CompleteDelivery{
		OrderID: o.ID,
		RiderID: "rider-1",
		Proof:   order.Proof{ImageURL: "https://cdn.example.com/proof.jpg"},
	})

	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, done.Status)

	r, err := handler.riderSvc.Get(ctx, "rider-1")
	require.NoError(t, err)
	assert.Equal(t, rider.StatusAvailable, r.Status)
	assert.Equal(t, 1, r.CompletedDeliveries)
}

func TestHandler_FailDelivery_RiderStaysOnOrder(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	o := dispatchOrder(t, handler, eventStore)

	failed, err := handler.FailDelivery(ctx, FailDelivery{OrderID: o.ID, RiderID: "rider-1", Reason: "nobody home"})

	require.NoError(t, err)
	assert.Equal(t, order.RiderFailed, failed.RiderStatus)
	assert.Equal(t, "rider-1", failed.AssignedRider)

	// The rider keeps the claim so the delivery can be retried
	r, err := handler.riderSvc.Get(ctx, "rider-1")
	require.NoError(t, err)
	assert.Equal(t, rider.StatusOnDelivery, r.Status)
	assert.Equal(t, o.ID, r.ActiveOrderID)
}

// ============================================
// Rider Account Tests
// ============================================

func TestHandler_RegisterRider_HashesPassword(t *testing.T) {
	handler, _ := newTestHandler()
	ctx := context.Background()

	r, err := handler.RegisterRider(ctx, RegisterRider{
		Name:        "Dana",
		Email:       "dana@example.com",
		Password:    "ridesafe123",
		Phone:       "090-0000-0000",
		VehicleType: "Bike",
	})

	require.NoError(t, err)
	assert.NotEqual(t, "ridesafe123", r.PasswordHash)
	assert.True(t, auth.CheckPassword("ridesafe123", r.PasswordHash))
}

func TestHandler_RegisterRider_ShortPassword(t *testing.T) {
	handler, eventStore := newTestHandler()
	ctx := context.Background()

	_, err := handler.RegisterRider(ctx, RegisterRider{
		Name:        "Dana",
		Email:       "dana@example.com",
		Password:    "short",
		VehicleType: "Bike",
	})

	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)
	assert.Empty(t, eventStore.AppendCalls)
}
