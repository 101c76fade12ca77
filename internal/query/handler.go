package query

import (
	"errors"
	"sort"

	"github.com/example/ec-dispatch/internal/domain/cart"
	"github.com/example/ec-dispatch/internal/infrastructure/store"
	"github.com/example/ec-dispatch/internal/readmodel"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// trackingWindow caps how many points the live tracking read returns.
// Older points stay stored; they just fall out of this read path.
const trackingWindow = 50

type Handler struct {
	readStore store.ReadStoreInterface
}

func NewHandler(readStore store.ReadStoreInterface) *Handler {
	return &Handler{readStore: readStore}
}

// Products

func (h *Handler) GetProduct(id string) (*readmodel.ProductReadModel, bool) {
	data, ok := h.readStore.Get("products", id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.ProductReadModel), true
}

func (h *Handler) ListProducts() []*readmodel.ProductReadModel {
	items := h.readStore.GetAll("products")
	products := make([]*readmodel.ProductReadModel, 0, len(items))
	for _, item := range items {
		products = append(products, item.(*readmodel.ProductReadModel))
	}
	return products
}

// Cart

func (h *Handler) GetCart(userID string) *readmodel.CartReadModel {
	cartID := cart.GetCartID(userID)
	data, ok := h.readStore.Get("carts", cartID)
	if !ok {
		// Return empty cart
		return &readmodel.CartReadModel{
			ID:     cartID,
			UserID: userID,
			Items:  []readmodel.CartItemReadModel{},
		}
	}
	return data.(*readmodel.CartReadModel)
}

// Orders

func (h *Handler) GetOrder(id string) (*readmodel.OrderReadModel, bool) {
	data, ok := h.readStore.Get("orders", id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.OrderReadModel), true
}

// GetOrderForUser returns an order only to its owning customer.
func (h *Handler) GetOrderForUser(userID, orderID string) (*readmodel.OrderReadModel, error) {
	o, ok := h.GetOrder(orderID)
	if !ok {
		return nil, ErrNotFound
	}
	if o.UserID != userID {
		return nil, ErrForbidden
	}
	return o, nil
}

func (h *Handler) ListOrdersByUser(userID string) []*readmodel.OrderReadModel {
	items := h.readStore.GetAll("orders")
	orders := make([]*readmodel.OrderReadModel, 0)
	for _, item := range items {
		o := item.(*readmodel.OrderReadModel)
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	sortOrders(orders)
	return orders
}

// ListAllOrders returns all orders for admin use, optionally filtered by
// status and rider status. Empty filter values match everything.
func (h *Handler) ListAllOrders(status, riderStatus string) []*readmodel.OrderReadModel {
	items := h.readStore.GetAll("orders")
	orders := make([]*readmodel.OrderReadModel, 0, len(items))
	for _, item := range items {
		o := item.(*readmodel.OrderReadModel)
		if status != "" && o.Status != status {
			continue
		}
		if riderStatus != "" && o.RiderStatus != riderStatus {
			continue
		}
		orders = append(orders, o)
	}
	sortOrders(orders)
	return orders
}

// ListRiderOrders returns the orders assigned to one rider.
func (h *Handler) ListRiderOrders(riderID string) []*readmodel.OrderReadModel {
	items := h.readStore.GetAll("orders")
	orders := make([]*readmodel.OrderReadModel, 0)
	for _, item := range items {
		o := item.(*readmodel.OrderReadModel)
		if o.AssignedRider == riderID {
			orders = append(orders, o)
		}
	}
	sortOrders(orders)
	return orders
}

func sortOrders(orders []*readmodel.OrderReadModel) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// LiveTracking is the customer-facing delivery tracking snapshot.
type LiveTracking struct {
	OrderID     string                             `json:"order_id"`
	RiderStatus string                             `json:"rider_status"`
	Rider       *readmodel.RiderSummaryReadModel   `json:"rider,omitempty"`
	Points      []readmodel.TrackingPointReadModel `json:"points"`
}

// GetLiveTracking returns the delivery state of an order to its owning
// customer: the rider's public fields and the last trackingWindow points.
func (h *Handler) GetLiveTracking(customerID, orderID string) (*LiveTracking, error) {
	o, ok := h.GetOrder(orderID)
	if !ok {
		return nil, ErrNotFound
	}
	if o.UserID != customerID {
		return nil, ErrForbidden
	}

	points := o.TrackingUpdates
	if len(points) > trackingWindow {
		points = points[len(points)-trackingWindow:]
	}
	if points == nil {
		points = []readmodel.TrackingPointReadModel{}
	}

	tracking := &LiveTracking{
		OrderID:     o.ID,
		RiderStatus: o.RiderStatus,
		Points:      points,
	}

	if o.AssignedRider != "" {
		if r, ok := h.GetRider(o.AssignedRider); ok {
			tracking.Rider = &readmodel.RiderSummaryReadModel{
				ID:              r.ID,
				Name:            r.Name,
				Phone:           r.Phone,
				VehicleType:     r.VehicleType,
				CurrentLocation: r.CurrentLocation,
			}
		}
	}

	return tracking, nil
}

// Inventory

func (h *Handler) GetInventory(productID string) (*readmodel.InventoryReadModel, bool) {
	data, ok := h.readStore.Get("inventory", productID)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.InventoryReadModel), true
}

// ListInventoryMovements returns ledger rows, oldest first, optionally
// filtered by product.
func (h *Handler) ListInventoryMovements(productID string) []*readmodel.InventoryMovementReadModel {
	items := h.readStore.GetAll("inventory_movements")
	movements := make([]*readmodel.InventoryMovementReadModel, 0, len(items))
	for _, item := range items {
		m := item.(*readmodel.InventoryMovementReadModel)
		if productID != "" && m.ProductID != productID {
			continue
		}
		movements = append(movements, m)
	}
	sort.Slice(movements, func(i, j int) bool {
		return movements[i].CreatedAt.Before(movements[j].CreatedAt)
	})
	return movements
}

// Riders

func (h *Handler) GetRider(id string) (*readmodel.RiderReadModel, bool) {
	data, ok := h.readStore.Get("riders", id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.RiderReadModel), true
}

// GetRiderByEmail looks a rider up for login.
func (h *Handler) GetRiderByEmail(email string) (*readmodel.RiderReadModel, bool) {
	for _, item := range h.readStore.GetAll("riders") {
		r := item.(*readmodel.RiderReadModel)
		if r.Email == email {
			return r, true
		}
	}
	return nil, false
}

func (h *Handler) ListRiders() []*readmodel.RiderReadModel {
	items := h.readStore.GetAll("riders")
	riders := make([]*readmodel.RiderReadModel, 0, len(items))
	for _, item := range items {
		riders = append(riders, item.(*readmodel.RiderReadModel))
	}
	sort.Slice(riders, func(i, j int) bool {
		return riders[i].CreatedAt.After(riders[j].CreatedAt)
	})
	return riders
}

// ListAvailableRiders returns active riders currently free for assignment.
func (h *Handler) ListAvailableRiders() []*readmodel.RiderReadModel {
	riders := make([]*readmodel.RiderReadModel, 0)
	for _, item := range h.readStore.GetAll("riders") {
		r := item.(*readmodel.RiderReadModel)
		if r.IsActive && r.Status == "Available" {
			riders = append(riders, r)
		}
	}
	return riders
}

// Users

func (h *Handler) GetUser(id string) (*readmodel.UserReadModel, bool) {
	data, ok := h.readStore.Get("users", id)
	if !ok {
		return nil, false
	}
	return data.(*readmodel.UserReadModel), true
}

// GetUserByEmail looks a user up for login.
func (h *Handler) GetUserByEmail(email string) (*readmodel.UserReadModel, bool) {
	for _, item := range h.readStore.GetAll("users") {
		u := item.(*readmodel.UserReadModel)
		if u.Email == email {
			return u, true
		}
	}
	return nil, false
}
