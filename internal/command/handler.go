package command

import (
	"context"
	"fmt"
	"log"

	"github.com/example/ec-dispatch/internal/auth"
	"github.com/example/ec-dispatch/internal/domain/cart"
	"github.com/example/ec-dispatch/internal/domain/inventory"
	"github.com/example/ec-dispatch/internal/domain/order"
	"github.com/example/ec-dispatch/internal/domain/product"
	"github.com/example/ec-dispatch/internal/domain/rider"
	"github.com/google/uuid"
)

type Handler struct {
	productSvc   *product.Service
	cartSvc      *cart.Service
	orderSvc     *order.Service
	inventorySvc *inventory.Service
	riderSvc     *rider.Service
}

func NewHandler(
	productSvc *product.Service,
	cartSvc *cart.Service,
	orderSvc *order.Service,
	inventorySvc *inventory.Service,
	riderSvc *rider.Service,
) *Handler {
	return &Handler{
		productSvc:   productSvc,
		cartSvc:      cartSvc,
		orderSvc:     orderSvc,
		inventorySvc: inventorySvc,
		riderSvc:     riderSvc,
	}
}

// CreateProduct creates a new product and seeds its inventory.
func (h *Handler) CreateProduct(ctx context.Context, cmd CreateProduct) (*product.Product, error) {
	p, err := h.productSvc.Create(ctx, cmd.Name, cmd.Description, cmd.SellingPrice, cmd.ImageURL)
	if err != nil {
		return nil, err
	}

	if cmd.Stock > 0 {
		if err := h.inventorySvc.AddStock(ctx, p.ID, "admin", cmd.Stock, "initial stock"); err != nil {
			return nil, err
		}
	}

	// Read Store is updated asynchronously via Kafka consumer
	return p, nil
}

// UpdateProduct updates a product
func (h *Handler) UpdateProduct(ctx context.Context, cmd UpdateProduct) error {
	return h.productSvc.Update(ctx, cmd.ProductID, cmd.Name, cmd.Description, cmd.SellingPrice)
}

// DeleteProduct deletes a product
func (h *Handler) DeleteProduct(ctx context.Context, cmd DeleteProduct) error {
	return h.productSvc.Delete(ctx, cmd.ProductID)
}

// AddStock increases a product's stock and writes a ledger IN entry.
func (h *Handler) AddStock(ctx context.Context, cmd AddStock) error {
	if _, err := h.productSvc.Get(ctx, cmd.ProductID); err != nil {
		return err
	}
	reason := cmd.Reason
	if reason == "" {
		reason = "stock added"
	}
	return h.inventorySvc.AddStock(ctx, cmd.ProductID, cmd.ActorID, cmd.Quantity, reason)
}

// AddToCart adds an item to cart, capturing the current selling price.
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) error {
	p, err := h.productSvc.Get(ctx, cmd.ProductID)
	if err != nil {
		return err
	}
	return h.cartSvc.AddItem(ctx, cmd.UserID, cmd.ProductID, cmd.Quantity, p.SellingPrice)
}

// RemoveFromCart removes an item from cart
func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) error {
	return h.cartSvc.RemoveItem(ctx, cmd.UserID, cmd.ProductID)
}

// ClearCart clears all items from cart
func (h *Handler) ClearCart(ctx context.Context, cmd ClearCart) error {
	return h.cartSvc.Clear(ctx, cmd.UserID, "cleared by user")
}

// CreateOrder converts the user's cart into an order. The sequence is:
//  1. pre-flight availability check across every line, no mutation;
//  2. per-line reservation keyed by the order ID;
//  3. order creation;
//  4. cart clear.
// A reservation failure after the pre-flight (a concurrent order won the
// race) rolls back the lines already reserved, so no order leaves stock
// partially taken. The cart survives any failure.
func (h *Handler) CreateOrder(ctx context.Context, cmd CreateOrder) (*order.Order, error) {
	c, err := h.cartSvc.Get(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, cart.ErrEmptyCart
	}

	var items []order.OrderItem
	for _, item := range c.SortedItems() {
		items = append(items, order.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	// Pre-flight: every line must be coverable before any stock moves.
	for _, item := range items {
		if err := h.inventorySvc.CheckAvailable(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	orderID := uuid.New().String()
	reason := fmt.Sprintf("order %s placed", orderID)

	var reserved []order.OrderItem
	for _, item := range items {
		if err := h.inventorySvc.Reserve(ctx, item.ProductID, orderID, cmd.UserID, item.Quantity, reason); err != nil {
			h.rollbackReservations(ctx, reserved, orderID, cmd.UserID)
			return nil, err
		}
		reserved = append(reserved, item)
	}

	o, err := h.orderSvc.Create(ctx, orderID, cmd.UserID, items, cmd.DeliveryAddress)
	if err != nil {
		h.rollbackReservations(ctx, reserved, orderID, cmd.UserID)
		return nil, err
	}

	if err := h.cartSvc.Clear(ctx, cmd.UserID, "checkout"); err != nil {
		// Order and reservations are committed; a stale cart is the
		// lesser failure and the user can clear it manually.
		log.Printf("[Command] Failed to clear cart for user %s after order %s: %v", cmd.UserID, orderID, err)
	}

	return o, nil
}

func (h *Handler) rollbackReservations(ctx context.Context, reserved []order.OrderItem, orderID, actorID string) {
	reason := fmt.Sprintf("order %s aborted", orderID)
	for _, item := range reserved {
		if err := h.inventorySvc.Release(ctx, item.ProductID, orderID, actorID, item.Quantity, reason); err != nil {
			log.Printf("[Command] Failed to roll back reservation of %d x %s for order %s: %v",
				item.Quantity, item.ProductID, orderID, err)
		}
	}
}

// CancelOrder is the customer-initiated cancellation: refuse once shipped,
// release every reserved line back to stock, free an assigned rider.
func (h *Handler) CancelOrder(ctx context.Context, cmd CancelOrder) (*order.Order, error) {
	current, err := h.orderSvc.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if current.UserID != cmd.UserID {
		return nil, order.ErrOrderNotFound
	}
	assignedRider := current.AssignedRider
	wasAssigned := current.RiderStatus == order.RiderAssigned || current.RiderStatus == order.RiderReadyToDispatch

	reason := cmd.Reason
	if reason == "" {
		reason = "cancelled by customer"
	}
	o, err := h.orderSvc.Cancel(ctx, cmd.OrderID, cmd.UserID, reason)
	if err != nil {
		return nil, err
	}

	h.releaseOrderStock(ctx, o, cmd.UserID, fmt.Sprintf("order %s cancelled", o.ID))

	if wasAssigned && assignedRider != "" {
		if _, err := h.riderSvc.RecordCancellation(ctx, assignedRider, o.ID); err != nil {
			log.Printf("[Command] Failed to release rider %s after cancelling order %s: %v", assignedRider, o.ID, err)
		}
	}

	return o, nil
}

// AdminSetStatus is the admin's direct status override. Entering cancelled
// from any other status releases stock exactly once and writes the ledger
// entries with an admin reason; entering delivered with a rider attached
// completes that rider's delivery.
func (h *Handler) AdminSetStatus(ctx context.Context, cmd AdminSetStatus) (*order.Order, error) {
	o, previous, err := h.orderSvc.SetStatus(ctx, cmd.OrderID, cmd.Status, "set by admin")
	if err != nil {
		return nil, err
	}

	riderWasActive := previous.Rider == order.RiderAssigned ||
		previous.Rider == order.RiderReadyToDispatch ||
		previous.Rider == order.RiderOutForDelivery ||
		previous.Rider == order.RiderFailed

	switch cmd.Status {
	case order.StatusCancelled:
		if previous.Status != order.StatusCancelled {
			h.releaseOrderStock(ctx, o, cmd.ActorID, fmt.Sprintf("order %s cancelled by admin", o.ID))
			if riderWasActive && o.AssignedRider != "" {
				if _, err := h.riderSvc.RecordCancellation(ctx, o.AssignedRider, o.ID); err != nil {
					log.Printf("[Command] Failed to release rider %s after admin cancel of order %s: %v", o.AssignedRider, o.ID, err)
				}
			}
		}
	case order.StatusDelivered:
		if previous.Status != order.StatusDelivered && riderWasActive && o.AssignedRider != "" {
			if _, err := h.riderSvc.CompleteDelivery(ctx, o.AssignedRider, o.ID); err != nil {
				log.Printf("[Command] Failed to complete rider %s after admin delivery of order %s: %v", o.AssignedRider, o.ID, err)
			}
		}
	}

	return o, nil
}

func (h *Handler) releaseOrderStock(ctx context.Context, o *order.Order, actorID, reason string) {
	for _, item := range o.Items {
		if err := h.inventorySvc.Release(ctx, item.ProductID, o.ID, actorID, item.Quantity, reason); err != nil {
			log.Printf("[Command] Failed to release %d x %s for order %s: %v", item.Quantity, item.ProductID, o.ID, err)
		}
	}
}

// AdminDeleteOrder hard-removes a cancelled order.
func (h *Handler) AdminDeleteOrder(ctx context.Context, cmd AdminDeleteOrder) error {
	return h.orderSvc.Delete(ctx, cmd.OrderID)
}

// SetDeliveryDate schedules the delivery date on an open order.
func (h *Handler) SetDeliveryDate(ctx context.Context, cmd SetDeliveryDate) (*order.Order, error) {
	return h.orderSvc.SetDeliveryDate(ctx, cmd.OrderID, cmd.DeliveryDate)
}

// AssignRider claims the rider first, then records the assignment on the
// order. The claim is the compare-and-swap that makes two concurrent
// assignments of one rider impossible: the loser gets ErrRiderUnavailable.
// If the order-side append then fails, the claim is rolled back.
func (h *Handler) AssignRider(ctx context.Context, cmd AssignRider) (*order.Order, error) {
	// Cheap pre-check so an obviously unassignable order doesn't burn a
	// rider claim.
	current, err := h.orderSvc.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}
	if current.RiderStatus != order.RiderNotAssigned {
		return nil, order.ErrAlreadyAssigned
	}

	if _, err := h.riderSvc.Claim(ctx, cmd.RiderID, cmd.OrderID); err != nil {
		return nil, err
	}

	o, err := h.orderSvc.AssignRider(ctx, cmd.OrderID, cmd.RiderID)
	if err != nil {
		if releaseErr := h.riderSvc.ReleaseClaim(ctx, cmd.RiderID, cmd.OrderID); releaseErr != nil {
			log.Printf("[Command] Failed to release claim on rider %s for order %s: %v", cmd.RiderID, cmd.OrderID, releaseErr)
		}
		return nil, err
	}
	return o, nil
}

// MarkReadyToDispatch is the rider's pickup confirmation.
func (h *Handler) MarkReadyToDispatch(ctx context.Context, cmd MarkReadyToDispatch) (*order.Order, error) {
	return h.orderSvc.MarkReady(ctx, cmd.OrderID, cmd.RiderID)
}

// StartDelivery puts the order out for delivery and seeds both tracking
// sides with the starting point.
func (h *Handler) StartDelivery(ctx context.Context, cmd StartDelivery) (*order.Order, error) {
	o, err := h.orderSvc.StartDelivery(ctx, cmd.OrderID, cmd.RiderID, cmd.Point)
	if err != nil {
		return nil, err
	}

	if _, err := h.riderSvc.UpdateLocation(ctx, cmd.RiderID, cmd.Point.Latitude, cmd.Point.Longitude); err != nil {
		log.Printf("[Command] Failed to update location for rider %s: %v", cmd.RiderID, err)
	}
	return o, nil
}

// UpdateLocation handles one GPS ping: an append to the order's route
// history and an overwrite of the rider's last known position. The two
// writes are independent and each tolerates the other failing; pings are
// best-effort telemetry arriving every few seconds.
func (h *Handler) UpdateLocation(ctx context.Context, cmd UpdateLocation) (int, error) {
	count, err := h.orderSvc.AppendTracking(ctx, cmd.OrderID, cmd.RiderID, cmd.Point)
	if err != nil {
		log.Printf("[Command] Failed to append tracking for order %s: %v", cmd.OrderID, err)
	}

	if _, locErr := h.riderSvc.UpdateLocation(ctx, cmd.RiderID, cmd.Point.Latitude, cmd.Point.Longitude); locErr != nil {
		log.Printf("[Command] Failed to update location for rider %s: %v", cmd.RiderID, locErr)
	}

	return count, nil
}

// CompleteDelivery terminates the delivery with proof and frees the rider.
func (h *Handler) CompleteDelivery(ctx context.Context, cmd CompleteDelivery) (*order.Order, error) {
	o, err := h.orderSvc.CompleteDelivery(ctx, cmd.OrderID, cmd.RiderID, cmd.Proof)
	if err != nil {
		return nil, err
	}

	if _, err := h.riderSvc.CompleteDelivery(ctx, cmd.RiderID, o.ID); err != nil {
		log.Printf("[Command] Failed to complete rider %s after delivering order %s: %v", cmd.RiderID, o.ID, err)
	}
	return o, nil
}

// FailDelivery records a failed attempt. The rider stays on the order so
// the delivery can be retried or the order cancelled by an admin.
func (h *Handler) FailDelivery(ctx context.Context, cmd FailDelivery) (*order.Order, error) {
	return h.orderSvc.FailDelivery(ctx, cmd.OrderID, cmd.RiderID, cmd.Reason)
}

// RegisterRider creates a rider account with a hashed password.
func (h *Handler) RegisterRider(ctx context.Context, cmd RegisterRider) (*rider.Rider, error) {
	passwordHash, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return nil, err
	}
	return h.riderSvc.Register(ctx, cmd.Name, cmd.Email, passwordHash, cmd.Phone, cmd.VehicleType)
}

// SetRiderActive activates or deactivates a rider account.
func (h *Handler) SetRiderActive(ctx context.Context, cmd SetRiderActive) (*rider.Rider, error) {
	return h.riderSvc.SetActive(ctx, cmd.RiderID, cmd.Active)
}

// SetRiderStatus lets a rider toggle between available and offline.
func (h *Handler) SetRiderStatus(ctx context.Context, cmd SetRiderStatus) (*rider.Rider, error) {
	return h.riderSvc.SetStatus(ctx, cmd.RiderID, cmd.Status)
}

// UpdateRiderLocation overwrites a rider's last known position outside of
// an active delivery.
func (h *Handler) UpdateRiderLocation(ctx context.Context, riderID string, lat, lon float64) (*rider.Rider, error) {
	return h.riderSvc.UpdateLocation(ctx, riderID, lat, lon)
}
