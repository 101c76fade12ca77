package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/ec-dispatch/internal/domain/order"
	"github.com/example/ec-dispatch/internal/email"
	"github.com/example/ec-dispatch/internal/infrastructure/store"
	"github.com/example/ec-dispatch/internal/readmodel"
)

// Handler sends lifecycle emails off the order event stream. Every path is
// best-effort: a missing read model or a down SMTP server must never stall
// the consumer group.
type Handler struct {
	emailService *email.Service
	readStore    store.ReadStoreInterface
}

func NewHandler(emailSvc *email.Service, readStore store.ReadStoreInterface) *Handler {
	return &Handler{
		emailService: emailSvc,
		readStore:    readStore,
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	if event.AggregateType != order.AggregateType {
		return nil
	}

	switch event.EventType {
	case order.EventOrderCreated:
		return h.handleOrderCreated(event)
	case order.EventOrderCancelled:
		return h.handleOrderCancelled(event)
	case order.EventDeliveryStarted:
		return h.handleDeliveryStarted(event)
	case order.EventDeliveryCompleted:
		return h.handleDeliveryCompleted(event)
	}

	return nil
}

func (h *Handler) handleOrderCreated(event store.Event) error {
	var e order.OrderCreated
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderCreated event: %v", err)
		return err
	}

	userEmail, ok := h.customerEmail(e.UserID)
	if !ok {
		return nil
	}

	emailItems := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		productName := item.ProductID
		if productData, exists := h.readStore.Get("products", item.ProductID); exists {
			if product, ok := productData.(*readmodel.ProductReadModel); ok {
				productName = product.Name
			}
		}

		emailItems[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      productName,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
		}
	}

	if err := h.emailService.SendOrderConfirmation(userEmail, e.OrderID, e.TotalAmount, emailItems); err != nil {
		log.Printf("[Notifier] Failed to send confirmation to %s: %v", userEmail, err)
		return nil
	}

	log.Printf("[Notifier] Order confirmation sent to %s for order %s", userEmail, e.OrderID)
	return nil
}

func (h *Handler) handleOrderCancelled(event store.Event) error {
	var e order.OrderCancelled
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderCancelled event: %v", err)
		return err
	}

	userEmail, ok := h.orderCustomerEmail(e.OrderID)
	if !ok {
		return nil
	}

	if err := h.emailService.SendOrderCancelled(userEmail, e.OrderID, e.Reason); err != nil {
		log.Printf("[Notifier] Failed to send cancellation notice to %s: %v", userEmail, err)
		return nil
	}

	log.Printf("[Notifier] Cancellation notice sent to %s for order %s", userEmail, e.OrderID)
	return nil
}

func (h *Handler) handleDeliveryStarted(event store.Event) error {
	var e order.DeliveryStarted
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal DeliveryStarted event: %v", err)
		return err
	}

	userEmail, ok := h.orderCustomerEmail(e.OrderID)
	if !ok {
		return nil
	}

	riderName := ""
	if riderData, exists := h.readStore.Get("riders", e.RiderID); exists {
		if r, ok := riderData.(*readmodel.RiderReadModel); ok {
			riderName = r.Name
		}
	}

	if err := h.emailService.SendOutForDelivery(userEmail, e.OrderID, riderName); err != nil {
		log.Printf("[Notifier] Failed to send dispatch notice to %s: %v", userEmail, err)
		return nil
	}

	log.Printf("[Notifier] Dispatch notice sent to %s for order %s", userEmail, e.OrderID)
	return nil
}

func (h *Handler) handleDeliveryCompleted(event store.Event) error {
	var e order.DeliveryCompleted
	if err := json.Unmarshal(event.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal DeliveryCompleted event: %v", err)
		return err
	}

	userEmail, ok := h.orderCustomerEmail(e.OrderID)
	if !ok {
		return nil
	}

	if err := h.emailService.SendDelivered(userEmail, e.OrderID); err != nil {
		log.Printf("[Notifier] Failed to send delivery confirmation to %s: %v", userEmail, err)
		return nil
	}

	log.Printf("[Notifier] Delivery confirmation sent to %s for order %s", userEmail, e.OrderID)
	return nil
}

// orderCustomerEmail resolves the customer email through the order read
// model; cancellation and delivery events don't carry the user ID.
func (h *Handler) orderCustomerEmail(orderID string) (string, bool) {
	orderData, exists := h.readStore.Get("orders", orderID)
	if !exists {
		log.Printf("[Notifier] Order not found: %s", orderID)
		return "", false
	}

	o, ok := orderData.(*readmodel.OrderReadModel)
	if !ok {
		return "", false
	}

	return h.customerEmail(o.UserID)
}

func (h *Handler) customerEmail(userID string) (string, bool) {
	userData, exists := h.readStore.Get("users", userID)
	if !exists {
		log.Printf("[Notifier] User not found: %s", userID)
		return "", false
	}

	u, ok := userData.(*readmodel.UserReadModel)
	if !ok {
		log.Printf("[Notifier] Invalid user data type for user: %s", userID)
		return "", false
	}

	return u.Email, true
}
