package projection

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/ec-dispatch/internal/domain/cart"
	"github.com/example/ec-dispatch/internal/domain/inventory"
	"github.com/example/ec-dispatch/internal/domain/order"
	"github.com/example/ec-dispatch/internal/domain/product"
	"github.com/example/ec-dispatch/internal/domain/rider"
	"github.com/example/ec-dispatch/internal/domain/user"
	"github.com/example/ec-dispatch/internal/infrastructure/store"
	"github.com/example/ec-dispatch/internal/readmodel"
)

type Projector struct {
	readStore store.ReadStoreInterface
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore}
}

func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}

	log.Printf("[Projector] Received event: %s (aggregate: %s)", event.EventType, event.AggregateType)

	switch event.AggregateType {
	case product.AggregateType:
		return p.handleProductEvent(event)
	case cart.AggregateType:
		return p.handleCartEvent(event)
	case order.AggregateType:
		return p.handleOrderEvent(event)
	case inventory.AggregateType:
		return p.handleInventoryEvent(event)
	case rider.AggregateType:
		return p.handleRiderEvent(event)
	case user.AggregateType:
		return p.handleUserEvent(event)
	}

	return nil
}

func (p *Projector) handleProductEvent(event store.Event) error {
	switch event.EventType {
	case product.EventProductCreated:
		var e product.ProductCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set("products", e.ProductID, &readmodel.ProductReadModel{
			ID:           e.ProductID,
			Name:         e.Name,
			Description:  e.Description,
			SellingPrice: e.SellingPrice,
			ImageURL:     e.ImageURL,
			CreatedAt:    e.CreatedAt,
			UpdatedAt:    e.CreatedAt,
		})

	case product.EventProductUpdated:
		var e product.ProductUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("products", e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Name = e.Name
			prod.Description = e.Description
			prod.SellingPrice = e.SellingPrice
			prod.UpdatedAt = e.UpdatedAt
			return prod
		})

	case product.EventProductImageUpdated:
		var e product.ProductImageUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("products", e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.ImageURL = e.ImageURL
			prod.UpdatedAt = e.UpdatedAt
			return prod
		})

	case product.EventProductDeleted:
		var e product.ProductDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Delete("products", e.ProductID)
	}

	return nil
}

func (p *Projector) handleCartEvent(event store.Event) error {
	switch event.EventType {
	case cart.EventItemAdded:
		var e cart.ItemAddedToCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}

		// Get product name
		productName := ""
		if prod, ok := p.readStore.Get("products", e.ProductID); ok {
			productName = prod.(*readmodel.ProductReadModel).Name
		}

		if _, ok := p.readStore.Get("carts", e.CartID); !ok {
			p.readStore.Set("carts", e.CartID, &readmodel.CartReadModel{
				ID:     e.CartID,
				UserID: e.UserID,
				Items: []readmodel.CartItemReadModel{
					{ProductID: e.ProductID, Name: productName, Quantity: e.Quantity, Price: e.Price},
				},
				TotalPrice: e.Price * e.Quantity,
			})
		} else {
			p.readStore.Update("carts", e.CartID, func(current any) any {
				c := current.(*readmodel.CartReadModel)
				found := false
				for i, item := range c.Items {
					if item.ProductID == e.ProductID {
						c.Items[i].Quantity += e.Quantity
						c.Items[i].Price = e.Price
						found = true
						break
					}
				}
				if !found {
					c.Items = append(c.Items, readmodel.CartItemReadModel{
						ProductID: e.ProductID,
						Name:      productName,
						Quantity:  e.Quantity,
						Price:     e.Price,
					})
				}
				c.TotalPrice = calculateCartTotal(c.Items)
				return c
			})
		}

	case cart.EventItemRemoved:
		var e cart.ItemRemovedFromCart
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("carts", e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			items := c.Items[:0]
			for _, item := range c.Items {
				if item.ProductID != e.ProductID {
					items = append(items, item)
				}
			}
			c.Items = items
			c.TotalPrice = calculateCartTotal(c.Items)
			return c
		})

	case cart.EventCartCleared:
		var e cart.CartCleared
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("carts", e.CartID, func(current any) any {
			c := current.(*readmodel.CartReadModel)
			c.Items = []readmodel.CartItemReadModel{}
			c.TotalPrice = 0
			return c
		})
	}

	return nil
}

func calculateCartTotal(items []readmodel.CartItemReadModel) int {
	var total int
	for _, item := range items {
		total += item.Price * item.Quantity
	}
	return total
}

func (p *Projector) handleOrderEvent(event store.Event) error {
	switch event.EventType {
	case order.EventOrderCreated:
		var e order.OrderCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		items := make([]readmodel.OrderItemReadModel, 0, len(e.Items))
		for _, item := range e.Items {
			items = append(items, readmodel.OrderItemReadModel{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}
		p.readStore.Set("orders", e.OrderID, &readmodel.OrderReadModel{
			ID:          e.OrderID,
			UserID:      e.UserID,
			Items:       items,
			TotalAmount: e.TotalAmount,
			Status:      string(order.StatusPending),
			RiderStatus: string(order.RiderNotAssigned),
			DeliveryAddress: readmodel.AddressReadModel{
				Street:    e.DeliveryAddress.Street,
				City:      e.DeliveryAddress.City,
				State:     e.DeliveryAddress.State,
				ZipCode:   e.DeliveryAddress.ZipCode,
				Latitude:  e.DeliveryAddress.Latitude,
				Longitude: e.DeliveryAddress.Longitude,
			},
			TrackingUpdates: []readmodel.TrackingPointReadModel{},
			CreatedAt:       e.CreatedAt,
			UpdatedAt:       e.CreatedAt,
		})

	case order.EventOrderCancelled:
		var e order.OrderCancelled
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.Status = string(order.StatusCancelled)
			o.RiderStatus = string(order.RiderNotAssigned)
			o.UpdatedAt = e.CancelledAt
			return o
		})

	case order.EventOrderStatusSet:
		var e order.OrderStatusSet
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.Status = string(e.Status)
			o.RiderStatus = string(e.RiderStatus)
			if e.Status == order.StatusDelivered && o.DeliveredAt == nil {
				t := e.SetAt
				o.DeliveredAt = &t
			}
			o.UpdatedAt = e.SetAt
			return o
		})

	case order.EventOrderDeleted:
		var e order.OrderDeleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Delete("orders", e.OrderID)

	case order.EventRiderAssigned:
		var e order.OrderRiderAssigned
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.AssignedRider = e.RiderID
			o.RiderStatus = string(order.RiderAssigned)
			t := e.AssignedAt
			o.AssignedAt = &t
			o.UpdatedAt = e.AssignedAt
			return o
		})

	case order.EventDeliveryDateSet:
		var e order.DeliveryDateSet
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			d := e.DeliveryDate
			o.DeliveryDate = &d
			o.UpdatedAt = e.SetAt
			return o
		})

	case order.EventMarkedReady:
		var e order.MarkedReady
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.RiderStatus = string(order.RiderReadyToDispatch)
			o.UpdatedAt = e.ReadyAt
			return o
		})

	case order.EventDeliveryStarted:
		var e order.DeliveryStarted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.Status = string(order.StatusShipped)
			o.RiderStatus = string(order.RiderOutForDelivery)
			o.TrackingUpdates = append(o.TrackingUpdates, trackingPoint(e.Point))
			t := e.StartedAt
			o.DispatchedAt = &t
			o.UpdatedAt = e.StartedAt
			return o
		})

	case order.EventTrackingAppended:
		var e order.TrackingAppended
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.TrackingUpdates = append(o.TrackingUpdates, trackingPoint(e.Point))
			o.UpdatedAt = e.Point.Timestamp
			return o
		})

	case order.EventDeliveryCompleted:
		var e order.DeliveryCompleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.Status = string(order.StatusDelivered)
			o.RiderStatus = string(order.RiderDelivered)
			o.ProofOfDelivery = &readmodel.ProofReadModel{
				ImageURL:   e.Proof.ImageURL,
				Signature:  e.Proof.Signature,
				Notes:      e.Proof.Notes,
				UploadedAt: e.Proof.UploadedAt,
			}
			t := e.CompletedAt
			o.DeliveredAt = &t
			o.UpdatedAt = e.CompletedAt
			return o
		})

	case order.EventDeliveryFailed:
		var e order.DeliveryFailed
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("orders", e.OrderID, func(current any) any {
			o := current.(*readmodel.OrderReadModel)
			o.RiderStatus = string(order.RiderFailed)
			o.UpdatedAt = e.FailedAt
			return o
		})
	}

	return nil
}

func trackingPoint(pt order.TrackingPoint) readmodel.TrackingPointReadModel {
	return readmodel.TrackingPointReadModel{
		Latitude:  pt.Latitude,
		Longitude: pt.Longitude,
		Speed:     pt.Speed,
		Accuracy:  pt.Accuracy,
		Timestamp: pt.Timestamp,
	}
}

// handleInventoryEvent keeps two projections in step: the current stock
// level and the append-only movement ledger. The event ID doubles as the
// ledger row ID so replays stay idempotent.
func (p *Projector) handleInventoryEvent(event store.Event) error {
	switch event.EventType {
	case inventory.EventStockAdded:
		var e inventory.StockAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.adjustStock(e.ProductID, e.Quantity, e.AddedAt)
		p.readStore.Set("inventory_movements", event.ID, &readmodel.InventoryMovementReadModel{
			ID:        event.ID,
			ProductID: e.ProductID,
			ActorID:   e.ActorID,
			Quantity:  e.Quantity,
			Type:      "IN",
			Reason:    e.Reason,
			CreatedAt: e.AddedAt,
		})

	case inventory.EventStockReserved:
		var e inventory.StockReserved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.adjustStock(e.ProductID, -e.Quantity, e.ReservedAt)
		p.readStore.Set("inventory_movements", event.ID, &readmodel.InventoryMovementReadModel{
			ID:        event.ID,
			ProductID: e.ProductID,
			ActorID:   e.ActorID,
			OrderID:   e.OrderID,
			Quantity:  e.Quantity,
			Type:      "OUT",
			Reason:    e.Reason,
			CreatedAt: e.ReservedAt,
		})

	case inventory.EventStockReleased:
		var e inventory.StockReleased
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.adjustStock(e.ProductID, e.Quantity, e.ReleasedAt)
		p.readStore.Set("inventory_movements", event.ID, &readmodel.InventoryMovementReadModel{
			ID:        event.ID,
			ProductID: e.ProductID,
			ActorID:   e.ActorID,
			OrderID:   e.OrderID,
			Quantity:  e.Quantity,
			Type:      "IN",
			Reason:    e.Reason,
			CreatedAt: e.ReleasedAt,
		})
	}

	return nil
}

func (p *Projector) adjustStock(productID string, delta int, at time.Time) {
	if updated := p.readStore.Update("inventory", productID, func(current any) any {
		inv := current.(*readmodel.InventoryReadModel)
		inv.Stock += delta
		inv.UpdatedAt = at
		return inv
	}); !updated {
		p.readStore.Set("inventory", productID, &readmodel.InventoryReadModel{
			ProductID: productID,
			Stock:     delta,
			UpdatedAt: at,
		})
	}

	// Mirror stock onto the product listing
	p.readStore.Update("products", productID, func(current any) any {
		prod := current.(*readmodel.ProductReadModel)
		prod.Stock += delta
		return prod
	})
}

func (p *Projector) handleRiderEvent(event store.Event) error {
	switch event.EventType {
	case rider.EventRiderRegistered:
		var e rider.RiderRegistered
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set("riders", e.RiderID, &readmodel.RiderReadModel{
			ID:           e.RiderID,
			Name:         e.Name,
			Email:        e.Email,
			PasswordHash: e.PasswordHash,
			Phone:        e.Phone,
			VehicleType:  e.VehicleType,
			IsActive:     true,
			Status:       string(rider.StatusAvailable),
			CreatedAt:    e.RegisteredAt,
			UpdatedAt:    e.RegisteredAt,
		})

	case rider.EventRiderClaimed:
		var e rider.RiderClaimed
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("riders", e.RiderID, func(current any) any {
			r := current.(*readmodel.RiderReadModel)
			r.Status = string(rider.StatusOnDelivery)
			r.TotalDeliveries++
			r.UpdatedAt = e.ClaimedAt
			return r
		})

	case rider.EventRiderClaimReleased:
		var e rider.RiderClaimReleased
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("riders", e.RiderID, func(current any) any {
			r := current.(*readmodel.RiderReadModel)
			r.Status = string(rider.StatusAvailable)
			r.UpdatedAt = e.ReleasedAt
			return r
		})

	case rider.EventRiderCompleted:
		var e rider.RiderCompleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("riders", e.RiderID, func(current any) any {
			r := current.(*readmodel.RiderReadModel)
			r.Status = string(rider.StatusAvailable)
			r.CompletedDeliveries++
			r.UpdatedAt = e.CompletedAt
			return r
		})

	case rider.EventRiderCancelled:
		var e rider.RiderCancelled
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("riders", e.RiderID, func(current any) any {
			r := current.(*readmodel.RiderReadModel)
			r.Status = string(rider.StatusAvailable)
			r.CancelledDeliveries++
			r.UpdatedAt = e.CancelledAt
			return r
		})

	case rider.EventLocationUpdated:
		var e rider.LocationUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("riders", e.RiderID, func(current any) any {
			r := current.(*readmodel.RiderReadModel)
			t := e.UpdatedAt
			r.CurrentLocation = readmodel.LocationReadModel{
				Latitude:    e.Latitude,
				Longitude:   e.Longitude,
				LastUpdated: &t,
			}
			r.UpdatedAt = e.UpdatedAt
			return r
		})

	case rider.EventRiderStatusSet:
		var e rider.RiderStatusSet
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("riders", e.RiderID, func(current any) any {
			r := current.(*readmodel.RiderReadModel)
			r.Status = string(e.Status)
			r.UpdatedAt = e.SetAt
			return r
		})

	case rider.EventRiderActivationSet:
		var e rider.RiderActivationSet
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("riders", e.RiderID, func(current any) any {
			r := current.(*readmodel.RiderReadModel)
			r.IsActive = e.IsActive
			r.UpdatedAt = e.SetAt
			return r
		})
	}

	return nil
}

func (p *Projector) handleUserEvent(event store.Event) error {
	switch event.EventType {
	case user.EventUserCreated:
		var e user.UserCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Set("users", e.UserID, &readmodel.UserReadModel{
			ID:           e.UserID,
			Email:        e.Email,
			PasswordHash: e.PasswordHash,
			Name:         e.Name,
			Role:         e.Role,
			IsActive:     true,
			CreatedAt:    e.CreatedAt,
			UpdatedAt:    e.CreatedAt,
		})

	case user.EventUserUpdated:
		var e user.UserUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("users", e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.Name = e.Name
			u.UpdatedAt = e.UpdatedAt
			return u
		})

	case user.EventUserPasswordChanged:
		var e user.UserPasswordChanged
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("users", e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.PasswordHash = e.PasswordHash
			u.UpdatedAt = e.ChangedAt
			return u
		})

	case user.EventUserDeactivated:
		var e user.UserDeactivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("users", e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = false
			u.UpdatedAt = e.DeactivatedAt
			return u
		})

	case user.EventUserActivated:
		var e user.UserActivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update("users", e.UserID, func(current any) any {
			u := current.(*readmodel.UserReadModel)
			u.IsActive = true
			u.UpdatedAt = e.ActivatedAt
			return u
		})
	}

	return nil
}
