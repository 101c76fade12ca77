package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/example/ec-dispatch/internal/api/middleware"
	"github.com/example/ec-dispatch/internal/command"
	"github.com/example/ec-dispatch/internal/domain/order"
	"github.com/example/ec-dispatch/internal/query"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

// Product Handlers

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateProduct
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.cmdHandler.CreateProduct(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListProducts())
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	product, ok := h.queryHandler.GetProduct(id)
	if !ok {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")

	var cmd command.UpdateProduct
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cmd.ProductID = id

	if err := h.cmdHandler.UpdateProduct(r.Context(), cmd); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Product updated"})
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")

	cmd := command.DeleteProduct{ProductID: id}
	if err := h.cmdHandler.DeleteProduct(r.Context(), cmd); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// Inventory Handlers

func (h *Handlers) AddStock(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/admin/inventory/"), "/stock")

	var req struct {
		Quantity int    `json:"quantity"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.AddStock{
		ProductID: productID,
		ActorID:   middleware.GetUserID(r.Context()),
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	}
	if err := h.cmdHandler.AddStock(r.Context(), cmd); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Stock added"})
}

func (h *Handlers) GetInventory(w http.ResponseWriter, r *http.Request) {
	productID := extractPathParam(r.URL.Path, "/admin/inventory/")
	inv, ok := h.queryHandler.GetInventory(productID)
	if !ok {
		respondJSONError(w, "Inventory not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, inv)
}

func (h *Handlers) GetInventoryMovements(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("product_id")
	respondJSON(w, http.StatusOK, h.queryHandler.ListInventoryMovements(productID))
}

// Cart Handlers

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.AddToCart{
		UserID:    userID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}
	if err := h.cmdHandler.AddToCart(r.Context(), cmd); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	productID := extractPathParam(r.URL.Path, "/cart/items/")
	cmd := command.RemoveFromCart{
		UserID:    userID,
		ProductID: productID,
	}
	if err := h.cmdHandler.RemoveFromCart(r.Context(), cmd); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	respondJSON(w, http.StatusOK, h.queryHandler.GetCart(userID))
}

// Order Handlers

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		DeliveryAddress order.Address `json:"delivery_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.CreateOrder{
		UserID:          userID,
		DeliveryAddress: req.DeliveryAddress,
	}
	newOrder, err := h.cmdHandler.CreateOrder(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newOrder)
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	respondJSON(w, http.StatusOK, h.queryHandler.ListOrdersByUser(userID))
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/cancel")
	id = strings.TrimSuffix(id, "/tracking")

	if isAdmin(r) {
		o, ok := h.queryHandler.GetOrder(id)
		if !ok {
			respondJSONError(w, "Order not found", http.StatusNotFound)
			return
		}
		respondJSON(w, http.StatusOK, o)
		return
	}

	o, err := h.queryHandler.GetOrderForUser(middleware.GetUserID(r.Context()), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/cancel")

	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	cmd := command.CancelOrder{
		UserID:  middleware.GetUserID(r.Context()),
		OrderID: id,
		Reason:  req.Reason,
	}
	cancelled, err := h.cmdHandler.CancelOrder(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cancelled)
}

// GetOrderTracking serves the customer-facing live tracking view.
func (h *Handlers) GetOrderTracking(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/tracking")

	tracking, err := h.queryHandler.GetLiveTracking(middleware.GetUserID(r.Context()), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tracking)
}

// Admin Order Handlers

func (h *Handlers) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	riderStatus := r.URL.Query().Get("rider_status")
	respondJSON(w, http.StatusOK, h.queryHandler.ListAllOrders(status, riderStatus))
}

func (h *Handlers) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/admin/orders/"), "/status")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.AdminSetStatus{
		OrderID: id,
		Status:  order.Status(req.Status),
		ActorID: middleware.GetUserID(r.Context()),
	}
	updated, err := h.cmdHandler.AdminSetStatus(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/orders/")

	cmd := command.AdminDeleteOrder{OrderID: id}
	if err := h.cmdHandler.AdminDeleteOrder(r.Context(), cmd); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Order deleted"})
}

func (h *Handlers) AssignRider(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/admin/orders/"), "/assign")

	var req struct {
		RiderID string `json:"rider_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.AssignRider{
		OrderID: id,
		RiderID: req.RiderID,
		ActorID: middleware.GetUserID(r.Context()),
	}
	updated, err := h.cmdHandler.AssignRider(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) SetDeliveryDate(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/admin/orders/"), "/delivery-date")

	var req struct {
		DeliveryDate time.Time `json:"delivery_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.SetDeliveryDate{
		OrderID:      id,
		DeliveryDate: req.DeliveryDate,
	}
	updated, err := h.cmdHandler.SetDeliveryDate(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// Admin Rider Handlers

func (h *Handlers) GetRiders(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("available") == "true" {
		respondJSON(w, http.StatusOK, h.queryHandler.ListAvailableRiders())
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListRiders())
}

func (h *Handlers) GetRiderDetail(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/riders/")
	rd, ok := h.queryHandler.GetRider(id)
	if !ok {
		respondJSONError(w, "Rider not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, rd)
}

func (h *Handlers) SetRiderActive(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/admin/riders/"), "/active")

	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.SetRiderActive{RiderID: id, Active: req.IsActive}
	updated, err := h.cmdHandler.SetRiderActive(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"rider_id":  updated.ID,
		"is_active": updated.IsActive,
	})
}

// Helper functions

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func isAdmin(r *http.Request) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return false
	}
	return claims.Role == middleware.RoleAdmin
}
