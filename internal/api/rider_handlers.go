package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/example/ec-dispatch/internal/api/middleware"
	"github.com/example/ec-dispatch/internal/command"
	"github.com/example/ec-dispatch/internal/domain/order"
	"github.com/example/ec-dispatch/internal/domain/rider"
)

// Rider-facing endpoints. The rider's identity always comes from the JWT,
// never from the request body, so a rider can only act on their own orders.

func (h *Handlers) GetRiderOrders(w http.ResponseWriter, r *http.Request) {
	riderID := middleware.GetUserID(r.Context())
	respondJSON(w, http.StatusOK, h.queryHandler.ListRiderOrders(riderID))
}

func (h *Handlers) GetRiderProfile(w http.ResponseWriter, r *http.Request) {
	riderID := middleware.GetUserID(r.Context())
	rd, ok := h.queryHandler.GetRider(riderID)
	if !ok {
		respondJSONError(w, "Rider not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, rd)
}

func (h *Handlers) MarkReadyToDispatch(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/rider/orders/"), "/ready")

	cmd := command.MarkReadyToDispatch{
		RiderID: middleware.GetUserID(r.Context()),
		OrderID: orderID,
	}
	updated, err := h.cmdHandler.MarkReadyToDispatch(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) StartDelivery(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/rider/orders/"), "/start")

	var req struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.StartDelivery{
		RiderID: middleware.GetUserID(r.Context()),
		OrderID: orderID,
		Point: order.TrackingPoint{
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		},
	}
	updated, err := h.cmdHandler.StartDelivery(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// UpdateLocation accepts a GPS ping. Always 202: a ping against a finished
// or unknown order is dropped, not rejected, so rider apps never have to
// handle failures on the hot path.
func (h *Handlers) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/rider/orders/"), "/location")

	var req struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Speed     float64 `json:"speed"`
		Accuracy  float64 `json:"accuracy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.UpdateLocation{
		RiderID: middleware.GetUserID(r.Context()),
		OrderID: orderID,
		Point: order.TrackingPoint{
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Speed:     req.Speed,
			Accuracy:  req.Accuracy,
			Timestamp: time.Now(),
		},
	}
	count, err := h.cmdHandler.UpdateLocation(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]int{"tracking_points": count})
}

func (h *Handlers) CompleteDelivery(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/rider/orders/"), "/complete")

	var req struct {
		ImageURL  string `json:"image_url"`
		Signature string `json:"signature"`
		Notes     string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.CompleteDelivery{
		RiderID: middleware.GetUserID(r.Context()),
		OrderID: orderID,
		Proof: order.Proof{
			ImageURL:  req.ImageURL,
			Signature: req.Signature,
			Notes:     req.Notes,
		},
	}
	updated, err := h.cmdHandler.CompleteDelivery(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) FailDelivery(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/rider/orders/"), "/fail")

	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	cmd := command.FailDelivery{
		RiderID: middleware.GetUserID(r.Context()),
		OrderID: orderID,
		Reason:  req.Reason,
	}
	updated, err := h.cmdHandler.FailDelivery(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) SetRiderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cmd := command.SetRiderStatus{
		RiderID: middleware.GetUserID(r.Context()),
		Status:  rider.Status(req.Status),
	}
	updated, err := h.cmdHandler.SetRiderStatus(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"rider_id": updated.ID,
		"status":   updated.Status,
	})
}
