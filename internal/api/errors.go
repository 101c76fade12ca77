package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/example/ec-dispatch/internal/domain/cart"
	"github.com/example/ec-dispatch/internal/domain/inventory"
	"github.com/example/ec-dispatch/internal/domain/order"
	"github.com/example/ec-dispatch/internal/domain/product"
	"github.com/example/ec-dispatch/internal/domain/rider"
	"github.com/example/ec-dispatch/internal/query"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// respondDomainError maps domain sentinel errors onto HTTP codes. Anything
// unrecognized is a 500 so bugs don't hide behind 4xx responses.
func respondDomainError(w http.ResponseWriter, err error) {
	respondJSONError(w, err.Error(), statusForError(err))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, rider.ErrRiderNotFound),
		errors.Is(err, query.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, query.ErrForbidden):
		return http.StatusForbidden

	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrOrderCancelled),
		errors.Is(err, order.ErrOrderDelivered),
		errors.Is(err, order.ErrOrderShipped),
		errors.Is(err, order.ErrAlreadyAssigned),
		errors.Is(err, order.ErrDeliveryCompleted),
		errors.Is(err, order.ErrOrderNotCancelled),
		errors.Is(err, rider.ErrRiderUnavailable),
		errors.Is(err, rider.ErrRiderOnDelivery),
		errors.Is(err, inventory.ErrInsufficientStock):
		return http.StatusConflict

	case errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrProofRequired),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, rider.ErrInvalidVehicle),
		errors.Is(err, rider.ErrInvalidRStatus):
		return http.StatusBadRequest

	case errors.Is(err, rider.ErrRiderInactive):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}
