package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/openpos/register/internal/domain"
	"github.com/openpos/register/internal/hold"
	"github.com/openpos/register/internal/register"
	"github.com/openpos/register/internal/store"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Warn("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleRegisterError maps engine errors to HTTP status codes.
func (h *Handler) handleRegisterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownDiscountKind):
		h.respondError(w, http.StatusBadRequest, "unknown_discount_kind", err.Error())
	case errors.Is(err, register.ErrMissingProductID):
		h.respondError(w, http.StatusBadRequest, "missing_product_id", err.Error())
	case errors.Is(err, store.ErrHoldNotFound):
		h.respondError(w, http.StatusNotFound, "hold_not_found", err.Error())
	case errors.Is(err, hold.ErrNothingToHold):
		h.respondError(w, http.StatusConflict, "empty_cart", err.Error())
	default:
		h.log.Error("internal error", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
