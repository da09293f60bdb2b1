package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openpos/register/internal/domain"
	"github.com/openpos/register/internal/hold"
	"github.com/openpos/register/internal/register"
	"github.com/openpos/register/internal/store"
)

const maxLineQuantity = 999

// Handler exposes the register's mutation and read surface to the POS UI.
type Handler struct {
	reg            *register.Register
	shelf          *hold.Shelf
	defaultTaxRate decimal.Decimal
	log            *zap.Logger
}

func NewHandler(reg *register.Register, shelf *hold.Shelf, defaultTaxRate decimal.Decimal, log *zap.Logger) *Handler {
	return &Handler{
		reg:            reg,
		shelf:          shelf,
		defaultTaxRate: defaultTaxRate,
		log:            log,
	}
}

type AddItemRequestDTO struct {
	ProductID  string            `json:"product_id"`
	Name       string            `json:"name"`
	SKU        string            `json:"sku,omitempty"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	Quantity   int               `json:"quantity"`
	Barcode    string            `json:"barcode,omitempty"`
	Taxable    *bool             `json:"taxable,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type UpdatePriceRequestDTO struct {
	Price decimal.Decimal `json:"price"`
}

type SetNotesRequestDTO struct {
	Notes string `json:"notes"`
}

type ParkRequestDTO struct {
	Name string `json:"name"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.reg.Snapshot())
}

func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	taxRate := h.defaultTaxRate
	if raw := r.URL.Query().Get("tax_rate"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() {
			h.respondError(w, http.StatusBadRequest, "invalid_tax_rate", "tax_rate must be a non-negative decimal")
			return
		}
		taxRate = parsed
	}

	h.respondJSON(w, http.StatusOK, h.reg.Totals(taxRate))
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		h.respondError(w, http.StatusBadRequest, "missing_product_id", "product_id is required")
		return
	}
	if req.Quantity < 0 || req.Quantity > maxLineQuantity {
		h.respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity out of range")
		return
	}
	if req.UnitPrice.IsNegative() {
		h.respondError(w, http.StatusBadRequest, "invalid_price", "unit_price must not be negative")
		return
	}

	item := domain.LineItem{
		ProductID:  req.ProductID,
		Name:       req.Name,
		SKU:        req.SKU,
		UnitPrice:  req.UnitPrice,
		Barcode:    req.Barcode,
		Taxable:    req.Taxable,
		Attributes: req.Attributes,
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	if err := h.reg.AddItem(r.Context(), item, quantity); err != nil {
		h.handleRegisterError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, h.reg.Snapshot())
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	if err := h.reg.RemoveItem(r.Context(), productID); err != nil {
		h.handleRegisterError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.reg.Snapshot())
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > maxLineQuantity {
		h.respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity out of range")
		return
	}

	// Zero and negative quantities remove the row; that is the engine's
	// contract, not an error.
	if err := h.reg.UpdateQuantity(r.Context(), productID, req.Quantity); err != nil {
		h.handleRegisterError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.reg.Snapshot())
}

func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	var req UpdatePriceRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Price.IsNegative() {
		h.respondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return
	}

	if err := h.reg.UpdateItemPrice(r.Context(), productID, req.Price); err != nil {
		h.handleRegisterError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.reg.Snapshot())
}

func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	// The body is either a customer object or JSON null to detach.
	var customer *domain.Customer
	if err := json.NewDecoder(r.Body).Decode(&customer); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.reg.SetCustomer(r.Context(), customer); err != nil {
		h.handleRegisterError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.reg.Snapshot())
}

func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	// The body is either a discount object or JSON null to remove it.
	var discount *domain.Discount
	if err := json.NewDecoder(r.Body).Decode(&discount); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.reg.SetDiscount(r.Context(), discount); err != nil {
		h.handleRegisterError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.reg.Snapshot())
}

func (h *Handler) SetNotes(w http.ResponseWriter, r *http.Request) {
	var req SetNotesRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.reg.SetNotes(r.Context(), req.Notes); err != nil {
		h.handleRegisterError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.reg.Snapshot())
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.reg.Clear(r.Context()); err != nil {
		h.handleRegisterError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.reg.Snapshot())
}

func (h *Handler) ReloadCart(w http.ResponseWriter, r *http.Request) {
	if err := h.reg.Reload(r.Context()); err != nil {
		h.handleRegisterError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.reg.Snapshot())
}

func (h *Handler) ParkCart(w http.ResponseWriter, r *http.Request) {
	var req ParkRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	parked, err := h.shelf.Park(r.Context(), h.reg, req.Name)
	if err != nil {
		h.handleRegisterError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, parked)
}

func (h *Handler) ListHolds(w http.ResponseWriter, r *http.Request) {
	holds, err := h.shelf.List(r.Context())
	if err != nil {
		h.handleRegisterError(w, err)
		return
	}
	if holds == nil {
		holds = []store.Hold{}
	}

	h.respondJSON(w, http.StatusOK, holds)
}

func (h *Handler) ResumeHold(w http.ResponseWriter, r *http.Request) {
	holdID := chi.URLParam(r, "hold_id")

	if _, err := h.shelf.Resume(r.Context(), h.reg, holdID); err != nil {
		h.handleRegisterError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, h.reg.Snapshot())
}

func (h *Handler) DiscardHold(w http.ResponseWriter, r *http.Request) {
	holdID := chi.URLParam(r, "hold_id")

	if err := h.shelf.Discard(r.Context(), holdID); err != nil {
		h.handleRegisterError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
