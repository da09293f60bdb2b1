package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the register's HTTP surface.
func NewRouter(h *Handler, log *zap.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(log))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Get("/totals", h.GetTotals)
			r.Post("/items", h.AddItem)
			r.Put("/items/{product_id}/quantity", h.UpdateQuantity)
			r.Put("/items/{product_id}/price", h.UpdatePrice)
			r.Delete("/items/{product_id}", h.RemoveItem)
			r.Put("/customer", h.SetCustomer)
			r.Put("/discount", h.SetDiscount)
			r.Put("/notes", h.SetNotes)
			r.Post("/clear", h.ClearCart)
			r.Post("/reload", h.ReloadCart)
		})
		r.Route("/holds", func(r chi.Router) {
			r.Get("/", h.ListHolds)
			r.Post("/", h.ParkCart)
			r.Post("/{hold_id}/resume", h.ResumeHold)
			r.Delete("/{hold_id}", h.DiscardHold)
		})
	})

	return r
}
