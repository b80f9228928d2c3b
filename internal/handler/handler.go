// Package handler exposes the discount service over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-discounts/internal/domain/discount"
)

// Evaluator runs cart evaluations and checkout commits.
type Evaluator interface {
	Evaluate(ctx context.Context, cart *discount.Cart) (*discount.Result, error)
	Commit(ctx context.Context, cart *discount.Cart, orderID string) (*discount.Result, error)
}

// CatalogAdmin is the catalog management surface used by the admin routes.
type CatalogAdmin interface {
	Snapshot() *discount.Catalog
	Create(ctx context.Context, rec discount.Record) (string, error)
	Reload(ctx context.Context) ([]discount.RecordError, error)
}

// Handler holds the HTTP handlers for the discount API.
type Handler struct {
	evaluator Evaluator
	admin     CatalogAdmin
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(evaluator Evaluator, admin CatalogAdmin) *Handler {
	return &Handler{evaluator: evaluator, admin: admin}
}

// Routes mounts the API routes on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/cart", func(r chi.Router) {
		r.Post("/evaluate", h.EvaluateCart)
	})
	r.Route("/checkout", func(r chi.Router) {
		r.Post("/commit", h.CommitCheckout)
	})
	r.Route("/discounts", func(r chi.Router) {
		r.Get("/", h.ListDiscounts)
		r.Post("/", h.CreateDiscount)
		r.Post("/reload", h.ReloadCatalog)
	})
	return r
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

func respondInternal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	zctx.From(r.Context()).Error(msg, zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}
