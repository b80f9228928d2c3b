package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-discounts/internal/checkout"
	"github.com/xenking/storefront-discounts/internal/domain/discount"
)

// cartRequest is the wire shape of a cart snapshot.
type cartRequest struct {
	Lines        []cartLine `json:"lines"`
	EnteredCodes []string   `json:"enteredCodes"`
	CustomerID   string     `json:"customerId"`
	FirstOrder   bool       `json:"firstOrder"`
}

type cartLine struct {
	ProductID  string          `json:"productId"`
	CategoryID string          `json:"categoryId"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
}

type commitRequest struct {
	Cart    cartRequest `json:"cart"`
	OrderID string      `json:"orderId"`
}

func (req cartRequest) toCart() (*discount.Cart, error) {
	if len(req.Lines) == 0 {
		return nil, errors.New("lines required")
	}
	cart := &discount.Cart{
		Lines:        make([]discount.Line, len(req.Lines)),
		EnteredCodes: req.EnteredCodes,
		CustomerID:   req.CustomerID,
		FirstOrder:   req.FirstOrder,
	}
	for i, l := range req.Lines {
		if l.ProductID == "" {
			return nil, errors.Errorf("line %d: product id required", i)
		}
		if l.Quantity <= 0 {
			return nil, errors.Errorf("line %d: quantity must be greater than 0", i)
		}
		if l.UnitPrice.IsNegative() {
			return nil, errors.Errorf("line %d: unit price must not be negative", i)
		}
		cart.Lines[i] = discount.Line{
			ProductID:  l.ProductID,
			CategoryID: l.CategoryID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
		}
	}
	return cart, nil
}

// EvaluateCart resolves the discounts for the posted cart snapshot.
func (h *Handler) EvaluateCart(w http.ResponseWriter, r *http.Request) {
	var req cartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cart, err := req.toCart()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := h.evaluator.Evaluate(r.Context(), cart)
	if err != nil {
		if errors.Is(err, checkout.ErrCatalogUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "catalog not loaded")
			return
		}
		respondInternal(w, r, err, "evaluate cart")
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// CommitCheckout re-evaluates the cart and redeems the applied discounts for
// the given order.
func (h *Handler) CommitCheckout(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		respondError(w, http.StatusUnprocessableEntity, "order id required")
		return
	}
	cart, err := req.Cart.toCart()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := h.evaluator.Commit(r.Context(), cart, req.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrCatalogUnavailable):
			respondError(w, http.StatusServiceUnavailable, "catalog not loaded")
		case errors.Is(err, discount.ErrUsageExceeded):
			respondError(w, http.StatusConflict, "discount usage limit exceeded, re-evaluate the cart")
		default:
			respondInternal(w, r, err, "commit checkout")
		}
		return
	}

	respondJSON(w, http.StatusOK, res)
}
