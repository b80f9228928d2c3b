package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xenking/storefront-discounts/internal/domain/discount"
)

type discountSummary struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Kind      string `json:"kind"`
	Active    bool   `json:"active"`
	Stackable bool   `json:"stackable"`
}

type createDiscountResponse struct {
	ID string `json:"id"`
}

type reloadResponse struct {
	Rules   int             `json:"rules"`
	Invalid []invalidRecord `json:"invalid,omitempty"`
}

type invalidRecord struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// ListDiscounts returns a summary of every rule in the current catalog
// snapshot.
func (h *Handler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	cat := h.admin.Snapshot()
	if cat == nil {
		respondError(w, http.StatusServiceUnavailable, "catalog not loaded")
		return
	}

	rules := cat.Rules()
	out := make([]discountSummary, len(rules))
	for i, rule := range rules {
		out[i] = discountSummary{
			ID:        rule.ID,
			Code:      rule.Code,
			Kind:      rule.Kind.Name(),
			Active:    rule.Active,
			Stackable: rule.Stackable,
		}
	}

	respondJSON(w, http.StatusOK, out)
}

// CreateDiscount validates and persists a new discount rule. The catalog
// snapshot is not refreshed automatically, call reload to pick it up.
func (h *Handler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	var rec discount.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.admin.Create(r.Context(), rec)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, createDiscountResponse{ID: id})
}

// ReloadCatalog reloads the catalog from storage and swaps the snapshot.
func (h *Handler) ReloadCatalog(w http.ResponseWriter, r *http.Request) {
	invalid, err := h.admin.Reload(r.Context())
	if err != nil {
		respondInternal(w, r, err, "reload catalog")
		return
	}

	resp := reloadResponse{}
	if cat := h.admin.Snapshot(); cat != nil {
		resp.Rules = cat.Len()
	}
	for _, rec := range invalid {
		resp.Invalid = append(resp.Invalid, invalidRecord{Code: rec.Code, Error: rec.Err.Error()})
	}

	respondJSON(w, http.StatusOK, resp)
}
