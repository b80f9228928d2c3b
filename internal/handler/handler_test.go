package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-discounts/internal/checkout"
	"github.com/xenking/storefront-discounts/internal/domain/discount"
)

// --- Mock implementations ---

type mockEvaluator struct {
	result    *discount.Result
	err       error
	lastCart  *discount.Cart
	lastOrder string
}

func (m *mockEvaluator) Evaluate(_ context.Context, cart *discount.Cart) (*discount.Result, error) {
	m.lastCart = cart
	return m.result, m.err
}

func (m *mockEvaluator) Commit(_ context.Context, cart *discount.Cart, orderID string) (*discount.Result, error) {
	m.lastCart = cart
	m.lastOrder = orderID
	return m.result, m.err
}

type mockAdmin struct {
	catalog   *discount.Catalog
	createID  string
	createErr error
	invalid   []discount.RecordError
	reloadErr error
	lastRec   discount.Record
}

func (m *mockAdmin) Snapshot() *discount.Catalog { return m.catalog }

func (m *mockAdmin) Create(_ context.Context, rec discount.Record) (string, error) {
	m.lastRec = rec
	return m.createID, m.createErr
}

func (m *mockAdmin) Reload(_ context.Context) ([]discount.RecordError, error) {
	return m.invalid, m.reloadErr
}

// --- Helpers ---

func newCatalog(t *testing.T, rules ...*discount.Rule) *discount.Catalog {
	t.Helper()
	cat, err := discount.NewCatalog(rules)
	require.NoError(t, err)
	return cat
}

func doRequest(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

const validCartBody = `{
	"lines": [{"productId": "p1", "categoryId": "c1", "quantity": 2, "unitPrice": "10.00"}],
	"enteredCodes": ["SAVE10"],
	"customerId": "cust-1"
}`

// --- Tests ---

func TestEvaluateCart(t *testing.T) {
	eval := &mockEvaluator{
		result: &discount.Result{
			Applied: []discount.Applied{{
				Code:      "SAVE10",
				Kind:      "percentage",
				AmountOff: decimal.RequireFromString("2.00"),
			}},
			TotalDiscount: decimal.RequireFromString("2.00"),
		},
	}
	h := NewHandler(eval, &mockAdmin{})

	rec := doRequest(t, h, http.MethodPost, "/cart/evaluate", validCartBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var res discount.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Applied, 1)
	assert.Equal(t, "SAVE10", res.Applied[0].Code)
	assert.True(t, res.TotalDiscount.Equal(decimal.RequireFromString("2.00")))

	require.NotNil(t, eval.lastCart)
	assert.Equal(t, "cust-1", eval.lastCart.CustomerID)
	assert.Equal(t, []string{"SAVE10"}, eval.lastCart.EnteredCodes)
}

func TestEvaluateCart_Validation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMsg  string
	}{
		{
			name:     "malformed json",
			body:     `{not json`,
			wantCode: http.StatusBadRequest,
			wantMsg:  "invalid request body",
		},
		{
			name:     "empty lines",
			body:     `{"lines": []}`,
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "lines required",
		},
		{
			name:     "missing product id",
			body:     `{"lines": [{"quantity": 1, "unitPrice": "5.00"}]}`,
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "product id required",
		},
		{
			name:     "zero quantity",
			body:     `{"lines": [{"productId": "p1", "quantity": 0, "unitPrice": "5.00"}]}`,
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "quantity must be greater than 0",
		},
		{
			name:     "negative unit price",
			body:     `{"lines": [{"productId": "p1", "quantity": 1, "unitPrice": "-1.00"}]}`,
			wantCode: http.StatusUnprocessableEntity,
			wantMsg:  "unit price must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(&mockEvaluator{}, &mockAdmin{})

			rec := doRequest(t, h, http.MethodPost, "/cart/evaluate", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Message, tt.wantMsg)
		})
	}
}

func TestEvaluateCart_CatalogUnavailable(t *testing.T) {
	eval := &mockEvaluator{err: checkout.ErrCatalogUnavailable}
	h := NewHandler(eval, &mockAdmin{})

	rec := doRequest(t, h, http.MethodPost, "/cart/evaluate", validCartBody)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCommitCheckout(t *testing.T) {
	eval := &mockEvaluator{
		result: &discount.Result{
			TotalDiscount: decimal.Zero,
		},
	}
	h := NewHandler(eval, &mockAdmin{})

	body := `{"cart": ` + validCartBody + `, "orderId": "order-42"}`
	rec := doRequest(t, h, http.MethodPost, "/checkout/commit", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "order-42", eval.lastOrder)
}

func TestCommitCheckout_MissingOrderID(t *testing.T) {
	h := NewHandler(&mockEvaluator{}, &mockAdmin{})

	body := `{"cart": ` + validCartBody + `}`
	rec := doRequest(t, h, http.MethodPost, "/checkout/commit", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "order id required", resp.Message)
}

func TestCommitCheckout_UsageConflict(t *testing.T) {
	eval := &mockEvaluator{err: errors.Wrap(discount.ErrUsageExceeded, "redeem SAVE10")}
	h := NewHandler(eval, &mockAdmin{})

	body := `{"cart": ` + validCartBody + `, "orderId": "order-42"}`
	rec := doRequest(t, h, http.MethodPost, "/checkout/commit", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListDiscounts(t *testing.T) {
	cat := newCatalog(t,
		&discount.Rule{
			ID:     "d1",
			Code:   "SAVE10",
			Kind:   discount.Percentage{Value: decimal.NewFromInt(10)},
			Active: true,
		},
		&discount.Rule{
			ID:        "d2",
			Code:      "SHIPFREE",
			Kind:      discount.FreeShipping{},
			Active:    true,
			Stackable: true,
		},
	)
	h := NewHandler(&mockEvaluator{}, &mockAdmin{catalog: cat})

	rec := doRequest(t, h, http.MethodGet, "/discounts/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []discountSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "SAVE10", out[0].Code)
	assert.Equal(t, "percentage", out[0].Kind)
	assert.Equal(t, "SHIPFREE", out[1].Code)
	assert.True(t, out[1].Stackable)
}

func TestListDiscounts_NoCatalog(t *testing.T) {
	h := NewHandler(&mockEvaluator{}, &mockAdmin{})

	rec := doRequest(t, h, http.MethodGet, "/discounts/", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateDiscount(t *testing.T) {
	admin := &mockAdmin{createID: "d-new"}
	h := NewHandler(&mockEvaluator{}, admin)

	body := `{"code": "WELCOME", "type": "percentage", "value": "15", "active": true}`
	rec := doRequest(t, h, http.MethodPost, "/discounts/", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp createDiscountResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "d-new", resp.ID)
	assert.Equal(t, "WELCOME", admin.lastRec.Code)
}

func TestCreateDiscount_Invalid(t *testing.T) {
	admin := &mockAdmin{createErr: errors.New("percentage must be in (0, 100]")}
	h := NewHandler(&mockEvaluator{}, admin)

	body := `{"code": "BAD", "type": "percentage", "value": "150"}`
	rec := doRequest(t, h, http.MethodPost, "/discounts/", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReloadCatalog(t *testing.T) {
	cat := newCatalog(t, &discount.Rule{
		ID:     "d1",
		Code:   "SAVE10",
		Kind:   discount.Percentage{Value: decimal.NewFromInt(10)},
		Active: true,
	})
	admin := &mockAdmin{
		catalog: cat,
		invalid: []discount.RecordError{
			{Code: "BROKEN", Err: errors.New("percentage required")},
		},
	}
	h := NewHandler(&mockEvaluator{}, admin)

	rec := doRequest(t, h, http.MethodPost, "/discounts/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp reloadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Rules)
	require.Len(t, resp.Invalid, 1)
	assert.Equal(t, "BROKEN", resp.Invalid[0].Code)
	assert.Contains(t, resp.Invalid[0].Error, "percentage required")
}
