package discount

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateExpiredCouponRejected(t *testing.T) {
	r := activeRule("OLD", Percentage{Value: d("20")})
	r.EndsAt = ts("2025-01-01T00:00:00Z")
	catalog, err := NewCatalog([]*Rule{r})
	require.NoError(t, err)

	cart := &Cart{
		Lines:        []Line{line("p1", "c1", 1, "100")},
		EnteredCodes: []string{"OLD"},
	}
	res := Evaluate(catalog, cart, *ts("2026-01-01T00:00:00Z"), UsageSummary{})

	assert.Empty(t, res.Applied)
	assert.True(t, res.TotalDiscount.IsZero())
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, Rejection{Code: "OLD", Reason: ReasonExpired}, res.Rejected[0])
}

func TestEvaluateUnknownCodeRejected(t *testing.T) {
	catalog, err := NewCatalog(nil)
	require.NoError(t, err)

	cart := &Cart{
		Lines:        []Line{line("p1", "c1", 1, "100")},
		EnteredCodes: []string{"NOPE"},
	}
	res := Evaluate(catalog, cart, time.Now(), UsageSummary{})

	require.Len(t, res.Rejected, 1)
	assert.Equal(t, Rejection{Code: "NOPE", Reason: ReasonNotApplicable}, res.Rejected[0])
}

func TestEvaluateCodesCaseInsensitive(t *testing.T) {
	r := activeRule("SAVE10", Percentage{Value: d("10")})
	catalog, err := NewCatalog([]*Rule{r})
	require.NoError(t, err)

	cart := &Cart{
		Lines:        []Line{line("p1", "c1", 1, "100")},
		EnteredCodes: []string{"  save10 "},
	}
	res := Evaluate(catalog, cart, time.Now(), UsageSummary{})

	require.Len(t, res.Applied, 1)
	assert.Equal(t, "SAVE10", res.Applied[0].Code)
}

func TestEvaluateIdempotent(t *testing.T) {
	a := activeRule("A", Percentage{Value: d("12.5")})
	a.Stackable = true
	b := activeRule("B", BuyXPayY{BuyQty: 2, PayAmount: d("15")})
	c := activeRule("C", Percentage{Value: d("20")})
	c.EndsAt = ts("2020-01-01T00:00:00Z")
	catalog, err := NewCatalog([]*Rule{a, b, c})
	require.NoError(t, err)

	cart := &Cart{
		Lines: []Line{
			line("p1", "c1", 3, "19.99"),
			line("p2", "c2", 1, "5.25"),
		},
		EnteredCodes: []string{"A", "B", "C"},
		CustomerID:   "cust-1",
	}
	now := *ts("2026-03-01T09:30:00Z")
	usage := UsageSummary{Counts: map[string]int{"A": 3}}

	first := Evaluate(catalog, cart, now, usage)
	second := Evaluate(catalog, cart, now, usage)

	j1, err := json.Marshal(first)
	require.NoError(t, err)
	j2, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(j1), string(j2))
}

func TestEvaluateResultSerializes(t *testing.T) {
	r := activeRule("SAVE10", Percentage{Value: d("10")})
	catalog, err := NewCatalog([]*Rule{r})
	require.NoError(t, err)

	cart := &Cart{
		Lines:        []Line{line("p1", "c1", 1, "33.30")},
		EnteredCodes: []string{"SAVE10"},
	}
	res := Evaluate(catalog, cart, time.Now(), UsageSummary{})

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"code":"SAVE10"`)
	assert.Contains(t, string(data), `"totalDiscount":"3.33"`)
}
