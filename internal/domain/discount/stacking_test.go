package discount

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalAll(t *testing.T, rules []*Rule, cart *Cart) *Result {
	t.Helper()
	catalog, err := NewCatalog(rules)
	require.NoError(t, err)
	return Evaluate(catalog, cart, time.Now(), UsageSummary{})
}

func TestStackingSumsStackables(t *testing.T) {
	a := activeRule("A", Percentage{Value: d("10")})
	a.Stackable = true
	b := activeRule("B", FixedAmount{Value: d("5")})
	b.Stackable = true
	cart := &Cart{
		Lines:        []Line{line("p1", "c1", 1, "100")},
		EnteredCodes: []string{"A", "B"},
	}

	res := evalAll(t, []*Rule{a, b}, cart)

	require.Len(t, res.Applied, 2)
	assert.True(t, d("15").Equal(res.TotalDiscount),
		"expected 15, got %s", res.TotalDiscount)
}

func TestStackingPicksBestNonStackable(t *testing.T) {
	a := activeRule("A", Percentage{Value: d("10")})
	b := activeRule("B", Percentage{Value: d("25")})
	cart := &Cart{
		Lines:        []Line{line("p1", "c1", 1, "100")},
		EnteredCodes: []string{"A", "B"},
	}

	res := evalAll(t, []*Rule{a, b}, cart)

	require.Len(t, res.Applied, 1)
	assert.Equal(t, "B", res.Applied[0].Code)
	assert.True(t, d("25").Equal(res.TotalDiscount))
}

func TestStackingNonStackableTieBreaksByCode(t *testing.T) {
	a := activeRule("ZZZ", Percentage{Value: d("10")})
	b := activeRule("AAA", Percentage{Value: d("10")})
	cart := &Cart{
		Lines:        []Line{line("p1", "c1", 1, "100")},
		EnteredCodes: []string{"ZZZ", "AAA"},
	}

	res := evalAll(t, []*Rule{a, b}, cart)

	require.Len(t, res.Applied, 1)
	assert.Equal(t, "AAA", res.Applied[0].Code)
}

func TestStackingCombinesStackableAndBestNonStackable(t *testing.T) {
	stack := activeRule("STACK", Percentage{Value: d("10")})
	stack.Stackable = true
	solo := activeRule("SOLO", FixedAmount{Value: d("20")})
	cart := &Cart{
		Lines:        []Line{line("p1", "c1", 1, "100")},
		EnteredCodes: []string{"STACK", "SOLO"},
	}

	res := evalAll(t, []*Rule{stack, solo}, cart)

	require.Len(t, res.Applied, 2)
	assert.True(t, d("30").Equal(res.TotalDiscount),
		"expected 30, got %s", res.TotalDiscount)
}

func TestStackingClampsLineToItsPrice(t *testing.T) {
	// Two 80% discounts on one 100 line would be 160 unclamped; the line can
	// only absorb 100.
	a := activeRule("A", Percentage{Value: d("80")})
	a.Stackable = true
	b := activeRule("B", Percentage{Value: d("80")})
	b.Stackable = true
	cart := &Cart{
		Lines:        []Line{line("p1", "c1", 1, "100")},
		EnteredCodes: []string{"A", "B"},
	}

	res := evalAll(t, []*Rule{a, b}, cart)

	require.Len(t, res.Applied, 2)
	assert.True(t, d("100").Equal(res.TotalDiscount),
		"expected 100, got %s", res.TotalDiscount)
	// First winner takes its full 80, the second only the remaining 20.
	assert.True(t, d("80").Equal(res.Applied[0].AmountOff))
	assert.True(t, d("20").Equal(res.Applied[1].AmountOff))
}

func TestStackingNoWorseThanBestSingle(t *testing.T) {
	// Property: the arbiter never does worse than the best individually
	// eligible discount, whatever mix of stackable flags.
	rules := []*Rule{}
	for _, tc := range []struct {
		code      string
		pct       string
		stackable bool
	}{
		{"A", "5", true},
		{"B", "40", false},
		{"C", "15", false},
		{"D", "3", true},
	} {
		r := activeRule(tc.code, Percentage{Value: d(tc.pct)})
		r.Stackable = tc.stackable
		rules = append(rules, r)
	}
	cart := &Cart{
		Lines:        []Line{line("p1", "c1", 2, "50")},
		EnteredCodes: []string{"A", "B", "C", "D"},
	}

	res := evalAll(t, rules, cart)

	// Best single is B at 40; stackables add 8 on top.
	assert.True(t, res.TotalDiscount.GreaterThanOrEqual(d("40")),
		"total %s worse than best single 40", res.TotalDiscount)
	assert.True(t, d("48").Equal(res.TotalDiscount),
		"expected 48, got %s", res.TotalDiscount)
}
