// Package discount implements the cart discount resolution engine: given an
// immutable rule catalog, a cart snapshot, the evaluation clock, and a usage
// ledger snapshot, it decides which discounts apply, with amounts and
// rejection reasons. All persistence and audit side effects stay with the
// caller.
package discount

import (
	"sort"
	"time"
)

// Evaluate resolves which discounts apply to the cart. It is a pure function
// of (catalog, cart, now, usage): no shared state, no I/O, safe to call
// concurrently and repeatedly. Identical inputs produce identical results.
//
// One bad coupon never aborts the evaluation; every activated rule that does
// not apply contributes a Rejection instead.
func Evaluate(catalog *Catalog, cart *Cart, now time.Time, usage UsageSummary) *Result {
	res := &Result{
		Applied:       []Applied{},
		Rejected:      []Rejection{},
		TotalDiscount: zero,
	}

	active := expandTriggers(catalog, cart.EnteredCodes)

	// Entered codes with no catalog rule apply to nothing.
	known := make(map[string]struct{}, len(active))
	for _, r := range active {
		known[r.Code] = struct{}{}
	}
	seen := make(map[string]struct{})
	for _, entered := range cart.EnteredCodes {
		code := CanonicalCode(entered)
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		if _, ok := catalog.ByCode(code); !ok {
			res.Rejected = append(res.Rejected, Rejection{Code: code, Reason: ReasonNotApplicable})
		}
	}

	var cands []candidate
	for _, r := range active {
		el, reason, ok := checkEligibility(r, cart, now, usage)
		if !ok {
			res.Rejected = append(res.Rejected, Rejection{Code: r.Code, Reason: reason})
			continue
		}
		c, ok := resolve(r, cart, el)
		if !ok {
			res.Rejected = append(res.Rejected, Rejection{Code: r.Code, Reason: ReasonNotApplicable})
			continue
		}
		cands = append(cands, c)
	}

	chosen := arbitrate(cart, cands)

	// Walk the winners in code order, clamping each line's running discount
	// to the line price so the reported amounts sum exactly to the total.
	remaining := make(map[int]dec, len(cart.Lines))
	for i, l := range cart.Lines {
		remaining[i] = l.Subtotal()
	}
	for _, c := range chosen {
		amount := zero
		lines := make([]int, 0, len(c.perLine))
		for i := range c.perLine {
			lines = append(lines, i)
		}
		sort.Ints(lines)
		for _, i := range lines {
			off := c.perLine[i]
			if off.GreaterThan(remaining[i]) {
				off = remaining[i]
			}
			remaining[i] = remaining[i].Sub(off)
			amount = amount.Add(off)
		}

		a := Applied{
			DiscountID:    c.rule.ID,
			Code:          c.rule.Code,
			Kind:          c.rule.Kind.Name(),
			AmountOff:     amount.Round(2),
			AffectedLines: lines,
			FreeShipping:  c.freeShipping,
			Gift:          c.gift,
		}
		res.Applied = append(res.Applied, a)
		res.TotalDiscount = res.TotalDiscount.Add(a.AmountOff)
		if c.freeShipping {
			res.FreeShipping = true
		}
	}

	sort.Slice(res.Rejected, func(i, j int) bool {
		return res.Rejected[i].Code < res.Rejected[j].Code
	})

	return res
}
