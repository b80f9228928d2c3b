package discount

import "time"

// Reason is the fixed vocabulary of rejection reasons. Checks run in a fixed
// order, so for any given rule and cart the reported reason is deterministic.
type Reason string

const (
	ReasonInactive             Reason = "inactive"
	ReasonNotStarted           Reason = "not_started"
	ReasonExpired              Reason = "expired"
	ReasonUsageLimitReached    Reason = "usage_limit_reached"
	ReasonAlreadyUsed          Reason = "already_used"
	ReasonNotFirstOrder        Reason = "not_first_order"
	ReasonNotApplicable        Reason = "not_applicable"
	ReasonBelowMinimumAmount   Reason = "below_minimum_amount"
	ReasonBelowMinimumQuantity Reason = "below_minimum_quantity"
)

// eligibleLines holds the subset of cart lines a rule applies to, as indexes
// into cart.Lines, along with the subset's subtotal and unit count.
type eligibleLines struct {
	indexes  []int
	subtotal dec
	quantity int
}

// checkEligibility runs the ordered eligibility checks for one rule against
// the cart. It returns the eligible line subset on success, or the first
// failing check's reason. Pure: no side effects, no I/O.
func checkEligibility(r *Rule, cart *Cart, now time.Time, usage UsageSummary) (eligibleLines, Reason, bool) {
	var none eligibleLines

	if !r.Active {
		return none, ReasonInactive, false
	}
	if r.StartsAt != nil && now.Before(*r.StartsAt) {
		return none, ReasonNotStarted, false
	}
	if r.EndsAt != nil && now.After(*r.EndsAt) {
		return none, ReasonExpired, false
	}
	if WouldExceedUsage(r, usage) {
		return none, ReasonUsageLimitReached, false
	}
	if r.OncePerCustomer && usage.AlreadyUsed(r.Code) {
		return none, ReasonAlreadyUsed, false
	}
	if r.FirstOrderOnly && !cart.FirstOrder {
		return none, ReasonNotFirstOrder, false
	}

	el := eligibleLines{subtotal: zero}
	member := cart.Member()
	for i, l := range cart.Lines {
		if !r.AppliesTo.matchesLine(l, member) {
			continue
		}
		el.indexes = append(el.indexes, i)
		el.subtotal = el.subtotal.Add(l.Subtotal())
		el.quantity += l.Quantity
	}
	if len(el.indexes) == 0 {
		return none, ReasonNotApplicable, false
	}

	// Minimums are checked against the eligible subset, not the full cart.
	if r.MinimumAmount.IsPositive() && el.subtotal.LessThan(r.MinimumAmount) {
		return none, ReasonBelowMinimumAmount, false
	}
	if r.MinimumQuantity > 0 && el.quantity < r.MinimumQuantity {
		return none, ReasonBelowMinimumQuantity, false
	}

	return el, "", true
}
