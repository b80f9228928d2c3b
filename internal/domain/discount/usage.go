package discount

import "github.com/go-faster/errors"

// ErrUsageExceeded is returned by redeem-time re-validation when a code's
// usage limit was exhausted between evaluation and commit.
var ErrUsageExceeded = errors.New("usage limit exceeded")

// WouldExceedUsage reports whether redeeming the rule once more would exceed
// its usage limit. It is the same predicate the eligibility checks use, split
// out so the checkout-commit caller can re-validate against fresh counts
// inside the same transaction that increments them. Two concurrent checkouts
// can both pass evaluation; only the re-check behind the transaction decides.
func WouldExceedUsage(r *Rule, usage UsageSummary) bool {
	return r.UsageLimit > 0 && usage.CountFor(r) >= r.UsageLimit
}
