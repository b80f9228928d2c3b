package discount

import "github.com/shopspring/decimal"

// Line is one cart line as seen by the engine.
type Line struct {
	ProductID  string
	CategoryID string
	Quantity   int
	UnitPrice  decimal.Decimal
}

// Subtotal returns UnitPrice * Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the snapshot of one cart at evaluation time.
type Cart struct {
	Lines        []Line
	EnteredCodes []string
	CustomerID   string // empty for anonymous carts
	FirstOrder   bool
}

// Member reports whether the cart belongs to a signed-in customer.
func (c *Cart) Member() bool {
	return c.CustomerID != ""
}

// UsageSummary is a read-only snapshot of the usage ledger taken for one
// evaluation: redemption counts per code, and whether the evaluating customer
// has already used each code. The engine never mutates the ledger; the
// checkout caller re-checks and increments inside its own transaction.
type UsageSummary struct {
	Counts         map[string]int
	UsedByCustomer map[string]bool
}

// CountFor returns the redemption count for code, falling back to the count
// carried on the rule snapshot when the ledger has no entry.
func (s UsageSummary) CountFor(r *Rule) int {
	if s.Counts != nil {
		if n, ok := s.Counts[r.Code]; ok {
			return n
		}
	}
	return r.UsageCount
}

// AlreadyUsed reports whether the evaluating customer has redeemed code before.
func (s UsageSummary) AlreadyUsed(code string) bool {
	return s.UsedByCustomer[code]
}
