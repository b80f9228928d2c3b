package discount

import "github.com/shopspring/decimal"

// GiftLine is a bonus zero-price line granted by a gift-product rule when the
// gift is not already in the cart.
type GiftLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Applied is one discount that made it into the final selection.
type Applied struct {
	DiscountID    string          `json:"discountId"`
	Code          string          `json:"code"`
	Kind          string          `json:"kind"`
	AmountOff     decimal.Decimal `json:"amountOff"`
	AffectedLines []int           `json:"affectedLines,omitempty"`
	FreeShipping  bool            `json:"freeShipping,omitempty"`
	Gift          *GiftLine       `json:"gift,omitempty"`
}

// Rejection explains why an activated rule did not apply.
type Rejection struct {
	Code   string `json:"code"`
	Reason Reason `json:"reason"`
}

// Result is the outcome of one evaluation. Applied and Rejected are sorted by
// code, so identical inputs serialize identically.
type Result struct {
	Applied       []Applied       `json:"applied"`
	Rejected      []Rejection     `json:"rejected"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	FreeShipping  bool            `json:"freeShipping"`
}
