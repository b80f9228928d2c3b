package discount

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the discount behaviour of a rule. It is a sealed sum type: exactly
// one variant per supported discount strategy, each carrying only the fields
// that strategy needs.
type Kind interface {
	// Name returns the stable wire identifier of the variant.
	Name() string

	sealed()
}

// Percentage takes Value percent off the eligible subtotal.
type Percentage struct {
	Value decimal.Decimal
}

// FixedAmount takes a fixed monetary amount off, capped at the eligible subtotal.
type FixedAmount struct {
	Value decimal.Decimal
}

// FreeShipping waives the shipping cost. It produces no line discount.
type FreeShipping struct{}

// BuyXPayY reprices every full group of BuyQty eligible units to PayAmount.
type BuyXPayY struct {
	BuyQty    int
	PayAmount decimal.Decimal
}

// BuyXGetY discounts the GetQty cheapest units following every BuyQty
// consumed units by GetDiscountPercent (100 = free). When GiftSameProduct is
// set, grouping happens per product instead of across the whole eligible set.
type BuyXGetY struct {
	BuyQty             int
	GetQty             int
	GetDiscountPercent decimal.Decimal
	GiftSameProduct    bool
}

// GiftProduct grants one free unit of the first gift product when the rule's
// conditions are met.
type GiftProduct struct {
	GiftProductIDs []string
}

// Tier is a quantity threshold and its discount percentage.
type Tier struct {
	MinQuantity     int
	DiscountPercent decimal.Decimal
}

// QuantityDiscount applies the highest qualifying tier's percentage to the
// eligible subtotal. Tiers are kept sorted ascending by MinQuantity.
type QuantityDiscount struct {
	Tiers []Tier
}

// SpendXPayY charges PayAmount for every full SpendAmount of eligible
// subtotal. The remainder above the last full multiple is untouched.
type SpendXPayY struct {
	SpendAmount decimal.Decimal
	PayAmount   decimal.Decimal
}

func (Percentage) Name() string       { return "percentage" }
func (FixedAmount) Name() string      { return "fixed_amount" }
func (FreeShipping) Name() string     { return "free_shipping" }
func (BuyXPayY) Name() string         { return "buy_x_pay_y" }
func (BuyXGetY) Name() string         { return "buy_x_get_y" }
func (GiftProduct) Name() string      { return "gift_product" }
func (QuantityDiscount) Name() string { return "quantity_discount" }
func (SpendXPayY) Name() string       { return "spend_x_pay_y" }

func (Percentage) sealed()       {}
func (FixedAmount) sealed()      {}
func (FreeShipping) sealed()     {}
func (BuyXPayY) sealed()         {}
func (BuyXGetY) sealed()         {}
func (GiftProduct) sealed()      {}
func (QuantityDiscount) sealed() {}
func (SpendXPayY) sealed()       {}

// Scope selects which cart lines a rule applies to.
type Scope string

const (
	// ScopeAll applies to every cart line.
	ScopeAll Scope = "all"
	// ScopeCategory applies to lines whose category is in CategoryIDs.
	ScopeCategory Scope = "category"
	// ScopeProduct applies to lines whose product is in ProductIDs.
	ScopeProduct Scope = "product"
	// ScopeMember applies to every line, but only for signed-in customers.
	ScopeMember Scope = "member"
)

// Applicability restricts a rule to a subset of cart lines: an inclusion
// scope first, then the exclude sets subtracted.
type Applicability struct {
	Scope       Scope
	CategoryIDs map[string]struct{}
	ProductIDs  map[string]struct{}

	ExcludeCategoryIDs map[string]struct{}
	ExcludeProductIDs  map[string]struct{}
}

// Rule is one immutable, store-scoped discount definition. The engine only
// ever reads rules; creation and editing belong to the admin layer.
type Rule struct {
	ID   string
	Code string // canonical form, see CanonicalCode
	Kind Kind

	Active   bool
	StartsAt *time.Time
	EndsAt   *time.Time

	Stackable bool

	UsageLimit int // 0 means unlimited
	UsageCount int

	OncePerCustomer bool
	FirstOrderOnly  bool

	MinimumAmount   decimal.Decimal // zero means none
	MinimumQuantity int

	AppliesTo Applicability

	// TriggerCouponCodes are other codes that, when entered, also activate
	// this rule. ActivatesCouponCodes are codes this rule activates in turn.
	// Both hold canonical codes.
	TriggerCouponCodes   []string
	ActivatesCouponCodes []string
}

// CanonicalCode returns the canonical comparison form of a coupon code:
// trimmed and upper-cased. Codes are compared case-insensitively everywhere.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// matchesLine reports whether the line passes the inclusion scope and the
// exclude sets. member reports whether the cart belongs to a signed-in customer.
func (a Applicability) matchesLine(l Line, member bool) bool {
	switch a.Scope {
	case ScopeCategory:
		if _, ok := a.CategoryIDs[l.CategoryID]; !ok {
			return false
		}
	case ScopeProduct:
		if _, ok := a.ProductIDs[l.ProductID]; !ok {
			return false
		}
	case ScopeMember:
		if !member {
			return false
		}
	}
	if _, ok := a.ExcludeCategoryIDs[l.CategoryID]; ok {
		return false
	}
	if _, ok := a.ExcludeProductIDs[l.ProductID]; ok {
		return false
	}
	return true
}
