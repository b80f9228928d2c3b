package discount

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// RecordError reports one stored record that failed invariant validation at
// load time. Such records are skipped, reported for logging, and never
// evaluated.
type RecordError struct {
	Code string
	Err  error
}

func (e RecordError) Error() string {
	return "discount record " + e.Code + ": " + e.Err.Error()
}

// Catalog is an immutable set of parsed rules, indexed by canonical code.
type Catalog struct {
	rules  []*Rule
	byCode map[string]*Rule
}

// NewCatalog builds a catalog from parsed rules. Codes must be unique.
func NewCatalog(rules []*Rule) (*Catalog, error) {
	byCode := make(map[string]*Rule, len(rules))
	for _, r := range rules {
		if _, ok := byCode[r.Code]; ok {
			return nil, errors.Errorf("duplicate discount code %q", r.Code)
		}
		byCode[r.Code] = r
	}
	return &Catalog{rules: rules, byCode: byCode}, nil
}

// Rules returns the rules in catalog order. The caller must not mutate them.
func (c *Catalog) Rules() []*Rule { return c.rules }

// ByCode looks up a rule by canonical code.
func (c *Catalog) ByCode(code string) (*Rule, bool) {
	r, ok := c.byCode[code]
	return r, ok
}

// Len returns the number of rules.
func (c *Catalog) Len() int { return len(c.rules) }

// TierRecord is one raw quantity tier as stored.
type TierRecord struct {
	MinQuantity     int             `json:"minQuantity"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

// Record is the flat persisted shape of a discount: one row with a type
// discriminator and nullable per-kind fields, plus loosely-typed array
// columns. Parse is the single place this shape is validated and narrowed
// into a Rule; past that boundary impossible field combinations cannot exist.
type Record struct {
	ID              string           `json:"id"`
	Code            string           `json:"code"`
	Type            string           `json:"type"`
	Active          bool             `json:"active"`
	StartsAt        *time.Time       `json:"startsAt,omitempty"`
	EndsAt          *time.Time       `json:"endsAt,omitempty"`
	Stackable       bool             `json:"stackable"`
	UsageLimit      int              `json:"usageLimit,omitempty"`
	UsageCount      int              `json:"usageCount,omitempty"`
	OncePerCustomer bool             `json:"oncePerCustomer"`
	FirstOrderOnly  bool             `json:"firstOrderOnly"`
	MinimumAmount   *decimal.Decimal `json:"minimumAmount,omitempty"`
	MinimumQuantity int              `json:"minimumQuantity,omitempty"`

	Value              *decimal.Decimal `json:"value,omitempty"`
	BuyQuantity        int              `json:"buyQuantity,omitempty"`
	PayAmount          *decimal.Decimal `json:"payAmount,omitempty"`
	GetQuantity        int              `json:"getQuantity,omitempty"`
	GetDiscountPercent *decimal.Decimal `json:"getDiscountPercent,omitempty"`
	GiftSameProduct    bool             `json:"giftSameProduct,omitempty"`
	GiftProductIDs     []string         `json:"giftProductIds,omitempty"`
	QuantityTiers      []TierRecord     `json:"quantityTiers,omitempty"`
	SpendAmount        *decimal.Decimal `json:"spendAmount,omitempty"`

	AppliesTo          string   `json:"appliesTo"`
	CategoryIDs        []string `json:"categoryIds,omitempty"`
	ProductIDs         []string `json:"productIds,omitempty"`
	ExcludeCategoryIDs []string `json:"excludeCategoryIds,omitempty"`
	ExcludeProductIDs  []string `json:"excludeProductIds,omitempty"`

	TriggerCouponCodes   []string `json:"triggerCouponCodes,omitempty"`
	ActivatesCouponCodes []string `json:"activatesCouponCodes,omitempty"`
}

// Parse validates the record and narrows it into a Rule. A non-nil error
// means the record violates a structural invariant and must not be evaluated.
func (rec Record) Parse() (*Rule, error) {
	code := CanonicalCode(rec.Code)
	if code == "" {
		return nil, errors.New("empty code")
	}

	kind, err := rec.parseKind()
	if err != nil {
		return nil, errors.Wrapf(err, "discount %q", code)
	}

	scope, err := rec.parseScope()
	if err != nil {
		return nil, errors.Wrapf(err, "discount %q", code)
	}

	minAmount := zero
	if rec.MinimumAmount != nil {
		if rec.MinimumAmount.IsNegative() {
			return nil, errors.Errorf("discount %q: negative minimum amount", code)
		}
		minAmount = *rec.MinimumAmount
	}

	r := &Rule{
		ID:              rec.ID,
		Code:            code,
		Kind:            kind,
		Active:          rec.Active,
		StartsAt:        rec.StartsAt,
		EndsAt:          rec.EndsAt,
		Stackable:       rec.Stackable,
		UsageLimit:      rec.UsageLimit,
		UsageCount:      rec.UsageCount,
		OncePerCustomer: rec.OncePerCustomer,
		FirstOrderOnly:  rec.FirstOrderOnly,
		MinimumAmount:   minAmount,
		MinimumQuantity: rec.MinimumQuantity,
		AppliesTo: Applicability{
			Scope:              scope,
			CategoryIDs:        toSet(rec.CategoryIDs),
			ProductIDs:         toSet(rec.ProductIDs),
			ExcludeCategoryIDs: toSet(rec.ExcludeCategoryIDs),
			ExcludeProductIDs:  toSet(rec.ExcludeProductIDs),
		},
		TriggerCouponCodes:   canonicalCodes(rec.TriggerCouponCodes),
		ActivatesCouponCodes: canonicalCodes(rec.ActivatesCouponCodes),
	}
	return r, nil
}

func (rec Record) parseKind() (Kind, error) {
	switch rec.Type {
	case "percentage":
		v, err := requireAmount(rec.Value, "value")
		if err != nil {
			return nil, err
		}
		if !v.IsPositive() || v.GreaterThan(hundred) {
			return nil, errors.Errorf("percentage value %s out of (0, 100]", v)
		}
		return Percentage{Value: v}, nil

	case "fixed_amount":
		v, err := requireAmount(rec.Value, "value")
		if err != nil {
			return nil, err
		}
		if !v.IsPositive() {
			return nil, errors.New("fixed amount must be positive")
		}
		return FixedAmount{Value: v}, nil

	case "free_shipping":
		return FreeShipping{}, nil

	case "buy_x_pay_y":
		if rec.BuyQuantity < 1 {
			return nil, errors.New("buy quantity must be at least 1")
		}
		pay, err := requireAmount(rec.PayAmount, "pay amount")
		if err != nil {
			return nil, err
		}
		if pay.IsNegative() {
			return nil, errors.New("pay amount must not be negative")
		}
		return BuyXPayY{BuyQty: rec.BuyQuantity, PayAmount: pay}, nil

	case "buy_x_get_y":
		if rec.BuyQuantity < 1 || rec.GetQuantity < 1 {
			return nil, errors.New("buy and get quantities must be at least 1")
		}
		pct, err := requireAmount(rec.GetDiscountPercent, "get discount percent")
		if err != nil {
			return nil, err
		}
		if !pct.IsPositive() || pct.GreaterThan(hundred) {
			return nil, errors.Errorf("get discount percent %s out of (0, 100]", pct)
		}
		return BuyXGetY{
			BuyQty:             rec.BuyQuantity,
			GetQty:             rec.GetQuantity,
			GetDiscountPercent: pct,
			GiftSameProduct:    rec.GiftSameProduct,
		}, nil

	case "gift_product":
		if len(rec.GiftProductIDs) == 0 {
			return nil, errors.New("gift product ids required")
		}
		return GiftProduct{GiftProductIDs: rec.GiftProductIDs}, nil

	case "quantity_discount":
		if len(rec.QuantityTiers) == 0 {
			return nil, errors.New("quantity tiers required")
		}
		tiers := make([]Tier, len(rec.QuantityTiers))
		prev := 0
		for i, t := range rec.QuantityTiers {
			if t.MinQuantity < 1 {
				return nil, errors.New("tier minimum quantity must be at least 1")
			}
			if t.MinQuantity <= prev {
				return nil, errors.Errorf("tiers must be strictly increasing, got %d after %d", t.MinQuantity, prev)
			}
			if !t.DiscountPercent.IsPositive() || t.DiscountPercent.GreaterThan(hundred) {
				return nil, errors.Errorf("tier discount percent %s out of (0, 100]", t.DiscountPercent)
			}
			prev = t.MinQuantity
			tiers[i] = Tier{MinQuantity: t.MinQuantity, DiscountPercent: t.DiscountPercent}
		}
		return QuantityDiscount{Tiers: tiers}, nil

	case "spend_x_pay_y":
		spend, err := requireAmount(rec.SpendAmount, "spend amount")
		if err != nil {
			return nil, err
		}
		pay, err := requireAmount(rec.PayAmount, "pay amount")
		if err != nil {
			return nil, err
		}
		if !spend.IsPositive() {
			return nil, errors.New("spend amount must be positive")
		}
		if pay.IsNegative() || !pay.LessThan(spend) {
			return nil, errors.Errorf("pay amount %s must be in [0, spend amount %s)", pay, spend)
		}
		return SpendXPayY{SpendAmount: spend, PayAmount: pay}, nil

	default:
		return nil, errors.Errorf("unsupported discount type %q", rec.Type)
	}
}

func (rec Record) parseScope() (Scope, error) {
	switch Scope(rec.AppliesTo) {
	case ScopeAll, "":
		return ScopeAll, nil
	case ScopeCategory:
		if len(rec.CategoryIDs) == 0 {
			return "", errors.New("category scope requires category ids")
		}
		return ScopeCategory, nil
	case ScopeProduct:
		if len(rec.ProductIDs) == 0 {
			return "", errors.New("product scope requires product ids")
		}
		return ScopeProduct, nil
	case ScopeMember:
		return ScopeMember, nil
	default:
		return "", errors.Errorf("unsupported applies-to scope %q", rec.AppliesTo)
	}
}

func requireAmount(v *decimal.Decimal, field string) (decimal.Decimal, error) {
	if v == nil {
		return zero, errors.Errorf("%s required", field)
	}
	return *v, nil
}

func toSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func canonicalCodes(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = CanonicalCode(c)
	}
	return out
}
