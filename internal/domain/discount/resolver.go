package discount

import (
	"sort"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

type dec = decimal.Decimal

// candidate is one rule's computed discount before arbitration: the raw
// amount plus its allocation across cart lines, so the arbiter can clamp
// combined discounts to line prices.
type candidate struct {
	rule         *Rule
	amount       dec
	perLine      map[int]dec // cart line index -> allocated discount
	freeShipping bool
	gift         *GiftLine
}

// unit is a single eligible item unit, expanded from a cart line.
type unit struct {
	line  int
	price dec
}

// resolve computes the candidate discount for one eligible rule. It returns
// false when the rule's kind yields nothing for this cart (for example a
// buy-X group that never fills), which the engine reports as not applicable.
func resolve(r *Rule, cart *Cart, el eligibleLines) (candidate, bool) {
	switch k := r.Kind.(type) {
	case Percentage:
		return resolveSubtotalPercent(r, cart, el, k.Value), true
	case FixedAmount:
		amount := decimal.Min(k.Value, el.subtotal)
		return spreadProportional(r, cart, el, amount), true
	case FreeShipping:
		return candidate{rule: r, amount: zero, freeShipping: true}, true
	case BuyXPayY:
		return resolveBuyXPayY(r, cart, el, k)
	case BuyXGetY:
		return resolveBuyXGetY(r, cart, el, k)
	case GiftProduct:
		return resolveGiftProduct(r, cart, k), true
	case QuantityDiscount:
		tier, ok := bestTier(k.Tiers, el.quantity)
		if !ok {
			return candidate{}, false
		}
		return resolveSubtotalPercent(r, cart, el, tier.DiscountPercent), true
	case SpendXPayY:
		return resolveSpendXPayY(r, cart, el, k)
	default:
		return candidate{}, false
	}
}

// resolveSubtotalPercent discounts every eligible line by percent of its subtotal.
func resolveSubtotalPercent(r *Rule, cart *Cart, el eligibleLines, percent dec) candidate {
	c := candidate{rule: r, amount: zero, perLine: make(map[int]dec, len(el.indexes))}
	for _, i := range el.indexes {
		off := cart.Lines[i].Subtotal().Mul(percent).Div(hundred)
		c.perLine[i] = off
		c.amount = c.amount.Add(off)
	}
	return c
}

// spreadProportional allocates a subtotal-level amount across the eligible
// lines in proportion to their subtotals, assigning the remainder to the last
// line so the allocations sum exactly to amount.
func spreadProportional(r *Rule, cart *Cart, el eligibleLines, amount dec) candidate {
	c := candidate{rule: r, amount: amount, perLine: make(map[int]dec, len(el.indexes))}
	if el.subtotal.IsZero() || amount.IsZero() {
		for _, i := range el.indexes {
			c.perLine[i] = zero
		}
		return c
	}
	allocated := zero
	for n, i := range el.indexes {
		var off dec
		if n == len(el.indexes)-1 {
			off = amount.Sub(allocated)
		} else {
			off = amount.Mul(cart.Lines[i].Subtotal()).Div(el.subtotal)
		}
		c.perLine[i] = off
		allocated = allocated.Add(off)
	}
	return c
}

func resolveBuyXPayY(r *Rule, cart *Cart, el eligibleLines, k BuyXPayY) (candidate, bool) {
	if k.BuyQty <= 0 || el.quantity < k.BuyQty {
		return candidate{}, false
	}

	units := expandUnits(cart, el)
	// Most expensive units fill the groups first: price descending, then cart
	// insertion order.
	sort.SliceStable(units, func(i, j int) bool {
		return units[i].price.GreaterThan(units[j].price)
	})

	c := candidate{rule: r, amount: zero, perLine: make(map[int]dec)}
	groups := len(units) / k.BuyQty
	for g := range groups {
		group := units[g*k.BuyQty : (g+1)*k.BuyQty]
		groupSum := zero
		for _, u := range group {
			groupSum = groupSum.Add(u.price)
		}
		off := groupSum.Sub(k.PayAmount)
		if !off.IsPositive() {
			continue
		}
		// Allocate the group's discount across its units by price share.
		allocated := zero
		for n, u := range group {
			var uOff dec
			if n == len(group)-1 {
				uOff = off.Sub(allocated)
			} else {
				uOff = off.Mul(u.price).Div(groupSum)
			}
			c.perLine[u.line] = c.perLine[u.line].Add(uOff)
			allocated = allocated.Add(uOff)
		}
		c.amount = c.amount.Add(off)
	}
	if !c.amount.IsPositive() {
		return candidate{}, false
	}
	return c, true
}

func resolveBuyXGetY(r *Rule, cart *Cart, el eligibleLines, k BuyXGetY) (candidate, bool) {
	if k.BuyQty <= 0 || k.GetQty <= 0 {
		return candidate{}, false
	}

	units := expandUnits(cart, el)
	var groups [][]unit
	if k.GiftSameProduct {
		groups = groupByProduct(cart, units)
	} else {
		groups = [][]unit{units}
	}

	c := candidate{rule: r, amount: zero, perLine: make(map[int]dec)}
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].price.LessThan(group[j].price)
		})
		// Consume BuyQty units, discount the next up-to-GetQty units, repeat.
		for i := 0; i+k.BuyQty < len(group); {
			i += k.BuyQty
			for n := 0; n < k.GetQty && i < len(group); n++ {
				u := group[i]
				off := u.price.Mul(k.GetDiscountPercent).Div(hundred)
				c.perLine[u.line] = c.perLine[u.line].Add(off)
				c.amount = c.amount.Add(off)
				i++
			}
		}
	}
	if !c.amount.IsPositive() {
		return candidate{}, false
	}
	return c, true
}

func resolveGiftProduct(r *Rule, cart *Cart, k GiftProduct) candidate {
	if len(k.GiftProductIDs) == 0 {
		return candidate{rule: r, amount: zero}
	}
	giftID := k.GiftProductIDs[0] // first entry wins

	// When the gift product is already in the cart at full price, one of its
	// units becomes free instead of adding a new line.
	for i, l := range cart.Lines {
		if l.ProductID == giftID && l.Quantity >= 1 && l.UnitPrice.IsPositive() {
			return candidate{
				rule:    r,
				amount:  l.UnitPrice,
				perLine: map[int]dec{i: l.UnitPrice},
			}
		}
	}

	return candidate{
		rule:   r,
		amount: zero,
		gift:   &GiftLine{ProductID: giftID, Quantity: 1, UnitPrice: zero},
	}
}

func resolveSpendXPayY(r *Rule, cart *Cart, el eligibleLines, k SpendXPayY) (candidate, bool) {
	if !k.SpendAmount.IsPositive() {
		return candidate{}, false
	}
	reps := el.subtotal.Div(k.SpendAmount).Floor()
	if reps.IsZero() {
		return candidate{}, false
	}
	amount := reps.Mul(k.SpendAmount.Sub(k.PayAmount))
	return spreadProportional(r, cart, el, amount), true
}

// bestTier returns the tier with the largest MinQuantity not exceeding qty.
// Tiers are sorted ascending by the catalog-load boundary.
func bestTier(tiers []Tier, qty int) (Tier, bool) {
	var best Tier
	found := false
	for _, t := range tiers {
		if t.MinQuantity > qty {
			break
		}
		best = t
		found = true
	}
	return best, found
}

// expandUnits flattens the eligible lines into single item units, preserving
// cart order.
func expandUnits(cart *Cart, el eligibleLines) []unit {
	units := make([]unit, 0, el.quantity)
	for _, i := range el.indexes {
		for range cart.Lines[i].Quantity {
			units = append(units, unit{line: i, price: cart.Lines[i].UnitPrice})
		}
	}
	return units
}

// groupByProduct partitions units per product, keeping first-appearance order.
func groupByProduct(cart *Cart, units []unit) [][]unit {
	order := make(map[string]int)
	var groups [][]unit
	for _, u := range units {
		id := cart.Lines[u.line].ProductID
		n, ok := order[id]
		if !ok {
			n = len(groups)
			order[id] = n
			groups = append(groups, nil)
		}
		groups[n] = append(groups[n], u)
	}
	return groups
}
