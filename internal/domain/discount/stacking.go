package discount

import (
	"sort"

	"github.com/shopspring/decimal"
)

// arbitrate selects the final combination among the resolved candidates.
//
// Candidates split into a stackable set (all of which may apply together) and
// a non-stackable set (at most one of which may apply, the one with the
// largest amount, ties broken by code). The winner is whichever of
// {stackables + best non-stackable, stackables alone, best non-stackable
// alone} yields the greatest clamped benefit, where no cart line is ever
// discounted beyond its own price. Ties prefer the options in that order.
func arbitrate(cart *Cart, cands []candidate) []candidate {
	if len(cands) == 0 {
		return nil
	}

	var stackable, nonStackable []candidate
	for _, c := range cands {
		if c.rule.Stackable {
			stackable = append(stackable, c)
		} else {
			nonStackable = append(nonStackable, c)
		}
	}

	var best *candidate
	for i := range nonStackable {
		c := &nonStackable[i]
		if best == nil ||
			c.amount.GreaterThan(best.amount) ||
			(c.amount.Equal(best.amount) && c.rule.Code < best.rule.Code) {
			best = c
		}
	}

	options := make([][]candidate, 0, 3)
	if best != nil {
		options = append(options, append(append([]candidate{}, stackable...), *best))
	}
	if len(stackable) > 0 {
		options = append(options, stackable)
	}
	if best != nil {
		options = append(options, []candidate{*best})
	}

	winner := options[0]
	benefit := clampedBenefit(cart, winner)
	for _, opt := range options[1:] {
		if b := clampedBenefit(cart, opt); b.GreaterThan(benefit) {
			winner, benefit = opt, b
		}
	}

	sort.Slice(winner, func(i, j int) bool {
		return winner[i].rule.Code < winner[j].rule.Code
	})
	return winner
}

// clampedBenefit is the total customer benefit of applying the candidates
// together, with each line's combined discount clamped to the line's price.
func clampedBenefit(cart *Cart, cands []candidate) dec {
	byLine := make(map[int]dec)
	for _, c := range cands {
		for i, off := range c.perLine {
			byLine[i] = byLine[i].Add(off)
		}
	}
	total := zero
	for i, off := range byLine {
		total = total.Add(decimal.Min(off, cart.Lines[i].Subtotal()))
	}
	return total
}
