package discount

// expandTriggers computes the closure of activated rules for the entered
// codes. A rule joins the active set when its own code was entered, when one
// of its trigger codes is entered or belongs to an already-active rule, or
// when an active rule lists it under ActivatesCouponCodes.
//
// Trigger relationships may be cyclic (A triggers B, B triggers A), so the
// closure is computed as a fixed point over an activated set rather than by
// recursion, bounded by the catalog size.
func expandTriggers(c *Catalog, enteredCodes []string) []*Rule {
	// activeCodes holds every code that can satisfy a trigger: entered codes
	// first (a trigger code need not itself be a catalog rule), then codes of
	// rules as they activate.
	activeCodes := make(map[string]struct{}, len(enteredCodes))
	for _, code := range enteredCodes {
		activeCodes[CanonicalCode(code)] = struct{}{}
	}

	activated := make(map[string]struct{}, len(enteredCodes))
	var out []*Rule

	activate := func(r *Rule) {
		if _, ok := activated[r.Code]; ok {
			return
		}
		activated[r.Code] = struct{}{}
		activeCodes[r.Code] = struct{}{}
		for _, code := range r.ActivatesCouponCodes {
			activeCodes[code] = struct{}{}
		}
		out = append(out, r)
	}

	for _, r := range c.rules {
		if _, ok := activeCodes[r.Code]; ok {
			activate(r)
		}
	}

	// Iterate to a fixed point. Each productive pass activates at least one
	// rule, so len(rules) passes suffice even for malformed cycles.
	for range c.rules {
		changed := false
		for _, r := range c.rules {
			if _, ok := activated[r.Code]; ok {
				continue
			}
			if _, ok := activeCodes[r.Code]; ok {
				activate(r)
				changed = true
				continue
			}
			for _, trigger := range r.TriggerCouponCodes {
				if _, ok := activeCodes[trigger]; ok {
					activate(r)
					changed = true
					break
				}
			}
		}
		if !changed {
			break
		}
	}

	return out
}
