package action

import (
	"github.com/cory-johannsen/arena/internal/game/effect"
	"github.com/cory-johannsen/arena/internal/game/points"
)

// DiscountRule selects effect nodes by shape. A zero Kind matches any
// variant, an empty Points matches any resource and a zero Direction matches
// either sign.
type DiscountRule struct {
	Kind      effect.Kind
	Points    points.Name
	Direction int
}

func (r DiscountRule) matches(e effect.Effect) bool {
	if r.Kind != effect.KindUnknown && e.Kind() != r.Kind {
		return false
	}
	if r.Points != "" && !effect.AffectsPoints(e, r.Points) {
		return false
	}
	return r.Direction == 0 || effect.HasDirection(e, r.Direction)
}

// Species is a kind of entity with its own set of discounted actions.
type Species struct {
	Name       string
	Rules      []DiscountRule
	discounted map[int]bool
}

// NewSpecies resolves rules against every action in actions once, so cost
// lookups never rescan effect trees.
func NewSpecies(name string, rules []DiscountRule, actions []*Action) *Species {
	sp := &Species{Name: name, Rules: rules, discounted: make(map[int]bool)}
	for _, a := range actions {
		effect.IterateOverEffects(a.Effect, func(e effect.Effect) {
			for _, r := range rules {
				if r.matches(e) {
					sp.discounted[a.Serial] = true
				}
			}
		})
	}
	return sp
}

// Discounts reports whether members of sp pay discounted costs for a. A nil
// species discounts nothing.
func (sp *Species) Discounts(a *Action) bool {
	if sp == nil {
		return false
	}
	return sp.discounted[a.Serial]
}
