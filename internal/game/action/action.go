// Package action defines the costed actions entities perform in battle, the
// catalog that owns them, and the species that discount them.
package action

import (
	"math"

	"github.com/cory-johannsen/arena/internal/game/balance"
	"github.com/cory-johannsen/arena/internal/game/effect"
	"github.com/cory-johannsen/arena/internal/game/points"
)

// Kind distinguishes always-usable actions from those an entity must learn.
type Kind int

const (
	KindFree Kind = iota
	KindLearnable
)

var kindTags = map[Kind]string{
	KindFree:      "freeAction",
	KindLearnable: "learnableAction",
}

// String returns the serialized kind tag.
func (k Kind) String() string { return kindTags[k] }

// DoNothingSerial and PunchSerial identify the two free actions every catalog
// is expected to carry.
const (
	DoNothingSerial = 1
	PunchSerial     = 2
)

// Action is a named, costed wrapper around one effect tree. A nil Effect
// passes the turn.
type Action struct {
	Serial           int
	Name             string
	Kind             Kind
	BaseEnergyCost   int
	BaseMinimumLevel int
	Effect           effect.Effect
}

// Learnable reports whether the action must be learned before use.
func (a *Action) Learnable() bool { return a.Kind == KindLearnable }

// EnergyCost returns the energy deducted on each performance by a member of sp.
// A nil species receives no discount.
func (a *Action) EnergyCost(sp *Species) int {
	return discount(a.BaseEnergyCost, balance.EnergyDiscountScale, sp.Discounts(a))
}

// MinimumLevel returns the level required to learn the action. Free actions
// have no minimum.
func (a *Action) MinimumLevel(sp *Species) int {
	if !a.Learnable() {
		return 0
	}
	return discount(a.BaseMinimumLevel, balance.LevelDiscountScale, sp.Discounts(a))
}

// ExperienceCost returns the experience spent to learn the action.
func (a *Action) ExperienceCost(sp *Species) int {
	if !a.Learnable() {
		return 0
	}
	return discount(balance.ActionLearnCost(a.BaseMinimumLevel), balance.ExperienceDiscountScale, sp.Discounts(a))
}

func discount(base int, scale float64, discounted bool) int {
	if !discounted {
		return base
	}
	return int(math.Ceil(float64(base) * scale))
}

// Perform applies the effect with performer acting against opponent, then
// deducts the energy cost whether or not the effect changed anything.
//
// Precondition: the caller has checked that performer may perform a.
func (a *Action) Perform(performer, opponent effect.Combatant, arena effect.Arena, sp *Species) {
	if a.Effect != nil {
		ctx := effect.NewContext(performer, arena)
		effect.Apply(a.Effect, ctx, performer, opponent)
	}
	if energy := performer.Points(points.Energy); energy != nil {
		energy.OffsetValue(-a.EnergyCost(sp))
	}
}

// Record is the tagged serialized form of an Action.
type Record struct {
	Kind             string         `json:"kind" yaml:"kind"`
	SerialInteger    int            `json:"serialInteger" yaml:"serialInteger"`
	Name             string         `json:"name" yaml:"name"`
	BaseEnergyCost   int            `json:"baseEnergyCost" yaml:"baseEnergyCost"`
	Effect           *effect.Record `json:"effect" yaml:"effect"`
	BaseMinimumLevel *int           `json:"baseMinimumLevel,omitempty" yaml:"baseMinimumLevel,omitempty"`
}

// Record returns the serialized form of a.
func (a *Action) Record() Record {
	rec := Record{
		Kind:           a.Kind.String(),
		SerialInteger:  a.Serial,
		Name:           a.Name,
		BaseEnergyCost: a.BaseEnergyCost,
		Effect:         effect.Encode(a.Effect),
	}
	if a.Learnable() {
		lvl := a.BaseMinimumLevel
		rec.BaseMinimumLevel = &lvl
	}
	return rec
}
