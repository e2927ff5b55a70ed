package points

import (
	"fmt"

	"github.com/cory-johannsen/arena/internal/game/balance"
	"github.com/cory-johannsen/arena/internal/game/dice"
)

// OffsetKind selects how an Offset turns its value into a raw delta.
type OffsetKind int

const (
	OffsetUnknown OffsetKind = iota // zero value; intentionally invalid
	OffsetAbsolute
	OffsetRatio
	OffsetPower
	OffsetExperience
)

var offsetTags = map[OffsetKind]string{
	OffsetAbsolute:   "absolutePointsOffset",
	OffsetRatio:      "ratioPointsOffset",
	OffsetPower:      "powerPointsOffset",
	OffsetExperience: "experiencePointsOffset",
}

// String returns the serialized kind tag.
func (k OffsetKind) String() string {
	if tag, ok := offsetTags[k]; ok {
		return tag
	}
	return "unknown"
}

// Offset is a stateless strategy that computes a signed delta for a resource
// from the performer's level. Offsets are plain values and compare with ==.
type Offset struct {
	Kind  OffsetKind
	Value float64
}

// Absolute returns an offset of v regardless of level.
func Absolute(v float64) Offset { return Offset{Kind: OffsetAbsolute, Value: v} }

// Ratio returns an offset of ratio times the target's maximum.
func Ratio(ratio float64) Offset { return Offset{Kind: OffsetRatio, Value: ratio} }

// Power returns a level-scaled offset authored against the reference level:
// at balance.PowerReferenceLevel the magnitude is exactly v.
func Power(v float64) Offset { return Offset{Kind: OffsetPower, Value: v} }

// ExperienceScaled returns an offset of v * (ExperienceMultiplierOffset + level).
func ExperienceScaled(v float64) Offset { return Offset{Kind: OffsetExperience, Value: v} }

// Raw returns the unrounded delta before damage scaling.
//
// Postcondition: a Ratio offset against an unbounded target returns 0.
func (o Offset) Raw(target *Points, level int) float64 {
	switch o.Kind {
	case OffsetAbsolute:
		return o.Value
	case OffsetRatio:
		maximum, ok := target.Maximum()
		if !ok {
			return 0
		}
		return o.Value * float64(maximum)
	case OffsetPower:
		scale := o.Value / balance.PowerMultiplier(balance.PowerReferenceLevel)
		return scale * balance.PowerMultiplier(float64(level))
	case OffsetExperience:
		return o.Value * balance.ExperienceMultiplier(level)
	default:
		return 0
	}
}

// Compute returns the integer delta to apply to target. Negative health deltas
// are scaled by the performer's damage multiplier before fuzzy rounding.
//
// Precondition: target and src must be non-nil.
func (o Offset) Compute(target *Points, level, damageStat int, src dice.Source) int {
	v := o.Raw(target, level)
	if target.Name() == Health && v < 0 {
		v *= balance.DamageMultiplier(damageStat)
	}
	return dice.FuzzyRound(v, src)
}

// Direction returns the sign of the authored value.
func (o Offset) Direction() int {
	switch {
	case o.Value > 0:
		return 1
	case o.Value < 0:
		return -1
	default:
		return 0
	}
}

// OffsetRecord is the tagged serialized form of an Offset.
type OffsetRecord struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// Record returns the serialized form of o.
func (o Offset) Record() OffsetRecord {
	return OffsetRecord{Name: o.Kind.String(), Value: o.Value}
}

// DecodeOffset builds an Offset from its serialized form.
//
// Postcondition: Returns an error if rec.Name is not a known kind tag.
func DecodeOffset(rec OffsetRecord) (Offset, error) {
	for kind, tag := range offsetTags {
		if tag == rec.Name {
			return Offset{Kind: kind, Value: rec.Value}, nil
		}
	}
	return Offset{}, fmt.Errorf("unknown points offset %q", rec.Name)
}
