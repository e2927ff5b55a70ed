// Package effect implements the composable tree of effect primitives that
// actions apply to combatants' points.
//
// Effect is a closed sum type: every variant lives in this package and each
// operation (Apply, AffectsPoints, HasRecipient, HasDirection, Equal, Encode)
// is a single exhaustive switch over the variants. Effects are immutable values
// and are shared freely between actions.
package effect

import (
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/points"
)

// Kind identifies an Effect variant.
type Kind int

const (
	KindUnknown Kind = iota // zero value; intentionally invalid
	KindSetPoints
	KindOffsetPoints
	KindTransferPoints
	KindSwapPoints
	KindBurstPoints
	KindLinger
	KindClearStatus
	KindComposite
	KindChance
)

var kindTags = map[Kind]string{
	KindSetPoints:      "setPoints",
	KindOffsetPoints:   "offsetPoints",
	KindTransferPoints: "transferPoints",
	KindSwapPoints:     "swapPoints",
	KindBurstPoints:    "burstPoints",
	KindLinger:         "lingerEffect",
	KindClearStatus:    "clearStatusEffect",
	KindComposite:      "compositeEffect",
	KindChance:         "chanceEffect",
}

// String returns the serialized kind tag.
func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return "unknown"
}

// ParseKind returns the Kind for a serialized tag.
func ParseKind(tag string) (Kind, bool) {
	for k, t := range kindTags {
		if t == tag {
			return k, true
		}
	}
	return KindUnknown, false
}

// Effect is one node of an effect tree.
type Effect interface {
	Kind() Kind
	sealed()
}

// Combatant is the view of an entity that effects read and write.
type Combatant interface {
	// Points returns the named resource, or nil if the combatant has none.
	Points(name points.Name) *points.Points
	Level() int
}

// Arena is the battle-level collaborator effects need beyond the two
// combatants: the owner of linger states and the random source.
type Arena interface {
	AddLingerState(s *LingerState)
	// ClearLingerStates removes matching states. An empty name matches any
	// resource and a zero direction matches either sign.
	ClearLingerStates(name points.Name, recipient Combatant, direction int)
	Rand() dice.Source
}

// Context captures the performer of an effect at the moment it was triggered.
type Context struct {
	Performer Combatant
	// DamageStat is the performer's effective damage when the context was built.
	DamageStat int
	Arena      Arena
}

// NewContext captures performer and its current damage stat.
//
// Precondition: performer and arena must be non-nil.
func NewContext(performer Combatant, arena Arena) *Context {
	ctx := &Context{Performer: performer, Arena: arena}
	if dmg := performer.Points(points.Damage); dmg != nil {
		ctx.DamageStat = dmg.EffectiveValue()
	}
	return ctx
}

// SetPoints hard-sets a resource, bypassing offset math.
type SetPoints struct {
	Points          points.Name
	ApplyToOpponent bool
	Value           int
}

// OffsetPoints applies a one-shot delta computed by an offset strategy.
type OffsetPoints struct {
	Points          points.Name
	ApplyToOpponent bool
	Offset          points.Offset
}

// TransferPoints drains a resource from one side and credits Efficiency times
// the amount actually drained to the other side.
type TransferPoints struct {
	Points           points.Name
	OpponentIsSource bool
	Efficiency       float64
	Offset           points.Offset
}

// SwapPoints exchanges both combatants' stored values for one resource.
type SwapPoints struct {
	Points points.Name
}

// BurstPoints installs a temporary burst instead of a permanent change.
type BurstPoints struct {
	Points          points.Name
	ApplyToOpponent bool
	Offset          points.Offset
	TurnCount       int
}

// Linger re-applies Effect once per performer turn for TurnCount turns.
type Linger struct {
	TurnCount int
	Effect    Effect
}

// ClearStatus removes bursts and linger states from its target. An empty
// Points matches any resource and a zero Direction matches either sign.
type ClearStatus struct {
	Points          points.Name
	ApplyToOpponent bool
	Direction       int
}

// Composite applies each child in order.
type Composite struct {
	Effects []Effect
}

// Chance applies Hit with probability Probability, otherwise Miss (which may be nil).
type Chance struct {
	Probability float64
	Hit         Effect
	Miss        Effect
}

func (SetPoints) Kind() Kind      { return KindSetPoints }
func (OffsetPoints) Kind() Kind   { return KindOffsetPoints }
func (TransferPoints) Kind() Kind { return KindTransferPoints }
func (SwapPoints) Kind() Kind     { return KindSwapPoints }
func (BurstPoints) Kind() Kind    { return KindBurstPoints }
func (Linger) Kind() Kind         { return KindLinger }
func (ClearStatus) Kind() Kind    { return KindClearStatus }
func (Composite) Kind() Kind      { return KindComposite }
func (Chance) Kind() Kind         { return KindChance }

func (SetPoints) sealed()      {}
func (OffsetPoints) sealed()   {}
func (TransferPoints) sealed() {}
func (SwapPoints) sealed()     {}
func (BurstPoints) sealed()    {}
func (Linger) sealed()         {}
func (ClearStatus) sealed()    {}
func (Composite) sealed()      {}
func (Chance) sealed()         {}

// LingerState is an active linger effect owned by a battle.
type LingerState struct {
	Effect    Effect
	Context   *Context
	TurnCount int
}

// SameIdentity reports whether s and other re-apply the same effect shape for
// the same performer.
func (s *LingerState) SameIdentity(other *LingerState) bool {
	return s.Context.Performer == other.Context.Performer && Equal(s.Effect, other.Effect)
}

// Matches reports whether s is selected by a clear-status filter.
func (s *LingerState) Matches(name points.Name, recipient Combatant, direction int) bool {
	if name != "" && !AffectsPoints(s.Effect, name) {
		return false
	}
	if !HasRecipient(s.Effect, s.Context, recipient) {
		return false
	}
	return direction == 0 || HasDirection(s.Effect, direction)
}
