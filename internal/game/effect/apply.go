package effect

import (
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/points"
)

// Apply performs e's mutations with local as the performer's side.
// A nil effect is a no-op.
//
// Precondition: ctx, local and opponent must be non-nil.
func Apply(e Effect, ctx *Context, local, opponent Combatant) {
	switch v := e.(type) {
	case nil:
	case SetPoints:
		if p := pick(local, opponent, v.ApplyToOpponent).Points(v.Points); p != nil {
			p.SetValue(v.Value)
		}
	case OffsetPoints:
		if p := pick(local, opponent, v.ApplyToOpponent).Points(v.Points); p != nil {
			p.OffsetValue(compute(v.Offset, p, ctx))
		}
	case TransferPoints:
		source, dest := local, opponent
		if v.OpponentIsSource {
			source, dest = opponent, local
		}
		sp, dp := source.Points(v.Points), dest.Points(v.Points)
		if sp == nil || dp == nil {
			return
		}
		drained := sp.OffsetValue(compute(v.Offset, sp, ctx))
		dp.OffsetValue(dice.FuzzyRound(-float64(drained)*v.Efficiency, ctx.Arena.Rand()))
	case SwapPoints:
		lp, op := local.Points(v.Points), opponent.Points(v.Points)
		if lp == nil || op == nil {
			return
		}
		lv, ov := lp.Value(), op.Value()
		lp.SetValue(ov)
		op.SetValue(lv)
	case BurstPoints:
		p := pick(local, opponent, v.ApplyToOpponent).Points(v.Points)
		if p == nil {
			return
		}
		offset := compute(v.Offset, p, ctx)
		if offset == 0 {
			return
		}
		b := points.Burst{Offset: offset, TurnCount: v.TurnCount}
		if v.ApplyToOpponent {
			b.ExtraTurnCount = 1
		}
		p.AddBurst(b)
	case Linger:
		ctx.Arena.AddLingerState(&LingerState{Effect: v.Effect, Context: ctx, TurnCount: v.TurnCount})
	case ClearStatus:
		target := pick(local, opponent, v.ApplyToOpponent)
		names := points.AllNames
		if v.Points != "" {
			names = []points.Name{v.Points}
		}
		for _, name := range names {
			if p := target.Points(name); p != nil {
				p.ClearBursts(v.Direction)
			}
		}
		ctx.Arena.ClearLingerStates(v.Points, target, v.Direction)
	case Composite:
		for _, child := range v.Effects {
			Apply(child, ctx, local, opponent)
		}
	case Chance:
		if dice.Chance(v.Probability, ctx.Arena.Rand()) {
			Apply(v.Hit, ctx, local, opponent)
		} else {
			Apply(v.Miss, ctx, local, opponent)
		}
	}
}

func pick(local, opponent Combatant, toOpponent bool) Combatant {
	if toOpponent {
		return opponent
	}
	return local
}

func compute(o points.Offset, target *points.Points, ctx *Context) int {
	return o.Compute(target, ctx.Performer.Level(), ctx.DamageStat, ctx.Arena.Rand())
}

// AffectsPoints reports whether any node of e changes the named resource.
func AffectsPoints(e Effect, name points.Name) bool {
	switch v := e.(type) {
	case SetPoints:
		return v.Points == name
	case OffsetPoints:
		return v.Points == name
	case TransferPoints:
		return v.Points == name
	case SwapPoints:
		return v.Points == name
	case BurstPoints:
		return v.Points == name
	case Linger:
		return AffectsPoints(v.Effect, name)
	case Composite:
		for _, child := range v.Effects {
			if AffectsPoints(child, name) {
				return true
			}
		}
		return false
	case Chance:
		return AffectsPoints(v.Hit, name) || AffectsPoints(v.Miss, name)
	default:
		return false
	}
}

// HasRecipient reports whether c is on the receiving end of e when it was
// triggered under ctx. For a transfer the recipient is the drained side.
func HasRecipient(e Effect, ctx *Context, c Combatant) bool {
	isPerformer := c == ctx.Performer
	switch v := e.(type) {
	case SetPoints:
		return isPerformer != v.ApplyToOpponent
	case OffsetPoints:
		return isPerformer != v.ApplyToOpponent
	case TransferPoints:
		return isPerformer != v.OpponentIsSource
	case SwapPoints:
		return true
	case BurstPoints:
		return isPerformer != v.ApplyToOpponent
	case ClearStatus:
		return isPerformer != v.ApplyToOpponent
	case Linger:
		return HasRecipient(v.Effect, ctx, c)
	case Composite:
		for _, child := range v.Effects {
			if HasRecipient(child, ctx, c) {
				return true
			}
		}
		return false
	case Chance:
		return HasRecipient(v.Hit, ctx, c) || HasRecipient(v.Miss, ctx, c)
	default:
		return false
	}
}

// HasDirection reports whether any node of e changes a resource with the given
// sign. Set, swap and clear nodes have no direction.
func HasDirection(e Effect, direction int) bool {
	switch v := e.(type) {
	case OffsetPoints:
		return v.Offset.Direction() == direction
	case TransferPoints:
		return v.Offset.Direction() == direction
	case BurstPoints:
		return v.Offset.Direction() == direction
	case Linger:
		return HasDirection(v.Effect, direction)
	case Composite:
		for _, child := range v.Effects {
			if HasDirection(child, direction) {
				return true
			}
		}
		return false
	case Chance:
		return HasDirection(v.Hit, direction) || HasDirection(v.Miss, direction)
	default:
		return false
	}
}

// Equal reports whether a and b have the same shape. Two nil effects are equal.
func Equal(a, b Effect) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch va := a.(type) {
	case SetPoints:
		vb, ok := b.(SetPoints)
		return ok && va == vb
	case OffsetPoints:
		vb, ok := b.(OffsetPoints)
		return ok && va == vb
	case TransferPoints:
		vb, ok := b.(TransferPoints)
		return ok && va == vb
	case SwapPoints:
		vb, ok := b.(SwapPoints)
		return ok && va == vb
	case BurstPoints:
		vb, ok := b.(BurstPoints)
		return ok && va == vb
	case ClearStatus:
		vb, ok := b.(ClearStatus)
		return ok && va == vb
	case Linger:
		vb, ok := b.(Linger)
		return ok && va.TurnCount == vb.TurnCount && Equal(va.Effect, vb.Effect)
	case Composite:
		vb, ok := b.(Composite)
		if !ok || len(va.Effects) != len(vb.Effects) {
			return false
		}
		for i := range va.Effects {
			if !Equal(va.Effects[i], vb.Effects[i]) {
				return false
			}
		}
		return true
	case Chance:
		vb, ok := b.(Chance)
		return ok && va.Probability == vb.Probability && Equal(va.Hit, vb.Hit) && Equal(va.Miss, vb.Miss)
	default:
		return false
	}
}

// IterateOverEffects visits every node of e in pre-order, descending into
// composite, chance and linger nodes down to the leaves.
func IterateOverEffects(e Effect, fn func(Effect)) {
	if e == nil {
		return
	}
	fn(e)
	switch v := e.(type) {
	case Linger:
		IterateOverEffects(v.Effect, fn)
	case Composite:
		for _, child := range v.Effects {
			IterateOverEffects(child, fn)
		}
	case Chance:
		IterateOverEffects(v.Hit, fn)
		IterateOverEffects(v.Miss, fn)
	}
}
