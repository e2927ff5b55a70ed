// Package battle implements the two-slot turn-based duel: turn ownership,
// linger states, defeat detection and reward payout, plus the Manager that
// owns every battle in the world.
package battle

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/action"
	"github.com/cory-johannsen/arena/internal/game/balance"
	"github.com/cory-johannsen/arena/internal/game/clock"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/effect"
	"github.com/cory-johannsen/arena/internal/game/points"
	"github.com/cory-johannsen/arena/internal/game/pvp"
)

// Combatant is an entity that can occupy a battle slot.
type Combatant interface {
	effect.Combatant
	pvp.Participant
	// Defeated is invoked once when the combatant loses a battle.
	Defeated(b *Battle)
	EnterBattle(b *Battle)
	ExitBattle(b *Battle)
}

// Throttle decides whether a victory earns experience.
type Throttle interface {
	RegisterVictory(winner, loser pvp.Participant) bool
}

// DefaultTurnTimeout is how long a player may hold the turn against another
// player before it passes automatically.
const DefaultTurnTimeout = 15 * time.Second

// Config holds the collaborators every battle shares.
type Config struct {
	TurnTimeout time.Duration
	Clock       clock.Clock
	Rand        dice.Source
	// Throttle may be nil, in which case experience is always granted.
	Throttle Throttle
	Logger   *zap.Logger
}

func (c Config) withDefaults() Config {
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = DefaultTurnTimeout
	}
	if c.Clock == nil {
		c.Clock = clock.NewReal()
	}
	if c.Rand == nil {
		c.Rand = dice.NewCryptoSource()
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// SlotState distinguishes a seated combatant from one that left early.
type SlotState int

const (
	SlotOccupied SlotState = iota
	SlotVacated
)

// Slot is one of the two seats in a battle. A vacated slot keeps its index so
// turn parity is unaffected.
type Slot struct {
	State     SlotState
	Combatant Combatant
}

// Occupant returns the seated combatant, or (nil, false) for a vacated slot.
func (s Slot) Occupant() (Combatant, bool) {
	if s.State != SlotOccupied || s.Combatant == nil {
		return nil, false
	}
	return s.Combatant, true
}

// Battle is one duel. It is not safe for concurrent use; the world serializes
// every mutation.
type Battle struct {
	// ID identifies the battle in the Manager.
	ID  uuid.UUID
	cfg Config

	slots     [2]Slot
	turnIndex int
	turnStart time.Time
	// finished is set by the first detected defeat and never cleared.
	finished   bool
	finishedAt time.Time
	message    string
	lingers    []*effect.LingerState
}

// New seats a and b, gives both the same random starting energy, resets their
// damage, clears their bursts and checks for an immediate defeat.
//
// Precondition: a and b must be distinct and non-nil.
// Postcondition: Both combatants have been told they entered the battle.
func New(id uuid.UUID, a, b Combatant, cfg Config) *Battle {
	cfg = cfg.withDefaults()
	bt := &Battle{
		ID:        id,
		cfg:       cfg,
		slots:     [2]Slot{{State: SlotOccupied, Combatant: a}, {State: SlotOccupied, Combatant: b}},
		turnStart: cfg.Clock.Now(),
	}
	energy := cfg.Rand.Intn(balance.MaximumEnergy + 1)
	for _, c := range []Combatant{a, b} {
		for _, name := range points.AllNames {
			if p := c.Points(name); p != nil {
				p.ClearBursts(0)
			}
		}
		if p := c.Points(points.Energy); p != nil {
			p.SetValue(energy)
		}
		if p := c.Points(points.Damage); p != nil {
			p.SetValue(balance.StartDamage)
		}
		c.EnterBattle(bt)
	}
	cfg.Logger.Info("battle started",
		zap.String("battle", id.String()),
		zap.String("first", a.Username()),
		zap.String("second", b.Username()),
		zap.Int("energy", energy),
	)
	bt.checkDefeat()
	return bt
}

// Slots returns both seats.
func (b *Battle) Slots() [2]Slot { return b.slots }

// TurnIndex returns the number of completed turns.
func (b *Battle) TurnIndex() int { return b.turnIndex }

// IsFinished reports whether a defeat has been detected.
func (b *Battle) IsFinished() bool { return b.finished }

// FinishedAt returns when the battle finished, or the zero time.
func (b *Battle) FinishedAt() time.Time { return b.finishedAt }

// Message returns the result summary of a finished battle.
func (b *Battle) Message() string { return b.message }

// LingerStates returns a copy of the active linger states.
func (b *Battle) LingerStates() []*effect.LingerState {
	out := make([]*effect.LingerState, len(b.lingers))
	copy(out, b.lingers)
	return out
}

// Acting returns the combatant whose turn it is, or (nil, false) if that slot
// was vacated.
func (b *Battle) Acting() (Combatant, bool) {
	return b.slots[b.turnIndex%2].Occupant()
}

// IsTurnOf reports whether c holds the turn.
func (b *Battle) IsTurnOf(c Combatant) bool {
	acting, ok := b.Acting()
	return ok && acting == c
}

// Opponent returns the combatant facing c, or (nil, false) if c is not seated
// or the other slot was vacated.
func (b *Battle) Opponent(c Combatant) (Combatant, bool) {
	i := b.slotOf(c)
	if i < 0 {
		return nil, false
	}
	return b.slots[1-i].Occupant()
}

func (b *Battle) slotOf(c Combatant) int {
	for i, s := range b.slots {
		if occ, ok := s.Occupant(); ok && occ == c {
			return i
		}
	}
	return -1
}

// TurnTimeout returns the time left before the turn passes automatically.
// Only battles between two players have a deadline.
func (b *Battle) TurnTimeout() (time.Duration, bool) {
	x, okX := b.slots[0].Occupant()
	y, okY := b.slots[1].Occupant()
	if !okX || !okY || !x.IsPlayer() || !y.IsPlayer() {
		return 0, false
	}
	remaining := b.cfg.TurnTimeout - b.cfg.Clock.Now().Sub(b.turnStart)
	return max(remaining, 0), true
}

// PerformAction lets c perform a against its opponent and ends the turn.
// It is a no-op when the battle is finished or it is not c's turn.
//
// Precondition: the caller has checked that c may afford and use a.
// Postcondition: Returns true iff the action was performed.
func (b *Battle) PerformAction(c Combatant, a *action.Action, sp *action.Species) bool {
	if b.finished || !b.IsTurnOf(c) {
		return false
	}
	opponent, ok := b.Opponent(c)
	if !ok {
		return false
	}
	a.Perform(c, opponent, b, sp)
	b.cfg.Logger.Debug("action performed",
		zap.String("battle", b.ID.String()),
		zap.String("performer", c.Username()),
		zap.Int("serial", a.Serial),
		zap.String("action", a.Name),
	)
	b.FinishTurn()
	return true
}

// FinishTurn is the only transition out of a turn. It checks for defeat,
// advances the turn and, unless the battle finished, starts the next turn for
// the new acting combatant.
func (b *Battle) FinishTurn() {
	b.checkDefeat()
	b.turnIndex++
	if b.finished {
		return
	}
	if acting, ok := b.Acting(); ok {
		if p := acting.Points(points.Energy); p != nil {
			p.OffsetValue(1)
		}
		for _, name := range points.AllNames {
			if p := acting.Points(name); p != nil {
				p.ProcessBursts()
			}
		}
		b.processLingers(acting)
	}
	b.turnStart = b.cfg.Clock.Now()
}

// TimerEvent passes the turn once a player-versus-player deadline expires.
func (b *Battle) TimerEvent() {
	if b.finished {
		return
	}
	remaining, ok := b.TurnTimeout()
	if !ok || remaining > 0 {
		return
	}
	acting, _ := b.Acting()
	b.cfg.Logger.Info("turn timed out",
		zap.String("battle", b.ID.String()),
		zap.String("combatant", acting.Username()),
	)
	b.FinishTurn()
}

// LeaveEarly resolves c's disconnect: an unfinished battle is lost by c with
// normal reward resolution, then c's slot is vacated.
func (b *Battle) LeaveEarly(c Combatant) {
	i := b.slotOf(c)
	if i < 0 {
		return
	}
	if !b.finished {
		if hp := c.Points(points.Health); hp != nil {
			hp.ClearBursts(0)
			hp.SetValue(0)
		}
		b.FinishTurn()
	}
	b.slots[i] = Slot{State: SlotVacated}
	c.ExitBattle(b)
	b.cfg.Logger.Info("combatant left battle",
		zap.String("battle", b.ID.String()),
		zap.String("combatant", c.Username()),
	)
}

// AddLingerState registers s, replacing an existing state of the same
// identity unless that one has more turns remaining.
func (b *Battle) AddLingerState(s *effect.LingerState) {
	for i, existing := range b.lingers {
		if !existing.SameIdentity(s) {
			continue
		}
		if existing.TurnCount > s.TurnCount {
			return
		}
		b.lingers = slices.Delete(b.lingers, i, i+1)
		break
	}
	b.lingers = append(b.lingers, s)
}

// ClearLingerStates removes every state matching the filter.
func (b *Battle) ClearLingerStates(name points.Name, recipient effect.Combatant, direction int) {
	kept := b.lingers[:0]
	for _, s := range b.lingers {
		if !s.Matches(name, recipient, direction) {
			kept = append(kept, s)
		}
	}
	clear(b.lingers[len(kept):])
	b.lingers = kept
}

// Rand returns the battle's random source.
func (b *Battle) Rand() dice.Source { return b.cfg.Rand }

// processLingers re-applies each state performed by acting, removing those
// whose count runs out.
func (b *Battle) processLingers(acting Combatant) {
	opponent, hasOpponent := b.Opponent(acting)
	for _, s := range b.LingerStates() {
		if s.Context.Performer != effect.Combatant(acting) || !slices.Contains(b.lingers, s) {
			continue
		}
		s.TurnCount--
		if hasOpponent && !b.finished {
			effect.Apply(s.Effect, s.Context, acting, opponent)
			b.checkDefeat()
		}
		if s.TurnCount <= 0 {
			b.removeLinger(s)
		}
	}
}

func (b *Battle) removeLinger(s *effect.LingerState) {
	if i := slices.Index(b.lingers, s); i >= 0 {
		b.lingers = slices.Delete(b.lingers, i, i+1)
	}
}

// checkDefeat finishes the battle the first time either occupant's effective
// health is at or below zero, rewarding a surviving opponent.
func (b *Battle) checkDefeat() {
	if b.finished {
		return
	}
	for _, i := range [2]int{0, 1} {
		loser, ok := b.slots[i].Occupant()
		if !ok || alive(loser) {
			continue
		}
		b.finished = true
		b.finishedAt = b.cfg.Clock.Now()
		loser.Defeated(b)
		winner, ok := b.slots[1-i].Occupant()
		if ok && alive(winner) {
			b.reward(winner, loser)
		} else {
			b.message = fmt.Sprintf("%s was defeated", loser.Username())
		}
		b.cfg.Logger.Info("battle finished",
			zap.String("battle", b.ID.String()),
			zap.String("loser", loser.Username()),
			zap.String("result", b.message),
			zap.Int("turns", b.turnIndex),
		)
		return
	}
}

func alive(c Combatant) bool {
	hp := c.Points(points.Health)
	return hp != nil && hp.EffectiveValue() > 0
}

// reward moves gold the loser can actually pay to the winner and grants
// experience if the throttle permits it.
func (b *Battle) reward(winner, loser Combatant) {
	gold := 0
	if lg, wg := loser.Points(points.Gold), winner.Points(points.Gold); lg != nil && wg != nil {
		paid := lg.OffsetValue(-balance.GoldReward(loser.Level(), winner.Level(), b.cfg.Rand))
		gold = wg.OffsetValue(-paid)
	}

	xp := 0
	if b.cfg.Throttle == nil || b.cfg.Throttle.RegisterVictory(winner, loser) {
		if p := winner.Points(points.Experience); p != nil {
			xp = p.OffsetValue(balance.ExperienceReward(loser.Level(), winner.Level(), b.cfg.Rand))
		}
	}
	b.message = fmt.Sprintf("%s defeated %s and earned %d gold and %d experience", winner.Username(), loser.Username(), gold, xp)
	b.cfg.Logger.Info("victory rewarded",
		zap.String("battle", b.ID.String()),
		zap.String("winner", winner.Username()),
		zap.Int("gold", gold),
		zap.Int("experience", xp),
	)
}
