// Package entity implements the combatants of the world: players backed by a
// persisted record and bots that exist only in memory.
package entity

import (
	"slices"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arena/internal/game/action"
	"github.com/cory-johannsen/arena/internal/game/balance"
	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/player"
	"github.com/cory-johannsen/arena/internal/game/points"
)

// DefeatHandler is invoked when the entity loses a battle.
type DefeatHandler func(e *Entity, b *battle.Battle)

// Entity is a combatant. It is not safe for concurrent use; the world
// serializes access.
type Entity struct {
	// rec holds level, position and the resources that persist for players.
	rec     *player.Record
	player  bool
	catalog *action.Catalog
	species *action.Species
	pts     map[points.Name]*points.Points
	battle  *battle.Battle
	// onDefeat may be nil.
	onDefeat DefeatHandler
}

// NewPlayer builds the entity for a persisted player. Health, experience and
// gold read and write rec directly.
//
// Precondition: rec, catalog and species must be non-nil.
func NewPlayer(rec *player.Record, catalog *action.Catalog, species *action.Species) *Entity {
	rec.Normalize()
	return newEntity(rec, true, catalog, species)
}

// NewBot builds an in-memory bot at level that knows every learnable action
// its level permits, up to the learnable capacity.
//
// Precondition: catalog and species must be non-nil; level >= 1.
func NewBot(level int, catalog *action.Catalog, species *action.Species) *Entity {
	rec := player.New("bot-"+uuid.NewString()[:8], species.Name, action.DoNothingSerial, action.PunchSerial)
	rec.Level = max(level, 1)
	rec.Health = balance.MaximumHealth(rec.Level)
	rec.Gold = balance.GoldRewardScale / 10 * rec.Level
	for _, a := range catalog.All() {
		if len(rec.LearnedActions) >= balance.LearnableActionCapacity {
			break
		}
		if a.Learnable() && a.MinimumLevel(species) <= rec.Level {
			rec.LearnedActions = append(rec.LearnedActions, a.Serial)
		}
	}
	return newEntity(rec, false, catalog, species)
}

func newEntity(rec *player.Record, isPlayer bool, catalog *action.Catalog, species *action.Species) *Entity {
	e := &Entity{
		rec:     rec,
		player:  isPlayer,
		catalog: catalog,
		species: species,
		pts:     make(map[points.Name]*points.Points, len(points.AllNames)),
	}
	e.add(points.Health, points.NewFieldStorage(&rec.Health), points.WithMinimum(0), points.WithMaximum(balance.MaximumHealth(rec.Level)))
	e.add(points.Energy, points.NewMemoryStorage(0), points.WithMinimum(0), points.WithMaximum(balance.MaximumEnergy))
	e.add(points.Damage, points.NewMemoryStorage(balance.StartDamage), points.WithMinimum(0), points.WithMaximum(balance.MaximumDamage))
	e.add(points.Experience, points.NewFieldStorage(&rec.Experience), points.WithMinimum(0))
	e.add(points.Gold, points.NewFieldStorage(&rec.Gold), points.WithMinimum(0))
	return e
}

func (e *Entity) add(name points.Name, storage points.Storage, opts ...points.Option) {
	p := points.New(storage, opts...)
	p.SetName(name)
	e.pts[name] = p
}

// Points returns the named resource.
func (e *Entity) Points(name points.Name) *points.Points { return e.pts[name] }

// Level returns the entity's level.
func (e *Entity) Level() int { return e.rec.Level }

// Username identifies the entity. Bots get a generated name.
func (e *Entity) Username() string { return e.rec.Username }

// IsPlayer reports whether the entity is a persistent account.
func (e *Entity) IsPlayer() bool { return e.player }

// IsBot reports whether the entity exists only in memory.
func (e *Entity) IsBot() bool { return !e.player }

// Record returns the backing record. For players it is the persisted state.
func (e *Entity) Record() *player.Record { return e.rec }

// Species returns the entity's species.
func (e *Entity) Species() *action.Species { return e.species }

// Power returns the level's position on the power curve.
func (e *Entity) Power() float64 { return balance.PowerMultiplier(float64(e.rec.Level)) }

// Alive reports whether effective health is above zero.
func (e *Entity) Alive() bool { return e.pts[points.Health].EffectiveValue() > 0 }

// RestoreHealth refills health to its maximum.
func (e *Entity) RestoreHealth() {
	hp := e.pts[points.Health]
	hp.ClearBursts(0)
	if v, ok := hp.Maximum(); ok {
		hp.SetValue(v)
	}
}

// Position returns the entity's spawn position.
func (e *Entity) Position() (x, y float64) { return e.rec.SpawnX, e.rec.SpawnY }

// SetPosition records the entity's position.
func (e *Entity) SetPosition(x, y float64) {
	e.rec.SpawnX, e.rec.SpawnY = x, y
}

// SetDefeatHandler installs fn, replacing any previous handler.
func (e *Entity) SetDefeatHandler(fn DefeatHandler) { e.onDefeat = fn }

// Battle returns the battle the entity is in, or nil.
func (e *Entity) Battle() *battle.Battle { return e.battle }

// InBattle reports whether the entity is seated in a battle.
func (e *Entity) InBattle() bool { return e.battle != nil }

// Opponent returns the entity facing e in its battle.
func (e *Entity) Opponent() (*Entity, bool) {
	if e.battle == nil {
		return nil, false
	}
	c, ok := e.battle.Opponent(e)
	if !ok {
		return nil, false
	}
	opp, ok := c.(*Entity)
	return opp, ok
}

// EnterBattle implements battle.Combatant.
func (e *Entity) EnterBattle(b *battle.Battle) { e.battle = b }

// ExitBattle implements battle.Combatant.
func (e *Entity) ExitBattle(b *battle.Battle) {
	if e.battle == b {
		e.battle = nil
	}
}

// Defeated implements battle.Combatant.
func (e *Entity) Defeated(b *battle.Battle) {
	if e.onDefeat != nil {
		e.onDefeat(e, b)
	}
}

// HasAction reports whether a is usable: free, or learned.
func (e *Entity) HasAction(a *action.Action) bool {
	return !a.Learnable() || e.hasLearned(a.Serial)
}

func (e *Entity) hasLearned(serial int) bool {
	return slices.Contains(e.rec.LearnedActions, serial)
}

// LearnedActions returns the learned actions in learning order.
func (e *Entity) LearnedActions() []*action.Action {
	out := make([]*action.Action, 0, len(e.rec.LearnedActions))
	for _, s := range e.rec.LearnedActions {
		if a, ok := e.catalog.Get(s); ok {
			out = append(out, a)
		}
	}
	return out
}

// KnownActions returns every free action followed by the learned ones.
func (e *Entity) KnownActions() []*action.Action {
	return append(e.catalog.Free(), e.LearnedActions()...)
}

// KeyActions returns the action bound to each key slot, nil for empty slots.
func (e *Entity) KeyActions() []*action.Action {
	out := make([]*action.Action, len(e.rec.KeyActions))
	for i, s := range e.rec.KeyActions {
		if s == nil {
			continue
		}
		if a, ok := e.catalog.Get(*s); ok {
			out[i] = a
		}
	}
	return out
}

// CanPerformAction reports whether e may perform a right now: it holds the
// turn in an unfinished battle, knows a, and has the energy to pay for it.
func (e *Entity) CanPerformAction(a *action.Action) bool {
	if e.battle == nil || e.battle.IsFinished() || !e.battle.IsTurnOf(e) {
		return false
	}
	if !e.HasAction(a) {
		return false
	}
	return e.pts[points.Energy].Value() >= a.EnergyCost(e.species)
}

// PerformAction performs the action with the given serial. Unknown serials
// and unmet preconditions are ignored.
//
// Postcondition: Returns true iff the action was performed.
func (e *Entity) PerformAction(serial int) bool {
	a, ok := e.catalog.Get(serial)
	if !ok || !e.CanPerformAction(a) {
		return false
	}
	return e.battle.PerformAction(e, a, e.species)
}

// CanLearnAction reports whether a can be learned now.
func (e *Entity) CanLearnAction(a *action.Action) bool {
	switch {
	case !a.Learnable(), e.hasLearned(a.Serial), e.InBattle():
		return false
	case len(e.rec.LearnedActions) >= balance.LearnableActionCapacity:
		return false
	case e.rec.Level < a.MinimumLevel(e.species):
		return false
	}
	return e.pts[points.Experience].Value() >= a.ExperienceCost(e.species)
}

// LearnAction spends experience to learn the action with the given serial.
//
// Postcondition: Returns true iff the action was learned.
func (e *Entity) LearnAction(serial int) bool {
	a, ok := e.catalog.Get(serial)
	if !ok || !e.CanLearnAction(a) {
		return false
	}
	e.pts[points.Experience].OffsetValue(-a.ExperienceCost(e.species))
	e.rec.LearnedActions = append(e.rec.LearnedActions, serial)
	return true
}

// CanForgetAction reports whether a is learned and may be forgotten now.
func (e *Entity) CanForgetAction(a *action.Action) bool {
	return a.Learnable() && e.hasLearned(a.Serial) && !e.InBattle()
}

// ForgetAction forgets the action with the given serial and clears every key
// bound to it. No experience is refunded.
//
// Postcondition: Returns true iff the action was forgotten.
func (e *Entity) ForgetAction(serial int) bool {
	a, ok := e.catalog.Get(serial)
	if !ok || !e.CanForgetAction(a) {
		return false
	}
	e.rec.LearnedActions = slices.DeleteFunc(e.rec.LearnedActions, func(s int) bool { return s == serial })
	for i, k := range e.rec.KeyActions {
		if k != nil && *k == serial {
			e.rec.KeyActions[i] = nil
		}
	}
	return true
}

// BindAction binds the action with the given serial to key, or clears key
// when serial is nil.
//
// Postcondition: Returns true iff the key slot changed or was cleared.
func (e *Entity) BindAction(serial *int, key int) bool {
	if key < 0 || key >= len(e.rec.KeyActions) {
		return false
	}
	if serial == nil {
		e.rec.KeyActions[key] = nil
		return true
	}
	a, ok := e.catalog.Get(*serial)
	if !ok || !e.HasAction(a) {
		return false
	}
	s := a.Serial
	e.rec.KeyActions[key] = &s
	return true
}

// CanLevelUp reports whether e has the experience to advance a level and is
// not in a battle.
func (e *Entity) CanLevelUp() bool {
	return !e.InBattle() && e.pts[points.Experience].Value() >= balance.LevelUpCost(e.rec.Level)
}

// LevelUp spends experience to advance one level and raises maximum health.
//
// Postcondition: Returns true iff the level increased.
func (e *Entity) LevelUp() bool {
	if !e.CanLevelUp() {
		return false
	}
	e.pts[points.Experience].OffsetValue(-balance.LevelUpCost(e.rec.Level))
	e.rec.Level++
	e.pts[points.Health].SetMaximum(balance.MaximumHealth(e.rec.Level))
	return true
}

// LeaveBattleEarly forfeits the current battle, if any.
func (e *Entity) LeaveBattleEarly() {
	if e.battle != nil {
		e.battle.LeaveEarly(e)
	}
}

// TimerEvent is the per-tick hook. A bot holding the turn performs a random
// action it can afford.
//
// Precondition: src must be non-nil.
func (e *Entity) TimerEvent(src dice.Source) {
	if e.player || e.battle == nil || !e.battle.IsTurnOf(e) {
		return
	}
	var options []*action.Action
	for _, a := range e.KnownActions() {
		if e.CanPerformAction(a) {
			options = append(options, a)
		}
	}
	if len(options) == 0 {
		return
	}
	a := options[src.Intn(len(options))]
	e.battle.PerformAction(e, a, e.species)
}
