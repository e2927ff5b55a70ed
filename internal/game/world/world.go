// Package world owns the live entity set and drives battles from a periodic
// tick. Every mutation of entities and battles happens under the world lock.
package world

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/action"
	"github.com/cory-johannsen/arena/internal/game/balance"
	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/clock"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/pvp"
)

// DefaultPowerPerDistance is the enemy power gained per unit of distance
// from the origin.
const DefaultPowerPerDistance = 0.002

var (
	// ErrEntityExists is returned when adding an entity whose username is taken.
	ErrEntityExists = errors.New("entity already in world")
	// ErrNoSpecies is returned when a bot is spawned from a catalog without species.
	ErrNoSpecies = errors.New("catalog defines no species")
)

// Config configures a World. Zero values select defaults.
type Config struct {
	// Battle configures every battle. Its Throttle is replaced by the world's
	// PvP monitor.
	Battle       battle.Config
	CleanupDelay time.Duration
	PvP          pvp.Config
	// PowerPerDistance is the enemy level banding slope.
	PowerPerDistance float64
	Placement        Placement
}

// World is the live set of entities and battles.
// All methods are safe for concurrent use.
type World struct {
	mu               sync.Mutex
	logger           *zap.Logger
	rand             dice.Source
	powerPerDistance float64
	catalog          *action.Catalog
	battles          *battle.Manager
	monitor          *pvp.Monitor
	placement        Placement
	entities         map[string]*entity.Entity
	// order keeps the tick sequence consistent.
	order []string
}

// New creates an empty world over catalog.
//
// Precondition: catalog must be non-nil.
func New(catalog *action.Catalog, cfg Config) *World {
	if cfg.Battle.Clock == nil {
		cfg.Battle.Clock = clock.NewReal()
	}
	if cfg.Battle.Rand == nil {
		cfg.Battle.Rand = dice.NewCryptoSource()
	}
	if cfg.Battle.Logger == nil {
		cfg.Battle.Logger = zap.NewNop()
	}
	if cfg.PvP == (pvp.Config{}) {
		cfg.PvP = pvp.DefaultConfig
	}
	if cfg.PowerPerDistance <= 0 {
		cfg.PowerPerDistance = DefaultPowerPerDistance
	}
	if cfg.Placement == nil {
		cfg.Placement = NewMemoryPlacement()
	}
	w := &World{
		logger:           cfg.Battle.Logger,
		rand:             cfg.Battle.Rand,
		powerPerDistance: cfg.PowerPerDistance,
		catalog:          catalog,
		placement:        cfg.Placement,
		entities:         make(map[string]*entity.Entity),
	}
	w.monitor = pvp.NewMonitor(cfg.PvP, cfg.Battle.Clock, cfg.Battle.Logger)
	cfg.Battle.Throttle = w.monitor
	w.battles = battle.NewManager(cfg.Battle, cfg.CleanupDelay, w.reap)
	return w
}

// Catalog returns the action catalog.
func (w *World) Catalog() *action.Catalog { return w.catalog }

// Battles returns the battle manager.
func (w *World) Battles() *battle.Manager { return w.battles }

// Monitor returns the PvP monitor.
func (w *World) Monitor() *pvp.Monitor { return w.monitor }

// Do runs fn under the world lock.
//
// Precondition: fn must not call other World methods.
func (w *World) Do(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn()
}

// Add registers e and places it.
//
// Postcondition: Returns ErrEntityExists if the username is already present.
func (w *World) Add(e *entity.Entity) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.add(e)
}

func (w *World) add(e *entity.Entity) error {
	name := e.Username()
	if _, ok := w.entities[name]; ok {
		return fmt.Errorf("%w: %q", ErrEntityExists, name)
	}
	e.SetDefeatHandler(w.defeated)
	w.entities[name] = e
	w.order = append(w.order, name)
	if !e.InBattle() {
		w.placement.Place(e)
	}
	return nil
}

// Remove forfeits any battle e is in and drops it from the world.
//
// Postcondition: Returns the removed entity, or (nil, false) if unknown.
func (w *World) Remove(username string) (*entity.Entity, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[username]
	if !ok {
		return nil, false
	}
	e.LeaveBattleEarly()
	w.remove(e)
	return e, true
}

func (w *World) remove(e *entity.Entity) {
	name := e.Username()
	w.placement.Remove(e)
	delete(w.entities, name)
	w.order = slices.DeleteFunc(w.order, func(n string) bool { return n == name })
}

// Entity returns the entity registered under username.
func (w *World) Entity(username string) (*entity.Entity, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[username]
	return e, ok
}

// Entities returns every entity in tick order.
func (w *World) Entities() []*entity.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*entity.Entity, 0, len(w.order))
	for _, name := range w.order {
		out = append(out, w.entities[name])
	}
	return out
}

// Collide starts a battle between a and b when both are registered, alive and
// free, and at least one is a player.
//
// Postcondition: Returns the new battle and true, or (nil, false) with no
// state change.
func (w *World) Collide(a, b *entity.Entity) (*battle.Battle, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.collide(a, b)
}

func (w *World) collide(a, b *entity.Entity) (*battle.Battle, bool) {
	if a == b || !w.registered(a) || !w.registered(b) {
		return nil, false
	}
	if a.IsBot() && b.IsBot() {
		return nil, false
	}
	if !a.Alive() || !b.Alive() || a.InBattle() || b.InBattle() {
		return nil, false
	}
	w.placement.Remove(a)
	w.placement.Remove(b)
	return w.battles.Start(a, b), true
}

func (w *World) registered(e *entity.Entity) bool {
	if e == nil {
		return false
	}
	got, ok := w.entities[e.Username()]
	return ok && got == e
}

// EnemyLevelAt returns the level of bots spawned at (x, y). Level grows with
// distance from the origin.
//
// Postcondition: Returns a value >= 1.
func (w *World) EnemyLevelAt(x, y float64) int {
	power := balance.PowerMultiplier(1) + math.Hypot(x, y)*w.powerPerDistance
	return max(1, int(math.Floor(balance.LevelForPower(power))))
}

// SpawnBot adds a bot of a random species at (x, y) with the level banded for
// that position.
func (w *World) SpawnBot(x, y float64) (*entity.Entity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spawnBot(x, y)
}

func (w *World) spawnBot(x, y float64) (*entity.Entity, error) {
	names := w.catalog.SpeciesNames()
	if len(names) == 0 {
		return nil, ErrNoSpecies
	}
	sp, err := w.catalog.Species(names[w.rand.Intn(len(names))])
	if err != nil {
		return nil, err
	}
	bot := entity.NewBot(w.EnemyLevelAt(x, y), w.catalog, sp)
	bot.SetPosition(x, y)
	if err := w.add(bot); err != nil {
		return nil, err
	}
	w.logger.Debug("bot spawned",
		zap.String("username", bot.Username()),
		zap.String("species", sp.Name),
		zap.Int("level", bot.Level()),
	)
	return bot, nil
}

// Hunt spawns a bot at the player's position and starts a battle against it.
//
// Postcondition: Returns (nil, false) and spawns nothing if the player cannot
// fight.
func (w *World) Hunt(username string) (*battle.Battle, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entities[username]
	if !ok || !e.IsPlayer() || !e.Alive() || e.InBattle() {
		return nil, false
	}
	x, y := e.Position()
	bot, err := w.spawnBot(x, y)
	if err != nil {
		w.logger.Warn("spawning bot", zap.Error(err))
		return nil, false
	}
	b, ok := w.collide(e, bot)
	if !ok {
		w.remove(bot)
	}
	return b, ok
}

// TimerEvent advances the world by one tick: entity hooks, then battle
// timers and reaping, then the PvP garbage collector.
func (w *World) TimerEvent() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, name := range slices.Clone(w.order) {
		if e, ok := w.entities[name]; ok {
			e.TimerEvent(w.rand)
		}
	}
	w.battles.TimerEvent()
	w.monitor.TimerEvent()
}

func (w *World) defeated(e *entity.Entity, b *battle.Battle) {
	w.logger.Info("entity defeated",
		zap.String("username", e.Username()),
		zap.Bool("bot", e.IsBot()),
		zap.Stringer("battle", b.ID),
	)
}

// reap runs under the world lock from inside battles.TimerEvent.
func (w *World) reap(b *battle.Battle) {
	for _, slot := range b.Slots() {
		occ, ok := slot.Occupant()
		if !ok {
			continue
		}
		e, ok := occ.(*entity.Entity)
		if !ok || !w.registered(e) {
			continue
		}
		if e.Alive() {
			w.placement.Place(e)
			continue
		}
		if e.IsBot() {
			w.remove(e)
			continue
		}
		e.RestoreHealth()
		w.placement.Place(e)
	}
}
