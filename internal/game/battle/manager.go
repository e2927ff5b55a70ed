package battle

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCleanupDelay is how long a finished battle stays visible before it
// is reaped.
const DefaultCleanupDelay = 3 * time.Second

// ReapFunc is invoked once for every battle the Manager removes, after each
// remaining occupant has exited it.
type ReapFunc func(b *Battle)

// Manager owns every battle in the world, keyed by ID.
// All methods are safe for concurrent use.
type Manager struct {
	mu           sync.RWMutex
	cfg          Config
	cleanupDelay time.Duration
	onReap       ReapFunc
	battles      map[uuid.UUID]*Battle
	// order keeps iteration consistent across ticks.
	order []uuid.UUID
}

// NewManager creates an empty Manager. A non-positive cleanupDelay uses
// DefaultCleanupDelay and onReap may be nil.
func NewManager(cfg Config, cleanupDelay time.Duration, onReap ReapFunc) *Manager {
	if cleanupDelay <= 0 {
		cleanupDelay = DefaultCleanupDelay
	}
	return &Manager{
		cfg:          cfg.withDefaults(),
		cleanupDelay: cleanupDelay,
		onReap:       onReap,
		battles:      make(map[uuid.UUID]*Battle),
	}
}

// Start creates and registers a battle between a and b.
//
// Precondition: neither a nor b may already be in a battle.
// Postcondition: The returned battle is retrievable by Get until reaped.
func (m *Manager) Start(a, b Combatant) *Battle {
	bt := New(uuid.New(), a, b, m.cfg)
	m.mu.Lock()
	m.battles[bt.ID] = bt
	m.order = append(m.order, bt.ID)
	m.mu.Unlock()
	return bt
}

// Get returns the battle with the given ID.
//
// Postcondition: Returns (battle, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id uuid.UUID) (*Battle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bt, ok := m.battles[id]
	return bt, ok
}

// All returns the live battles in start order.
func (m *Manager) All() []*Battle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Battle, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.battles[id])
	}
	return out
}

// Len returns the number of live battles.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.battles)
}

// TimerEvent drives every battle's turn deadline and reaps battles that
// finished at least cleanupDelay ago.
func (m *Manager) TimerEvent() {
	now := m.cfg.Clock.Now()
	var reaped []*Battle
	for _, bt := range m.All() {
		bt.TimerEvent()
		if bt.IsFinished() && now.Sub(bt.FinishedAt()) >= m.cleanupDelay {
			reaped = append(reaped, bt)
		}
	}
	if len(reaped) == 0 {
		return
	}

	m.mu.Lock()
	for _, bt := range reaped {
		delete(m.battles, bt.ID)
	}
	order := m.order[:0]
	for _, id := range m.order {
		if _, ok := m.battles[id]; ok {
			order = append(order, id)
		}
	}
	m.order = order
	m.mu.Unlock()

	for _, bt := range reaped {
		for _, s := range bt.Slots() {
			if c, ok := s.Occupant(); ok {
				c.ExitBattle(bt)
			}
		}
		if m.onReap != nil {
			m.onReap(bt)
		}
		m.cfg.Logger.Debug("battle reaped", zap.String("battle", bt.ID.String()))
	}
}
