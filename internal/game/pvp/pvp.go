// Package pvp throttles experience farming between pairs of player accounts.
package pvp

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/game/clock"
)

// Participant is the view of a combatant the monitor needs.
type Participant interface {
	Username() string
	// IsPlayer reports whether the participant is a persistent account.
	IsPlayer() bool
}

// Config bounds the sliding window.
type Config struct {
	// Window is how long a reward counts against the pair.
	Window time.Duration
	// MaxRewards is the number of rewarded victories allowed per window.
	MaxRewards int
	// GCInterval is the minimum time between garbage-collection sweeps.
	GCInterval time.Duration
}

// DefaultConfig is a 24 hour window allowing two rewards, swept every minute.
var DefaultConfig = Config{Window: 24 * time.Hour, MaxRewards: 2, GCInterval: time.Minute}

// Monitor records rewarded victories per ordered (winner, loser) pair.
// All methods are safe for concurrent use.
type Monitor struct {
	mu      sync.Mutex
	cfg     Config
	clock   clock.Clock
	logger  *zap.Logger
	lastGC  time.Time
	rewards map[string]map[string][]time.Time
}

// NewMonitor returns an empty Monitor.
//
// Precondition: clk must be non-nil. A nil logger is replaced by a no-op logger.
func NewMonitor(cfg Config, clk clock.Clock, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		cfg:     cfg,
		clock:   clk,
		logger:  logger,
		lastGC:  clk.Now(),
		rewards: make(map[string]map[string][]time.Time),
	}
}

// RegisterVictory reports whether winner may be rewarded for defeating loser,
// recording the reward when it is permitted. Victories involving a non-player
// are always permitted and never recorded.
//
// Postcondition: Returns false iff both are players and winner already holds
// MaxRewards in-window rewards against loser.
func (m *Monitor) RegisterVictory(winner, loser Participant) bool {
	if !winner.IsPlayer() || !loser.IsPlayer() {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	w, l := winner.Username(), loser.Username()
	byLoser, ok := m.rewards[w]
	if !ok {
		byLoser = make(map[string][]time.Time)
		m.rewards[w] = byLoser
	}
	if m.countWithinWindow(byLoser[l], now) >= m.cfg.MaxRewards {
		m.logger.Info("victory reward throttled",
			zap.String("winner", w),
			zap.String("loser", l),
		)
		return false
	}
	byLoser[l] = append(byLoser[l], now)
	return true
}

func (m *Monitor) countWithinWindow(stamps []time.Time, now time.Time) int {
	n := 0
	for _, ts := range stamps {
		if now.Sub(ts) < m.cfg.Window {
			n++
		}
	}
	return n
}

// TimerEvent sweeps expired timestamps once GCInterval has elapsed since the
// previous sweep.
func (m *Monitor) TimerEvent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	if now.Sub(m.lastGC) < m.cfg.GCInterval {
		return
	}
	m.collect(now)
}

// Collect sweeps expired timestamps immediately.
func (m *Monitor) Collect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collect(m.clock.Now())
}

func (m *Monitor) collect(now time.Time) {
	m.lastGC = now
	dropped := 0
	for w, byLoser := range m.rewards {
		for l, stamps := range byLoser {
			kept := stamps[:0]
			for _, ts := range stamps {
				if now.Sub(ts) < m.cfg.Window {
					kept = append(kept, ts)
				}
			}
			dropped += len(stamps) - len(kept)
			if len(kept) == 0 {
				delete(byLoser, l)
				continue
			}
			byLoser[l] = kept
		}
		if len(byLoser) == 0 {
			delete(m.rewards, w)
		}
	}
	m.logger.Debug("pvp monitor swept", zap.Int("dropped", dropped), zap.Int("winners", len(m.rewards)))
}

// Tracked returns the number of recorded rewards for the ordered pair.
func (m *Monitor) Tracked(winner, loser string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rewards[winner][loser])
}

// Winners returns the number of winners with at least one recorded reward.
func (m *Monitor) Winners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rewards)
}
