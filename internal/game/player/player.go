// Package player defines the persisted player record and the repository
// boundary account storage implements.
package player

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/cory-johannsen/arena/internal/game/balance"
)

// ErrPlayerNotFound is returned when no record exists for a username.
var ErrPlayerNotFound = errors.New("player not found")

// ErrPlayerExists is returned when creating a record for a taken username.
var ErrPlayerExists = errors.New("player already exists")

// Record is the persisted state of a player. Entities read and write Health,
// Experience and Gold in place while the player is online.
type Record struct {
	ID             int64
	Username       string
	Species        string
	Level          int
	Health         int
	Experience     int
	Gold           int
	SpawnX         float64
	SpawnY         float64
	LearnedActions []int
	// KeyActions holds one optional action serial per key slot.
	KeyActions []*int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New returns the starting record for a fresh player: level 1, full health,
// the first two free actions bound to keys 0 and 1.
func New(username, species string, freeSerials ...int) *Record {
	r := &Record{
		Username: username,
		Species:  species,
		Level:    1,
		Health:   balance.MaximumHealth(1),
	}
	r.Normalize()
	for i, serial := range freeSerials {
		if i >= len(r.KeyActions) {
			break
		}
		s := serial
		r.KeyActions[i] = &s
	}
	return r
}

// Normalize repairs a record decoded from storage: KeyActions is resized to
// exactly balance.KeySlotCount slots, duplicate learned serials are dropped
// and the level is at least 1.
func (r *Record) Normalize() {
	if r.Level < 1 {
		r.Level = 1
	}
	switch {
	case len(r.KeyActions) > balance.KeySlotCount:
		r.KeyActions = r.KeyActions[:balance.KeySlotCount]
	case len(r.KeyActions) < balance.KeySlotCount:
		r.KeyActions = append(r.KeyActions, make([]*int, balance.KeySlotCount-len(r.KeyActions))...)
	}
	seen := make(map[int]bool, len(r.LearnedActions))
	learned := r.LearnedActions[:0]
	for _, s := range r.LearnedActions {
		if !seen[s] {
			seen[s] = true
			learned = append(learned, s)
		}
	}
	r.LearnedActions = learned
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	out := *r
	out.LearnedActions = slices.Clone(r.LearnedActions)
	out.KeyActions = make([]*int, len(r.KeyActions))
	for i, k := range r.KeyActions {
		if k != nil {
			v := *k
			out.KeyActions[i] = &v
		}
	}
	return &out
}

// Repository loads and stores player records.
type Repository interface {
	// Load returns the record for username or ErrPlayerNotFound.
	Load(ctx context.Context, username string) (*Record, error)
	// Create inserts rec and returns it with ID and timestamps set, or
	// ErrPlayerExists.
	Create(ctx context.Context, rec *Record) (*Record, error)
	// Save persists every mutable field of rec, or returns ErrPlayerNotFound.
	Save(ctx context.Context, rec *Record) error
}

// MemoryRepository is an in-process Repository. It stores copies so callers
// never alias stored state.
type MemoryRepository struct {
	mu      sync.Mutex
	nextID  int64
	records map[string]*Record
	now     func() time.Time
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]*Record), now: time.Now}
}

func (m *MemoryRepository) Load(_ context.Context, username string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[username]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return rec.Clone(), nil
}

func (m *MemoryRepository) Create(_ context.Context, rec *Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.Username]; ok {
		return nil, ErrPlayerExists
	}
	m.nextID++
	stored := rec.Clone()
	stored.ID = m.nextID
	stored.CreatedAt = m.now()
	stored.UpdatedAt = stored.CreatedAt
	m.records[rec.Username] = stored
	return stored.Clone(), nil
}

func (m *MemoryRepository) Save(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.records[rec.Username]
	if !ok {
		return ErrPlayerNotFound
	}
	stored := rec.Clone()
	stored.ID = prev.ID
	stored.CreatedAt = prev.CreatedAt
	stored.UpdatedAt = m.now()
	m.records[rec.Username] = stored
	return nil
}
