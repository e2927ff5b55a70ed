package world

import (
	"sync"

	"github.com/cory-johannsen/arena/internal/game/entity"
)

// Placement is the spatial boundary of the world. Entities in a battle are
// removed from it and put back when the battle is reaped.
type Placement interface {
	Place(e *entity.Entity)
	Remove(e *entity.Entity)
}

// MemoryPlacement tracks placed entities by username.
// All methods are safe for concurrent use.
type MemoryPlacement struct {
	mu     sync.RWMutex
	placed map[string]*entity.Entity
}

// NewMemoryPlacement returns an empty placement.
func NewMemoryPlacement() *MemoryPlacement {
	return &MemoryPlacement{placed: make(map[string]*entity.Entity)}
}

// Place implements Placement.
func (p *MemoryPlacement) Place(e *entity.Entity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed[e.Username()] = e
}

// Remove implements Placement.
func (p *MemoryPlacement) Remove(e *entity.Entity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.placed, e.Username())
}

// Contains reports whether e is currently placed.
func (p *MemoryPlacement) Contains(e *entity.Entity) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.placed[e.Username()]
	return ok
}

// Len returns the number of placed entities.
func (p *MemoryPlacement) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.placed)
}
