// Package points implements bounded numeric resources with temporary burst
// overlays, and the offset strategies that compute deltas against them.
package points

// Name identifies a resource on an entity.
type Name string

const (
	Health     Name = "health"
	Energy     Name = "energy"
	Damage     Name = "damage"
	Experience Name = "experience"
	Gold       Name = "gold"
)

// AllNames lists every resource in display order.
var AllNames = []Name{Health, Energy, Damage, Experience, Gold}

// Option configures a Points at construction.
type Option func(*Points)

// WithMinimum bounds the stored value from below.
func WithMinimum(v int) Option {
	return func(p *Points) { p.min, p.hasMin = v, true }
}

// WithMaximum bounds the stored value from above.
func WithMaximum(v int) Option {
	return func(p *Points) { p.max, p.hasMax = v, true }
}

// Points is a bounded resource whose value lives in a pluggable Storage.
// It is not safe for concurrent use; the world tick serialises access.
//
// Invariant: the stored value and the effective value are within the bounds
// whenever the bounds are set.
type Points struct {
	name    Name
	storage Storage
	min     int
	hasMin  bool
	max     int
	hasMax  bool
	bursts  []Burst
}

// New creates a Points over storage. The current stored value is clamped into
// the configured bounds.
//
// Precondition: storage must be non-nil.
func New(storage Storage, opts ...Option) *Points {
	p := &Points{storage: storage}
	for _, opt := range opts {
		opt(p)
	}
	p.storage.Store(p.clamp(p.storage.Load()))
	return p
}

// Name returns the resource identifier.
func (p *Points) Name() Name { return p.name }

// SetName assigns the resource identifier once the owning resource map is built.
func (p *Points) SetName(name Name) { p.name = name }

// Minimum returns the lower bound and whether one is set.
func (p *Points) Minimum() (int, bool) { return p.min, p.hasMin }

// Maximum returns the upper bound and whether one is set.
func (p *Points) Maximum() (int, bool) { return p.max, p.hasMax }

// SetMaximum replaces the upper bound and re-clamps the stored value.
func (p *Points) SetMaximum(v int) {
	p.max, p.hasMax = v, true
	p.storage.Store(p.clamp(p.storage.Load()))
}

// Value returns the stored value without bursts.
func (p *Points) Value() int { return p.storage.Load() }

// SetValue stores v clamped into the bounds.
//
// Postcondition: Value() is within [Minimum, Maximum].
func (p *Points) SetValue(v int) {
	p.storage.Store(p.clamp(v))
}

// OffsetValue adds delta to the stored value and returns the delta actually
// applied after clamping. Callers moving a resource between two Points must use
// the returned amount.
//
// Postcondition: Value() == old Value() + returned delta.
func (p *Points) OffsetValue(delta int) int {
	old := p.storage.Load()
	next := p.clamp(old + delta)
	p.storage.Store(next)
	return next - old
}

// EffectiveValue returns the stored value overlaid by bursts. Only the most
// negative and the most positive active bursts contribute.
func (p *Points) EffectiveValue() int {
	lowest, highest := 0, 0
	for _, b := range p.bursts {
		if b.Offset < lowest {
			lowest = b.Offset
		}
		if b.Offset > highest {
			highest = b.Offset
		}
	}
	return p.clamp(p.storage.Load() + lowest + highest)
}

// Bursts returns a copy of the active bursts.
func (p *Points) Bursts() []Burst {
	out := make([]Burst, len(p.bursts))
	copy(out, p.bursts)
	return out
}

// AddBurst installs b. At most one burst per offset value is kept; when b
// duplicates an existing offset, the one with more remaining turns wins.
func (p *Points) AddBurst(b Burst) {
	for i, existing := range p.bursts {
		if existing.Offset != b.Offset {
			continue
		}
		if existing.TurnCount > b.TurnCount {
			return
		}
		p.bursts = append(p.bursts[:i], p.bursts[i+1:]...)
		break
	}
	p.bursts = append(p.bursts, b)
}

// ProcessBursts advances every burst by one turn and drops finished ones.
// It is called once per turn for the acting entity only.
func (p *Points) ProcessBursts() {
	kept := p.bursts[:0]
	for _, b := range p.bursts {
		b = b.advance()
		if !b.Finished() {
			kept = append(kept, b)
		}
	}
	p.bursts = kept
}

// ClearBursts removes bursts whose sign matches direction. A direction of 0
// removes every burst.
func (p *Points) ClearBursts(direction int) {
	if direction == 0 {
		p.bursts = nil
		return
	}
	kept := p.bursts[:0]
	for _, b := range p.bursts {
		if b.Direction() != sign(direction) {
			kept = append(kept, b)
		}
	}
	p.bursts = kept
}

func (p *Points) clamp(v int) int {
	if p.hasMin && v < p.min {
		v = p.min
	}
	if p.hasMax && v > p.max {
		v = p.max
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
