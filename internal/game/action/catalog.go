package action

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrDuplicateSerial is returned when two actions share a serial integer.
	ErrDuplicateSerial = errors.New("duplicate action serial")
	// ErrUnknownSpecies is returned when a species name is not in the catalog.
	ErrUnknownSpecies = errors.New("unknown species")
)

// SpeciesDefinition is the unresolved form of a Species.
type SpeciesDefinition struct {
	Name  string
	Rules []DiscountRule
}

// Catalog is the immutable set of actions and species a server runs with.
type Catalog struct {
	actions  []*Action
	bySerial map[int]*Action
	species  map[string]*Species
}

// NewCatalog validates actions and resolves each species against them.
//
// Postcondition: Returns an error wrapping ErrDuplicateSerial if two actions
// share a serial, or describing a duplicate or empty species name.
func NewCatalog(actions []*Action, species []SpeciesDefinition) (*Catalog, error) {
	c := &Catalog{
		actions:  make([]*Action, 0, len(actions)),
		bySerial: make(map[int]*Action, len(actions)),
		species:  make(map[string]*Species, len(species)),
	}
	for _, a := range actions {
		if prev, ok := c.bySerial[a.Serial]; ok {
			return nil, fmt.Errorf("%w: %d used by %q and %q", ErrDuplicateSerial, a.Serial, prev.Name, a.Name)
		}
		c.bySerial[a.Serial] = a
		c.actions = append(c.actions, a)
	}
	sort.Slice(c.actions, func(i, j int) bool { return c.actions[i].Serial < c.actions[j].Serial })

	for _, def := range species {
		if def.Name == "" {
			return nil, errors.New("species name must not be empty")
		}
		if _, ok := c.species[def.Name]; ok {
			return nil, fmt.Errorf("duplicate species %q", def.Name)
		}
		c.species[def.Name] = NewSpecies(def.Name, def.Rules, c.actions)
	}
	return c, nil
}

// Get returns the action with the given serial, or (nil, false).
func (c *Catalog) Get(serial int) (*Action, bool) {
	a, ok := c.bySerial[serial]
	return a, ok
}

// All returns every action ordered by serial.
func (c *Catalog) All() []*Action {
	out := make([]*Action, len(c.actions))
	copy(out, c.actions)
	return out
}

// Free returns the free actions ordered by serial.
func (c *Catalog) Free() []*Action {
	var out []*Action
	for _, a := range c.actions {
		if !a.Learnable() {
			out = append(out, a)
		}
	}
	return out
}

// Species returns the named species.
//
// Postcondition: Returns an error wrapping ErrUnknownSpecies if name is unknown.
func (c *Catalog) Species(name string) (*Species, error) {
	sp, ok := c.species[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecies, name)
	}
	return sp, nil
}

// SpeciesNames returns the species names in sorted order.
func (c *Catalog) SpeciesNames() []string {
	names := make([]string, 0, len(c.species))
	for name := range c.species {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
