package action

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arena/internal/game/effect"
	"github.com/cory-johannsen/arena/internal/game/points"
)

//go:embed content
var defaultContent embed.FS

// DiscountRecord is the serialized form of a DiscountRule.
type DiscountRecord struct {
	Effect     string      `yaml:"effect,omitempty"`
	PointsName points.Name `yaml:"pointsName,omitempty"`
	Direction  int         `yaml:"direction,omitempty"`
}

// SpeciesRecord is the serialized form of a SpeciesDefinition.
type SpeciesRecord struct {
	Name      string           `yaml:"name"`
	Discounts []DiscountRecord `yaml:"discounts"`
}

// FromRecord builds an Action from its serialized form.
//
// Postcondition: Returns an error if the kind tag, serial, costs or effect
// record are invalid.
func FromRecord(rec Record) (*Action, error) {
	a := &Action{Serial: rec.SerialInteger, Name: rec.Name, BaseEnergyCost: rec.BaseEnergyCost}
	switch rec.Kind {
	case KindFree.String():
		a.Kind = KindFree
		if rec.BaseMinimumLevel != nil {
			return nil, fmt.Errorf("action %d: free actions have no baseMinimumLevel", rec.SerialInteger)
		}
	case KindLearnable.String():
		a.Kind = KindLearnable
		if rec.BaseMinimumLevel == nil || *rec.BaseMinimumLevel < 1 {
			return nil, fmt.Errorf("action %d: learnable actions need baseMinimumLevel >= 1", rec.SerialInteger)
		}
		a.BaseMinimumLevel = *rec.BaseMinimumLevel
	default:
		return nil, fmt.Errorf("action %d: unknown kind %q", rec.SerialInteger, rec.Kind)
	}
	if a.Serial < 1 {
		return nil, fmt.Errorf("action %q: serialInteger must be >= 1", rec.Name)
	}
	if a.Name == "" {
		return nil, fmt.Errorf("action %d: name is required", rec.SerialInteger)
	}
	if a.BaseEnergyCost < 0 {
		return nil, fmt.Errorf("action %d: baseEnergyCost must be >= 0", rec.SerialInteger)
	}
	e, err := effect.Decode(rec.Effect)
	if err != nil {
		return nil, fmt.Errorf("action %d: %w", rec.SerialInteger, err)
	}
	a.Effect = e
	return a, nil
}

// Definition resolves the serialized species form.
func (r SpeciesRecord) Definition() (SpeciesDefinition, error) {
	def := SpeciesDefinition{Name: r.Name, Rules: make([]DiscountRule, 0, len(r.Discounts))}
	for _, d := range r.Discounts {
		rule := DiscountRule{Points: d.PointsName, Direction: d.Direction}
		if d.Effect != "" {
			kind, ok := effect.ParseKind(d.Effect)
			if !ok {
				return SpeciesDefinition{}, fmt.Errorf("species %q: %w: %q", r.Name, effect.ErrUnknownEffect, d.Effect)
			}
			rule.Kind = kind
		}
		if d.Direction < -1 || d.Direction > 1 {
			return SpeciesDefinition{}, fmt.Errorf("species %q: direction must be -1, 0 or 1", r.Name)
		}
		def.Rules = append(def.Rules, rule)
	}
	return def, nil
}

// LoadFS reads every YAML file under actions/ and species/ in fsys and builds
// a Catalog. Unknown fields are rejected.
//
// Postcondition: Returns a populated Catalog, or the first read, parse or
// validation error.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	var actionRecs []Record
	if err := decodeDir(fsys, "actions", &actionRecs); err != nil {
		return nil, err
	}
	var speciesRecs []SpeciesRecord
	if err := decodeDir(fsys, "species", &speciesRecs); err != nil {
		return nil, err
	}

	actions := make([]*Action, 0, len(actionRecs))
	for _, rec := range actionRecs {
		a, err := FromRecord(rec)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	defs := make([]SpeciesDefinition, 0, len(speciesRecs))
	for _, rec := range speciesRecs {
		def, err := rec.Definition()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return NewCatalog(actions, defs)
}

// LoadDirectory is LoadFS over a directory on disk.
//
// Precondition: dir must be a readable directory.
func LoadDirectory(dir string) (*Catalog, error) {
	return LoadFS(os.DirFS(dir))
}

// Default returns the catalog built from the embedded content.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(defaultContent, "content")
	if err != nil {
		return nil, fmt.Errorf("opening embedded content: %w", err)
	}
	return LoadFS(sub)
}

// decodeDir appends the YAML list in each file of dir to out, in file name order.
func decodeDir[T any](fsys fs.FS, dir string, out *[]T) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		p := path.Join(dir, name)
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		var items []T
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&items); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parsing %s: %w", p, err)
		}
		*out = append(*out, items...)
	}
	return nil
}
