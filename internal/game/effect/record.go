package effect

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cory-johannsen/arena/internal/game/points"
)

// ErrUnknownEffect is returned when a record carries an unrecognised kind tag.
var ErrUnknownEffect = errors.New("unknown effect")

// Record is the tagged serialized form of an Effect, shared by the JSON view
// consumed by clients and the YAML action content.
type Record struct {
	Name             string               `json:"name" yaml:"name"`
	PointsName       *points.Name         `json:"pointsName,omitempty" yaml:"pointsName,omitempty"`
	ApplyToOpponent  *bool                `json:"applyToOpponent,omitempty" yaml:"applyToOpponent,omitempty"`
	OpponentIsSource *bool                `json:"opponentIsSource,omitempty" yaml:"opponentIsSource,omitempty"`
	Value            *int                 `json:"value,omitempty" yaml:"value,omitempty"`
	Efficiency       *float64             `json:"efficiency,omitempty" yaml:"efficiency,omitempty"`
	Offset           *points.OffsetRecord `json:"offset,omitempty" yaml:"offset,omitempty"`
	TurnCount        *int                 `json:"turnCount,omitempty" yaml:"turnCount,omitempty"`
	Direction        *int                 `json:"direction,omitempty" yaml:"direction,omitempty"`
	Probability      *float64             `json:"probability,omitempty" yaml:"probability,omitempty"`
	Effect           *Record              `json:"effect,omitempty" yaml:"effect,omitempty"`
	AlternateEffect  *Record              `json:"alternateEffect,omitempty" yaml:"alternateEffect,omitempty"`
	Effects          []Record             `json:"effects,omitempty" yaml:"effects,omitempty"`
}

func ptr[T any](v T) *T { return &v }

func offsetRecord(o points.Offset) *points.OffsetRecord {
	rec := o.Record()
	return &rec
}

// Encode returns the serialized form of e, or nil for a nil effect.
func Encode(e Effect) *Record {
	switch v := e.(type) {
	case SetPoints:
		return &Record{Name: v.Kind().String(), PointsName: ptr(v.Points), ApplyToOpponent: ptr(v.ApplyToOpponent), Value: ptr(v.Value)}
	case OffsetPoints:
		return &Record{Name: v.Kind().String(), PointsName: ptr(v.Points), ApplyToOpponent: ptr(v.ApplyToOpponent), Offset: offsetRecord(v.Offset)}
	case TransferPoints:
		return &Record{
			Name:             v.Kind().String(),
			PointsName:       ptr(v.Points),
			OpponentIsSource: ptr(v.OpponentIsSource),
			Efficiency:       ptr(v.Efficiency),
			Offset:           offsetRecord(v.Offset),
		}
	case SwapPoints:
		return &Record{Name: v.Kind().String(), PointsName: ptr(v.Points)}
	case BurstPoints:
		return &Record{
			Name:            v.Kind().String(),
			PointsName:      ptr(v.Points),
			ApplyToOpponent: ptr(v.ApplyToOpponent),
			Offset:          offsetRecord(v.Offset),
			TurnCount:       ptr(v.TurnCount),
		}
	case Linger:
		return &Record{Name: v.Kind().String(), TurnCount: ptr(v.TurnCount), Effect: Encode(v.Effect)}
	case ClearStatus:
		rec := &Record{Name: v.Kind().String(), ApplyToOpponent: ptr(v.ApplyToOpponent)}
		if v.Points != "" {
			rec.PointsName = ptr(v.Points)
		}
		if v.Direction != 0 {
			rec.Direction = ptr(v.Direction)
		}
		return rec
	case Composite:
		rec := &Record{Name: v.Kind().String(), Effects: make([]Record, 0, len(v.Effects))}
		for _, child := range v.Effects {
			if c := Encode(child); c != nil {
				rec.Effects = append(rec.Effects, *c)
			}
		}
		return rec
	case Chance:
		return &Record{Name: v.Kind().String(), Probability: ptr(v.Probability), Effect: Encode(v.Hit), AlternateEffect: Encode(v.Miss)}
	default:
		return nil
	}
}

// Decode builds an Effect from its serialized form. A nil record decodes to a
// nil effect.
//
// Postcondition: Returns an error wrapping ErrUnknownEffect for an unknown tag,
// or describing the first missing or invalid field.
func Decode(rec *Record) (Effect, error) {
	if rec == nil {
		return nil, nil
	}
	kind, ok := ParseKind(rec.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, rec.Name)
	}
	d := decoder{rec: rec}
	var e Effect
	switch kind {
	case KindSetPoints:
		e = SetPoints{Points: d.pointsName(true), ApplyToOpponent: d.flag(rec.ApplyToOpponent), Value: d.integer("value", rec.Value)}
	case KindOffsetPoints:
		e = OffsetPoints{Points: d.pointsName(true), ApplyToOpponent: d.flag(rec.ApplyToOpponent), Offset: d.offset()}
	case KindTransferPoints:
		e = TransferPoints{
			Points:           d.pointsName(true),
			OpponentIsSource: d.flag(rec.OpponentIsSource),
			Efficiency:       d.float("efficiency", rec.Efficiency),
			Offset:           d.offset(),
		}
	case KindSwapPoints:
		e = SwapPoints{Points: d.pointsName(true)}
	case KindBurstPoints:
		e = BurstPoints{
			Points:          d.pointsName(true),
			ApplyToOpponent: d.flag(rec.ApplyToOpponent),
			Offset:          d.offset(),
			TurnCount:       d.turnCount(),
		}
	case KindLinger:
		e = Linger{TurnCount: d.turnCount(), Effect: d.child("effect", rec.Effect, true)}
	case KindClearStatus:
		cs := ClearStatus{Points: d.pointsName(false), ApplyToOpponent: d.flag(rec.ApplyToOpponent)}
		if rec.Direction != nil {
			cs.Direction = *rec.Direction
			if cs.Direction != -1 && cs.Direction != 1 {
				d.fail("direction must be -1 or 1, got %d", cs.Direction)
			}
		}
		e = cs
	case KindComposite:
		children := make([]Effect, 0, len(rec.Effects))
		for i := range rec.Effects {
			children = append(children, d.child("effects", &rec.Effects[i], true))
		}
		e = Composite{Effects: children}
	case KindChance:
		p := d.float("probability", rec.Probability)
		if p < 0 || p > 1 {
			d.fail("probability must be within [0, 1], got %v", p)
		}
		e = Chance{Probability: p, Hit: d.child("effect", rec.Effect, true), Miss: d.child("alternateEffect", rec.AlternateEffect, false)}
	}
	if d.err != nil {
		return nil, d.err
	}
	return e, nil
}

// decoder records the first validation failure so Decode can build each
// variant in a single expression.
type decoder struct {
	rec *Record
	err error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%s: %s", d.rec.Name, fmt.Sprintf(format, args...))
	}
}

func (d *decoder) pointsName(required bool) points.Name {
	if d.rec.PointsName == nil {
		if required {
			d.fail("pointsName is required")
		}
		return ""
	}
	name := *d.rec.PointsName
	if !slices.Contains(points.AllNames, name) {
		d.fail("unknown pointsName %q", name)
	}
	return name
}

func (d *decoder) flag(v *bool) bool {
	return v != nil && *v
}

func (d *decoder) integer(field string, v *int) int {
	if v == nil {
		d.fail("%s is required", field)
		return 0
	}
	return *v
}

func (d *decoder) float(field string, v *float64) float64 {
	if v == nil {
		d.fail("%s is required", field)
		return 0
	}
	return *v
}

func (d *decoder) turnCount() int {
	n := d.integer("turnCount", d.rec.TurnCount)
	if n < 1 && d.rec.TurnCount != nil {
		d.fail("turnCount must be >= 1, got %d", n)
	}
	return n
}

func (d *decoder) offset() points.Offset {
	if d.rec.Offset == nil {
		d.fail("offset is required")
		return points.Offset{}
	}
	o, err := points.DecodeOffset(*d.rec.Offset)
	if err != nil {
		d.fail("%v", err)
	}
	return o
}

func (d *decoder) child(field string, rec *Record, required bool) Effect {
	if rec == nil {
		if required {
			d.fail("%s is required", field)
		}
		return nil
	}
	e, err := Decode(rec)
	if err != nil {
		d.fail("%s: %v", field, err)
	}
	return e
}
