package entity

import (
	"github.com/cory-johannsen/arena/internal/game/action"
	"github.com/cory-johannsen/arena/internal/game/points"
)

// View is the serializable state of an entity handed to clients.
type View struct {
	Username   string                     `json:"username"`
	Species    string                     `json:"species"`
	Level      int                        `json:"level"`
	Bot        bool                       `json:"bot"`
	Points     map[points.Name]PointsView `json:"points"`
	Actions    []action.Record            `json:"actions"`
	KeyActions []*int                     `json:"keyActions"`
	Battle     *BattleView                `json:"battle,omitempty"`
}

// PointsView is one resource in a View.
type PointsView struct {
	Value     int         `json:"value"`
	Effective int         `json:"effective"`
	Maximum   *int        `json:"maximum,omitempty"`
	Bursts    []BurstView `json:"bursts,omitempty"`
}

// BurstView is one active burst in a PointsView.
type BurstView struct {
	Offset    int `json:"offset"`
	TurnCount int `json:"turnCount"`
}

// BattleView summarizes the entity's battle.
type BattleView struct {
	ID        string `json:"id"`
	Opponent  string `json:"opponent,omitempty"`
	TurnIndex int    `json:"turnIndex"`
	YourTurn  bool   `json:"yourTurn"`
	Finished  bool   `json:"finished"`
	Message   string `json:"message,omitempty"`
	// TurnTimeout is the remaining seconds, present only for player duels.
	TurnTimeout *float64 `json:"turnTimeout,omitempty"`
}

// View captures e's current state.
func (e *Entity) View() View {
	v := View{
		Username:   e.rec.Username,
		Species:    e.species.Name,
		Level:      e.rec.Level,
		Bot:        !e.player,
		Points:     make(map[points.Name]PointsView, len(e.pts)),
		KeyActions: make([]*int, len(e.rec.KeyActions)),
	}
	for name, p := range e.pts {
		pv := PointsView{Value: p.Value(), Effective: p.EffectiveValue()}
		if hi, ok := p.Maximum(); ok {
			pv.Maximum = &hi
		}
		for _, b := range p.Bursts() {
			pv.Bursts = append(pv.Bursts, BurstView{Offset: b.Offset, TurnCount: b.TurnCount})
		}
		v.Points[name] = pv
	}
	for _, a := range e.KnownActions() {
		v.Actions = append(v.Actions, a.Record())
	}
	for i, k := range e.rec.KeyActions {
		if k != nil {
			s := *k
			v.KeyActions[i] = &s
		}
	}
	if b := e.battle; b != nil {
		bv := &BattleView{
			ID:        b.ID.String(),
			TurnIndex: b.TurnIndex(),
			YourTurn:  b.IsTurnOf(e),
			Finished:  b.IsFinished(),
			Message:   b.Message(),
		}
		if opp, ok := e.Opponent(); ok {
			bv.Opponent = opp.Username()
		}
		if remaining, ok := b.TurnTimeout(); ok {
			secs := remaining.Seconds()
			bv.TurnTimeout = &secs
		}
		v.Battle = bv
	}
	return v
}
