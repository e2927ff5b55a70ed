package action_test

import (
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/action"
	"github.com/cory-johannsen/arena/internal/game/balance"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/effect"
	"github.com/cory-johannsen/arena/internal/game/points"
)

type fixedSource struct{ f float64 }

func (f fixedSource) Intn(n int) int   { return 0 }
func (f fixedSource) Float64() float64 { return f.f }

type combatant struct {
	pts map[points.Name]*points.Points
}

func newCombatant(health, energy int) *combatant {
	c := &combatant{pts: map[points.Name]*points.Points{}}
	for name, v := range map[points.Name][2]int{
		points.Health: {health, 20},
		points.Energy: {energy, 10},
		points.Damage: {5, 10},
	} {
		p := points.New(points.NewMemoryStorage(v[0]), points.WithMinimum(0), points.WithMaximum(v[1]))
		p.SetName(name)
		c.pts[name] = p
	}
	return c
}

func (c *combatant) Points(name points.Name) *points.Points { return c.pts[name] }
func (c *combatant) Level() int                             { return 1 }

type arena struct{}

func (arena) AddLingerState(*effect.LingerState)                   {}
func (arena) ClearLingerStates(points.Name, effect.Combatant, int) {}
func (arena) Rand() dice.Source                                    { return fixedSource{0} }

func kick() *action.Action {
	return &action.Action{
		Serial:           3,
		Name:             "Kick",
		Kind:             action.KindLearnable,
		BaseEnergyCost:   3,
		BaseMinimumLevel: 4,
		Effect:           effect.OffsetPoints{Points: points.Health, ApplyToOpponent: true, Offset: points.Absolute(-2)},
	}
}

func TestPerform_AppliesEffectAndDeductsEnergy(t *testing.T) {
	a, b := newCombatant(20, 5), newCombatant(20, 5)
	kick().Perform(a, b, arena{}, nil)
	assert.Equal(t, 18, b.Points(points.Health).Value())
	assert.Equal(t, 2, a.Points(points.Energy).Value())
}

func TestPerform_NilEffectStillPaysCost(t *testing.T) {
	a, b := newCombatant(20, 5), newCombatant(20, 5)
	wait := &action.Action{Serial: 9, Name: "Wait", BaseEnergyCost: 2}
	wait.Perform(a, b, arena{}, nil)
	assert.Equal(t, 3, a.Points(points.Energy).Value())
	assert.Equal(t, 20, b.Points(points.Health).Value())
}

func TestPerform_CostCappedByAvailableEnergy(t *testing.T) {
	a, b := newCombatant(20, 1), newCombatant(20, 5)
	kick().Perform(a, b, arena{}, nil)
	assert.Equal(t, 0, a.Points(points.Energy).Value())
}

func TestCosts_WithoutDiscount(t *testing.T) {
	k := kick()
	assert.Equal(t, 3, k.EnergyCost(nil))
	assert.Equal(t, 4, k.MinimumLevel(nil))
	assert.Equal(t, balance.ActionLearnCost(4), k.ExperienceCost(nil))

	punch := &action.Action{Serial: 2, Name: "Punch", BaseEnergyCost: 0}
	assert.Equal(t, 0, punch.MinimumLevel(nil))
	assert.Equal(t, 0, punch.ExperienceCost(nil))
}

func TestCosts_WithDiscountRoundUp(t *testing.T) {
	k := kick()
	sp := action.NewSpecies("brawler", []action.DiscountRule{{Kind: effect.KindOffsetPoints, Points: points.Health, Direction: -1}}, []*action.Action{k})
	assert.True(t, sp.Discounts(k))
	assert.Equal(t, 2, k.EnergyCost(sp))
	assert.Equal(t, 2, k.MinimumLevel(sp))
	want := (balance.ActionLearnCost(4) + 1) / 2
	assert.Equal(t, want, k.ExperienceCost(sp))
}

func TestSpecies_RuleFilters(t *testing.T) {
	k := kick()
	cases := map[string]struct {
		rule action.DiscountRule
		want bool
	}{
		"any":             {action.DiscountRule{}, true},
		"kind match":      {action.DiscountRule{Kind: effect.KindOffsetPoints}, true},
		"kind mismatch":   {action.DiscountRule{Kind: effect.KindBurstPoints}, false},
		"points mismatch": {action.DiscountRule{Points: points.Energy}, false},
		"wrong direction": {action.DiscountRule{Direction: 1}, false},
		"right direction": {action.DiscountRule{Points: points.Health, Direction: -1}, true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sp := action.NewSpecies("s", []action.DiscountRule{tc.rule}, []*action.Action{k})
			assert.Equal(t, tc.want, sp.Discounts(k))
		})
	}
}

func TestSpecies_ScansNestedEffects(t *testing.T) {
	bite := &action.Action{
		Serial: 4, Name: "Bite", Kind: action.KindLearnable, BaseEnergyCost: 4, BaseMinimumLevel: 3,
		Effect: effect.Composite{Effects: []effect.Effect{
			effect.Linger{TurnCount: 3, Effect: effect.OffsetPoints{Points: points.Health, ApplyToOpponent: true, Offset: points.Absolute(-1)}},
		}},
	}
	sp := action.NewSpecies("serpent", []action.DiscountRule{{Kind: effect.KindLinger, Direction: -1}}, []*action.Action{bite})
	assert.True(t, sp.Discounts(bite))
	assert.False(t, sp.Discounts(kick()))
}

func TestRecord_JSON(t *testing.T) {
	data, err := json.Marshal(kick().Record())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"kind": "learnableAction",
		"serialInteger": 3,
		"name": "Kick",
		"baseEnergyCost": 3,
		"baseMinimumLevel": 4,
		"effect": {
			"name": "offsetPoints",
			"pointsName": "health",
			"applyToOpponent": true,
			"offset": {"name": "absolutePointsOffset", "value": -2}
		}
	}`, string(data))

	data, err = json.Marshal((&action.Action{Serial: 1, Name: "Do Nothing"}).Record())
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"freeAction","serialInteger":1,"name":"Do Nothing","baseEnergyCost":0,"effect":null}`, string(data))
}

func TestFromRecord_RoundTrip(t *testing.T) {
	a, err := action.FromRecord(kick().Record())
	require.NoError(t, err)
	assert.Equal(t, kick().Serial, a.Serial)
	assert.Equal(t, action.KindLearnable, a.Kind)
	assert.Equal(t, 4, a.BaseMinimumLevel)
	assert.True(t, effect.Equal(kick().Effect, a.Effect))
}

func TestFromRecord_Errors(t *testing.T) {
	one := 1
	zero := 0
	cases := map[string]action.Record{
		"unknown kind":         {Kind: "passive", SerialInteger: 1, Name: "x"},
		"free with level":      {Kind: "freeAction", SerialInteger: 1, Name: "x", BaseMinimumLevel: &one},
		"learnable no level":   {Kind: "learnableAction", SerialInteger: 1, Name: "x"},
		"learnable zero level": {Kind: "learnableAction", SerialInteger: 1, Name: "x", BaseMinimumLevel: &zero},
		"zero serial":          {Kind: "freeAction", Name: "x"},
		"empty name":           {Kind: "freeAction", SerialInteger: 1},
		"negative energy":      {Kind: "freeAction", SerialInteger: 1, Name: "x", BaseEnergyCost: -1},
		"bad effect":           {Kind: "freeAction", SerialInteger: 1, Name: "x", Effect: &effect.Record{Name: "nope"}},
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := action.FromRecord(rec)
			assert.Error(t, err)
		})
	}
}

func TestNewCatalog_DuplicateSerial(t *testing.T) {
	_, err := action.NewCatalog([]*action.Action{kick(), kick()}, nil)
	assert.ErrorIs(t, err, action.ErrDuplicateSerial)
}

func TestNewCatalog_DuplicateSpecies(t *testing.T) {
	_, err := action.NewCatalog(nil, []action.SpeciesDefinition{{Name: "a"}, {Name: "a"}})
	assert.Error(t, err)
	_, err = action.NewCatalog(nil, []action.SpeciesDefinition{{}})
	assert.Error(t, err)
}

func TestCatalog_Lookups(t *testing.T) {
	punch := &action.Action{Serial: 2, Name: "Punch"}
	nothing := &action.Action{Serial: 1, Name: "Do Nothing"}
	c, err := action.NewCatalog([]*action.Action{kick(), punch, nothing}, []action.SpeciesDefinition{{Name: "human"}})
	require.NoError(t, err)

	got, ok := c.Get(2)
	require.True(t, ok)
	assert.Same(t, punch, got)
	_, ok = c.Get(99)
	assert.False(t, ok)

	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{all[0].Serial, all[1].Serial, all[2].Serial})
	assert.Len(t, c.Free(), 2)

	sp, err := c.Species("human")
	require.NoError(t, err)
	assert.Equal(t, "human", sp.Name)
	_, err = c.Species("dragon")
	assert.ErrorIs(t, err, action.ErrUnknownSpecies)
	assert.Equal(t, []string{"human"}, c.SpeciesNames())
}

func TestDefault_LoadsEmbeddedContent(t *testing.T) {
	c, err := action.Default()
	require.NoError(t, err)

	nothing, ok := c.Get(action.DoNothingSerial)
	require.True(t, ok)
	assert.Nil(t, nothing.Effect)
	assert.Equal(t, 0, nothing.BaseEnergyCost)
	assert.False(t, nothing.Learnable())

	punch, ok := c.Get(action.PunchSerial)
	require.True(t, ok)
	assert.True(t, effect.Equal(effect.OffsetPoints{Points: points.Health, ApplyToOpponent: true, Offset: points.Power(-3.5)}, punch.Effect))

	for _, name := range []string{"human", "serpent", "golem", "imp"} {
		_, err := c.Species(name)
		assert.NoError(t, err, name)
	}
	serpent, _ := c.Species("serpent")
	bite, ok := c.Get(4)
	require.True(t, ok)
	assert.True(t, serpent.Discounts(bite))
	for _, a := range c.Free() {
		assert.False(t, serpent.Discounts(a))
	}
}

func TestLoadFS_RejectsUnknownFields(t *testing.T) {
	fsys := fstest.MapFS{
		"actions/a.yaml": {Data: []byte("- kind: freeAction\n  serialInteger: 1\n  name: x\n  colour: red\n")},
		"species/s.yaml": {Data: []byte("- name: human\n")},
	}
	_, err := action.LoadFS(fsys)
	assert.Error(t, err)
}

func TestLoadFS_DuplicateAcrossFiles(t *testing.T) {
	rec := []byte("- kind: freeAction\n  serialInteger: 1\n  name: x\n  baseEnergyCost: 0\n")
	fsys := fstest.MapFS{
		"actions/a.yaml": {Data: rec},
		"actions/b.yaml": {Data: rec},
		"species/s.yaml": {Data: []byte("- name: human\n")},
	}
	_, err := action.LoadFS(fsys)
	assert.ErrorIs(t, err, action.ErrDuplicateSerial)
}

func TestLoadFS_UnknownDiscountEffect(t *testing.T) {
	fsys := fstest.MapFS{
		"actions/a.yaml": {Data: []byte("- kind: freeAction\n  serialInteger: 1\n  name: x\n  baseEnergyCost: 0\n")},
		"species/s.yaml": {Data: []byte("- name: human\n  discounts:\n    - effect: fireball\n")},
	}
	_, err := action.LoadFS(fsys)
	assert.ErrorIs(t, err, effect.ErrUnknownEffect)
}

func TestLoadFS_MissingDirectory(t *testing.T) {
	_, err := action.LoadFS(fstest.MapFS{"species/s.yaml": {Data: []byte("- name: human\n")}})
	assert.Error(t, err)
}

func TestDiscount_NeverExceedsBase(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cost := rapid.IntRange(0, 50).Draw(t, "cost")
		lvl := rapid.IntRange(1, 40).Draw(t, "level")
		a := &action.Action{
			Serial: 5, Name: "a", Kind: action.KindLearnable, BaseEnergyCost: cost, BaseMinimumLevel: lvl,
			Effect: effect.SwapPoints{Points: points.Gold},
		}
		sp := action.NewSpecies("s", []action.DiscountRule{{}}, []*action.Action{a})
		assert.LessOrEqual(t, a.EnergyCost(sp), a.EnergyCost(nil))
		assert.LessOrEqual(t, a.MinimumLevel(sp), a.MinimumLevel(nil))
		assert.GreaterOrEqual(t, a.MinimumLevel(sp), 1)
		assert.LessOrEqual(t, a.ExperienceCost(sp), a.ExperienceCost(nil))
	})
}
