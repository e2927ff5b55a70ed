package battle_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/action"
	"github.com/cory-johannsen/arena/internal/game/balance"
	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/clock"
	"github.com/cory-johannsen/arena/internal/game/effect"
	"github.com/cory-johannsen/arena/internal/game/points"
	"github.com/cory-johannsen/arena/internal/game/pvp"
)

type stubSource struct {
	n int
	f float64
}

func (s stubSource) Intn(n int) int   { return min(s.n, n-1) }
func (s stubSource) Float64() float64 { return s.f }

type fighter struct {
	name    string
	player  bool
	pts     map[points.Name]*points.Points
	current *battle.Battle
	defeats int
	entered int
	exited  int
}

func newFighter(name string, player bool) *fighter {
	f := &fighter{name: name, player: player, pts: map[points.Name]*points.Points{}}
	f.add(points.Health, 20, points.WithMinimum(0), points.WithMaximum(20))
	f.add(points.Energy, 0, points.WithMinimum(0), points.WithMaximum(balance.MaximumEnergy))
	f.add(points.Damage, 0, points.WithMinimum(0), points.WithMaximum(balance.MaximumDamage))
	f.add(points.Experience, 0, points.WithMinimum(0))
	f.add(points.Gold, 50, points.WithMinimum(0))
	return f
}

func (f *fighter) add(name points.Name, v int, opts ...points.Option) {
	p := points.New(points.NewMemoryStorage(v), opts...)
	p.SetName(name)
	f.pts[name] = p
}

func (f *fighter) Points(name points.Name) *points.Points { return f.pts[name] }
func (f *fighter) Level() int                             { return 1 }
func (f *fighter) Username() string                       { return f.name }
func (f *fighter) IsPlayer() bool                         { return f.player }
func (f *fighter) Defeated(*battle.Battle)                { f.defeats++ }

func (f *fighter) EnterBattle(b *battle.Battle) {
	f.current = b
	f.entered++
}

func (f *fighter) ExitBattle(*battle.Battle) {
	f.current = nil
	f.exited++
}

func (f *fighter) value(name points.Name) int { return f.pts[name].Value() }

type denyAll struct{}

func (denyAll) RegisterVictory(_, _ pvp.Participant) bool { return false }

var (
	epoch     = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	doNothing = &action.Action{Serial: 1, Name: "Do Nothing"}
)

func config(clk clock.Clock) battle.Config {
	return battle.Config{Clock: clk, Rand: stubSource{n: 7}}
}

func start(t *testing.T, a, b *fighter) (*battle.Battle, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(epoch)
	return battle.New(uuid.New(), a, b, config(clk)), clk
}

func pass(bt *battle.Battle, c *fighter) {
	bt.PerformAction(c, doNothing, nil)
}

func TestNew_ResetsCombatants(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", true)
	a.pts[points.Damage].AddBurst(points.Burst{Offset: 3, TurnCount: 5})
	a.pts[points.Energy].SetValue(1)
	b.pts[points.Energy].SetValue(9)

	bt, _ := start(t, a, b)

	for _, f := range []*fighter{a, b} {
		assert.Equal(t, 7, f.value(points.Energy))
		assert.Equal(t, balance.StartDamage, f.value(points.Damage))
		assert.Empty(t, f.pts[points.Damage].Bursts())
		assert.Same(t, bt, f.current)
		assert.Equal(t, 1, f.entered)
	}
	assert.False(t, bt.IsFinished())
	acting, ok := bt.Acting()
	require.True(t, ok)
	assert.Equal(t, a, acting)
}

func TestNew_ImmediateDefeat(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", false)
	b.pts[points.Health].SetValue(0)
	bt, _ := start(t, a, b)
	assert.True(t, bt.IsFinished())
	assert.Equal(t, 1, b.defeats)
	assert.Greater(t, a.value(points.Gold), 50)
}

func TestPerformAction_DoNothingPassesTurn(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", true)
	bt, _ := start(t, a, b)

	assert.True(t, bt.PerformAction(a, doNothing, nil))
	assert.Equal(t, 7, a.value(points.Energy))
	assert.Equal(t, 1, bt.TurnIndex())
	assert.True(t, bt.IsTurnOf(b))
	assert.Equal(t, 8, b.value(points.Energy), "new acting combatant gains one energy")
}

func TestPerformAction_NotYourTurn(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", true)
	bt, _ := start(t, a, b)
	assert.False(t, bt.PerformAction(b, doNothing, nil))
	assert.Equal(t, 0, bt.TurnIndex())
}

func TestPunchDefeatsOpponent(t *testing.T) {
	catalog, err := action.Default()
	require.NoError(t, err)
	nothing, ok := catalog.Get(action.DoNothingSerial)
	require.True(t, ok)
	punch, ok := catalog.Get(action.PunchSerial)
	require.True(t, ok)

	a, b := newFighter("a", true), newFighter("b", true)
	monitor := pvp.NewMonitor(pvp.DefaultConfig, clock.NewManual(epoch), nil)
	cfg := battle.Config{Clock: clock.NewManual(epoch), Rand: stubSource{n: 4}, Throttle: monitor}
	bt := battle.New(uuid.New(), a, b, cfg)

	require.True(t, bt.PerformAction(a, nothing, nil))
	assert.Equal(t, 4, a.value(points.Energy))
	assert.True(t, bt.IsTurnOf(b))
	require.True(t, bt.PerformAction(b, nothing, nil))

	b.pts[points.Health].SetValue(1)
	require.True(t, bt.PerformAction(a, punch, nil))

	assert.LessOrEqual(t, b.value(points.Health), 0)
	assert.True(t, bt.IsFinished())
	assert.Equal(t, 1, b.defeats)
	gold := balance.GoldReward(1, 1, stubSource{})
	assert.Equal(t, 50+gold, a.value(points.Gold))
	assert.Equal(t, 50-gold, b.value(points.Gold))
	assert.Equal(t, balance.ExperienceReward(1, 1, stubSource{}), a.value(points.Experience))
	assert.Equal(t, 1, monitor.Tracked("a", "b"))
	assert.Contains(t, bt.Message(), "a defeated b")

	assert.False(t, bt.PerformAction(b, nothing, nil), "finished battles accept no actions")
}

func TestReward_GoldLimitedToWhatLoserHas(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", true)
	b.pts[points.Gold].SetValue(3)
	b.pts[points.Health].SetValue(0)
	start(t, a, b)
	assert.Equal(t, 53, a.value(points.Gold))
	assert.Equal(t, 0, b.value(points.Gold))
}

func TestReward_ThrottledExperience(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", true)
	b.pts[points.Health].SetValue(0)
	cfg := config(clock.NewManual(epoch))
	cfg.Throttle = denyAll{}
	battle.New(uuid.New(), a, b, cfg)
	assert.Equal(t, 0, a.value(points.Experience))
	assert.Greater(t, a.value(points.Gold), 50)
}

func TestLinger_ThreeTurnPoison(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", true)
	bt, _ := start(t, a, b)
	poison := &action.Action{Serial: 20, Name: "Poison", Effect: effect.Linger{
		TurnCount: 3,
		Effect:    effect.OffsetPoints{Points: points.Health, ApplyToOpponent: true, Offset: points.Absolute(-1)},
	}}

	require.True(t, bt.PerformAction(a, poison, nil))
	require.Len(t, bt.LingerStates(), 1)
	assert.Equal(t, 20, b.value(points.Health), "activation does not apply the inner effect")

	want := []int{19, 18, 17}
	for i, hp := range want {
		pass(bt, b)
		assert.Equal(t, hp, b.value(points.Health), "A turn %d", i+1)
		pass(bt, a)
	}
	assert.Empty(t, bt.LingerStates())
	pass(bt, b)
	assert.Equal(t, 17, b.value(points.Health))
	assert.Equal(t, 20, a.value(points.Health))
}

func TestAddLingerState_RefreshNeverShortens(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", true)
	bt, _ := start(t, a, b)
	inner := effect.OffsetPoints{Points: points.Health, ApplyToOpponent: true, Offset: points.Absolute(-1)}
	ctx := effect.NewContext(a, bt)

	bt.AddLingerState(&effect.LingerState{Effect: inner, Context: ctx, TurnCount: 3})
	bt.AddLingerState(&effect.LingerState{Effect: inner, Context: ctx, TurnCount: 1})
	require.Len(t, bt.LingerStates(), 1)
	assert.Equal(t, 3, bt.LingerStates()[0].TurnCount)

	bt.AddLingerState(&effect.LingerState{Effect: inner, Context: ctx, TurnCount: 5})
	require.Len(t, bt.LingerStates(), 1)
	assert.Equal(t, 5, bt.LingerStates()[0].TurnCount)

	bt.AddLingerState(&effect.LingerState{Effect: inner, Context: effect.NewContext(b, bt), TurnCount: 2})
	assert.Len(t, bt.LingerStates(), 2)
}

func TestClearLingerStates_Filters(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", true)
	bt, _ := start(t, a, b)
	ctx := effect.NewContext(a, bt)
	poison := effect.OffsetPoints{Points: points.Health, ApplyToOpponent: true, Offset: points.Absolute(-1)}
	regen := effect.OffsetPoints{Points: points.Health, Offset: points.Absolute(1)}
	drain := effect.OffsetPoints{Points: points.Energy, ApplyToOpponent: true, Offset: points.Absolute(-1)}
	for _, e := range []effect.Effect{poison, regen, drain} {
		bt.AddLingerState(&effect.LingerState{Effect: e, Context: ctx, TurnCount: 3})
	}

	bt.ClearLingerStates(points.Health, b, -1)
	require.Len(t, bt.LingerStates(), 2)

	bt.ClearLingerStates("", a, 0)
	require.Len(t, bt.LingerStates(), 1)
	assert.True(t, effect.Equal(drain, bt.LingerStates()[0].Effect))
}

func TestCleanseAction_ClearsOwnDebuffs(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", true)
	bt, _ := start(t, a, b)
	poison := &action.Action{Serial: 20, Name: "Poison", Effect: effect.Linger{
		TurnCount: 3,
		Effect:    effect.OffsetPoints{Points: points.Health, ApplyToOpponent: true, Offset: points.Absolute(-1)},
	}}
	cleanse := &action.Action{Serial: 21, Name: "Cleanse", Effect: effect.ClearStatus{Direction: -1}}

	bt.PerformAction(a, poison, nil)
	bt.PerformAction(b, cleanse, nil)
	assert.Empty(t, bt.LingerStates())
	pass(bt, a)
	assert.Equal(t, 20, b.value(points.Health))
}

func TestBurstOnOpponent_SurvivesTheirNextTurn(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", true)
	bt, _ := start(t, a, b)
	intimidate := &action.Action{Serial: 22, Name: "Intimidate", Effect: effect.BurstPoints{
		Points: points.Damage, ApplyToOpponent: true, Offset: points.Absolute(-2), TurnCount: 2,
	}}

	bt.PerformAction(a, intimidate, nil)
	assert.Equal(t, 3, b.pts[points.Damage].EffectiveValue(), "B's first turn")
	pass(bt, b)
	pass(bt, a)
	assert.Equal(t, 3, b.pts[points.Damage].EffectiveValue(), "B's second turn")
	pass(bt, b)
	pass(bt, a)
	assert.Equal(t, 5, b.pts[points.Damage].EffectiveValue(), "expired")
}

func TestTurnTimeout_PlayersOnly(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", true)
	bt, clk := start(t, a, b)

	remaining, ok := bt.TurnTimeout()
	require.True(t, ok)
	assert.Equal(t, battle.DefaultTurnTimeout, remaining)

	clk.Advance(10 * time.Second)
	bt.TimerEvent()
	assert.Equal(t, 0, bt.TurnIndex())

	clk.Advance(5 * time.Second)
	bt.TimerEvent()
	assert.Equal(t, 1, bt.TurnIndex())
	remaining, _ = bt.TurnTimeout()
	assert.Equal(t, battle.DefaultTurnTimeout, remaining, "clock resets on the new turn")

	bot := newFighter("bot", false)
	other := newFighter("c", true)
	bt2, clk2 := start(t, other, bot)
	_, ok = bt2.TurnTimeout()
	assert.False(t, ok)
	clk2.Advance(time.Hour)
	bt2.TimerEvent()
	assert.Equal(t, 0, bt2.TurnIndex())
}

func TestLeaveEarly_ForfeitsAndVacates(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", true)
	a.pts[points.Health].AddBurst(points.Burst{Offset: 5, TurnCount: 3})
	bt, _ := start(t, a, b)
	a.pts[points.Health].AddBurst(points.Burst{Offset: 5, TurnCount: 3})

	bt.LeaveEarly(a)

	assert.True(t, bt.IsFinished())
	assert.Equal(t, 1, a.defeats)
	assert.Equal(t, 1, a.exited)
	assert.Nil(t, a.current)
	assert.Greater(t, b.value(points.Gold), 50)
	slots := bt.Slots()
	assert.Equal(t, battle.SlotVacated, slots[0].State)
	_, ok := slots[0].Occupant()
	assert.False(t, ok)
	_, ok = bt.Opponent(b)
	assert.False(t, ok)
}

func TestLeaveEarly_AfterFinishOnlyVacates(t *testing.T) {
	a, b := newFighter("a", true), newFighter("b", true)
	b.pts[points.Health].SetValue(0)
	bt, _ := start(t, a, b)
	gold := a.value(points.Gold)

	bt.LeaveEarly(a)
	assert.Equal(t, gold, a.value(points.Gold))
	assert.Equal(t, 0, a.defeats)
	assert.Equal(t, battle.SlotVacated, bt.Slots()[0].State)
}

func TestBattle_LogsFinish(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	a, b := newFighter("a", true), newFighter("b", true)
	b.pts[points.Health].SetValue(0)
	cfg := config(clock.NewManual(epoch))
	cfg.Logger = zap.New(core)
	battle.New(uuid.New(), a, b, cfg)
	assert.Equal(t, 1, logs.FilterMessage("battle started").Len())
	assert.Equal(t, 1, logs.FilterMessage("battle finished").Len())
	assert.Equal(t, 1, logs.FilterMessage("victory rewarded").Len())
}

func TestBattle_ResourcesStayInBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a, b := newFighter("a", true), newFighter("b", false)
		clk := clock.NewManual(epoch)
		bt := battle.New(uuid.New(), a, b, battle.Config{Clock: clk, Rand: stubSource{n: rapid.IntRange(0, 10).Draw(t, "energy"), f: 0.5}})
		moves := []*action.Action{
			doNothing,
			{Serial: 2, Name: "Hit", Effect: effect.OffsetPoints{Points: points.Health, ApplyToOpponent: true, Offset: points.Absolute(-3)}},
			{Serial: 3, Name: "Drain", Effect: effect.TransferPoints{Points: points.Energy, OpponentIsSource: true, Efficiency: 1, Offset: points.Absolute(-4)}},
			{Serial: 4, Name: "Rage", Effect: effect.BurstPoints{Points: points.Damage, Offset: points.Absolute(4), TurnCount: 2}},
		}
		for range rapid.IntRange(0, 30).Draw(t, "turns") {
			if bt.IsFinished() {
				break
			}
			actor, _ := bt.Acting()
			move := moves[rapid.IntRange(0, len(moves)-1).Draw(t, "move")]
			bt.PerformAction(actor, move, nil)
		}
		for _, f := range []*fighter{a, b} {
			for _, name := range []points.Name{points.Health, points.Energy, points.Damage} {
				p := f.pts[name]
				lo, _ := p.Minimum()
				hi, _ := p.Maximum()
				assert.GreaterOrEqual(t, p.EffectiveValue(), lo)
				assert.LessOrEqual(t, p.EffectiveValue(), hi)
			}
		}
	})
}
