// Package command provides the text command registry, parser and the
// built-in commands that drive an entity.
package command

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/arena/internal/game/entity"
	"github.com/cory-johannsen/arena/internal/game/points"
)

// Categories for organizing commands.
const (
	CategoryBattle   = "battle"
	CategoryTraining = "training"
	CategorySystem   = "system"
)

// Status classifies the outcome of a command.
type Status string

const (
	// StatusOK means the command changed state or produced output.
	StatusOK Status = "ok"
	// StatusRejected means the command was well formed but its precondition
	// did not hold.
	StatusRejected Status = "rejected"
	// StatusIgnored means the input was unknown or malformed.
	StatusIgnored Status = "ignored"
)

// Result is the outcome of running a command.
type Result struct {
	Status  Status
	Message string
}

func ok(format string, args ...any) Result {
	return Result{Status: StatusOK, Message: fmt.Sprintf(format, args...)}
}

func rejected(format string, args ...any) Result {
	return Result{Status: StatusRejected, Message: fmt.Sprintf(format, args...)}
}

// Ignored is returned for unknown commands and invalid arguments.
var Ignored = Result{Status: StatusIgnored}

// HandlerFunc runs a command for e.
type HandlerFunc func(e *entity.Entity, l Line) Result

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage is the argument synopsis shown by help.
	Usage    string
	Help     string
	Category string
	Handler  HandlerFunc
}

// BuiltinCommands returns all built-in commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "perform", Aliases: []string{"p", "do"}, Usage: "<serial>", Help: "Perform an action in battle", Category: CategoryBattle, Handler: perform},
		{Name: "learn", Usage: "<serial>", Help: "Spend experience to learn an action", Category: CategoryTraining, Handler: learn},
		{Name: "forget", Usage: "<serial>", Help: "Forget a learned action", Category: CategoryTraining, Handler: forget},
		{Name: "bind", Usage: "<serial|none> <key>", Help: "Bind an action to a key slot", Category: CategoryTraining, Handler: bind},
		{Name: "levelup", Aliases: []string{"lvl"}, Help: "Spend experience to gain a level", Category: CategoryTraining, Handler: levelUp},
		{Name: "status", Aliases: []string{"st"}, Help: "Show your resources", Category: CategorySystem, Handler: status},
	}
}

func perform(e *entity.Entity, l Line) Result {
	serial, valid := l.Int(0)
	if !valid {
		return Ignored
	}
	if !e.PerformAction(serial) {
		return rejected("cannot perform action %d", serial)
	}
	if b := e.Battle(); b != nil && b.IsFinished() {
		return ok("%s", b.Message())
	}
	return ok("performed action %d", serial)
}

func learn(e *entity.Entity, l Line) Result {
	serial, valid := l.Int(0)
	if !valid {
		return Ignored
	}
	if !e.LearnAction(serial) {
		return rejected("cannot learn action %d", serial)
	}
	return ok("learned action %d", serial)
}

func forget(e *entity.Entity, l Line) Result {
	serial, valid := l.Int(0)
	if !valid {
		return Ignored
	}
	if !e.ForgetAction(serial) {
		return rejected("cannot forget action %d", serial)
	}
	return ok("forgot action %d", serial)
}

func bind(e *entity.Entity, l Line) Result {
	if len(l.Args) != 2 {
		return Ignored
	}
	key, valid := l.Int(1)
	if !valid {
		return Ignored
	}
	var serial *int
	if !strings.EqualFold(l.Args[0], "none") {
		n, valid := l.Int(0)
		if !valid {
			return Ignored
		}
		serial = &n
	}
	if !e.BindAction(serial, key) {
		return rejected("cannot bind key %d", key)
	}
	if serial == nil {
		return ok("cleared key %d", key)
	}
	return ok("bound action %d to key %d", *serial, key)
}

func levelUp(e *entity.Entity, _ Line) Result {
	if !e.LevelUp() {
		return rejected("not enough experience")
	}
	return ok("reached level %d", e.Level())
}

func status(e *entity.Entity, _ Line) Result {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s) level %d", e.Username(), e.Species().Name, e.Level())
	for _, name := range points.AllNames {
		p := e.Points(name)
		if hi, bounded := p.Maximum(); bounded {
			fmt.Fprintf(&b, " %s %d/%d", name, p.EffectiveValue(), hi)
		} else {
			fmt.Fprintf(&b, " %s %d", name, p.EffectiveValue())
		}
	}
	if e.InBattle() {
		b.WriteString(" [in battle]")
	}
	return ok("%s", b.String())
}
