package command_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/command"
	"github.com/cory-johannsen/arena/internal/game/entity"
)

func noop(*entity.Entity, command.Line) command.Result { return command.Ignored }

func TestDefaultRegistry_Contract(t *testing.T) {
	r := command.DefaultRegistry()
	for _, name := range []string{"perform", "learn", "forget", "bind", "levelup", "status"} {
		cmd, ok := r.Resolve(name)
		require.True(t, ok, name)
		assert.Equal(t, name, cmd.Name)
	}
}

func TestResolve_Alias(t *testing.T) {
	r := command.DefaultRegistry()
	cmd, ok := r.Resolve("p")
	require.True(t, ok)
	assert.Equal(t, "perform", cmd.Name)

	_, ok = r.Resolve("dance")
	assert.False(t, ok)
}

func TestCommands_Sorted(t *testing.T) {
	cmds := command.DefaultRegistry().Commands()
	require.NotEmpty(t, cmds)
	for i := 1; i < len(cmds); i++ {
		assert.Less(t, cmds[i-1].Name, cmds[i].Name)
	}
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	_, err := command.NewRegistry([]command.Command{
		{Name: "test", Handler: noop},
		{Name: "test", Handler: noop},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate command name")
}

func TestNewRegistry_DuplicateAlias(t *testing.T) {
	_, err := command.NewRegistry([]command.Command{
		{Name: "test1", Aliases: []string{"t"}, Handler: noop},
		{Name: "test2", Aliases: []string{"t"}, Handler: noop},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate alias")
}

func TestNewRegistry_MissingHandler(t *testing.T) {
	_, err := command.NewRegistry([]command.Command{{Name: "test"}})
	assert.Error(t, err)
}

func TestHelp_ListsUsage(t *testing.T) {
	help := command.DefaultRegistry().Help()
	assert.Contains(t, help, "bind <serial|none> <key>")
	assert.Contains(t, help, "levelup - ")
}

func TestPropertyAllAliasesResolveToCanonical(t *testing.T) {
	r := command.DefaultRegistry()
	cmds := r.Commands()
	rapid.Check(t, func(t *rapid.T) {
		cmd := cmds[rapid.IntRange(0, len(cmds)-1).Draw(t, "cmd_idx")]
		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			resolved, ok := r.Resolve(name)
			if !ok || resolved.Name != cmd.Name {
				t.Fatalf("%q did not resolve to %q", name, cmd.Name)
			}
		}
	})
}
