package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arena/internal/game/clock"
)

func TestManual_Advance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := clock.NewManual(start)
	assert.Equal(t, start, c.Now())
	c.Advance(15 * time.Second)
	assert.Equal(t, start.Add(15*time.Second), c.Now())
}

func TestManual_Set(t *testing.T) {
	c := clock.NewManual(time.Time{})
	target := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	c.Set(target)
	assert.Equal(t, target, c.Now())
}

func TestReal_NotZero(t *testing.T) {
	assert.False(t, clock.NewReal().Now().IsZero())
}

func TestManual_Advance_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		steps := rapid.SliceOf(rapid.Int64Range(0, int64(time.Hour))).Draw(rt, "steps")
		start := time.Unix(0, 0)
		c := clock.NewManual(start)
		var total time.Duration
		for _, s := range steps {
			c.Advance(time.Duration(s))
			total += time.Duration(s)
		}
		assert.Equal(rt, start.Add(total), c.Now())
	})
}
