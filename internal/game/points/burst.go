package points

// Burst is a temporary offset layered over a resource's stored value.
type Burst struct {
	Offset int
	// TurnCount is the number of visible turns remaining.
	TurnCount int
	// ExtraTurnCount is consumed before TurnCount starts to decrement, so a
	// burst placed on an opponent survives that opponent's next turn start.
	ExtraTurnCount int
}

// Finished reports whether the burst has no turns left.
func (b Burst) Finished() bool {
	return b.TurnCount+b.ExtraTurnCount <= 0
}

// Direction returns the sign of the offset.
func (b Burst) Direction() int {
	return sign(b.Offset)
}

func (b Burst) advance() Burst {
	if b.ExtraTurnCount > 0 {
		b.ExtraTurnCount--
	} else {
		b.TurnCount--
	}
	return b
}
