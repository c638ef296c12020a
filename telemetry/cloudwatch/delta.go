package cloudwatch

// counting is the common face of the cumulative instruments: Counter,
// Meter, Histogram and Timer.
type counting interface {
	Count() int64
}

// deltaTracker remembers the last polled count of every live instrument
// so only the increment since the previous cycle is submitted, without
// ever resetting the instruments themselves. Keys are the instrument
// interface values: identity, not snapshot equality, so two instruments
// with equal counts never collide.
type deltaTracker struct {
	lastPolledCounts map[interface{}]int64
}

func newDeltaTracker() *deltaTracker {
	return &deltaTracker{
		lastPolledCounts: make(map[interface{}]int64),
	}
}

// diff returns the current count minus the count seen on the previous
// cycle, zero-based on first observation. The tracker updates even when
// the caller discards the result. A count that went backwards yields a
// negative delta verbatim.
func (t *deltaTracker) diff(m counting) int64 {
	count := m.Count()
	last := t.lastPolledCounts[m]
	t.lastPolledCounts[m] = count
	return count - last
}
