package agent

import (
	"time"

	"github.com/pfrederiksen/telegrambis/internal/history"
)

// errorGrace is how far before the last event an error still counts as recent.
const errorGrace = 2 * time.Minute

// Healthy is the health predicate: an event within periodDays of now, and no
// error logged after (last event - errorGrace). An agent that never emitted is
// not healthy.
func Healthy(state history.State, periodDays int, now time.Time) bool {
	if state.LastEventAt.IsZero() || periodDays <= 0 {
		return false
	}
	window := time.Duration(periodDays) * 24 * time.Hour
	if !state.LastEventAt.After(now.Add(-window)) {
		return false
	}
	return !recentError(state)
}

func recentError(state history.State) bool {
	if state.LastErrorAt.IsZero() {
		return false
	}
	return state.LastErrorAt.After(state.LastEventAt.Add(-errorGrace))
}
