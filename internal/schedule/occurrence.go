package schedule

import (
	"time"

	"grouptasks/pkg/utils"
)

// Calculator decides whether a tick instant falls on a firing occurrence.
// It holds no per-task state; everything needed lives in the rules and "now",
// so any tick can be re-evaluated independently.
type Calculator struct {
	tolerance time.Duration
}

// NewCalculator sizes the time-of-day tolerance to the invocation tick
// interval, normally one minute.
func NewCalculator(tolerance time.Duration) *Calculator {
	if tolerance <= 0 {
		tolerance = time.Minute
	}
	return &Calculator{tolerance: tolerance}
}

// InWindow reports whether now falls inside the inclusive activity window.
// End dates compare against the end of that calendar day.
func InWindow(start time.Time, end *time.Time, now time.Time) bool {
	if now.Before(utils.StartOfDay(start)) {
		return false
	}
	if end != nil && now.After(utils.EndOfDay(*end)) {
		return false
	}
	return true
}

// Match returns the occurrence timestamp when now matches at least one rule.
// The first matching rule wins so a task fires at most once per tick even
// when several rules coincide.
func (c *Calculator) Match(rules []RecurrenceRule, now time.Time) (time.Time, bool) {
	for _, rule := range rules {
		hour, minute, err := rule.Clock()
		if err != nil {
			continue
		}

		at := utils.AtTimeOfDay(now, hour, minute)
		if !c.withinTolerance(now, at) {
			continue
		}

		if rule.MatchesDate(now) {
			return at, true
		}
	}
	return time.Time{}, false
}

// NextOccurrence walks forward from after and returns the earliest occurrence
// strictly later than it, or false when no rule fires within the horizon.
// Callers get a lazy sequence by feeding each result back in.
func (c *Calculator) NextOccurrence(rules []RecurrenceRule, after time.Time, horizon int) (time.Time, bool) {
	if horizon <= 0 {
		horizon = 366
	}

	var best time.Time
	for dayOffset := 0; dayOffset <= horizon; dayOffset++ {
		day := utils.DateOnly(after).AddDate(0, 0, dayOffset)
		for _, rule := range rules {
			if !rule.MatchesDate(day) {
				continue
			}
			hour, minute, err := rule.Clock()
			if err != nil {
				continue
			}
			at := utils.AtTimeOfDay(day, hour, minute)
			if !at.After(after) {
				continue
			}
			if best.IsZero() || at.Before(best) {
				best = at
			}
		}
		if !best.IsZero() {
			return best, true
		}
	}
	return time.Time{}, false
}

func (c *Calculator) withinTolerance(now, at time.Time) bool {
	d := now.Sub(at)
	if d < 0 {
		d = -d
	}
	return d < c.tolerance
}
