package schedule

import (
	"testing"
	"time"

	"grouptasks/pkg/utils"

	"github.com/stretchr/testify/assert"
)

func TestInWindow(t *testing.T) {
	start := day("2026-03-01")
	end := day("2026-03-31")

	tests := []struct {
		name string
		end  *time.Time
		now  time.Time
		want bool
	}{
		{
			name: "before start",
			end:  &end,
			now:  time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "start day itself",
			end:  &end,
			now:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "inside window",
			end:  &end,
			now:  time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "end day is inclusive",
			end:  &end,
			now:  time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "after end",
			end:  &end,
			now:  time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "open ended",
			now:  time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InWindow(start, tt.end, tt.now))
		})
	}
}

func TestCalculator_Match(t *testing.T) {
	daily := []RecurrenceRule{{Type: RuleDaily, Time: "09:00"}}
	calc := NewCalculator(time.Minute)

	tests := []struct {
		name    string
		rules   []RecurrenceRule
		now     time.Time
		want    time.Time
		wantHit bool
	}{
		{
			name:    "exact minute fires",
			rules:   daily,
			now:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			want:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			wantHit: true,
		},
		{
			name:    "seconds within the minute fire",
			rules:   daily,
			now:     time.Date(2026, 3, 2, 9, 0, 42, 0, time.UTC),
			want:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			wantHit: true,
		},
		{
			name:  "next minute does not fire",
			rules: daily,
			now:   time.Date(2026, 3, 2, 9, 1, 0, 0, time.UTC),
		},
		{
			name:  "an hour off does not fire",
			rules: daily,
			now:   time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		},
		{
			name:  "weekly rule on the wrong weekday",
			rules: []RecurrenceRule{{Type: RuleWeekly, Time: "09:00", Days: []int{4}}},
			// 2026-03-02 is a Monday.
			now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			name:    "weekly rule on the right weekday",
			rules:   []RecurrenceRule{{Type: RuleWeekly, Time: "09:00", Days: []int{1}}},
			now:     time.Date(2026, 3, 2, 9, 0, 30, 0, time.UTC),
			want:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			wantHit: true,
		},
		{
			name:    "monthly rule on the configured date",
			rules:   []RecurrenceRule{{Type: RuleMonthly, Time: "21:30", Dates: []int{15}}},
			now:     time.Date(2026, 3, 15, 21, 30, 0, 0, time.UTC),
			want:    time.Date(2026, 3, 15, 21, 30, 0, 0, time.UTC),
			wantHit: true,
		},
		{
			name: "first matching rule wins when clocks coincide",
			rules: []RecurrenceRule{
				{Type: RuleDaily, Time: "09:00"},
				{Type: RuleWeekly, Time: "09:00", Days: []int{1}},
			},
			now:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			want:    time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			wantHit: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := calc.Match(tt.rules, tt.now)
			assert.Equal(t, tt.wantHit, hit)
			if tt.wantHit {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCalculator_Match_AtMostOncePerTick(t *testing.T) {
	// Two overlapping rules both cover a Monday 09:00 tick; only one
	// occurrence comes back, keyed to the shared clock time.
	calc := NewCalculator(time.Minute)
	rules := []RecurrenceRule{
		{Type: RuleWeekly, Time: "09:00", Days: []int{1}},
		{Type: RuleDaily, Time: "09:00"},
	}

	now := time.Date(2026, 3, 2, 9, 0, 10, 0, time.UTC)
	first, hit := calc.Match(rules, now)
	assert.True(t, hit)

	second, hit := calc.Match(rules, now)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, utils.TruncateToMinute(now), first)
}

func TestCalculator_NextOccurrence(t *testing.T) {
	calc := NewCalculator(time.Minute)

	t.Run("later the same day", func(t *testing.T) {
		rules := []RecurrenceRule{{Type: RuleDaily, Time: "18:00"}}
		after := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		next, ok := calc.NextOccurrence(rules, after, 0)
		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC), next)
	})

	t.Run("strictly after, rolls to tomorrow", func(t *testing.T) {
		rules := []RecurrenceRule{{Type: RuleDaily, Time: "09:00"}}
		after := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		next, ok := calc.NextOccurrence(rules, after, 0)
		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC), next)
	})

	t.Run("earliest across rules", func(t *testing.T) {
		rules := []RecurrenceRule{
			{Type: RuleDaily, Time: "18:00"},
			{Type: RuleDaily, Time: "12:00"},
		}
		after := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		next, ok := calc.NextOccurrence(rules, after, 0)
		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), next)
	})

	t.Run("weekly jumps to the next configured weekday", func(t *testing.T) {
		// From Monday evening, days {1,4} means Thursday is next.
		rules := []RecurrenceRule{{Type: RuleWeekly, Time: "09:00", Days: []int{1, 4}}}
		after := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
		next, ok := calc.NextOccurrence(rules, after, 0)
		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC), next)
	})

	t.Run("monthly 31st skips short months", func(t *testing.T) {
		rules := []RecurrenceRule{{Type: RuleMonthly, Time: "09:00", Dates: []int{31}}}
		after := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		next, ok := calc.NextOccurrence(rules, after, 0)
		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC), next)
	})

	t.Run("nothing within horizon", func(t *testing.T) {
		rules := []RecurrenceRule{{Type: RuleMonthly, Time: "09:00", Dates: []int{31}}}
		after := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		_, ok := calc.NextOccurrence(rules, after, 10)
		assert.False(t, ok)
	})
}
