package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type staticCalendar struct {
	holidays map[string]bool
	err      error
}

func (c *staticCalendar) IsHoliday(_ context.Context, date time.Time) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	return c.holidays[date.Format("2006-01-02")], nil
}

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCalendarPolicy_Resolve(t *testing.T) {
	calendar := &staticCalendar{holidays: map[string]bool{
		"2026-01-01": true,
		"2026-01-02": true,
	}}

	tests := []struct {
		name string
		date time.Time
		skip bool
		move bool
		want Resolution
	}{
		{
			name: "business day passes through",
			date: day("2026-01-05"),
			skip: true,
			move: true,
			want: Resolution{Date: day("2026-01-05")},
		},
		{
			name: "holiday without flags passes through",
			date: day("2026-01-01"),
			want: Resolution{Date: day("2026-01-01")},
		},
		{
			name: "skip holiday",
			date: day("2026-01-01"),
			skip: true,
			want: Resolution{Skipped: true, SkipReason: SkipReasonHoliday},
		},
		{
			name: "move to next business day",
			date: day("2026-01-01"),
			move: true,
			want: Resolution{Date: day("2026-01-03")},
		},
		{
			name: "move takes precedence over skip",
			date: day("2026-01-01"),
			skip: true,
			move: true,
			want: Resolution{Date: day("2026-01-03")},
		},
	}

	policy := NewCalendarPolicy(calendar, 0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.Resolve(context.Background(), tt.date, tt.skip, tt.move)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalendarPolicy_Resolve_AdvanceCapExceeded(t *testing.T) {
	// Every day in January is a holiday, so a 5-day cap never finds a
	// business day.
	holidays := map[string]bool{}
	for d := 1; d <= 31; d++ {
		holidays[time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02")] = true
	}
	policy := NewCalendarPolicy(&staticCalendar{holidays: holidays}, 5)

	_, err := policy.Resolve(context.Background(), day("2026-01-01"), false, true)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no business day found within 5 days")
}

func TestCalendarPolicy_Resolve_LookupError(t *testing.T) {
	lookupErr := errors.New("provider unreachable")
	policy := NewCalendarPolicy(&staticCalendar{err: lookupErr}, 0)

	_, err := policy.Resolve(context.Background(), day("2026-01-01"), true, false)
	assert.ErrorIs(t, err, lookupErr)
}

func TestNewCalendarPolicy_DefaultCap(t *testing.T) {
	policy := NewCalendarPolicy(&staticCalendar{}, -3)
	assert.Equal(t, DefaultAdvanceCap, policy.advanceCap)
}
