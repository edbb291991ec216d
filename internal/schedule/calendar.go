package schedule

import (
	"context"
	"fmt"
	"time"
)

// HolidayCalendar classifies calendar dates. Implementations may call out to
// an external provider, so lookups take a context and can fail.
type HolidayCalendar interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

// Resolution is the outcome of applying holiday policy to a candidate date.
// Either Skipped is true with a reason, or Date holds the effective date.
type Resolution struct {
	Date       time.Time
	Skipped    bool
	SkipReason string
}

const SkipReasonHoliday = "holiday"

// DefaultAdvanceCap bounds the next-business-day search so a misconfigured
// calendar cannot loop forever.
const DefaultAdvanceCap = 14

// CalendarPolicy resolves candidate occurrence dates against a holiday calendar.
type CalendarPolicy struct {
	calendar   HolidayCalendar
	advanceCap int
}

func NewCalendarPolicy(calendar HolidayCalendar, advanceCap int) *CalendarPolicy {
	if advanceCap <= 0 {
		advanceCap = DefaultAdvanceCap
	}
	return &CalendarPolicy{calendar: calendar, advanceCap: advanceCap}
}

// Resolve maps a candidate date to an effective date or a skip.
// When both flags are set, move-to-next-business-day takes precedence.
func (p *CalendarPolicy) Resolve(ctx context.Context, date time.Time, skipHolidays, moveToNextBusinessDay bool) (Resolution, error) {
	holiday, err := p.calendar.IsHoliday(ctx, date)
	if err != nil {
		return Resolution{}, fmt.Errorf("holiday lookup for %s: %w", date.Format("2006-01-02"), err)
	}

	if !holiday {
		return Resolution{Date: date}, nil
	}

	if moveToNextBusinessDay {
		candidate := date
		for i := 0; i < p.advanceCap; i++ {
			candidate = candidate.AddDate(0, 0, 1)
			holiday, err := p.calendar.IsHoliday(ctx, candidate)
			if err != nil {
				return Resolution{}, fmt.Errorf("holiday lookup for %s: %w", candidate.Format("2006-01-02"), err)
			}
			if !holiday {
				return Resolution{Date: candidate}, nil
			}
		}
		return Resolution{}, fmt.Errorf("no business day found within %d days after %s", p.advanceCap, date.Format("2006-01-02"))
	}

	if skipHolidays {
		return Resolution{Skipped: true, SkipReason: SkipReasonHoliday}, nil
	}

	// Holidays are not treated specially unless a flag says so.
	return Resolution{Date: date}, nil
}
