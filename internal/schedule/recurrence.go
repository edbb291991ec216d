package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"grouptasks/pkg/utils"
)

type RuleType string

const (
	RuleDaily   RuleType = "daily"
	RuleWeekly  RuleType = "weekly"
	RuleMonthly RuleType = "monthly"
)

var (
	ErrUnknownRuleType  = errors.New("unknown recurrence rule type")
	ErrInvalidTime      = errors.New("recurrence time must be a valid HH:MM clock value")
	ErrEmptyDays        = errors.New("weekly rule requires at least one day of week")
	ErrInvalidDay       = errors.New("day of week must be between 0 and 6")
	ErrEmptyDates       = errors.New("monthly rule requires at least one date of month")
	ErrInvalidDate      = errors.New("date of month must be between 1 and 31")
	ErrMisplacedDays    = errors.New("days are only valid on a weekly rule")
	ErrMisplacedDates   = errors.New("dates are only valid on a monthly rule")
	ErrNoRules          = errors.New("at least one recurrence rule is required")
	ErrMalformedRuleSet = errors.New("malformed recurrence rule set")
)

// RecurrenceRule is one schedule line. The JSON shape matches the persisted
// jsonb column: {"type":"weekly","time":"09:00","days":[1,4]}.
// Days uses weekday indices 0 (Sunday) through 6 (Saturday).
type RecurrenceRule struct {
	Type  RuleType `json:"type"`
	Time  string   `json:"time"`
	Days  []int    `json:"days,omitempty"`
	Dates []int    `json:"dates,omitempty"`
}

// Validate rejects malformed rules before they are persisted.
func (r RecurrenceRule) Validate() error {
	if _, _, err := r.Clock(); err != nil {
		return err
	}

	switch r.Type {
	case RuleDaily:
		if len(r.Days) > 0 {
			return ErrMisplacedDays
		}
		if len(r.Dates) > 0 {
			return ErrMisplacedDates
		}
	case RuleWeekly:
		if len(r.Days) == 0 {
			return ErrEmptyDays
		}
		if len(r.Dates) > 0 {
			return ErrMisplacedDates
		}
		for _, d := range r.Days {
			if d < 0 || d > 6 {
				return fmt.Errorf("%w: got %d", ErrInvalidDay, d)
			}
		}
	case RuleMonthly:
		if len(r.Dates) == 0 {
			return ErrEmptyDates
		}
		if len(r.Days) > 0 {
			return ErrMisplacedDays
		}
		for _, d := range r.Dates {
			if d < 1 || d > 31 {
				return fmt.Errorf("%w: got %d", ErrInvalidDate, d)
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRuleType, r.Type)
	}

	return nil
}

// Clock parses the rule's time-of-day.
func (r RecurrenceRule) Clock() (hour, minute int, err error) {
	t, parseErr := time.Parse("15:04", r.Time)
	if parseErr != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTime, r.Time)
	}
	return t.Hour(), t.Minute(), nil
}

// MatchesDate reports whether the rule's date predicate holds for the given day.
// Months shorter than a configured date simply never match, no clamping.
func (r RecurrenceRule) MatchesDate(date time.Time) bool {
	switch r.Type {
	case RuleDaily:
		return true
	case RuleWeekly:
		return utils.ContainsInt(r.Days, int(date.Weekday()))
	case RuleMonthly:
		return utils.ContainsInt(r.Dates, date.Day())
	}
	return false
}

// ValidateRules validates a complete rule set.
func ValidateRules(rules []RecurrenceRule) error {
	if len(rules) == 0 {
		return ErrNoRules
	}
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

// ParseRules decodes and validates a persisted rule set.
func ParseRules(raw []byte) ([]RecurrenceRule, error) {
	var rules []RecurrenceRule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRuleSet, err)
	}
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	return rules, nil
}
