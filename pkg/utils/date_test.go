package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTruncateToMinute(t *testing.T) {
	in := time.Date(2026, 3, 2, 9, 0, 42, 999, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), TruncateToMinute(in))
}

func TestDateHelpers(t *testing.T) {
	in := time.Date(2026, 3, 2, 14, 30, 5, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), DateOnly(in))
	assert.Equal(t, DateOnly(in), StartOfDay(in))
	assert.True(t, EndOfDay(in).After(in))
	assert.True(t, SameDate(in, EndOfDay(in)))
	assert.False(t, SameDate(in, in.AddDate(0, 0, 1)))
	assert.Equal(t, time.Date(2026, 3, 2, 18, 15, 0, 0, time.UTC), AtTimeOfDay(in, 18, 15))
}
