package telegram

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRemindTime_Duration(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	when, err := parseRemindTime("15m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), when)

	when, err = parseRemindTime("2h", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Hour), when)
}

func TestParseRemindTime_ClockToday(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	when, err := parseRemindTime("18:30", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 29, 18, 30, 0, 0, time.UTC), when)
}

func TestParseRemindTime_ClockPastRollsToTomorrow(t *testing.T) {
	now := time.Date(2026, 8, 29, 19, 0, 0, 0, time.UTC)

	when, err := parseRemindTime("18:30", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 30, 18, 30, 0, 0, time.UTC), when)
}

func TestParseRemindTime_Invalid(t *testing.T) {
	_, err := parseRemindTime("soonish", time.Now())
	assert.Error(t, err)
}
