package prompt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/scheduler/internal/timerange"
)

func TestBuilder_Build(t *testing.T) {
	ref, err := timerange.LoadReference(time.Date(2025, 7, 26, 9, 30, 0, 0, time.UTC), "Europe/London")
	require.NoError(t, err)

	out, err := Builder{}.Build(ref)
	require.NoError(t, err)

	assert.Contains(t, out, "The user is in the Europe/London time zone")
	assert.Contains(t, out, "Current date and time: 26 July 2025, 10:30 AM (Europe/London)")
	assert.Contains(t, out, "Today is: 2025-07-26 (Saturday)")
	assert.Contains(t, out, "Tomorrow is: 2025-07-27 (Sunday)")
	assert.Contains(t, out, "Yesterday was: 2025-07-25 (Friday)")
	assert.Contains(t, out, "for example 2025-07-26T14:00:00+01:00")
	assert.Contains(t, out, `Use "primary" when the user does not name a calendar`)
	assert.Contains(t, out, "smart_event_search")
}

func TestBuilder_FollowsTheClock(t *testing.T) {
	ref, err := timerange.LoadReference(time.Date(2025, 12, 31, 23, 30, 0, 0, time.UTC), "Europe/London")
	require.NoError(t, err)

	out, err := Builder{DefaultCalendar: "work@example.com"}.Build(ref)
	require.NoError(t, err)

	assert.Contains(t, out, "Tomorrow is: 2026-01-01 (Thursday)")
	assert.Contains(t, out, "+00:00")
	assert.Contains(t, out, `Use "work@example.com"`)
}
