package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParsePostStatus(t *testing.T) {
	for _, raw := range []string{"AVAILABLE", "CLAIMED", "COMPLETED", "CANCELLED", "EXPIRED"} {
		status, err := ParsePostStatus(raw)
		require.NoError(t, err)
		require.Equal(t, PostStatus(raw), status)
	}

	for _, raw := range []string{"", "available", "DELETED", "ACTIVE"} {
		_, err := ParsePostStatus(raw)
		require.ErrorIs(t, err, ErrInvalidStatus, "raw %q", raw)
	}
}

func TestPostStatusIsTerminal(t *testing.T) {
	require.False(t, PostAvailable.IsTerminal())
	require.False(t, PostClaimed.IsTerminal())
	require.True(t, PostCompleted.IsTerminal())
	require.True(t, PostCancelled.IsTerminal())
	require.True(t, PostExpired.IsTerminal())
}

func TestParseClockTime(t *testing.T) {
	d, err := ParseClockTime("14:30")
	require.NoError(t, err)
	require.Equal(t, 14*time.Hour+30*time.Minute, d)

	d, err = ParseClockTime("00:00")
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), d)

	for _, raw := range []string{"", "14", "25:00", "14:60", "2pm", "14:30:00"} {
		_, err := ParseClockTime(raw)
		require.Error(t, err, "raw %q", raw)
	}
}

func TestPickupWindowValidate(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, PickupWindow{Date: day, Start: "14:00", End: "15:00"}.Validate())

	// End must be strictly after start
	require.ErrorIs(t, PickupWindow{Date: day, Start: "14:00", End: "14:00"}.Validate(), ErrInvalidPickupSlot)
	require.ErrorIs(t, PickupWindow{Date: day, Start: "15:00", End: "14:00"}.Validate(), ErrInvalidPickupSlot)
	require.ErrorIs(t, PickupWindow{Date: day, Start: "", End: "15:00"}.Validate(), ErrInvalidPickupSlot)
	require.ErrorIs(t, PickupWindow{Date: day, Start: "14:00", End: "25:00"}.Validate(), ErrInvalidPickupSlot)
}

func TestPickupWindowContains(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	window := PickupWindow{Date: day, Start: "14:00", End: "15:00"}
	early := 15 * time.Minute
	late := 30 * time.Minute

	at := func(hour, min int) time.Time {
		return time.Date(2025, 3, 10, hour, min, 0, 0, time.UTC)
	}

	cases := []struct {
		now  time.Time
		want bool
	}{
		{at(13, 44), false}, // one minute before the widened start
		{at(13, 45), true},  // boundary is inclusive
		{at(13, 46), true},
		{at(14, 30), true},
		{at(15, 0), true},
		{at(15, 30), true}, // boundary is inclusive
		{at(15, 31), false},
	}
	for _, tc := range cases {
		got, err := window.Contains(tc.now, early, late)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "now=%s", tc.now.Format("15:04"))
	}

	// Zero tolerances collapse to the bare window
	got, err := window.Contains(at(13, 59), 0, 0)
	require.NoError(t, err)
	require.False(t, got)
	got, err = window.Contains(at(14, 0), 0, 0)
	require.NoError(t, err)
	require.True(t, got)
}

func TestPickupWindowDeadline(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	window := PickupWindow{Date: day, Start: "14:00", End: "15:00"}

	deadline, err := window.Deadline(30 * time.Minute)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC), deadline)

	broken := PickupWindow{Date: day, Start: "14:00", End: "late"}
	_, err = broken.Deadline(0)
	require.Error(t, err)
}
