package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFromMarker(t *testing.T) {
	cases := []struct {
		marker string
		want   Status
	}{
		{"", Available},
		{"s-lc-eq-avail", Available},
		{"s-lc-eq-period-available", Available},
		{"s-lc-eq-checkout", Unavailable},
		{"s-lc-eq-period-booked", Unavailable},
		{"label-eq-unavailable", Unavailable},
		{"s-lc-eq-pending-unavailable", Unavailable},
		{"s-lc-eq-padding", Unavailable},
		{"something-brand-new", Unavailable},
		{"AVAIL", Available},
		{"BOOKED", Unavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFromMarker(tc.marker), "marker %q", tc.marker)
	}
}

func TestStatusFromMarkerUnavailableBeatsAvail(t *testing.T) {
	// "unavailable" contains "avail"; the unavailable markers must win.
	assert.Equal(t, Unavailable, StatusFromMarker("unavailable"))
}

func TestWallClock(t *testing.T) {
	ams, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	// 12:30 UTC in summer is 14:30 on the Amsterdam wall.
	abs := time.Date(2026, 7, 1, 12, 30, 0, 0, time.UTC)
	got := WallClock(abs, ams)

	assert.Equal(t, time.Date(2026, 7, 1, 14, 30, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestWallClockDropsSubSecond(t *testing.T) {
	got := WallClock(time.Date(2026, 1, 5, 9, 0, 12, 999, time.UTC), time.UTC)
	assert.Equal(t, time.Date(2026, 1, 5, 9, 0, 12, 0, time.UTC), got)
}
