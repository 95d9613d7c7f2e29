package availability

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/seatsniper/internal/db"
	"github.com/example/seatsniper/internal/migrate"
	"github.com/example/seatsniper/internal/seats"
	"github.com/example/seatsniper/internal/slots"
)

// These tests exercise the real query against a scratch database. They
// skip unless TEST_DATABASE_URL points at one.
func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	d, err := db.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(d.Close)

	require.NoError(t, migrate.Up(ctx, d))
	require.NoError(t, d.Exec(ctx, `TRUNCATE timeslots, seats CASCADE`))
	return d
}

func seedSeat(t *testing.T, d *db.DB, id int64, name *string) {
	t.Helper()
	require.NoError(t, seats.NewRepo(d).Upsert(context.Background(), seats.Seat{
		ID:   id,
		URL:  "https://example.test/seat",
		Name: name,
	}))
}

func seedSlot(t *testing.T, d *db.DB, seatID int64, start time.Time, status slots.Status) {
	t.Helper()
	require.NoError(t, slots.NewRepo(d).Upsert(context.Background(), slots.Timeslot{
		SeatID:     seatID,
		Start:      start,
		End:        start.Add(slots.SlotWidth),
		Status:     status,
		CapturedAt: time.Now().UTC(),
	}))
}

func wall(h, m int) time.Time {
	return time.Date(2026, 9, 1, h, m, 0, 0, time.UTC)
}

func TestFullyAvailable(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	nameA, nameB := "4.A.20", "2.B.01"
	seedSeat(t, d, 1, &nameA)
	seedSeat(t, d, 2, &nameB)
	seedSeat(t, d, 3, nil)

	// four 30-minute slots between 10:00 and 12:00
	for _, h := range []time.Time{wall(10, 0), wall(10, 30), wall(11, 0), wall(11, 30)} {
		seedSlot(t, d, 1, h, slots.Available)
		seedSlot(t, d, 2, h, slots.Available)
	}
	// seat 3 is free except 11:00
	seedSlot(t, d, 3, wall(10, 0), slots.Available)
	seedSlot(t, d, 3, wall(10, 30), slots.Available)
	seedSlot(t, d, 3, wall(11, 0), slots.Unavailable)
	seedSlot(t, d, 3, wall(11, 30), slots.Available)

	got, err := NewEngine(d).FullyAvailable(ctx, wall(10, 0), wall(12, 0))
	require.NoError(t, err)

	require.Len(t, got, 2)
	// named seats sort by name
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(1), got[1].ID)
}

func TestFullyAvailablePartialCoverageExcluded(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	seedSeat(t, d, 1, nil)
	seedSeat(t, d, 2, nil)

	// seat 1 defines the full grid; seat 2 has data for only half of it
	for _, h := range []time.Time{wall(10, 0), wall(10, 30), wall(11, 0), wall(11, 30)} {
		seedSlot(t, d, 1, h, slots.Available)
	}
	seedSlot(t, d, 2, wall(10, 0), slots.Available)
	seedSlot(t, d, 2, wall(10, 30), slots.Available)

	got, err := NewEngine(d).FullyAvailable(ctx, wall(10, 0), wall(12, 0))
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestFullyAvailableNoKnownSlotsYieldsNothing(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	seedSeat(t, d, 1, nil)
	seedSlot(t, d, 1, wall(9, 0), slots.Available)

	// no slot data inside the interval: never "all seats"
	got, err := NewEngine(d).FullyAvailable(ctx, wall(14, 0), wall(16, 0))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFullyAvailableUnnamedSeatsSortLast(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	name := "9.Z.99"
	seedSeat(t, d, 1, nil)
	seedSeat(t, d, 2, &name)
	seedSlot(t, d, 1, wall(10, 0), slots.Available)
	seedSlot(t, d, 2, wall(10, 0), slots.Available)

	got, err := NewEngine(d).FullyAvailable(ctx, wall(10, 0), wall(10, 30))
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(1), got[1].ID)
}
