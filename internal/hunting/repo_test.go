package hunting

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/seatsniper/internal/config"
	"github.com/example/seatsniper/internal/db"
	"github.com/example/seatsniper/internal/migrate"
	"github.com/example/seatsniper/internal/snipe"
)

func openTestRepo(t *testing.T) *Repo {
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
	require.NoError(t, d.Exec(ctx, `
UPDATE hunting_state
SET active=FALSE, payload=NULL, created_at=NULL, last_run_at=NULL,
    stopped_at=NULL, booked=NULL, error=NULL
WHERE id=1`))
	return NewRepo(d)
}

func testPayload() Payload {
	return Payload{
		Start:  time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		End:    time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
		Filter: snipe.Filter{Power: snipe.PowerChoice{WithPower: true, WithoutPower: true}},
		Profile: config.Profile{
			FirstName: "Ada", LastName: "L", Email: "ada@example.test",
			Phone: "0600000000", StudentNumber: "s1234567",
		},
	}
}

func TestActivateRoundTrip(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	p := testPayload()
	require.NoError(t, r.Activate(ctx, p, time.Now()))

	st, err := r.Get(ctx)
	require.NoError(t, err)

	assert.True(t, st.Active)
	assert.True(t, st.Payload.Start.Equal(p.Start))
	assert.True(t, st.Payload.End.Equal(p.End))
	assert.Equal(t, p.Filter, st.Payload.Filter)
	assert.Equal(t, p.Profile, st.Payload.Profile)
	assert.NotNil(t, st.CreatedAt)
	assert.Nil(t, st.LastRunAt)
	assert.Nil(t, st.Booked)
	assert.Nil(t, st.Error)
}

func TestActivateRejectsInvalidPayload(t *testing.T) {
	r := openTestRepo(t)
	assert.Error(t, r.Activate(context.Background(), Payload{}, time.Now()))
}

func TestActivateResetsPriorBookkeeping(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Activate(ctx, testPayload(), time.Now()))
	require.NoError(t, r.RecordRun(ctx, time.Now()))
	require.NoError(t, r.RecordError(ctx, "boom"))
	require.NoError(t, r.Deactivate(ctx, time.Now(), "stopped by operator"))

	require.NoError(t, r.Activate(ctx, testPayload(), time.Now()))
	st, err := r.Get(ctx)
	require.NoError(t, err)

	assert.True(t, st.Active)
	assert.Nil(t, st.LastRunAt)
	assert.Nil(t, st.StoppedAt)
	assert.Nil(t, st.Error)
}

func TestRecordBookedStopsSession(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Activate(ctx, testPayload(), time.Now()))
	require.NoError(t, r.RecordError(ctx, "transient"))

	b := snipe.Booking{
		SeatID:  42,
		Start:   time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		End:     time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
		Message: "Booked seat 42 successfully.",
	}
	require.NoError(t, r.RecordBooked(ctx, time.Now(), b))

	st, err := r.Get(ctx)
	require.NoError(t, err)

	assert.False(t, st.Active)
	assert.NotNil(t, st.StoppedAt)
	require.NotNil(t, st.Booked)
	assert.Equal(t, int64(42), st.Booked.SeatID)
	// a booking clears any transient error from earlier cycles
	assert.Nil(t, st.Error)
}

func TestDeactivateRecordsReason(t *testing.T) {
	r := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.Activate(ctx, testPayload(), time.Now()))
	require.NoError(t, r.Deactivate(ctx, time.Now(), AutoStopReason))

	st, err := r.Get(ctx)
	require.NoError(t, err)
	assert.False(t, st.Active)
	require.NotNil(t, st.Error)
	assert.Equal(t, AutoStopReason, *st.Error)
}
