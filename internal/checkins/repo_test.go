package checkins

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/seatsniper/internal/db"
	"github.com/example/seatsniper/internal/migrate"
)

func openTestRepo(t *testing.T) (*Repo, *db.DB) {
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
	require.NoError(t, d.Exec(ctx, `TRUNCATE scheduled_checkins RESTART IDENTITY`))

	ams, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)
	return NewRepo(d, ams), d
}

func TestScheduleAppliesGraceOffset(t *testing.T) {
	r, _ := openTestRepo(t)
	ctx := context.Background()

	id, err := r.Schedule(ctx, "2026-09-01", "10:00", "ABC123")
	require.NoError(t, err)
	require.NotZero(t, id)

	list, err := r.List(ctx, string(StatusPending), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	ams, _ := time.LoadLocation("Europe/Amsterdam")
	want := time.Date(2026, 9, 1, 10, 0, 0, 0, ams).Add(GraceOffset)
	assert.True(t, list[0].RunAt.Equal(want), "run_at %v, want %v", list[0].RunAt, want)
	assert.Equal(t, "ABC123", list[0].Code)
}

func TestScheduleRejectsBadInput(t *testing.T) {
	r, _ := openTestRepo(t)
	ctx := context.Background()

	_, err := r.Schedule(ctx, "2026-09-01", "10:00", "   ")
	assert.Error(t, err)

	_, err = r.Schedule(ctx, "september first", "10:00", "ABC")
	assert.Error(t, err)
}

func TestClaimWinsExactlyOnce(t *testing.T) {
	r, _ := openTestRepo(t)
	ctx := context.Background()

	id, err := r.Schedule(ctx, "2026-09-01", "10:00", "ABC123")
	require.NoError(t, err)

	now := time.Now()
	first, err := r.Claim(ctx, id, now)
	require.NoError(t, err)
	second, err := r.Claim(ctx, id, now)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second, "a running check-in cannot be claimed again")
}

func TestCancelOnlyWhilePending(t *testing.T) {
	r, _ := openTestRepo(t)
	ctx := context.Background()

	id, err := r.Schedule(ctx, "2026-09-01", "10:00", "ABC123")
	require.NoError(t, err)

	ok, err := r.Cancel(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	// already cancelled
	ok, err = r.Cancel(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	// claimed work cannot be cancelled either
	id2, err := r.Schedule(ctx, "2026-09-01", "11:00", "DEF456")
	require.NoError(t, err)
	claimed, err := r.Claim(ctx, id2, time.Now())
	require.NoError(t, err)
	require.True(t, claimed)

	ok, err = r.Cancel(ctx, id2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDuePendingOrdersEarliestFirst(t *testing.T) {
	r, _ := openTestRepo(t)
	ctx := context.Background()

	late, err := r.Schedule(ctx, "2026-09-01", "12:00", "LATE")
	require.NoError(t, err)
	early, err := r.Schedule(ctx, "2026-09-01", "09:00", "EARLY")
	require.NoError(t, err)

	ams, _ := time.LoadLocation("Europe/Amsterdam")
	now := time.Date(2026, 9, 1, 13, 0, 0, 0, ams)

	due, err := r.DuePending(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, early, due[0].ID)
	assert.Equal(t, late, due[1].ID)

	// nothing due before either run_at
	due, err = r.DuePending(ctx, time.Date(2026, 9, 1, 8, 0, 0, 0, ams), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestMarkFailedTruncatesError(t *testing.T) {
	r, _ := openTestRepo(t)
	ctx := context.Background()

	id, err := r.Schedule(ctx, "2026-09-01", "10:00", "ABC123")
	require.NoError(t, err)

	long := make([]byte, maxErrorLen+100)
	for i := range long {
		long[i] = 'e'
	}
	require.NoError(t, r.MarkFailed(ctx, id, time.Now(), string(long)))

	list, err := r.List(ctx, string(StatusFailed), 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Error)
	assert.Len(t, *list[0].Error, maxErrorLen)
}
