package checkins

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	due       []Checkin
	dueErr    error
	unclaimed map[int64]bool // ids whose claim is lost to another tick
	claimed   []int64
	done      []int64
	failed    map[int64]string
	gotLimit  int
}

func newFakeStore(due ...Checkin) *fakeStore {
	return &fakeStore{due: due, unclaimed: map[int64]bool{}, failed: map[int64]string{}}
}

func (s *fakeStore) DuePending(ctx context.Context, now time.Time, limit int) ([]Checkin, error) {
	s.gotLimit = limit
	if s.dueErr != nil {
		return nil, s.dueErr
	}
	if len(s.due) > limit {
		return s.due[:limit], nil
	}
	return s.due, nil
}

func (s *fakeStore) Claim(ctx context.Context, id int64, at time.Time) (bool, error) {
	if s.unclaimed[id] {
		return false, nil
	}
	s.claimed = append(s.claimed, id)
	return true, nil
}

func (s *fakeStore) MarkDone(ctx context.Context, id int64, at time.Time) error {
	s.done = append(s.done, id)
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, id int64, at time.Time, msg string) error {
	s.failed[id] = msg
	return nil
}

type fakeExec struct {
	failing map[string]error
	codes   []string
}

func (e *fakeExec) PerformCheckin(ctx context.Context, code string) error {
	e.codes = append(e.codes, code)
	if e.failing == nil {
		return nil
	}
	return e.failing[code]
}

func due(id int64, code string) Checkin {
	return Checkin{ID: id, Code: code, Status: StatusPending}
}

func TestDispatchDueRunsEachOnce(t *testing.T) {
	store := newFakeStore(due(1, "AAA"), due(2, "BBB"))
	exec := &fakeExec{}
	d := &Dispatcher{Store: store, Exec: exec}

	n, err := d.DispatchDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"AAA", "BBB"}, exec.codes)
	assert.Equal(t, []int64{1, 2}, store.done)
	assert.Empty(t, store.failed)
}

func TestDispatchDueLostClaimIsSilentSkip(t *testing.T) {
	store := newFakeStore(due(1, "AAA"), due(2, "BBB"))
	store.unclaimed[1] = true
	exec := &fakeExec{}
	d := &Dispatcher{Store: store, Exec: exec}

	n, err := d.DispatchDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"BBB"}, exec.codes)
	assert.Equal(t, []int64{2}, store.done)
}

func TestDispatchDueFailureRecordedNoRetry(t *testing.T) {
	store := newFakeStore(due(1, "AAA"), due(2, "BBB"))
	exec := &fakeExec{failing: map[string]error{"AAA": errors.New("code rejected")}}
	d := &Dispatcher{Store: store, Exec: exec}

	n, err := d.DispatchDue(context.Background())
	require.NoError(t, err)

	// a failed execution still counts as processed and never blocks the rest
	assert.Equal(t, 2, n)
	assert.Equal(t, "code rejected", store.failed[1])
	assert.Equal(t, []int64{2}, store.done)
}

func TestDispatchDueDefaultLimit(t *testing.T) {
	store := newFakeStore(due(1, "A"), due(2, "B"), due(3, "C"), due(4, "D"))
	d := &Dispatcher{Store: store, Exec: &fakeExec{}}

	n, err := d.DispatchDue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, MaxPerTick, store.gotLimit)
	assert.Equal(t, MaxPerTick, n)
}

func TestDispatchDueStoreErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.dueErr = errors.New("connection lost")
	d := &Dispatcher{Store: store, Exec: &fakeExec{}}

	_, err := d.DispatchDue(context.Background())
	assert.Error(t, err)
}

func TestTruncateCapsErrorText(t *testing.T) {
	long := make([]byte, maxErrorLen+500)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, truncate(string(long)), maxErrorLen)
	assert.Equal(t, "short", truncate("short"))
}
