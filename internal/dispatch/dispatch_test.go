package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/seatsniper/internal/snipe"
)

type fakeCheckins struct {
	n   int
	err error
}

func (f *fakeCheckins) DispatchDue(ctx context.Context) (int, error) { return f.n, f.err }

type fakeHunter struct {
	res *snipe.Result
	err error
}

func (f *fakeHunter) Tick(ctx context.Context) (*snipe.Result, error) { return f.res, f.err }

func TestOnTickSummarizesBothMachines(t *testing.T) {
	d := &Dispatcher{
		Checkins: &fakeCheckins{n: 2},
		Hunter:   &fakeHunter{res: &snipe.Result{Msg: "no candidate confirmed open", Candidates: 4}},
	}

	sum := d.OnTick(context.Background())
	assert.Equal(t, 2, sum.CheckinsRun)
	assert.True(t, sum.HuntRan)
	assert.Equal(t, "no candidate confirmed open", sum.HuntMsg)
}

func TestOnTickIdleHunt(t *testing.T) {
	d := &Dispatcher{Checkins: &fakeCheckins{}, Hunter: &fakeHunter{}}

	sum := d.OnTick(context.Background())
	assert.Equal(t, 0, sum.CheckinsRun)
	assert.False(t, sum.HuntRan)
	assert.Empty(t, sum.HuntMsg)
}

func TestOnTickSwallowsErrors(t *testing.T) {
	d := &Dispatcher{
		Checkins: &fakeCheckins{err: errors.New("db down")},
		Hunter:   &fakeHunter{err: errors.New("hunt broke")},
	}

	// errors are logged, never panicked or returned
	sum := d.OnTick(context.Background())
	assert.Equal(t, 0, sum.CheckinsRun)
	assert.False(t, sum.HuntRan)
}

func TestOnTickCheckinErrorDoesNotBlockHunt(t *testing.T) {
	d := &Dispatcher{
		Checkins: &fakeCheckins{err: errors.New("db down")},
		Hunter:   &fakeHunter{res: &snipe.Result{Msg: "ran"}},
	}

	sum := d.OnTick(context.Background())
	assert.True(t, sum.HuntRan)
	assert.Equal(t, "ran", sum.HuntMsg)
}
