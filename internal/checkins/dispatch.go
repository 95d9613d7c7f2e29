package checkins

import (
	"context"
	"time"
)

// Store is what the dispatcher needs from persistence. *Repo implements it.
type Store interface {
	DuePending(ctx context.Context, now time.Time, limit int) ([]Checkin, error)
	Claim(ctx context.Context, id int64, at time.Time) (bool, error)
	MarkDone(ctx context.Context, id int64, at time.Time) error
	MarkFailed(ctx context.Context, id int64, at time.Time, msg string) error
}

// Executor performs the real check-in against the facility.
type Executor interface {
	PerformCheckin(ctx context.Context, code string) error
}

// MaxPerTick bounds the work one tick claims.
const MaxPerTick = 3

// Dispatcher runs due check-ins. It holds no state between ticks: the
// conditional claim in the store is the only concurrency primitive, so
// overlapping ticks execute each check-in at most once.
type Dispatcher struct {
	Store Store
	Exec  Executor
	Limit int
	Now   func() time.Time
}

// DispatchDue claims and executes due pending check-ins, earliest first.
// Returns the number executed this tick. A lost claim race is a silent
// skip, not an error; executor failures are recorded on the row and do
// not retry, since a check-in is tied to a real-world deadline.
func (d *Dispatcher) DispatchDue(ctx context.Context) (int, error) {
	limit := d.Limit
	if limit < 1 {
		limit = MaxPerTick
	}

	due, err := d.Store.DuePending(ctx, d.now(), limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, c := range due {
		claimed, err := d.Store.Claim(ctx, c.ID, d.now())
		if err != nil {
			return processed, err
		}
		if !claimed {
			continue
		}

		if execErr := d.Exec.PerformCheckin(ctx, c.Code); execErr != nil {
			if err := d.Store.MarkFailed(ctx, c.ID, d.now(), execErr.Error()); err != nil {
				return processed, err
			}
		} else {
			if err := d.Store.MarkDone(ctx, c.ID, d.now()); err != nil {
				return processed, err
			}
		}
		processed++
	}
	return processed, nil
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
