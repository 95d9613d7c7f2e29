package hunting

import (
	"context"
	"time"

	"github.com/example/seatsniper/internal/snipe"
)

// StopMargin is how close to the session's end a hunt may still run.
// Booking a seat two hours before the window closes is not worth it.
const StopMargin = 2 * time.Hour

// AutoStopReason is the synthetic stop reason recorded by the margin stop.
const AutoStopReason = "stopped automatically: within 2 hours of end time"

// HuntFunc runs one hunt-and-maybe-book cycle for the stored payload.
type HuntFunc func(ctx context.Context, p Payload) (snipe.Result, error)

// Hunter advances the hunting session by exactly one cycle per tick.
type Hunter struct {
	Store  Store
	Run    HuntFunc
	Margin time.Duration
	Now    func() time.Time
}

// Tick is a no-op when no session is active. Near the session end it
// auto-stops and returns a neutral result. Otherwise it runs one cycle:
// last_run_at is recorded unconditionally, a booking auto-stops the
// session, and a cycle error is persisted without deactivating so the
// next tick retries.
func (h *Hunter) Tick(ctx context.Context) (*snipe.Result, error) {
	st, err := h.Store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !st.Active {
		return nil, nil
	}

	now := h.now()
	if !now.Before(st.Payload.End.Add(-h.margin())) {
		if err := h.Store.Deactivate(ctx, now, AutoStopReason); err != nil {
			return nil, err
		}
		return &snipe.Result{Msg: AutoStopReason}, nil
	}

	res, runErr := h.Run(ctx, st.Payload)

	if err := h.Store.RecordRun(ctx, h.now()); err != nil {
		return nil, err
	}

	if runErr != nil {
		if err := h.Store.RecordError(ctx, runErr.Error()); err != nil {
			return nil, err
		}
		return nil, runErr
	}

	if res.Booked != nil {
		if err := h.Store.RecordBooked(ctx, h.now(), *res.Booked); err != nil {
			return nil, err
		}
	}
	return &res, nil
}

func (h *Hunter) margin() time.Duration {
	if h.Margin <= 0 {
		return StopMargin
	}
	return h.Margin
}

func (h *Hunter) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
