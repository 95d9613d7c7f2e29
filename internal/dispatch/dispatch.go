package dispatch

import (
	"context"
	"log"
	"time"

	"github.com/example/seatsniper/internal/snipe"
)

// CheckinDispatcher claims and executes due check-ins.
type CheckinDispatcher interface {
	DispatchDue(ctx context.Context) (int, error)
}

// HuntTicker advances the hunting session by one cycle.
type HuntTicker interface {
	Tick(ctx context.Context) (*snipe.Result, error)
}

// Summary is the per-tick observability result.
type Summary struct {
	CheckinsRun int    `json:"checkins_run"`
	HuntRan     bool   `json:"hunt_ran"`
	HuntMsg     string `json:"hunt_msg,omitempty"`
}

// Dispatcher advances both state machines on every tick. It keeps no
// in-memory state; overlapping invocations are safe because all
// coordination lives in the store's conditional writes. Errors inside a
// tick are logged and swallowed; they never take the process down.
type Dispatcher struct {
	Checkins CheckinDispatcher
	Hunter   HuntTicker
}

func (d *Dispatcher) OnTick(ctx context.Context) Summary {
	var sum Summary

	n, err := d.Checkins.DispatchDue(ctx)
	if err != nil {
		log.Printf("dispatch: checkin dispatch failed: %v", err)
	}
	sum.CheckinsRun = n
	if n > 0 {
		log.Printf("dispatch: ran %d scheduled checkin(s)", n)
	}

	res, err := d.Hunter.Tick(ctx)
	if err != nil {
		log.Printf("dispatch: hunting tick failed: %v", err)
	}
	if res != nil {
		sum.HuntRan = true
		sum.HuntMsg = res.Msg
		log.Printf("dispatch: hunting tick: candidates=%d checked=%d msg=%q", res.Candidates, res.Checked, res.Msg)
	}

	return sum
}

// Run drives OnTick on a fixed cadence until the context ends, ticking
// once immediately.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	d.OnTick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			d.OnTick(ctx)
		}
	}
}
