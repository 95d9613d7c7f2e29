package ingest

import (
	"context"
	"log"
	"time"

	"github.com/example/seatsniper/internal/libcal"
	"github.com/example/seatsniper/internal/seats"
	"github.com/example/seatsniper/internal/slots"
)

// Source is the external availability data source.
type Source interface {
	FetchSeatIDs(ctx context.Context) ([]int64, error)
	FetchSeatMeta(ctx context.Context, seatID int64) (libcal.SeatMeta, error)
	FetchSlots(ctx context.Context, seatID int64, startDate, endDate string) ([]libcal.Slot, error)
	SeatURL(seatID int64) string
}

// Sink hands out bounded write batches. One batch is one transaction;
// a crash mid-run loses at most the in-flight batch.
type Sink interface {
	BeginBatch(ctx context.Context) (Batch, error)
}

type Batch interface {
	UpsertSeat(ctx context.Context, s seats.Seat) error
	UpsertSlot(ctx context.Context, t slots.Timeslot) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SeatLister yields the already-known seat ids.
type SeatLister interface {
	AllIDs(ctx context.Context) ([]int64, error)
}

// ProgressFunc is called after every seat.
type ProgressFunc func(processed, total int, seatID int64, failed int)

// Pipeline pulls current slot statuses for every seat and upserts them.
// Seats are processed sequentially and independently: one seat failing to
// fetch never aborts the run.
type Pipeline struct {
	Source Source
	Sink   Sink
	Seats  SeatLister

	BatchSize int
	Sleep     time.Duration

	Now     func() time.Time      // defaults to time.Now
	SleepFn func(d time.Duration) // defaults to time.Sleep
}

// Run ingests the date range for every known seat (discovering seats first
// when the store is empty). Returns (processed, failed).
func (p *Pipeline) Run(ctx context.Context, startDate, endDate string, progress ProgressFunc) (int, int, error) {
	ids, err := p.Seats.AllIDs(ctx)
	if err != nil {
		return 0, 0, err
	}
	if len(ids) == 0 {
		if ids, err = p.Source.FetchSeatIDs(ctx); err != nil {
			return 0, 0, err
		}
	}

	total := len(ids)
	failed := 0

	batch, err := p.Sink.BeginBatch(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if batch != nil {
			_ = batch.Rollback(ctx)
		}
	}()

	for i, seatID := range ids {
		seat := seats.Seat{ID: seatID, URL: p.Source.SeatURL(seatID)}
		if meta, merr := p.Source.FetchSeatMeta(ctx, seatID); merr == nil {
			seat.Name = meta.Name
			seat.Power = meta.Power
		}
		if err := batch.UpsertSeat(ctx, seat); err != nil {
			return i, failed, err
		}

		raw, ferr := p.Source.FetchSlots(ctx, seatID, startDate, endDate)
		if ferr != nil {
			failed++
			log.Printf("ingest: seat %d fetch failed (%d/%d): %v", seatID, i+1, total, ferr)
		} else {
			capturedAt := p.now()
			for _, s := range raw {
				t, ok := toTimeslot(seatID, s, capturedAt)
				if !ok {
					continue // incomplete slot data, skip the item
				}
				if err := batch.UpsertSlot(ctx, t); err != nil {
					return i, failed, err
				}
			}
		}

		if (i+1)%p.batchSize() == 0 {
			if err := batch.Commit(ctx); err != nil {
				batch = nil
				return i + 1, failed, err
			}
			if batch, err = p.Sink.BeginBatch(ctx); err != nil {
				batch = nil
				return i + 1, failed, err
			}
		}

		if progress != nil {
			progress(i+1, total, seatID, failed)
		}
		if p.Sleep > 0 {
			p.sleep(p.Sleep)
		}
	}

	if err := batch.Commit(ctx); err != nil {
		batch = nil
		return total, failed, err
	}
	batch = nil
	return total, failed, nil
}

func toTimeslot(seatID int64, s libcal.Slot, capturedAt time.Time) (slots.Timeslot, bool) {
	if s.Start == "" || s.End == "" {
		return slots.Timeslot{}, false
	}
	start, err := libcal.ParseGridTime(s.Start)
	if err != nil {
		return slots.Timeslot{}, false
	}
	end, err := libcal.ParseGridTime(s.End)
	if err != nil {
		return slots.Timeslot{}, false
	}
	return slots.Timeslot{
		SeatID:     seatID,
		Start:      start,
		End:        end,
		Status:     slots.StatusFromMarker(s.ClassName),
		ClassName:  s.ClassName,
		Checksum:   s.Checksum,
		CapturedAt: capturedAt,
	}, true
}

func (p *Pipeline) batchSize() int {
	if p.BatchSize < 1 {
		return 25
	}
	return p.BatchSize
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) sleep(d time.Duration) {
	if p.SleepFn != nil {
		p.SleepFn(d)
		return
	}
	time.Sleep(d)
}
