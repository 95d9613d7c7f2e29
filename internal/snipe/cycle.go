package snipe

import (
	"context"
	"log"
	"time"

	"github.com/example/seatsniper/internal/libcal"
	"github.com/example/seatsniper/internal/slots"
)

// CandidateSource screens stored history for snipe candidates. *Detector
// implements it.
type CandidateSource interface {
	FindCandidates(ctx context.Context, targetStart time.Time, f Filter) ([]Candidate, error)
}

// LiveSource re-fetches current slots straight from the source, bypassing
// the store.
type LiveSource interface {
	FetchSlots(ctx context.Context, seatID int64, startDate, endDate string) ([]libcal.Slot, error)
}

// Booker performs the actual booking. The default implementation is the
// LibCal form client; browser automation can be swapped in.
type Booker interface {
	PerformBooking(ctx context.Context, seatID int64, start, end time.Time, p libcal.BookingProfile) (string, error)
}

// Booking is the persisted record of a successful hunt.
type Booking struct {
	SeatID   int64     `json:"seat_id"`
	SeatName *string   `json:"seat_name,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Message  string    `json:"message"`
}

// Result summarizes one hunting cycle.
type Result struct {
	Msg        string   `json:"msg"`
	Candidates int      `json:"candidates"`
	Checked    int      `json:"checked"`
	Found      *int64   `json:"found,omitempty"`
	Booked     *Booking `json:"booked,omitempty"`
}

// ConfirmLive checks, against a live fetch, that the first and last
// 30-minute sub-slots of [start, end] are AVAILABLE right now. The cheap
// historical screen runs first; this one expensive call per candidate
// bounds live traffic to the candidate set.
func ConfirmLive(ctx context.Context, src LiveSource, seatID int64, start, end time.Time) (bool, error) {
	startDate := start.Format("2006-01-02")
	endDate := end.AddDate(0, 0, 1).Format("2006-01-02")

	raw, err := src.FetchSlots(ctx, seatID, startDate, endDate)
	if err != nil {
		return false, err
	}

	first := slotAvailable(raw, start, start.Add(slots.SlotWidth))
	last := slotAvailable(raw, end.Add(-slots.SlotWidth), end)
	return first && last, nil
}

func slotAvailable(raw []libcal.Slot, start, end time.Time) bool {
	wantStart := start.Format(libcal.GridTimeLayout)
	wantEnd := end.Format(libcal.GridTimeLayout)
	for _, s := range raw {
		if s.Start == wantStart && s.End == wantEnd {
			return slots.StatusFromMarker(s.ClassName) == slots.Available
		}
	}
	return false
}

// Cycle is one full hunt: screen candidates from history, confirm each
// live in order, book the first confirmed seat.
type Cycle struct {
	Detector CandidateSource
	Live     LiveSource
	Booker   Booker
}

func (c *Cycle) Run(ctx context.Context, start, end time.Time, f Filter, profile libcal.BookingProfile) (Result, error) {
	var res Result

	cands, err := c.Detector.FindCandidates(ctx, start, f)
	if err != nil {
		return res, err
	}
	res.Candidates = len(cands)

	for _, cand := range cands {
		res.Checked++
		open, err := ConfirmLive(ctx, c.Live, cand.SeatID, start, end)
		if err != nil {
			log.Printf("hunt: live check seat %d failed: %v", cand.SeatID, err)
			continue
		}
		if !open {
			continue
		}

		id := cand.SeatID
		res.Found = &id

		msg, err := c.Booker.PerformBooking(ctx, cand.SeatID, start, end, profile)
		if err != nil {
			return res, err
		}
		res.Booked = &Booking{
			SeatID:   cand.SeatID,
			SeatName: cand.Name,
			Start:    start,
			End:      end,
			Message:  msg,
		}
		res.Msg = msg
		return res, nil
	}

	res.Msg = "no candidate confirmed open"
	return res, nil
}
