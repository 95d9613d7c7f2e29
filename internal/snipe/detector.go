package snipe

import (
	"context"
	"sort"
	"time"

	"github.com/example/seatsniper/internal/db"
	"github.com/example/seatsniper/internal/slots"
)

// Candidate is a seat suspected to come free at the target start: someone
// holds the slot right before it, and the reservation began exactly one
// slot earlier, the short likely-abandoned kind.
type Candidate struct {
	SeatID int64
	Name   *string
	URL    string
	Power  *bool
}

type Detector struct{ db *db.DB }

func NewDetector(d *db.DB) *Detector { return &Detector{db: d} }

const candidatesSQL = `
SELECT DISTINCT s.seat_id, s.seat_name, s.seat_url, s.power_available
FROM timeslots prev
JOIN seats s ON s.seat_id = prev.seat_id
WHERE prev.start_at = $1
  AND prev.status = 'UNAVAILABLE'`

const priorCondSQL = `
  AND EXISTS (
    SELECT 1 FROM timeslots prior
    WHERE prior.seat_id = prev.seat_id
      AND prior.start_at = $2
      AND prior.status = 'AVAILABLE'
  )`

// FindCandidates screens the stored history for snipe candidates at
// targetStart. The prior-slot condition is waived when no slot anywhere
// starts at targetStart−60m, i.e. targetStart follows the first slot of
// the day and there is nothing to compare against.
func (d *Detector) FindCandidates(ctx context.Context, targetStart time.Time, f Filter) ([]Candidate, error) {
	if f.Empty() {
		return nil, nil
	}

	prevStart := targetStart.Add(-slots.SlotWidth)
	priorStart := targetStart.Add(-2 * slots.SlotWidth)

	var priorExists bool
	err := d.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM timeslots WHERE start_at = $1)`, priorStart,
	).Scan(&priorExists)
	if err != nil {
		return nil, err
	}

	var rows db.Rows
	if priorExists {
		rows, err = d.db.Query(ctx, candidatesSQL+priorCondSQL, prevStart, priorStart)
	} else {
		rows, err = d.db.Query(ctx, candidatesSQL, prevStart)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := map[int64]bool{}
	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.SeatID, &c.Name, &c.URL, &c.Power); err != nil {
			return nil, err
		}
		if seen[c.SeatID] || !f.Match(c.Name, c.Power) {
			continue
		}
		seen[c.SeatID] = true
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SeatID < out[j].SeatID })
	return out, nil
}
