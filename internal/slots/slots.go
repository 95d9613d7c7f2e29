package slots

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/seatsniper/internal/db"
)

// Status of one 30-minute slot.
type Status string

const (
	Available   Status = "AVAILABLE"
	Unavailable Status = "UNAVAILABLE"
)

// SlotWidth is the facility's fixed booking granularity.
const SlotWidth = 30 * time.Minute

// WallClock strips the zone off an absolute time, yielding the facility
// wall-clock reading used by the slot grid (UTC-tagged so comparisons and
// database round trips stay consistent).
func WallClock(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// Timeslot is one observed 30-minute bucket for one seat. Start/End are
// facility wall-clock times; the latest observation wins per
// (seat, start, end).
type Timeslot struct {
	SeatID     int64
	Start      time.Time
	End        time.Time
	Status     Status
	ClassName  string
	Checksum   *string
	CapturedAt time.Time
}

// StatusFromMarker classifies a raw grid class-name marker. Total: never
// fails, and an unrecognized marker classifies UNAVAILABLE so that unknown
// data can never look bookable.
func StatusFromMarker(marker string) Status {
	m := strings.ToLower(marker)
	switch {
	case strings.Contains(m, "unavailable"),
		strings.Contains(m, "checkout"),
		strings.Contains(m, "booked"),
		strings.Contains(m, "padding"):
		return Unavailable
	case m == "" || strings.Contains(m, "avail"):
		return Available
	default:
		return Unavailable
	}
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

const upsertSQL = `
INSERT INTO timeslots(seat_id, start_at, end_at, status, class_name, checksum, captured_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (seat_id, start_at, end_at) DO UPDATE SET
  status = EXCLUDED.status,
  class_name = EXCLUDED.class_name,
  checksum = EXCLUDED.checksum,
  captured_at = EXCLUDED.captured_at`

func (r *Repo) Upsert(ctx context.Context, t Timeslot) error {
	return r.db.Exec(ctx, upsertSQL, t.SeatID, t.Start, t.End, t.Status, t.ClassName, t.Checksum, t.CapturedAt)
}

// UpsertTx upserts one slot inside a caller-owned transaction.
func UpsertTx(ctx context.Context, tx pgx.Tx, t Timeslot) error {
	_, err := tx.Exec(ctx, upsertSQL, t.SeatID, t.Start, t.End, t.Status, t.ClassName, t.Checksum, t.CapturedAt)
	return err
}

// PurgeBefore drops every slot starting before cutoff (retention sweep).
// Returns the number of rows removed.
func (r *Repo) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.db.ExecRows(ctx, `DELETE FROM timeslots WHERE start_at < $1`, cutoff)
}
