package availability

import (
	"context"
	"time"

	"github.com/example/seatsniper/internal/db"
)

// Seat is one fully-available result row.
type Seat struct {
	ID    int64
	URL   string
	Name  *string
	Power *bool
}

type Engine struct{ db *db.DB }

func NewEngine(d *db.DB) *Engine { return &Engine{db: d} }

// The expected grid is derived from the data, not a calendar: N is the
// number of distinct slot boundaries any seat has inside the interval. A
// seat qualifies iff its AVAILABLE count K equals N, and N > 0: an
// interval with no known slots yields no results, never "all seats".
const fullyAvailableSQL = `
WITH interval_slots AS (
  SELECT start_at, end_at
  FROM timeslots
  WHERE start_at >= $1 AND end_at <= $2
  GROUP BY start_at, end_at
),
needed AS (
  SELECT COUNT(*) AS n FROM interval_slots
),
per_seat AS (
  SELECT seat_id, COUNT(*) AS k
  FROM timeslots
  WHERE status = 'AVAILABLE'
    AND start_at >= $1 AND end_at <= $2
  GROUP BY seat_id
)
SELECT s.seat_id, s.seat_url, s.seat_name, s.power_available
FROM per_seat p
CROSS JOIN needed n
JOIN seats s ON s.seat_id = p.seat_id
WHERE p.k = n.n AND n.n > 0
ORDER BY (s.seat_name IS NULL), s.seat_name, s.seat_id`

// FullyAvailable returns the seats whose every slot inside [start, end]
// is AVAILABLE, named seats first, then by name, then by id.
func (e *Engine) FullyAvailable(ctx context.Context, start, end time.Time) ([]Seat, error) {
	rows, err := e.db.Query(ctx, fullyAvailableSQL, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Seat
	for rows.Next() {
		var s Seat
		if err := rows.Scan(&s.ID, &s.URL, &s.Name, &s.Power); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
