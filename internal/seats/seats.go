package seats

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/example/seatsniper/internal/db"
)

// Seat is a bookable physical location. Name and power flag may be
// unknown until metadata has been scraped; they are never overwritten
// with an absence once known.
type Seat struct {
	ID    int64
	URL   string
	Name  *string
	Power *bool // nil = unknown
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

const upsertSQL = `
INSERT INTO seats(seat_id, seat_url, seat_name, power_available)
VALUES ($1,$2,$3,$4)
ON CONFLICT (seat_id) DO UPDATE SET
  seat_url = EXCLUDED.seat_url,
  seat_name = COALESCE(EXCLUDED.seat_name, seats.seat_name),
  power_available = COALESCE(EXCLUDED.power_available, seats.power_available)`

// Upsert inserts or refreshes a seat. NULL name/power coalesce against
// the stored value, so a failed metadata scrape never erases a known one.
func (r *Repo) Upsert(ctx context.Context, s Seat) error {
	return r.db.Exec(ctx, upsertSQL, s.ID, s.URL, s.Name, s.Power)
}

// UpsertTx is Upsert inside a caller-owned transaction (ingestion batches).
func UpsertTx(ctx context.Context, tx pgx.Tx, s Seat) error {
	_, err := tx.Exec(ctx, upsertSQL, s.ID, s.URL, s.Name, s.Power)
	return err
}

func (r *Repo) AllIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT seat_id FROM seats ORDER BY seat_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM seats`).Scan(&n)
	return n, err
}
