package checkins

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/seatsniper/internal/db"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// GraceOffset is added to the chosen check-in moment: the facility opens
// the check-in window at the slot start, not before.
const GraceOffset = 5 * time.Minute

const maxErrorLen = 2000

// Checkin is a one-shot deferred check-in. Rows are never deleted;
// cancellation is a status transition.
type Checkin struct {
	ID         int64
	RunAt      time.Time
	Code       string
	Status     Status
	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time
	Error      *string
}

type Repo struct {
	db *db.DB
	tz *time.Location
}

func NewRepo(d *db.DB, tz *time.Location) *Repo { return &Repo{db: d, tz: tz} }

// Schedule validates eagerly and inserts a pending check-in due at the
// chosen facility-local moment plus the grace offset.
func (r *Repo) Schedule(ctx context.Context, date, clock, code string) (int64, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, fmt.Errorf("check-in code is empty")
	}

	planned, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, r.tz)
	if err != nil {
		return 0, fmt.Errorf("invalid check-in date/time (want YYYY-MM-DD and HH:MM): %w", err)
	}
	runAt := planned.Add(GraceOffset)

	var id int64
	err = r.db.QueryRow(ctx, `
INSERT INTO scheduled_checkins(run_at, code, status)
VALUES ($1, $2, 'pending')
RETURNING id`, runAt, code).Scan(&id)
	return id, db.WrapNotFound(err)
}

const listColumns = `id, run_at, code, status, created_at, started_at, finished_at, error`

// List returns check-ins ordered by run_at, optionally filtered by status.
func (r *Repo) List(ctx context.Context, status string, limit int) ([]Checkin, error) {
	if limit < 1 {
		limit = 50
	}

	var (
		rows db.Rows
		err  error
	)
	if status == "" {
		rows, err = r.db.Query(ctx, `
SELECT `+listColumns+` FROM scheduled_checkins
ORDER BY run_at ASC
LIMIT $1`, limit)
	} else {
		rows, err = r.db.Query(ctx, `
SELECT `+listColumns+` FROM scheduled_checkins
WHERE status=$1
ORDER BY run_at ASC
LIMIT $2`, status, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Checkin
	for rows.Next() {
		var c Checkin
		if err := rows.Scan(&c.ID, &c.RunAt, &c.Code, &c.Status, &c.CreatedAt, &c.StartedAt, &c.FinishedAt, &c.Error); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Cancel succeeds only while the check-in is still pending; claimed or
// finished work cannot be cancelled.
func (r *Repo) Cancel(ctx context.Context, id int64) (bool, error) {
	n, err := r.db.ExecRows(ctx, `
UPDATE scheduled_checkins
SET status='cancelled', finished_at=now()
WHERE id=$1 AND status='pending'`, id)
	return n > 0, err
}

// DuePending returns pending check-ins due at now, earliest first.
func (r *Repo) DuePending(ctx context.Context, now time.Time, limit int) ([]Checkin, error) {
	rows, err := r.db.Query(ctx, `
SELECT `+listColumns+` FROM scheduled_checkins
WHERE status='pending' AND run_at <= $1
ORDER BY run_at ASC
LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Checkin
	for rows.Next() {
		var c Checkin
		if err := rows.Scan(&c.ID, &c.RunAt, &c.Code, &c.Status, &c.CreatedAt, &c.StartedAt, &c.FinishedAt, &c.Error); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Claim atomically moves one check-in pending → running. Zero affected
// rows means another tick got there first; the caller skips silently.
func (r *Repo) Claim(ctx context.Context, id int64, at time.Time) (bool, error) {
	n, err := r.db.ExecRows(ctx, `
UPDATE scheduled_checkins
SET status='running', started_at=$2
WHERE id=$1 AND status='pending'`, id, at)
	return n > 0, err
}

func (r *Repo) MarkDone(ctx context.Context, id int64, at time.Time) error {
	return r.db.Exec(ctx, `
UPDATE scheduled_checkins
SET status='done', finished_at=$2, error=NULL
WHERE id=$1`, id, at)
}

func (r *Repo) MarkFailed(ctx context.Context, id int64, at time.Time, msg string) error {
	return r.db.Exec(ctx, `
UPDATE scheduled_checkins
SET status='failed', finished_at=$2, error=$3
WHERE id=$1`, id, at, truncate(msg))
}

func truncate(s string) string {
	if len(s) > maxErrorLen {
		return s[:maxErrorLen]
	}
	return s
}
