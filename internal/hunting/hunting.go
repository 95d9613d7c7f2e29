package hunting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/seatsniper/internal/config"
	"github.com/example/seatsniper/internal/db"
	"github.com/example/seatsniper/internal/snipe"
)

// Payload is the typed hunting request. It is serialized to JSON only at
// the persistence boundary.
type Payload struct {
	Start   time.Time      `json:"start"`
	End     time.Time      `json:"end"`
	Filter  snipe.Filter   `json:"filter"`
	Profile config.Profile `json:"profile"`
}

func (p Payload) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("hunting payload must include start and end timestamps")
	}
	if !p.End.After(p.Start) {
		return fmt.Errorf("hunting end must be after start")
	}
	return nil
}

// State is the single global hunting session. One row exists for the
// lifetime of the system; it is overwritten, never appended, which is
// what enforces "at most one active hunt".
type State struct {
	Active    bool
	Payload   Payload
	CreatedAt *time.Time
	LastRunAt *time.Time
	StoppedAt *time.Time
	Booked    *snipe.Booking
	Error     *string
}

// Store is the persistence contract for the singleton row. Every method
// is a single atomic write against it.
type Store interface {
	Get(ctx context.Context) (State, error)
	Activate(ctx context.Context, p Payload, at time.Time) error
	Deactivate(ctx context.Context, at time.Time, reason string) error
	RecordRun(ctx context.Context, at time.Time) error
	RecordBooked(ctx context.Context, at time.Time, b snipe.Booking) error
	RecordError(ctx context.Context, msg string) error
}

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Get(ctx context.Context) (State, error) {
	var (
		st          State
		payloadJSON []byte
		bookedJSON  []byte
	)
	err := r.db.QueryRow(ctx, `
SELECT active, payload, created_at, last_run_at, stopped_at, booked, error
FROM hunting_state WHERE id=1`).
		Scan(&st.Active, &payloadJSON, &st.CreatedAt, &st.LastRunAt, &st.StoppedAt, &bookedJSON, &st.Error)
	if err != nil {
		return State{}, db.WrapNotFound(err)
	}
	if len(payloadJSON) > 0 {
		if err := json.Unmarshal(payloadJSON, &st.Payload); err != nil {
			return State{}, fmt.Errorf("hunting payload corrupt: %w", err)
		}
	}
	if len(bookedJSON) > 0 {
		var b snipe.Booking
		if err := json.Unmarshal(bookedJSON, &b); err != nil {
			return State{}, fmt.Errorf("hunting booked record corrupt: %w", err)
		}
		st.Booked = &b
	}
	return st, nil
}

// Activate overwrites the singleton: a new session discards all
// bookkeeping of any prior one.
func (r *Repo) Activate(ctx context.Context, p Payload, at time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}
	payloadJSON, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.db.Exec(ctx, `
UPDATE hunting_state
SET active=TRUE,
    payload=$1,
    created_at=$2,
    last_run_at=NULL,
    stopped_at=NULL,
    booked=NULL,
    error=NULL
WHERE id=1`, payloadJSON, at)
}

func (r *Repo) Deactivate(ctx context.Context, at time.Time, reason string) error {
	return r.db.Exec(ctx, `
UPDATE hunting_state
SET active=FALSE, stopped_at=$1, error=$2
WHERE id=1`, at, nullIfEmpty(reason))
}

func (r *Repo) RecordRun(ctx context.Context, at time.Time) error {
	return r.db.Exec(ctx, `UPDATE hunting_state SET last_run_at=$1 WHERE id=1`, at)
}

func (r *Repo) RecordBooked(ctx context.Context, at time.Time, b snipe.Booking) error {
	bookedJSON, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return r.db.Exec(ctx, `
UPDATE hunting_state
SET active=FALSE, stopped_at=$1, booked=$2, error=NULL
WHERE id=1`, at, bookedJSON)
}

func (r *Repo) RecordError(ctx context.Context, msg string) error {
	return r.db.Exec(ctx, `UPDATE hunting_state SET error=$1 WHERE id=1`, truncate(msg))
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

const maxErrorLen = 2000

func truncate(s string) string {
	if len(s) > maxErrorLen {
		return s[:maxErrorLen]
	}
	return s
}
