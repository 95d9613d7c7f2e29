package ingest

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/example/seatsniper/internal/db"
	"github.com/example/seatsniper/internal/seats"
	"github.com/example/seatsniper/internal/slots"
)

// PGSink implements Sink on the shared database.
type PGSink struct{ DB *db.DB }

func (s PGSink) BeginBatch(ctx context.Context) (Batch, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgBatch{tx: tx}, nil
}

type pgBatch struct{ tx pgx.Tx }

func (b pgBatch) UpsertSeat(ctx context.Context, s seats.Seat) error {
	return seats.UpsertTx(ctx, b.tx, s)
}

func (b pgBatch) UpsertSlot(ctx context.Context, t slots.Timeslot) error {
	return slots.UpsertTx(ctx, b.tx, t)
}

func (b pgBatch) Commit(ctx context.Context) error   { return b.tx.Commit(ctx) }
func (b pgBatch) Rollback(ctx context.Context) error { return b.tx.Rollback(ctx) }
