package status

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// Delivery outcome values written to the status table.
const (
	Delivered = "delivered"
	Failed    = "failed"
)

// execer is the subset of pgxpool.Pool the recorder needs. Each call
// acquires and releases its own pooled connection, so no connection or
// transaction spans more than one status write.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Recorder upserts one delivery status row per request identifier. The table
// holds only the latest known status per request, never a history: a second
// write for the same request_id overwrites the first. Concurrent writes for
// the same request_id are not ordered; last write wins.
type Recorder struct {
	db    execer
	table string
	log   zerolog.Logger
}

// NewRecorder creates a Recorder and lazily ensures the status table exists.
// Table creation is idempotent.
func NewRecorder(ctx context.Context, db execer, table string, log zerolog.Logger) (*Recorder, error) {
	if table == "" {
		table = "notification_statuses"
	}

	r := &Recorder{
		db:    db,
		table: pgx.Identifier{table}.Sanitize(),
		log:   log,
	}

	if err := r.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("ensure status table: %w", err)
	}
	log.Info().Str("table", table).Msg("status table ready")
	return r, nil
}

func (r *Recorder) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			request_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			provider TEXT,
			detail TEXT,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, r.table)

	_, err := r.db.Exec(ctx, query)
	return err
}

// Record upserts the status row for requestID. An empty requestID is a
// documented no-op, never an error. The detail pointer is nil on success
// writes and stored as NULL.
func (r *Recorder) Record(ctx context.Context, requestID, status, provider string, detail *string) error {
	if requestID == "" {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (request_id, status, provider, detail, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (request_id)
		DO UPDATE SET status = EXCLUDED.status,
		              provider = EXCLUDED.provider,
		              detail = EXCLUDED.detail,
		              updated_at = NOW()`, r.table)

	if _, err := r.db.Exec(ctx, query, requestID, status, provider, detail); err != nil {
		return fmt.Errorf("record status for %s: %w", requestID, err)
	}

	r.log.Debug().Str("request_id", requestID).Str("status", status).Msg("status recorded")
	return nil
}
