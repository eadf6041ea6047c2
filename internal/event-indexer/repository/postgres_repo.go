package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/radieske/stake-predict-platform/pkg/contracts/events"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS prediction_event_log (
		event_id      UUID PRIMARY KEY,
		type          TEXT NOT NULL,
		prediction_id BIGINT NOT NULL,
		height        BIGINT NOT NULL,
		ts            TIMESTAMPTZ NOT NULL,
		payload       JSONB NOT NULL,
		indexed_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS prediction_event_log_prediction_idx
		ON prediction_event_log(prediction_id, height)`,
}

// PostgresRepo guarda o log append-only de eventos do engine
type PostgresRepo struct {
	DB *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate event log: %w", err)
		}
	}
	return nil
}

// Append grava o envelope uma única vez; inserted=false indica redelivery
func (r *PostgresRepo) Append(ctx context.Context, e events.Envelope) (inserted bool, err error) {
	const q = `
		INSERT INTO prediction_event_log
		  (event_id, type, prediction_id, height, ts, payload)
		VALUES
		  ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (event_id) DO NOTHING
	`
	res, err := r.DB.ExecContext(ctx, q,
		e.EventID, string(e.Type), int64(e.PredictionID), int64(e.Height), e.Ts, []byte(e.Payload),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
