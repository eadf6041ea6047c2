package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Valores monetários são NUMERIC(39,0) (cabe 2^128-1).
// Outcome e resolved_height são nulos juntos.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS predictions (
		id              BIGINT PRIMARY KEY,
		creator         TEXT NOT NULL,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL,
		domain          TEXT NOT NULL,
		created_height  BIGINT NOT NULL,
		end_height      BIGINT NOT NULL,
		stake_yes_total NUMERIC(39,0) NOT NULL DEFAULT 0,
		stake_no_total  NUMERIC(39,0) NOT NULL DEFAULT 0,
		quality_score   SMALLINT NOT NULL,
		outcome         BOOLEAN,
		resolved_height BIGINT,
		CHECK ((outcome IS NULL) = (resolved_height IS NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS positions (
		participant   TEXT NOT NULL,
		prediction_id BIGINT NOT NULL REFERENCES predictions(id),
		stake_amount  NUMERIC(39,0) NOT NULL,
		side          BOOLEAN NOT NULL,
		claimed       BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (participant, prediction_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reputations (
		participant       TEXT PRIMARY KEY,
		predictions_count BIGINT NOT NULL,
		correct_count     BIGINT NOT NULL,
		total_staked      NUMERIC(39,0) NOT NULL,
		total_earned      NUMERIC(39,0) NOT NULL,
		score             INTEGER NOT NULL,
		CHECK (correct_count <= predictions_count)
	)`,
	`CREATE TABLE IF NOT EXISTS certifications (
		id             BIGINT PRIMARY KEY,
		prediction_id  BIGINT NOT NULL REFERENCES predictions(id),
		creator        TEXT NOT NULL,
		accuracy_score INTEGER NOT NULL,
		domain         TEXT NOT NULL,
		issued_height  BIGINT NOT NULL,
		uri            TEXT NOT NULL,
		UNIQUE (creator, prediction_id)
	)`,
	`CREATE TABLE IF NOT EXISTS curators (
		curator       TEXT PRIMARY KEY,
		verified      BOOLEAN NOT NULL,
		reviews_count BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS quality_reviews (
		curator       TEXT NOT NULL,
		prediction_id BIGINT NOT NULL REFERENCES predictions(id),
		score         SMALLINT NOT NULL CHECK (score BETWEEN 0 AND 100),
		PRIMARY KEY (curator, prediction_id)
	)`,
	`CREATE TABLE IF NOT EXISTS quality_tallies (
		prediction_id BIGINT PRIMARY KEY REFERENCES predictions(id),
		reviews_count BIGINT NOT NULL,
		score_sum     BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS platform_state (
		id          SMALLINT PRIMARY KEY CHECK (id = 1),
		initialized BOOLEAN NOT NULL,
		paused      BOOLEAN NOT NULL,
		treasury    NUMERIC(39,0) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sequences (
		name  TEXT PRIMARY KEY,
		value BIGINT NOT NULL
	)`,
	`INSERT INTO platform_state(id, initialized, paused, treasury) VALUES (1, FALSE, FALSE, 0) ON CONFLICT (id) DO NOTHING`,
	`INSERT INTO sequences(name, value) VALUES ('prediction', 0), ('certification', 0) ON CONFLICT (name) DO NOTHING`,
}

// Migrate cria as tabelas e a linha única de estado da plataforma
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
