package repo

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS credit_accounts (
		principal  TEXT PRIMARY KEY,
		balance    NUMERIC(39,0) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		version    BIGINT NOT NULL DEFAULT 1,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS credit_ledger (
		id             UUID PRIMARY KEY,
		principal      TEXT NOT NULL REFERENCES credit_accounts(principal),
		operation_type TEXT NOT NULL CHECK (operation_type IN ('MINT','DEBIT','CREDIT')),
		amount         NUMERIC(39,0) NOT NULL,
		counterparty   TEXT,
		external_ref   TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS credit_ledger_ref_uq
		ON credit_ledger(principal, operation_type, external_ref) WHERE external_ref IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS certification_tokens (
		id         BIGINT PRIMARY KEY,
		owner      TEXT NOT NULL,
		issued_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate cria as tabelas do ledger (idempotente)
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate credit ledger: %w", err)
		}
	}
	return nil
}
