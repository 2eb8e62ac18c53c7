// Package postgres holds the durable state of the pipeline: the article
// dedup ledger, the company directory and the intent profiles. All three
// must survive restarts: losing the ledger would reintroduce duplicate
// processing on the next crawl.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS articles (
	fingerprint TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL,
	published_at TIMESTAMPTZ NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	companies JSONB NOT NULL DEFAULT '[]'::jsonb,
	fetched_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_published_at ON articles(published_at);

CREATE TABLE IF NOT EXISTS companies (
	id TEXT PRIMARY KEY,
	canonical_name TEXT NOT NULL UNIQUE,
	aliases JSONB NOT NULL DEFAULT '[]'::jsonb,
	ticker TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	company_id TEXT PRIMARY KEY,
	aggregate_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS profile_signals (
	id BIGSERIAL PRIMARY KEY,
	company_id TEXT NOT NULL,
	article_fingerprint TEXT NOT NULL,
	signal_type TEXT NOT NULL,
	strength DOUBLE PRECISION NOT NULL,
	detected_at TIMESTAMPTZ NOT NULL,
	UNIQUE (company_id, article_fingerprint, signal_type)
);

CREATE INDEX IF NOT EXISTS idx_profile_signals_company ON profile_signals(company_id, detected_at, id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
