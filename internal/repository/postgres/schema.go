package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CreateSchema creates all tables and indexes for the given prefix.
// Idempotent; used by cmd/seed.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, embeddingDims int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			language_code TEXT NOT NULL,
			version BIGINT NOT NULL DEFAULT 1,
			workflow_state TEXT NOT NULL DEFAULT 'draft',
			snapshot_id UUID,
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, tables.Documents),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			position INT NOT NULL,
			heading TEXT,
			body TEXT NOT NULL,
			language_code TEXT NOT NULL,
			embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (document_id, language_code, position)
		)`, tables.Paragraphs, tables.Documents, embeddingDims),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			version BIGINT NOT NULL,
			state TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			language_code TEXT NOT NULL,
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (document_id, version)
		)`, tables.Snapshots, tables.Documents),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			actor_id TEXT NOT NULL,
			action TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			snapshot_id UUID,
			diff_summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, tables.AuditEvents, tables.Documents),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			status TEXT NOT NULL,
			summary TEXT NOT NULL,
			reviewers TEXT[] NOT NULL,
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, tables.Reviews, tables.Documents),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			review_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			author_id TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, tables.ReviewComments, tables.Reviews),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			seq BIGSERIAL PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			payload BYTEA NOT NULL,
			hash TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (document_id, hash)
		)`, tables.CollabUpdates, tables.Documents),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			document_id UUID PRIMARY KEY REFERENCES %s(id) ON DELETE CASCADE,
			payload BYTEA NOT NULL,
			up_to_seq BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, tables.CollabSnapshots, tables.Documents),

		// Lexical index: expression index over the weighted vector used by
		// LexicalSearch. 'simple' keeps it language-agnostic; per-language
		// queries still rank with the right stemmer at query time.
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_fts_idx ON %s
			USING GIN ((setweight(to_tsvector('simple', coalesce(heading, '')), 'A') || setweight(to_tsvector('simple', body), 'B')))`,
			tables.Paragraphs, tables.Paragraphs),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s
			USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
			tables.Paragraphs, tables.Paragraphs),

		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_document_idx ON %s (document_id, created_at DESC)`,
			tables.AuditEvents, tables.AuditEvents),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	return nil
}

// DropSchema drops all tables for the given prefix. Used by cmd/seed for
// dev/test resets; the caller refuses to run this in prod.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	// Reverse dependency order
	names := []string{
		tables.CollabSnapshots,
		tables.CollabUpdates,
		tables.ReviewComments,
		tables.Reviews,
		tables.AuditEvents,
		tables.Snapshots,
		tables.Paragraphs,
		tables.Documents,
	}

	for _, name := range names {
		if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, name)); err != nil {
			return fmt.Errorf("drop table %s: %w", name, err)
		}
	}

	return nil
}
