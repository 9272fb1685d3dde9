// Package repository stores per-document pipeline status in PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/phonetic-search/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/phonetic-search/pkg/postgres"
	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	namespace  TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	status     TEXT        NOT NULL,
	error      TEXT,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	indexed_at TIMESTAMPTZ,
	PRIMARY KEY (namespace, id)
)`

const setStatusSQL = `
INSERT INTO documents (namespace, id, status, error, indexed_at)
VALUES ($1, $2, $3, $4, CASE WHEN $3::text = 'INDEXED' THEN NOW() END)
ON CONFLICT (namespace, id) DO UPDATE
SET status = EXCLUDED.status,
	error = EXCLUDED.error,
	updated_at = NOW(),
	indexed_at = COALESCE(EXCLUDED.indexed_at, documents.indexed_at)`

// Repository reads and writes the documents status table.
type Repository struct {
	db *postgres.Client
}

func New(db *postgres.Client) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the documents table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	return nil
}

// MarkMany upserts ids of namespace with status in one statement and clears
// any previous error.
func (r *Repository) MarkMany(ctx context.Context, namespace string, ids []string, status ingestion.Status) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.DB.ExecContext(ctx,
		`INSERT INTO documents (namespace, id, status)
		SELECT $1, unnest($2::text[]), $3
		ON CONFLICT (namespace, id) DO UPDATE
		SET status = EXCLUDED.status, error = NULL, updated_at = NOW()`,
		namespace, pq.Array(ids), string(status),
	)
	if err != nil {
		return fmt.Errorf("marking %d documents %s: %w", len(ids), status, err)
	}
	return nil
}

// FailMany marks ids FAILED with cause in one transaction.
func (r *Repository) FailMany(ctx context.Context, namespace string, ids []string, cause error) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, setStatusSQL)
		if err != nil {
			return fmt.Errorf("preparing status update: %w", err)
		}
		defer stmt.Close()
		var msg sql.NullString
		if cause != nil {
			msg = sql.NullString{String: cause.Error(), Valid: true}
		}
		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, namespace, id, string(ingestion.StatusFailed), msg); err != nil {
				return fmt.Errorf("failing document %s/%s: %w", namespace, id, err)
			}
		}
		return nil
	})
}

// SetStatus records the outcome of applying an event. cause is stored for
// FAILED and cleared otherwise; INDEXED also stamps indexed_at.
func (r *Repository) SetStatus(ctx context.Context, namespace, id string, status ingestion.Status, cause error) error {
	var msg sql.NullString
	if cause != nil {
		msg = sql.NullString{String: cause.Error(), Valid: true}
	}
	_, err := r.db.DB.ExecContext(ctx, setStatusSQL, namespace, id, string(status), msg)
	if err != nil {
		return fmt.Errorf("setting document %s/%s to %s: %w", namespace, id, status, err)
	}
	return nil
}

// Get returns the status record of one document.
func (r *Repository) Get(ctx context.Context, namespace, id string) (*ingestion.Record, error) {
	rec := ingestion.Record{Namespace: namespace, DocumentID: id}
	var (
		status    string
		msg       sql.NullString
		indexedAt sql.NullTime
	)
	err := r.db.DB.QueryRowContext(ctx,
		`SELECT status, error, updated_at, indexed_at FROM documents WHERE namespace = $1 AND id = $2`,
		namespace, id,
	).Scan(&status, &msg, &rec.UpdatedAt, &indexedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.ErrNotFound, 404, "document %s/%s not found", namespace, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying document %s/%s: %w", namespace, id, err)
	}
	rec.Status = ingestion.Status(status)
	rec.Error = msg.String
	if indexedAt.Valid {
		rec.IndexedAt = &indexedAt.Time
	}
	return &rec, nil
}
