// Package notebook implements the investigation notebook store:
// optimistic-concurrency canvas persistence backed by Postgres via
// jackc/pgx. Migrate runs idempotent inline DDL rather than relying on a
// separate migration-file tool.
package notebook

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"osintgraph/domain/core/valueobjects"
	apperrors "osintgraph/pkg/errors"
)

// pgExecutor is the narrow slice of *pgxpool.Pool this store needs,
// pulled out as an interface so tests can substitute a hand-written fake
// instead of a generated-mock library, matching internal/testfakes'
// in-memory-fake convention.
type pgExecutor interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const ddlNotebooks = `
CREATE TABLE IF NOT EXISTS investigation_notebooks (
    investigation_id TEXT        PRIMARY KEY,
    canvas_doc       JSONB        NOT NULL DEFAULT '{}',
    version          INTEGER      NOT NULL DEFAULT 1,
    created_at       TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at       TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

// Migrate creates the notebook table if absent. Idempotent; safe on every
// application start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlNotebooks); err != nil {
		return fmt.Errorf("notebook migrate: %w", err)
	}
	return nil
}

// Store is the Postgres-backed ports.NotebookStore adapter. One row per
// investigation in investigation_notebooks, CAS'd on version.
type Store struct {
	pool pgExecutor
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetOrCreate returns the current canvas document and version, inserting an
// empty canvas (version 1) the first time an investigation is opened.
func (s *Store) GetOrCreate(ctx context.Context, inv valueobjects.InvestigationID) ([]byte, int, error) {
	var canvas []byte
	var version int
	err := s.pool.QueryRow(ctx,
		`SELECT canvas_doc, version FROM investigation_notebooks WHERE investigation_id = $1`,
		inv.String(),
	).Scan(&canvas, &version)
	if err == nil {
		return canvas, version, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, err
	}

	empty := []byte(`{"nodes":[],"edges":[],"viewport":{"x":0,"y":0,"zoom":1}}`)
	_, err = s.pool.Exec(ctx,
		`INSERT INTO investigation_notebooks (investigation_id, canvas_doc, version)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (investigation_id) DO NOTHING`,
		inv.String(), empty,
	)
	if err != nil {
		return nil, 0, err
	}
	return s.GetOrCreate(ctx, inv) // re-read: another request may have won the insert race
}

// Save writes canvasDoc conditioned on expectedVersion matching the stored
// version (P6's optimistic-concurrency guarantee), returning the new
// version on success or a ConflictError on mismatch.
func (s *Store) Save(ctx context.Context, inv valueobjects.InvestigationID, expectedVersion int, canvasDoc []byte) (int, error) {
	newVersion := expectedVersion + 1
	tag, err := s.pool.Exec(ctx,
		`UPDATE investigation_notebooks
		 SET canvas_doc = $1, version = $2, updated_at = now()
		 WHERE investigation_id = $3 AND version = $4`,
		canvasDoc, newVersion, inv.String(), expectedVersion,
	)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, apperrors.Conflict("notebook version mismatch: expected version is stale")
	}
	return newVersion, nil
}
