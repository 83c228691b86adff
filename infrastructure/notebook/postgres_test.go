package notebook

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osintgraph/domain/core/valueobjects"
)

// fakeRow is a scripted pgx.Row: Scan copies fixed values into dest, or
// returns a fixed error (e.g. pgx.ErrNoRows).
type fakeRow struct {
	canvas  []byte
	version int
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.canvas
	*(dest[1].(*int)) = r.version
	return nil
}

// fakeExecutor scripts QueryRow/Exec against a single in-memory row, enough
// to exercise Store's GetOrCreate/Save control flow without a real
// Postgres connection.
type fakeExecutor struct {
	hasRow  bool
	canvas  []byte
	version int

	execErr error
}

func (f *fakeExecutor) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	if !f.hasRow {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{canvas: f.canvas, version: f.version}
}

func (f *fakeExecutor) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	// The INSERT ... ON CONFLICT DO NOTHING path (GetOrCreate's first write)
	// always "succeeds" and seeds the row so the store's re-read finds it.
	if !f.hasRow {
		f.hasRow = true
		f.canvas = args[1].([]byte)
		f.version = 1
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	// The UPDATE ... WHERE version = $expected path (Save).
	newVersion := args[1].(int)
	expected := args[3].(int)
	if f.version != expected {
		return pgconn.NewCommandTag("UPDATE 0"), nil
	}
	f.canvas = args[0].([]byte)
	f.version = newVersion
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func TestGetOrCreateReturnsExistingRow(t *testing.T) {
	exec := &fakeExecutor{hasRow: true, canvas: []byte(`{"nodes":[]}`), version: 3}
	store := &Store{pool: exec}

	canvas, version, err := store.GetOrCreate(context.Background(), valueobjects.NewInvestigationID())
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"nodes":[]}`), canvas)
	assert.Equal(t, 3, version)
}

func TestGetOrCreateSeedsEmptyCanvasWhenAbsent(t *testing.T) {
	exec := &fakeExecutor{}
	store := &Store{pool: exec}

	canvas, version, err := store.GetOrCreate(context.Background(), valueobjects.NewInvestigationID())
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Contains(t, string(canvas), `"nodes":[]`)
}

func TestSaveSucceedsWhenVersionMatches(t *testing.T) {
	exec := &fakeExecutor{hasRow: true, canvas: []byte(`{"nodes":[]}`), version: 1}
	store := &Store{pool: exec}

	newVersion, err := store.Save(context.Background(), valueobjects.NewInvestigationID(), 1, []byte(`{"nodes":["a"]}`))
	require.NoError(t, err)
	assert.Equal(t, 2, newVersion)
}

func TestSaveReturnsConflictWhenVersionStale(t *testing.T) {
	exec := &fakeExecutor{hasRow: true, canvas: []byte(`{"nodes":[]}`), version: 5}
	store := &Store{pool: exec}

	_, err := store.Save(context.Background(), valueobjects.NewInvestigationID(), 1, []byte(`{"nodes":["a"]}`))
	require.Error(t, err)
}
