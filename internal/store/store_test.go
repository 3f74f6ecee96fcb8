package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestStore opens a fresh store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)

		var count int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM calls").Scan(&count))
		require.NoError(t, s.Close())
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	assert.NoError(t, (&Store{}).Close(), "nil db")

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	assert.NoError(t, s.Close())
	_ = s.Close()
}

func TestDB_ReturnsUnderlyingConnection(t *testing.T) {
	s := createTestStore(t)
	require.NotNil(t, s.DB())
	assert.NoError(t, s.DB().Ping())
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"synchronous":  "1", // NORMAL
		"busy_timeout": "5000",
		"foreign_keys": "1",
	} {
		assert.NoError(t, s.verifyPragma(name, want))
	}
}

func TestSchema_CallsTable(t *testing.T) {
	s := createTestStore(t)

	assert.Equal(t, []string{
		"id", "seq", "entry_point", "args", "result_type", "fingerprint",
		"outcome", "error", "engine_version", "ir_version",
	}, getTableColumns(t, s.db, "calls"))

	indexes := getTableIndexes(t, s.db, "calls")
	for _, idx := range []string{"idx_calls_seq", "idx_calls_entry_point", "idx_calls_outcome"} {
		assert.True(t, slices.Contains(indexes, idx), "missing index %s in %v", idx, indexes)
	}
}

func TestMigration_SchemaVersion(t *testing.T) {
	s := createTestStore(t)

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, len(migrations), version)
}

func TestMigration_UpgradeFromV0(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	// A database created before the outcome index existed.
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(schemaSQL)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 0")
	require.NoError(t, err)
	assert.False(t, slices.Contains(getTableIndexes(t, db, "calls"), "idx_calls_outcome"))
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, len(migrations), version)
	assert.True(t, slices.Contains(getTableIndexes(t, s.db, "calls"), "idx_calls_outcome"))
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(migrations)+1))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestOpen_ReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteCall(ctx, testCall("call-1", 1, "relax.Var", "ok")))
	require.NoError(t, w.Close())

	r, err := Open(path, ReadOnly())
	require.NoError(t, err)
	defer r.Close()

	calls, err := r.ListCalls(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "call-1", calls[0].ID)

	assert.Error(t, r.WriteCall(ctx, testCall("call-2", 2, "relax.Var", "ok")))
}

func TestOpen_ReadOnlyMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := Open(path, ReadOnly())
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "read-only open must not create the file")
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	require.NoError(t, err)
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid          int
			name, ctype  string
			notnull, pk  int
			defaultValue any
		)
		require.NoError(t, rows.Scan(&cid, &name, &ctype, &notnull, &defaultValue, &pk))
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	require.NoError(t, err)
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		indexes = append(indexes, name)
	}
	return indexes
}
