package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// Call is one journal row.
type Call struct {
	ID            string   `json:"id"`
	Seq           int64    `json:"seq"`
	EntryPoint    string   `json:"entry_point"`
	Args          []string `json:"args"`
	ResultType    string   `json:"result_type,omitempty"`
	Fingerprint   string   `json:"fingerprint,omitempty"`
	Outcome       string   `json:"outcome"`
	Error         string   `json:"error,omitempty"`
	EngineVersion string   `json:"engine_version"`
	IRVersion     string   `json:"ir_version"`
}

// Filter narrows ListCalls. Zero fields match everything.
type Filter struct {
	EntryPoint string
	Outcome    string

	// Limit keeps only the most recent Limit calls. Zero means no limit.
	Limit int
}

// WriteCall appends a call.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
func (s *Store) WriteCall(ctx context.Context, c Call) error {
	argsJSON, err := marshalArgs(c.Args)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calls
		(id, seq, entry_point, args, result_type, fingerprint, outcome, error, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		c.ID,
		c.Seq,
		c.EntryPoint,
		argsJSON,
		c.ResultType,
		c.Fingerprint,
		c.Outcome,
		c.Error,
		c.EngineVersion,
		c.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write call: %w", err)
	}
	return nil
}

const callColumns = `id, seq, entry_point, args, result_type, fingerprint, outcome, error, engine_version, ir_version`

// ListCalls returns the calls matching f, ordered by seq ASC, id ASC COLLATE BINARY.
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ListCalls(ctx context.Context, f Filter) ([]Call, error) {
	var (
		where []string
		args  []any
	)
	if f.EntryPoint != "" {
		where = append(where, "entry_point = ?")
		args = append(args, f.EntryPoint)
	}
	if f.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, f.Outcome)
	}

	query := "SELECT " + callColumns + " FROM calls"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Limit > 0 {
		query = "SELECT " + callColumns + " FROM (" + query +
			" ORDER BY seq DESC, id COLLATE BINARY DESC LIMIT ?)"
		args = append(args, f.Limit)
	}
	query += " ORDER BY seq ASC, id COLLATE BINARY ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	calls := []Call{}
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return calls, nil
}

// ReadCall retrieves a single call by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCall(ctx context.Context, id string) (Call, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+callColumns+" FROM calls WHERE id = ?", id)
	return scanCall(row)
}

// CountByOutcome returns the number of calls per outcome.
func (s *Store) CountByOutcome(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*)
		FROM calls
		GROUP BY outcome
		ORDER BY outcome
	`)
	if err != nil {
		return nil, fmt.Errorf("count calls: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[outcome] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// MaxSeq returns the highest recorded seq, or 0 for an empty journal.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM calls").Scan(&seq); err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCall(row scanner) (Call, error) {
	var (
		c        Call
		argsJSON string
	)
	err := row.Scan(
		&c.ID,
		&c.Seq,
		&c.EntryPoint,
		&argsJSON,
		&c.ResultType,
		&c.Fingerprint,
		&c.Outcome,
		&c.Error,
		&c.EngineVersion,
		&c.IRVersion,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return Call{}, err
		}
		return Call{}, fmt.Errorf("scan call: %w", err)
	}
	if c.Args, err = unmarshalArgs(argsJSON); err != nil {
		return Call{}, err
	}
	return c, nil
}

// marshalArgs encodes argument renderings as a JSON array.
// HTML escaping is disabled so renderings like "<unknown>" stay readable.
func marshalArgs(args []string) (string, error) {
	if args == nil {
		args = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(args); err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

func unmarshalArgs(data string) ([]string, error) {
	args := []string{}
	if data == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(data), &args); err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	return args, nil
}
