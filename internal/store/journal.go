package store

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/roach88/relaxir/internal/bridge"
	"github.com/roach88/relaxir/internal/ir"
)

// Journal records bridge calls into a Store. It implements bridge.Recorder.
type Journal struct {
	store  *Store
	ids    IDGenerator
	seq    Sequencer
	logger *slog.Logger

	failures atomic.Int64
}

var _ bridge.Recorder = (*Journal)(nil)

// JournalOption configures a Journal.
type JournalOption func(*Journal)

// WithIDGenerator sets the row ID source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) JournalOption {
	return func(j *Journal) {
		j.ids = g
	}
}

// WithSequencer sets the seq source. Default: a Clock resuming after the
// highest seq already in the store.
func WithSequencer(s Sequencer) JournalOption {
	return func(j *Journal) {
		j.seq = s
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) JournalOption {
	return func(j *Journal) {
		j.logger = l
	}
}

// NewJournal creates a journal over s.
func NewJournal(ctx context.Context, s *Store, opts ...JournalOption) (*Journal, error) {
	j := &Journal{
		store:  s,
		ids:    UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.seq == nil {
		last, err := s.MaxSeq(ctx)
		if err != nil {
			return nil, err
		}
		j.seq = NewClockAt(last)
	}
	return j, nil
}

// Record appends rec. A failed write is logged and counted, not returned.
func (j *Journal) Record(rec bridge.CallRecord) {
	c := Call{
		ID:            j.ids.Generate(),
		Seq:           j.seq.Next(),
		EntryPoint:    rec.EntryPoint,
		Args:          rec.Args,
		ResultType:    rec.ResultType,
		Fingerprint:   rec.Fingerprint,
		Outcome:       string(rec.Outcome),
		Error:         rec.Error,
		EngineVersion: ir.Version,
		IRVersion:     ir.CanonicalVersion,
	}
	if err := j.store.WriteCall(context.Background(), c); err != nil {
		j.failures.Add(1)
		j.logger.Error("journal write failed",
			"entry_point", rec.EntryPoint,
			"seq", c.Seq,
			"error", err)
		return
	}
	j.logger.Debug("call journaled", "entry_point", rec.EntryPoint, "seq", c.Seq, "outcome", c.Outcome)
}

// Failures returns the number of calls that could not be written.
func (j *Journal) Failures() int64 {
	return j.failures.Load()
}
