package harness

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relaxir/internal/bridge"
	"github.com/roach88/relaxir/internal/store"
	"github.com/roach88/relaxir/internal/testutil"
)

func TestRunWithGolden_Scenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join(scenarioDir, "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, s, newTestBridge(t))
			require.NoError(t, err)
			assert.True(t, result.Pass, "failures: %v", result.Failures)
		})
	}
}

func TestRunWithGolden_Deterministic(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenarioDir, "dataflow_function.yaml"))
	require.NoError(t, err)

	first, err := Run(s, newTestBridge(t))
	require.NoError(t, err)
	second, err := Run(s, newTestBridge(t))
	require.NoError(t, err)

	assert.Equal(t, FormatTrace(first), FormatTrace(second))
	require.Equal(t, len(first.Trace), len(second.Trace))
	for i := range first.Trace {
		assert.Equal(t, first.Trace[i].Fingerprint, second.Trace[i].Fingerprint, "step %d", i+1)
	}
}

func TestFormatTrace_Failures(t *testing.T) {
	result := NewResult("broken")
	result.AddTrace(TraceEvent{Step: 1, Call: "relax.Var", Outcome: bridge.OutcomeArgumentError})
	result.AddFailure("step 1 (relax.Var): unexpected argument_error: boom")
	result.AddFailure("assertions[0]: Assertion failed: same\n  Expected: x\n")

	want := "scenario broken\n" +
		"1 relax.Var !argument_error\n" +
		"result fail\n" +
		"  step 1 (relax.Var): unexpected argument_error: boom\n" +
		"  assertions[0]: Assertion failed: same\n"
	assert.Equal(t, want, string(FormatTrace(result)))
}

func TestRun_WithJournal(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	j, err := store.NewJournal(ctx, st,
		store.WithIDGenerator(testutil.NewSequentialIDGenerator("call")),
		store.WithSequencer(testutil.NewDeterministicClock()),
		store.WithLogger(discard))
	require.NoError(t, err)

	s, err := LoadScenario(filepath.Join(scenarioDir, "call_errors.yaml"))
	require.NoError(t, err)
	result, err := Run(s, newTestBridge(t, bridge.WithRecorder(j)))
	require.NoError(t, err)
	require.True(t, result.Pass, "failures: %v", result.Failures)

	calls, err := st.ListCalls(ctx, store.Filter{})
	require.NoError(t, err)
	require.Len(t, calls, len(result.Trace))
	for i, c := range calls {
		assert.Equal(t, fmt.Sprintf("call-%04d", i+1), c.ID)
		assert.Equal(t, int64(i+1), c.Seq)
		assert.Equal(t, result.Trace[i].Call, c.EntryPoint)
		assert.Equal(t, string(result.Trace[i].Outcome), c.Outcome)
	}
	assert.Zero(t, j.Failures())

	counts, err := st.CountByOutcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"ok": 1, "argument_error": 2, "engine_error": 1}, counts)
}
