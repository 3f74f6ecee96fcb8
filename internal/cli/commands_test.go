package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/relaxir/internal/bridge"
	"github.com/roach88/relaxir/internal/ir"
	"github.com/roach88/relaxir/internal/runtime"
	"github.com/roach88/relaxir/internal/schema"
	"github.com/roach88/relaxir/internal/store"
)

const scenarioDir = "../../testdata/scenarios"

// execute runs a fresh root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), out)
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}

func TestKindsCommand_Text(t *testing.T) {
	out, _, err := execute(t, "kinds")
	require.NoError(t, err)

	assert.Regexp(t, `(?m)^KEY\s+PARENT\s+DEPTH$`, out)
	assert.Regexp(t, `(?m)^runtime\.Object\s+-\s+0$`, out)
	assert.Regexp(t, `(?m)^relax\.expr\.DataflowVar\s+relax\.expr\.Var\s+\d+$`, out)
}

func TestKindsCommand_JSONUnder(t *testing.T) {
	out, _, err := execute(t, "kinds", "--under", ir.VarKey, "--format", "json")
	require.NoError(t, err)

	var kinds []KindInfo
	resp := decodeResponse(t, out, &kinds)
	assert.Equal(t, "ok", resp.Status)

	keys := make([]string, len(kinds))
	for i, k := range kinds {
		keys[i] = k.Key
	}
	assert.Equal(t, []string{ir.VarKey, ir.DataflowVarKey}, keys)
	assert.Equal(t, kinds[0].Depth+1, kinds[1].Depth)
	assert.Equal(t, ir.VarKey, kinds[1].Parent)
}

func TestKindsCommand_AllKindsListed(t *testing.T) {
	out, _, err := execute(t, "kinds", "--format", "json")
	require.NoError(t, err)

	var kinds []KindInfo
	decodeResponse(t, out, &kinds)
	assert.Len(t, kinds, runtime.Types().Len())
}

func TestKindsCommand_UnknownKind(t *testing.T) {
	out, _, err := execute(t, "kinds", "--under", "relax.Missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_UNKNOWN_KIND]")
}

func TestSchemaCommand_EmbeddedMatches(t *testing.T) {
	out, _, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Registry matches nodes.cue")
}

func TestSchemaCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "schema", "--format", "json")
	require.NoError(t, err)

	var result SchemaResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)

	specs, err := schema.Load()
	require.NoError(t, err)
	assert.Equal(t, len(specs), result.Kinds)
}

func TestSchemaCommand_Print(t *testing.T) {
	out, _, err := execute(t, "schema", "--print")
	require.NoError(t, err)
	assert.Equal(t, string(schema.Source()), out)
}

func TestSchemaCommand_Mismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.cue")
	src := `
kinds: {
	"runtime.NDArray": {
		parent: "runtime.Object"
		fields: [
			{name: "shape", kind: "[]int64"},
			{name: "device", kind: "Device"},
			{name: "dtype", kind: "DataType"},
		]
	}
}
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	out, _, err := execute(t, "schema", "--file", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Registry does not match")
	assert.Contains(t, out, schema.ErrKindNotInSchema)
	assert.Contains(t, out, ir.VarKey)
}

func TestSchemaCommand_MismatchJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.cue")
	require.NoError(t, os.WriteFile(path, []byte("kinds: {}\n"), 0644))

	out, _, err := execute(t, "schema", "--file", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result SchemaResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	require.NotNil(t, resp.Error)
	assert.Equal(t, result.Errors[0].Code, resp.Error.Code)
}

func TestSchemaCommand_BadFile(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, _, err := execute(t, "schema", "--file", filepath.Join(t.TempDir(), "nope.cue"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("syntax", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.cue")
		require.NoError(t, os.WriteFile(path, []byte("kinds: {"), 0644))

		out, _, err := execute(t, "schema", "--file", path)
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "Error [E_SCHEMA]")
	})
}

func TestEntryPointsCommand(t *testing.T) {
	out, _, err := execute(t, "entrypoints")
	require.NoError(t, err)

	for _, ep := range bridge.EntryPoints {
		assert.Contains(t, out, ep.Signature()+"\n")
	}
}

func TestEntryPointsCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "entrypoints", "--format", "json")
	require.NoError(t, err)

	var eps []bridge.EntryPoint
	decodeResponse(t, out, &eps)
	assert.Equal(t, bridge.EntryPoints, eps)
}

func TestRunCommand_MissingArgs(t *testing.T) {
	cmd := NewRunCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestRunCommand_PathNotFound(t *testing.T) {
	_, _, err := execute(t, "run", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario path not found")
}

func TestRunCommand_EmptyDir(t *testing.T) {
	out, _, err := execute(t, "run", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestRunCommand_AllScenariosPass(t *testing.T) {
	files, err := findScenarioFiles(scenarioDir, "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	out, _, err := execute(t, "run", scenarioDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ call_errors\n")
	assert.Contains(t, out, "✓ dataflow_function\n")
	assert.Contains(t, out, "Summary: 7 passed, 0 failed, 7 total")
	assert.Contains(t, out, "All scenarios passed")
}

func TestRunCommand_VerboseTrace(t *testing.T) {
	out, _, err := execute(t, "run", filepath.Join(scenarioDir, "call_errors.yaml"), "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "    1 x = relax.Var -> relax.expr.Var\n")
	assert.Contains(t, out, "    3 relax.TupleGetItem !engine_error\n")
}

func TestRunCommand_Filter(t *testing.T) {
	out, _, err := execute(t, "run", scenarioDir, "--filter", "call_*", "--format", "json")
	require.NoError(t, err)

	var result RunResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Passed)

	names := []string{result.Scenarios[0].Name, result.Scenarios[1].Name}
	assert.ElementsMatch(t, []string{"call_errors", "call_op_identity"}, names)
}

func TestRunCommand_Failure(t *testing.T) {
	dir := t.TempDir()
	src := `
name: wrong_kind
description: "a Var is not a Call"
steps:
  - bind: x
    call: relax.Var
    args: { name_hint: x }
assertions:
  - type: is_a
    ref: x
    kind: relax.expr.Call
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong_kind.yaml"), []byte(src), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [\n"), 0644))

	out, _, err := execute(t, "run", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_kind\n")
	assert.Contains(t, out, "Assertion failed: is_a")
	assert.Contains(t, out, "✗ broken.yaml\n")
	assert.Contains(t, out, "Summary: 0 passed, 2 failed, 2 total")
}

func TestRunCommand_FailureJSON(t *testing.T) {
	dir := t.TempDir()
	src := `
name: unexpected
description: "the call fails but no error is expected"
steps:
  - call: relax.Missing
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unexpected.yaml"), []byte(src), 0644))

	out, _, err := execute(t, "run", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result RunResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_SCENARIO_FAILED", resp.Error.Code)
	require.Len(t, result.Scenarios, 1)
	assert.False(t, result.Scenarios[0].Pass)
	require.Len(t, result.Scenarios[0].Trace, 1)
	assert.Equal(t, bridge.OutcomeArgumentError, result.Scenarios[0].Trace[0].Outcome)
}

func TestRunAndJournal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "calls.db")

	_, _, err := execute(t, "run", filepath.Join(scenarioDir, "call_errors.yaml"), "--journal", db)
	require.NoError(t, err)

	t.Run("text", func(t *testing.T) {
		out, _, err := execute(t, "journal", db)
		require.NoError(t, err)
		assert.Regexp(t, `(?m)^SEQ\s+ID\s+ENTRY POINT\s+OUTCOME\s+RESULT$`, out)
		assert.Regexp(t, `(?m)^1\s+\S+\s+relax\.Var\s+ok\s+relax\.expr\.Var$`, out)
		assert.Regexp(t, `(?m)^3\s+\S+\s+relax\.TupleGetItem\s+engine_error\s+-$`, out)
		assert.Contains(t, out, "argument_error: 2\nengine_error: 1\nok: 1\n")
	})

	t.Run("filtered json", func(t *testing.T) {
		out, _, err := execute(t, "journal", db, "--outcome", "argument_error", "--format", "json")
		require.NoError(t, err)

		var result JournalResult
		resp := decodeResponse(t, out, &result)
		assert.Equal(t, "ok", resp.Status)
		require.Len(t, result.Calls, 2)
		for _, c := range result.Calls {
			assert.Equal(t, "argument_error", c.Outcome)
			assert.Equal(t, ir.Version, c.EngineVersion)
		}
		assert.Equal(t, map[string]int{"ok": 1, "argument_error": 2, "engine_error": 1}, result.Counts)
	})

	t.Run("limit", func(t *testing.T) {
		out, _, err := execute(t, "journal", db, "--limit", "1", "--format", "json")
		require.NoError(t, err)

		var result JournalResult
		decodeResponse(t, out, &result)
		require.Len(t, result.Calls, 1)
		assert.Equal(t, int64(4), result.Calls[0].Seq)
	})

	t.Run("second run appends", func(t *testing.T) {
		_, _, err := execute(t, "run", filepath.Join(scenarioDir, "var_name_hint.yaml"), "--journal", db)
		require.NoError(t, err)

		st, err := store.Open(db)
		require.NoError(t, err)
		defer st.Close()
		maxSeq, err := st.MaxSeq(t.Context())
		require.NoError(t, err)
		assert.Greater(t, maxSeq, int64(4))
	})
}

func TestJournalCommand_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	out, _, err := execute(t, "journal", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_NOT_FOUND]")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "journal must not create the database")
}

func TestJournalCommand_NegativeLimit(t *testing.T) {
	_, _, err := execute(t, "journal", "x.db", "--limit", "-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestJournalCommand_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "journal", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No calls recorded.")
}
