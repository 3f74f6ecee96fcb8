package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relaxir/internal/bridge"
	"github.com/roach88/relaxir/internal/engine"
	"github.com/roach88/relaxir/internal/harness"
	"github.com/roach88/relaxir/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Journal string // SQLite journal path; empty disables recording
	Filter  string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string               `json:"name"`
	File   string               `json:"file"`
	Pass   bool                 `json:"pass"`
	Trace  []harness.TraceEvent `json:"trace,omitempty"`
	Errors []string             `json:"errors,omitempty"`
}

// RunResult holds the overall result.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml|dir>",
		Short: "Run construction scenarios against the local engine",
		Long: `Run one scenario file, or every .yaml/.yml scenario under a directory,
through the call bridge and the local engine. Each step's outcome and the
final assertions decide whether the scenario passes.

With --journal every bridge call is appended to a SQLite journal that the
journal command can list later.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unreadable journal, etc.)

Examples:
  relaxir run testdata/scenarios
  relaxir run testdata/scenarios/call_errors.yaml -v
  relaxir run testdata/scenarios --filter "call_*" --journal calls.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Journal, "journal", "", "record bridge calls into this SQLite database")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runScenarios(ctx context.Context, opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	info, err := os.Stat(path)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenario path not found: %s", path))
	}

	files := []string{path}
	if info.IsDir() {
		files, err = findScenarioFiles(path, opts.Filter)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
	}

	if len(files) == 0 {
		if opts.Format == "json" {
			return formatter.Success(RunResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	eng, err := engine.New(engine.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start engine", err)
	}

	bridgeOpts := []bridge.Option{bridge.WithLogger(logger)}
	if opts.Journal != "" {
		st, err := store.Open(opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer st.Close()

		j, err := store.NewJournal(ctx, st, store.WithLogger(logger))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer func() {
			if n := j.Failures(); n > 0 {
				logger.Warn("journal writes failed", "count", n)
			}
		}()
		bridgeOpts = append(bridgeOpts, bridge.WithRecorder(j))
		formatter.VerboseLog("Recording calls to %s", opts.Journal)
	}
	b := bridge.New(eng, bridgeOpts...)

	result := RunResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenario(file, b, opts, formatter.Writer, logger)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		if result.Failed > 0 {
			msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
			if err := formatter.Failure(result, "E_SCENARIO_FAILED", msg); err != nil {
				return err
			}
			return NewExitError(ExitFailure, msg)
		}
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}

// findScenarioFiles finds all YAML scenario files under dir, sorted by path.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runScenario loads and executes one scenario file. Text output is written
// as it goes; JSON output is left to the caller.
func runScenario(file string, b *bridge.Bridge, opts *RunOptions, w io.Writer, logger *slog.Logger) ScenarioResult {
	text := opts.Format != "json"

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		if text {
			fmt.Fprintf(w, "✗ %s\n", filepath.Base(file))
			fmt.Fprintf(w, "  Load error: %v\n", err)
		}
		return ScenarioResult{
			Name:   filepath.Base(file),
			File:   file,
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}
	logger.Debug("running scenario", "name", scenario.Name, "steps", len(scenario.Steps))

	res, err := harness.Run(scenario, b, harness.WithLogger(logger))
	if err != nil {
		if text {
			fmt.Fprintf(w, "✗ %s\n", scenario.Name)
			fmt.Fprintf(w, "  Execution error: %v\n", err)
		}
		return ScenarioResult{
			Name:   scenario.Name,
			File:   file,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	sr := ScenarioResult{
		Name:   scenario.Name,
		File:   file,
		Pass:   res.Pass,
		Trace:  res.Trace,
		Errors: res.Failures,
	}
	if !text {
		return sr
	}

	if res.Pass {
		fmt.Fprintf(w, "✓ %s\n", scenario.Name)
	} else {
		fmt.Fprintf(w, "✗ %s\n", scenario.Name)
		for _, f := range res.Failures {
			fmt.Fprintf(w, "  %s\n", firstLine(f))
		}
	}
	if opts.Verbose {
		for _, ev := range res.Trace {
			fmt.Fprintf(w, "    %s\n", ev)
		}
	}
	return sr
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
