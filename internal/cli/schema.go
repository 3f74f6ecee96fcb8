package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/relaxir/internal/runtime"
	"github.com/roach88/relaxir/internal/schema"
)

// SchemaOptions holds flags for the schema command.
type SchemaOptions struct {
	*RootOptions
	File  string // alternate CUE schema; default is the embedded one
	Print bool   // print the schema source instead of verifying
}

// SchemaResult holds verification results.
type SchemaResult struct {
	Valid  bool                     `json:"valid"`
	Source string                   `json:"source"`
	Kinds  int                      `json:"kinds"`
	Errors []schema.ValidationError `json:"errors,omitempty"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Verify the type registry against the CUE node schema",
		Long: `Verify that every registered kind matches the CUE node schema: same
parent, same fields in the same order, and abstract kinds backed by Go
interfaces.

Exit codes:
  0 - Registry matches the schema
  1 - Registry and schema disagree
  2 - Command error (unreadable or invalid schema file)

Examples:
  relaxir schema
  relaxir schema --file ./nodes.cue
  relaxir schema --print`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchema(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "verify against this CUE file instead of the embedded schema")
	cmd.Flags().BoolVar(&opts.Print, "print", false, "print the schema source")

	return cmd
}

func runSchema(opts *SchemaOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	src, name := schema.Source(), "nodes.cue"
	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			_ = formatter.Error("E_READ", err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read schema", err)
		}
		src, name = data, opts.File
	}

	if opts.Print {
		_, err := cmd.OutOrStdout().Write(src)
		return err
	}

	specs, err := schema.Parse(src, name)
	if err != nil {
		_ = formatter.Error("E_SCHEMA", err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid schema", err)
	}
	formatter.VerboseLog("Parsed %d kind(s) from %s", len(specs), name)

	errs := schema.Verify(runtime.Types(), specs)
	result := SchemaResult{
		Valid:  len(errs) == 0,
		Source: name,
		Kinds:  len(specs),
		Errors: errs,
	}

	if result.Valid {
		if opts.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ Registry matches %s (%d kinds)\n", name, len(specs))
		return nil
	}

	if opts.Format == "json" {
		if err := formatter.Failure(result, errs[0].Code, errs[0].Message); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ Registry does not match %s\n\n", name)
		for _, e := range errs {
			fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", e.Code, e.Field, e.Message)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("schema verification failed with %d error(s)", len(errs)))
}
