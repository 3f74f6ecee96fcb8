package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/relaxir/internal/runtime"
)

// KindInfo describes one registered node kind.
type KindInfo struct {
	Key    string   `json:"key"`
	Parent string   `json:"parent,omitempty"`
	Depth  int      `json:"depth"`
	Fields []string `json:"fields,omitempty"`
}

// KindsOptions holds flags for the kinds command.
type KindsOptions struct {
	*RootOptions
	Under string // only kinds that are-a this key
}

// NewKindsCommand creates the kinds command.
func NewKindsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &KindsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List registered node kinds",
		Long: `List every kind in the type registry in registration order, with its
parent and depth in the hierarchy.

Examples:
  relaxir kinds
  relaxir kinds --under relax.Expr
  relaxir kinds --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKinds(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Under, "under", "", "only list descendants of this type key")

	return cmd
}

func runKinds(opts *KindsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	reg := runtime.Types()

	var ancestor *runtime.TypeDescriptor
	if opts.Under != "" {
		d, err := reg.Resolve(opts.Under)
		if err != nil {
			_ = formatter.Error("E_UNKNOWN_KIND", err.Error(), nil)
			return WrapExitError(ExitCommandError, "unknown kind", err)
		}
		ancestor = d
	}

	kinds := []KindInfo{}
	for _, d := range reg.Kinds() {
		if ancestor != nil && !d.IsA(ancestor) {
			continue
		}
		kinds = append(kinds, KindInfo{
			Key:    d.Key(),
			Parent: d.ParentKey(),
			Depth:  d.Depth(),
			Fields: d.Layout().FieldNames(),
		})
	}
	formatter.VerboseLog("%d of %d kinds listed", len(kinds), reg.Len())

	if opts.Format == "json" {
		return formatter.Success(kinds)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-30s %-24s %s\n", "KEY", "PARENT", "DEPTH")
	for _, k := range kinds {
		parent := k.Parent
		if parent == "" {
			parent = "-"
		}
		fmt.Fprintf(w, "%-30s %-24s %d\n", k.Key, parent, k.Depth)
	}
	return nil
}
