package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/relaxir/internal/bridge"
)

// NewEntryPointsCommand creates the entrypoints command.
func NewEntryPointsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entrypoints",
		Short: "List bridge entry points and their signatures",
		Long: `List every engine entry point the bridge accepts, in table order.
Parameters marked "?" are optional and may be passed as null.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if rootOpts.Format == "json" {
				return formatter.Success(bridge.EntryPoints)
			}
			for _, ep := range bridge.EntryPoints {
				fmt.Fprintln(formatter.Writer, ep.Signature())
			}
			return nil
		},
	}
	return cmd
}
