package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/relaxir/internal/ir"
)

// VersionInfo is the payload of the version command.
type VersionInfo struct {
	Version          string `json:"version"`
	CanonicalVersion string `json:"canonical_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print version information",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{Version: ir.Version, CanonicalVersion: ir.CanonicalVersion}
			if rootOpts.Format == "json" {
				formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
				return formatter.Success(info)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "relaxir %s (canonical form v%s)\n", info.Version, info.CanonicalVersion)
			return nil
		},
	}
}
