package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time through -ldflags.
var Version = "0.1.0-dev"

const modulePath = "github.com/mesh-intelligence/qmva"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the qmva version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "qmva v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
