package cli

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qmva/internal/store"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <table>",
		Short: "Write a table file to stdout",
		Long: `Write the named table in its file format (semicolon-separated, UTF-8
with byte order mark, header included) to stdout.

Valid table names: ` + store.TableRecords + `, ` + store.TableConfirmations + `, ` + store.TableRoster,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{store.TableRecords, store.TableConfirmations, store.TableRoster},
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDesk(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer d.close()
			return classify("export table", d.svc.Export(cmd.Context(), args[0], cmd.OutOrStdout()))
		},
	}
}
