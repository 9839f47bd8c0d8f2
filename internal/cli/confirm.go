package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qmva/pkg/types"
)

func newConfirmCmd(opts *rootOptions) *cobra.Command {
	var name, va string
	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Record that a person has read a procedure",
		Long: `Record a read confirmation. The name is stored as "First Last"; a
"Last, First" input is turned around. A person confirms a procedure once.

Example:
  qmva confirm --name "Erika Mustermann" --va 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDesk(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer d.close()

			sess, err := d.session(opts)
			if err != nil {
				return err
			}
			entry, err := d.svc.Confirm(cmd.Context(), sess, name, va)
			if err != nil {
				return classify("record confirmation", err)
			}
			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), entry)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s confirmed %s at %s\n",
				entry.Person, entry.ProcedureID, entry.ConfirmedAt.Format(types.TimestampLayout))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name of the confirming person")
	cmd.Flags().StringVar(&va, "va", "", "procedure number")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("va")
	return cmd
}
