package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRosterCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage the employee roster",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the roster with a semicolon-separated file",
		Long: `Replace the roster with the rows of file. The file needs the columns
Vorname;Nachname;VA_Nr; each row assigns one person to one procedure.
Rows that cannot be used are reported and skipped.`,
		Args: cobra.ExactArgs(1),
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
			f, err := os.Open(args[0])
			if err != nil {
				return sysErr("open roster", err)
			}
			defer f.Close()

			n, warnings, err := d.svc.ImportRoster(cmd.Context(), sess, f)
			for _, w := range warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			if err != nil {
				return classify("import roster", err)
			}
			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"entries": n, "warnings": warnings})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d roster entries\n", n)
			return nil
		},
	})
	return cmd
}
