package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qmva/pkg/types"
)

func newProgressCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "progress [va_nr]",
		Short: "Show read-confirmation progress",
		Long: `Without an argument, show confirmed/assigned counts for every procedure.
With a procedure number, also list the assigned people who have not
confirmed yet.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDesk(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer d.close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				if id := types.NormalizeID(args[0]); id == "" {
					return fmt.Errorf("%w: %q", types.ErrInvalidID, args[0])
				}
				p, err := d.svc.Progress(cmd.Context(), args[0])
				if err != nil {
					return classify("compute progress", err)
				}
				if opts.jsonMode {
					return writeJSON(out, p)
				}
				printProgress(out, p)
				for _, name := range p.Missing {
					fmt.Fprintf(out, "  offen: %s\n", name)
				}
				return nil
			}

			overview, err := d.svc.Overview(cmd.Context())
			if err != nil {
				return classify("compute overview", err)
			}
			if opts.jsonMode {
				return writeJSON(out, overview)
			}
			for _, p := range overview {
				printProgress(out, p)
			}
			return nil
		},
	}
}

// printProgress writes one line: id, a bar and the counts. Undefined
// progress is never shown as complete.
func printProgress(w io.Writer, p types.Progress) {
	const width = 20
	if p.Undefined() {
		fmt.Fprintf(w, "%-6s %s %s\n", p.ProcedureID, strings.Repeat(".", width),
			color.New(color.FgYellow).Sprint("keine Zuordnung"))
		return
	}
	filled := int(p.Fraction() * width)
	bar := strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
	status := color.New(color.FgRed).Sprintf("%d von %d bestätigt", p.Confirmed, p.Total)
	if p.Complete() {
		status = color.New(color.FgGreen).Sprintf("%d von %d bestätigt", p.Confirmed, p.Total)
	}
	fmt.Fprintf(w, "%-6s %s %s\n", p.ProcedureID, bar, status)
}
