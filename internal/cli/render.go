package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qmva/internal/archive"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render <va_nr>",
		Short: "Render a procedure as a PDF document",
		Long: `Render the procedure as a PDF document. The file defaults to
<VA_Nr>.pdf in the current directory; "-" writes to stdout. With an
archive configured a copy is kept there as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDesk(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer d.close()

			doc, err := d.svc.RenderDocument(cmd.Context(), args[0])
			if err != nil {
				return classify("render document", err)
			}
			if output == "-" {
				_, err := cmd.OutOrStdout().Write(doc)
				return sysErr("write document", err)
			}
			if output == "" {
				output = archive.DocumentKey(args[0])
			}
			if err := os.WriteFile(output, doc, 0o644); err != nil {
				return sysErr("write document", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", output, len(doc))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file ("-" for stdout)`)
	return cmd
}
