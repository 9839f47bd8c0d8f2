package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qmva/internal/archive"
	"github.com/mesh-intelligence/qmva/pkg/types"
)

func newArchiveCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect the document archive",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List archived PDF documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDesk(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer d.close()

			if driver := d.settings.Archive.Driver; driver == "" || driver == types.ArchiveNone {
				fmt.Fprintln(cmd.ErrOrStderr(), "archiving is disabled (archive.driver: none)")
				return nil
			}
			docs, err := d.svc.ArchivedDocuments(cmd.Context())
			if err != nil {
				return sysErr("list archive", err)
			}

			out := cmd.OutOrStdout()
			if opts.jsonMode {
				if docs == nil {
					docs = []archive.Info{}
				}
				return writeJSON(out, docs)
			}
			loc := d.backend.Location()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED")
			for _, doc := range docs {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", doc.Key, doc.Size, modified(doc.LastModified, loc))
			}
			return tw.Flush()
		},
	})
	return cmd
}

func modified(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format(types.TimestampLayout)
}
