package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qmva/pkg/types"
)

func newVACmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "va",
		Short: "Manage procedure instructions",
	}
	cmd.AddCommand(newVAListCmd(opts))
	cmd.AddCommand(newVAShowCmd(opts))
	cmd.AddCommand(newVASetCmd(opts))
	cmd.AddCommand(newVADeleteCmd(opts))
	return cmd
}

func newVAListCmd(opts *rootOptions) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List procedures in file order",
		Long: `List the procedures in file order. With --search only procedures whose
number, title, chapter, purpose, scope or procedure text contain the term
(case-insensitive) are listed.

Example:
  qmva va list
  qmva va list --search audit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDesk(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer d.close()

			var recs []types.ProcedureRecord
			if search != "" {
				recs, err = d.svc.Search(cmd.Context(), search)
			} else {
				recs, err = d.svc.Records(cmd.Context())
			}
			if err != nil {
				return sysErr("list procedures", err)
			}

			out := cmd.OutOrStdout()
			if opts.jsonMode {
				if recs == nil {
					recs = []types.ProcedureRecord{}
				}
				return writeJSON(out, recs)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VA_NR\tTITEL\tKAPITEL\tREVISION")
			for _, rec := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.ID, rec.Title, rec.Chapter, rec.Revision)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only list procedures containing this term")
	return cmd
}

func newVAShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <va_nr>",
		Short: "Display a procedure with all fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDesk(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer d.close()

			rec, err := d.svc.Record(cmd.Context(), args[0])
			if err != nil {
				return classify("load procedure", fmt.Errorf("procedure %q: %w", args[0], err))
			}
			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			printRecord(cmd.OutOrStdout(), rec)
			return nil
		},
	}
}

func printRecord(w io.Writer, rec types.ProcedureRecord) {
	fmt.Fprintf(w, "%s: %s\n", types.ColumnID, rec.ID)
	for _, f := range rec.Fields() {
		fmt.Fprintf(w, "%s: %s\n", f.Label, f.Value)
	}
}

// recordFlag binds one record field to a command-line flag.
type recordFlag struct {
	name  string
	usage string
	set   func(*types.ProcedureRecord, string)
}

var recordFlags = []recordFlag{
	{"titel", "title", func(r *types.ProcedureRecord, v string) { r.Title = v }},
	{"kapitel", "chapter", func(r *types.ProcedureRecord, v string) { r.Chapter = v }},
	{"unterkapitel", "sub-chapter", func(r *types.ProcedureRecord, v string) { r.SubChapter = v }},
	{"revisionsstand", "revision", func(r *types.ProcedureRecord, v string) { r.Revision = v }},
	{"ziel", "purpose", func(r *types.ProcedureRecord, v string) { r.Purpose = v }},
	{"geltungsbereich", "scope", func(r *types.ProcedureRecord, v string) { r.Scope = v }},
	{"vorgehensweise", "procedure text", func(r *types.ProcedureRecord, v string) { r.Procedure = v }},
	{"kommentar", "comment", func(r *types.ProcedureRecord, v string) { r.Comment = v }},
	{"unterlagen", "referenced documents", func(r *types.ProcedureRecord, v string) { r.References = v }},
}

func newVASetCmd(opts *rootOptions) *cobra.Command {
	values := make([]string, len(recordFlags))
	cmd := &cobra.Command{
		Use:   "set <va_nr>",
		Short: "Create or update a procedure",
		Long: `Create the procedure or update the fields given as flags. Fields without
a flag keep their stored value.

Example:
  qmva va set 3 --titel "Lenkung von Dokumenten" --kapitel 4`,
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

			rec, err := d.svc.Record(cmd.Context(), args[0])
			switch {
			case errors.Is(err, types.ErrNotFound):
				rec = types.ProcedureRecord{ID: args[0]}
			case err != nil:
				return sysErr("load procedure", err)
			}
			for i, f := range recordFlags {
				if cmd.Flags().Changed(f.name) {
					f.set(&rec, values[i])
				}
			}

			saved, created, err := d.svc.SaveRecord(cmd.Context(), sess, rec)
			if err != nil {
				return classify("save procedure", err)
			}
			if opts.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"record": saved, "created": created})
			}
			verb := "updated"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, saved.ID)
			return nil
		},
	}
	for i, f := range recordFlags {
		cmd.Flags().StringVar(&values[i], f.name, "", f.usage)
	}
	return cmd
}

func newVADeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <va_nr>",
		Short: "Delete a procedure",
		Args:  cobra.ExactArgs(1),
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
			if err := d.svc.DeleteRecord(cmd.Context(), sess, args[0]); err != nil {
				return classify("delete procedure", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", types.NormalizeID(args[0]))
			return nil
		},
	}
}
