package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/qmva/internal/store"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and data directories",
		Long: "Create the configuration directory with a default config.yaml and the\n" +
			"data directory. Existing files are left untouched.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDesk(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer d.close()

			out := cmd.OutOrStdout()
			if opts.jsonMode {
				return writeJSON(out, map[string]any{
					"config_dir":   d.settings.ConfigDir,
					"data_dir":     d.settings.DataDir,
					"password_set": d.settings.Password != "",
				})
			}
			fmt.Fprintln(out, "qmva initialized")
			fmt.Fprintf(out, "  config: %s\n", d.settings.ConfigDir)
			fmt.Fprintf(out, "  data:   %s\n", d.settings.DataDir)
			for _, table := range []string{store.TableRecords, store.TableConfirmations, store.TableRoster} {
				path, err := d.backend.Path(table)
				if err != nil {
					return sysErr("resolve table path", err)
				}
				fmt.Fprintf(out, "  %-14s %s\n", table+":", path)
			}
			if d.settings.Password == "" {
				fmt.Fprintf(out, "no password configured; set password in %s or %s before serving\n", configFileExt, envPassword)
			}
			return nil
		},
	}
}
