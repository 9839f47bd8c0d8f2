package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/qmva/internal/auth"
	"github.com/mesh-intelligence/qmva/internal/web"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		listen        string
		secureCookies bool
		sessionTTL    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web desk",
		Long: "Serve the login, record list, record form, confirmations, roster upload,\n" +
			"PDF download and table export over HTTP until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDesk(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer d.close()

			if err := d.settings.Validate(); err != nil {
				return err
			}
			if listen == "" {
				listen = d.settings.Listen
			}

			srv, err := web.NewServer(d.svc,
				auth.NewGate(d.settings.Password),
				auth.NewSessions(sessionTTL, time.Now),
				web.WithLogger(d.log),
				web.WithMetrics(d.metrics),
			)
			if err != nil {
				return sysErr("build server", err)
			}
			srv.SecureCookies = secureCookies

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d.log.Info("starting",
				zap.String("listen", listen),
				zap.String("data_dir", d.settings.DataDir),
				zap.String("archive", d.settings.Archive.Driver))
			return sysErr("serve", srv.Run(ctx, listen))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default: listen from config.yaml)")
	cmd.Flags().BoolVar(&secureCookies, "secure-cookies", false, "mark session cookies Secure (behind TLS)")
	cmd.Flags().DurationVar(&sessionTTL, "session-ttl", auth.DefaultTTL, "idle timeout of a login session")
	return cmd
}

