package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/qmva/internal/auth"
	"github.com/mesh-intelligence/qmva/internal/logging"
	"github.com/mesh-intelligence/qmva/internal/metrics"
	"github.com/mesh-intelligence/qmva/internal/render"
	"github.com/mesh-intelligence/qmva/internal/service"
	"github.com/mesh-intelligence/qmva/internal/store"
	"github.com/mesh-intelligence/qmva/pkg/types"
)

// envPassword is read when --password is not given.
const envPassword = "QMVA_PASSWORD"

// desk is the opened data directory with the service on top of it.
type desk struct {
	settings settings
	log      *zap.Logger
	metrics  *metrics.Metrics
	backend  *store.Backend
	svc      *service.Service
}

// openDesk loads the configuration, attaches the store and builds the
// service. The caller must call close.
func openDesk(ctx context.Context, opts *rootOptions) (*desk, error) {
	s, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(s.Log.Level, s.Log.Development)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}

	backend := store.NewBackend(log)
	if err := backend.Attach(s.Config); err != nil {
		_ = log.Sync()
		return nil, sysErr("attach store", err)
	}
	archive, err := service.OpenArchive(ctx, s.Config)
	if err != nil {
		_ = backend.Detach()
		_ = log.Sync()
		return nil, sysErr("open archive", err)
	}

	m := metrics.New()
	svc := service.New(backend,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithArchive(archive),
		service.WithRenderer(render.New(s.Attribution)),
	)
	return &desk{settings: s, log: log, metrics: m, backend: backend, svc: svc}, nil
}

func (d *desk) close() {
	_ = d.backend.Detach()
	_ = d.log.Sync()
}

// session turns --password (or QMVA_PASSWORD) into a session checked against
// the configured password.
func (d *desk) session(opts *rootOptions) (types.Session, error) {
	if d.settings.Password == "" {
		return types.Session{}, fmt.Errorf("%w: set password in %s or %s", types.ErrPasswordEmpty, configFileExt, envPassword)
	}
	candidate := opts.password
	if candidate == "" {
		candidate = os.Getenv(envPassword)
	}
	return auth.NewGate(d.settings.Password).Session(candidate), nil
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
