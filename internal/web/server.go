// Package web serves the form and view layer: login, the record list with
// search and progress, the record form, confirmations, roster upload, PDF
// download and raw table export.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/qmva/internal/auth"
	"github.com/mesh-intelligence/qmva/internal/metrics"
	"github.com/mesh-intelligence/qmva/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page template names.
const (
	pageLogin  = "login.html"
	pageIndex  = "index.html"
	pageRecord = "record.html"
	pageError  = "error.html"
)

// maxUpload bounds roster uploads.
const maxUpload = 10 << 20

// shutdownTimeout bounds graceful shutdown in Serve.
const shutdownTimeout = 10 * time.Second

// Server holds the handler dependencies.
type Server struct {
	svc      *service.Service
	gate     *auth.Gate
	sessions *auth.Sessions
	metrics  *metrics.Metrics
	log      *zap.Logger
	pages    map[string]*template.Template

	// SecureCookies marks session and CSRF cookies Secure. Enable behind TLS.
	SecureCookies bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log.Named("web") }
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// NewServer parses the embedded templates and returns a server.
func NewServer(svc *service.Service, gate *auth.Gate, sessions *auth.Sessions, opts ...Option) (*Server, error) {
	s := &Server{
		svc:      svc,
		gate:     gate,
		sessions: sessions,
		log:      zap.NewNop(),
		pages:    make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, page := range []string{pageLogin, pageIndex, pageRecord, pageError} {
		t, err := template.New("layout").ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", page, err)
		}
		s.pages[page] = t
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(limitBody)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(s.csrf)
		r.Get("/login", s.handleLoginForm)
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Post("/logout", s.handleLogout)
			r.Get("/", s.handleIndex)
			r.Post("/va", s.handleSave)
			r.Get("/va/{id}", s.handleShow)
			r.Post("/va/{id}/delete", s.handleDelete)
			r.Get("/va/{id}/pdf", s.handlePDF)
			r.Post("/va/{id}/confirm", s.handleConfirm)
			r.Post("/roster", s.handleRoster)
			r.Get("/export/{table}.csv", s.handleExport)
		})
	})
	return r
}

// Run listens on addr and serves until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
