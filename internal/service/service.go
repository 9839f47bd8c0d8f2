// Package service is the single entry point the web handlers and the CLI
// use. It checks the session, normalizes input, drives the store, renderer
// and archive, and records logs and metrics for every mutation.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/qmva/internal/archive"
	"github.com/mesh-intelligence/qmva/internal/index"
	"github.com/mesh-intelligence/qmva/internal/metrics"
	"github.com/mesh-intelligence/qmva/internal/progress"
	"github.com/mesh-intelligence/qmva/internal/render"
	"github.com/mesh-intelligence/qmva/internal/store"
	"github.com/mesh-intelligence/qmva/pkg/types"
)

// Backend is the storage the service needs: the three tables plus raw
// table export.
type Backend interface {
	types.Backend
	Export(table string, w io.Writer) error
}

// Service orchestrates the desk's operations.
type Service struct {
	backend  Backend
	renderer *render.Renderer
	archive  archive.Store
	metrics  *metrics.Metrics
	log      *zap.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default discards output.
func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log.Named("service") }
}

// WithMetrics sets the collectors. Without it nothing is counted.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithArchive keeps a copy of every rendered document in a.
func WithArchive(a archive.Store) Option {
	return func(s *Service) { s.archive = a }
}

// WithRenderer replaces the default renderer.
func WithRenderer(r *render.Renderer) Option {
	return func(s *Service) { s.renderer = r }
}

// WithClock replaces time.Now for confirmation stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a service over an attached backend.
func New(backend Backend, opts ...Option) *Service {
	s := &Service{
		backend:  backend,
		renderer: render.New(""),
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SaveRecord upserts rec under its normalized identifier and returns the
// stored form. created reports whether a new row was appended.
func (s *Service) SaveRecord(ctx context.Context, sess types.Session, rec types.ProcedureRecord) (types.ProcedureRecord, bool, error) {
	if err := s.admit(ctx, sess); err != nil {
		s.metrics.RecordSaved(metrics.ResultRejected)
		return types.ProcedureRecord{}, false, err
	}
	rec = rec.Normalized()
	created, err := s.backend.Records().Upsert(rec)
	if err != nil {
		s.metrics.RecordSaved(resultFor(err))
		return types.ProcedureRecord{}, false, fmt.Errorf("saving %s: %w", rec.ID, err)
	}
	if created {
		s.metrics.RecordSaved(metrics.ResultCreated)
	} else {
		s.metrics.RecordSaved(metrics.ResultUpdated)
	}
	s.log.Info("record saved",
		zap.String("va_nr", rec.ID),
		zap.String("session", sess.ID),
		zap.Bool("created", created))
	return rec, created, nil
}

// DeleteRecord removes the record with identifier id.
func (s *Service) DeleteRecord(ctx context.Context, sess types.Session, id string) error {
	if err := s.admit(ctx, sess); err != nil {
		return err
	}
	id = types.NormalizeID(id)
	if err := s.backend.Records().Delete(id); err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	s.log.Info("record deleted", zap.String("va_nr", id), zap.String("session", sess.ID))
	return nil
}

// Record returns one record by identifier, normalized before lookup.
func (s *Service) Record(ctx context.Context, id string) (types.ProcedureRecord, error) {
	if err := ctx.Err(); err != nil {
		return types.ProcedureRecord{}, err
	}
	return s.backend.Records().Get(id)
}

// Records returns all records in file order.
func (s *Service) Records(ctx context.Context) ([]types.ProcedureRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.backend.Records().List()
}

// Confirm records that person has read procedure id. The procedure must
// exist; a second confirmation by the same person fails with
// types.ErrAlreadyConfirmed.
func (s *Service) Confirm(ctx context.Context, sess types.Session, person, id string) (types.ConfirmationEntry, error) {
	if err := s.admit(ctx, sess); err != nil {
		s.metrics.Confirmed(metrics.ResultRejected)
		return types.ConfirmationEntry{}, err
	}
	if _, err := s.backend.Records().Get(id); err != nil {
		s.metrics.Confirmed(resultFor(err))
		return types.ConfirmationEntry{}, err
	}
	entry, err := s.backend.Confirmations().Record(person, id, s.now())
	if err != nil {
		s.metrics.Confirmed(resultFor(err))
		return types.ConfirmationEntry{}, err
	}
	s.metrics.Confirmed(metrics.ResultOK)
	s.log.Info("confirmation recorded",
		zap.String("va_nr", entry.ProcedureID),
		zap.String("person", entry.Person),
		zap.String("session", sess.ID))
	return entry, nil
}

// Progress computes the confirmation status of one procedure.
func (s *Service) Progress(ctx context.Context, id string) (types.Progress, error) {
	if err := ctx.Err(); err != nil {
		return types.Progress{}, err
	}
	roster, err := s.backend.Roster().ForProcedure(id)
	if err != nil {
		return types.Progress{}, err
	}
	confirmations, err := s.backend.Confirmations().ForProcedure(id)
	if err != nil {
		return types.Progress{}, err
	}
	return progress.Calculate(id, roster, confirmations), nil
}

// Snapshot builds one index over the current tables so that several queries
// see the same data and the files are read once. The caller must Close it.
func (s *Service) Snapshot(ctx context.Context) (*index.Index, error) {
	return index.Build(ctx, s.backend)
}

// Overview returns the progress of every known procedure, sorted by id.
func (s *Service) Overview(ctx context.Context) ([]types.Progress, error) {
	ix, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer ix.Close()
	return ix.Overview(ctx)
}

// Search returns the records matching term; see index.Index.Search.
func (s *Service) Search(ctx context.Context, term string) ([]types.ProcedureRecord, error) {
	ix, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer ix.Close()
	return ix.Search(ctx, term)
}

// RenderDocument renders the record with identifier id as a PDF. When an
// archive is configured the document is also stored under
// archive.DocumentKey(id); archive failures are logged and do not fail the
// call.
func (s *Service) RenderDocument(ctx context.Context, id string) ([]byte, error) {
	rec, err := s.Record(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Render(rec)
	if err != nil {
		s.metrics.Rendered(metrics.ResultError)
		s.log.Error("render failed", zap.String("va_nr", rec.ID), zap.Error(err))
		return nil, err
	}
	s.metrics.Rendered(metrics.ResultOK)

	if s.archive != nil {
		key := archive.DocumentKey(rec.ID)
		if _, err := s.archive.Put(ctx, key, bytes.NewReader(doc), archive.ContentTypePDF); err != nil {
			s.log.Warn("archiving document failed",
				zap.String("va_nr", rec.ID),
				zap.String("driver", string(s.archive.Driver())),
				zap.Error(fmt.Errorf("%w: %w", types.ErrArchiveFailed, err)))
		} else {
			s.log.Debug("document archived", zap.String("key", key))
		}
	}
	return doc, nil
}

// ArchivedDocuments lists the archive. It returns nil without an archive.
func (s *Service) ArchivedDocuments(ctx context.Context) ([]archive.Info, error) {
	if s.archive == nil {
		return nil, nil
	}
	return s.archive.List(ctx)
}

// ImportRoster replaces the roster with the semicolon-separated file in r.
// It returns the number of entries kept and any parse warnings. An upload
// without a single usable row is rejected.
func (s *Service) ImportRoster(ctx context.Context, sess types.Session, r io.Reader) (int, []string, error) {
	if err := s.admit(ctx, sess); err != nil {
		return 0, nil, err
	}
	entries, warnings, err := store.ParseRoster(r)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}
	// A file with the wrong header parses to nothing; keep the current roster.
	if len(entries) == 0 {
		return 0, warnings, fmt.Errorf("%w: roster upload has no rows with %v", types.ErrInvalidData, types.RosterColumns)
	}
	if err := s.backend.Roster().Replace(entries); err != nil {
		return 0, nil, fmt.Errorf("replacing roster: %w", err)
	}
	s.log.Info("roster imported",
		zap.Int("entries", len(entries)),
		zap.Strings("warnings", warnings),
		zap.String("session", sess.ID))
	return len(entries), warnings, nil
}

// Export writes the raw table file named table to w.
func (s *Service) Export(ctx context.Context, table string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.backend.Export(table, w)
}

func (s *Service) admit(ctx context.Context, sess types.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return sess.Require()
}

// resultFor maps an operation error to a metric result label.
func resultFor(err error) string {
	switch {
	case errors.Is(err, types.ErrUnauthorized),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrAlreadyConfirmed):
		return metrics.ResultRejected
	default:
		return metrics.ResultError
	}
}
