package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mesh-intelligence/qmva/internal/archive"
	archivefs "github.com/mesh-intelligence/qmva/internal/archive/fs"
	"github.com/mesh-intelligence/qmva/internal/metrics"
	"github.com/mesh-intelligence/qmva/internal/render"
	"github.com/mesh-intelligence/qmva/internal/store"
	"github.com/mesh-intelligence/qmva/pkg/types"
)

var (
	authorized = types.Session{ID: "test", Authorized: true}
	anonymous  = types.Session{ID: "anon"}
	fixedNow   = time.Date(2026, 3, 2, 9, 30, 15, 0, time.UTC)
)

type fixture struct {
	svc     *Service
	backend *store.Backend
	metrics *metrics.Metrics
	logs    *observer.ObservedLogs
}

func setup(t *testing.T, opts ...Option) fixture {
	t.Helper()
	b := store.NewBackend(nil)
	require.NoError(t, b.Attach(types.Config{DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	core, logs := observer.New(zapcore.DebugLevel)
	m := metrics.New()
	r := render.New("")
	r.Compress = false
	base := []Option{
		WithLogger(zap.New(core)),
		WithMetrics(m),
		WithRenderer(r),
		WithClock(func() time.Time { return fixedNow }),
	}
	return fixture{
		svc:     New(b, append(base, opts...)...),
		backend: b,
		metrics: m,
		logs:    logs,
	}
}

const rosterFile = "Vorname;Nachname;VA_Nr\nAnna;Muster;VA3\n"

func TestEndToEndScenario(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	saved, created, err := f.svc.SaveRecord(ctx, authorized, types.ProcedureRecord{ID: "VA3", Title: "Hygiene Plan"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "VA003", saved.ID)

	recs, err := f.svc.Records(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "VA003", recs[0].ID)

	doc, err := f.svc.RenderDocument(ctx, "VA3")
	require.NoError(t, err)
	assert.Contains(t, string(doc), "(QM-Verfahrensanweisung VA003)")

	n, _, err := f.svc.ImportRoster(ctx, authorized, strings.NewReader(rosterFile))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := f.svc.Progress(ctx, "VA3")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Confirmed)
	assert.Equal(t, 1, p.Total)

	entry, err := f.svc.Confirm(ctx, authorized, "Muster, Anna", "va 3")
	require.NoError(t, err)
	assert.Equal(t, "Anna Muster", entry.Person)
	assert.Equal(t, "VA003", entry.ProcedureID)

	p, err = f.svc.Progress(ctx, "VA003")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Confirmed)
	assert.Equal(t, 1, p.Total)
	assert.True(t, p.Complete())

	overview, err := f.svc.Overview(ctx)
	require.NoError(t, err)
	require.Len(t, overview, 1)
	assert.Equal(t, p, overview[0])
}

func TestMutationsRequireAuthorizedSession(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, _, err := f.svc.SaveRecord(ctx, anonymous, types.ProcedureRecord{ID: "VA1"})
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	assert.ErrorIs(t, f.svc.DeleteRecord(ctx, anonymous, "VA1"), types.ErrUnauthorized)
	_, err = f.svc.Confirm(ctx, anonymous, "Anna Muster", "VA1")
	assert.ErrorIs(t, err, types.ErrUnauthorized)
	_, _, err = f.svc.ImportRoster(ctx, anonymous, strings.NewReader(rosterFile))
	assert.ErrorIs(t, err, types.ErrUnauthorized)

	recs, err := f.svc.Records(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RecordsSaved.WithLabelValues(metrics.ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Confirmations.WithLabelValues(metrics.ResultRejected)))
}

func TestSaveRecordUpsertsAndLogs(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, created, err := f.svc.SaveRecord(ctx, authorized, types.ProcedureRecord{ID: "7", Title: "Alt"})
	require.NoError(t, err)
	assert.True(t, created)
	_, created, err = f.svc.SaveRecord(ctx, authorized, types.ProcedureRecord{ID: "va007", Title: "Neu"})
	require.NoError(t, err)
	assert.False(t, created)

	rec, err := f.svc.Record(ctx, "VA7")
	require.NoError(t, err)
	assert.Equal(t, "Neu", rec.Title)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RecordsSaved.WithLabelValues(metrics.ResultCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RecordsSaved.WithLabelValues(metrics.ResultUpdated)))

	saved := f.logs.FilterMessage("record saved").All()
	require.Len(t, saved, 2)
	assert.Equal(t, "VA007", saved[1].ContextMap()["va_nr"])
	assert.Equal(t, false, saved[1].ContextMap()["created"])

	_, _, err = f.svc.SaveRecord(ctx, authorized, types.ProcedureRecord{ID: "  "})
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestDeleteRecord(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, _, err := f.svc.SaveRecord(ctx, authorized, types.ProcedureRecord{ID: "VA1"})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteRecord(ctx, authorized, "1"))
	_, err = f.svc.Record(ctx, "VA001")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, f.svc.DeleteRecord(ctx, authorized, "1"), types.ErrNotFound)
}

func TestConfirm(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, _, err := f.svc.SaveRecord(ctx, authorized, types.ProcedureRecord{ID: "VA2"})
	require.NoError(t, err)

	t.Run("unknown procedure", func(t *testing.T) {
		_, err := f.svc.Confirm(ctx, authorized, "Anna Muster", "VA404")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("stamped with the clock in the configured zone", func(t *testing.T) {
		entry, err := f.svc.Confirm(ctx, authorized, "  Anna   Muster ", "2")
		require.NoError(t, err)
		assert.Equal(t, "2026-03-02 10:30:15", entry.ConfirmedAt.Format(types.TimestampLayout))
	})

	t.Run("duplicate is rejected", func(t *testing.T) {
		_, err := f.svc.Confirm(ctx, authorized, "muster, anna", "VA002")
		assert.ErrorIs(t, err, types.ErrAlreadyConfirmed)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := f.svc.Confirm(ctx, authorized, " ", "VA002")
		assert.ErrorIs(t, err, types.ErrInvalidName)
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Confirmations.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.Confirmations.WithLabelValues(metrics.ResultRejected)))
}

func TestProgressUndefinedWithoutRoster(t *testing.T) {
	f := setup(t)
	p, err := f.svc.Progress(context.Background(), "VA999")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Confirmed)
	assert.Equal(t, 0, p.Total)
	assert.True(t, p.Undefined())
	assert.False(t, p.Complete())
}

func TestSearch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for _, rec := range []types.ProcedureRecord{
		{ID: "VA1", Title: "Hygiene Plan"},
		{ID: "VA2", Title: "Reklamation"},
	} {
		_, _, err := f.svc.SaveRecord(ctx, authorized, rec)
		require.NoError(t, err)
	}
	hits, err := f.svc.Search(ctx, "hygiene")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "VA001", hits[0].ID)
}

func TestSnapshot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, _, err := f.svc.SaveRecord(ctx, authorized, types.ProcedureRecord{ID: "VA1", Title: "Hygiene Plan"})
	require.NoError(t, err)

	ix, err := f.svc.Snapshot(ctx)
	require.NoError(t, err)
	defer ix.Close()

	_, _, err = f.svc.SaveRecord(ctx, authorized, types.ProcedureRecord{ID: "VA2", Title: "Hygiene Audit"})
	require.NoError(t, err)

	hits, err := ix.Search(ctx, "hygiene")
	require.NoError(t, err)
	require.Len(t, hits, 1, "writes after the snapshot are not visible")
	assert.Equal(t, "VA001", hits[0].ID)

	overview, err := ix.Overview(ctx)
	require.NoError(t, err)
	for _, p := range overview {
		assert.NotEqual(t, "VA002", p.ProcedureID)
	}

	hits, err = f.svc.Search(ctx, "hygiene")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestImportRoster(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	n, _, err := f.svc.ImportRoster(ctx, authorized, strings.NewReader("Vorname;Nachname;VA_Nr\nAnna;Muster;3\n;;VA4\nBen;Beispiel;\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "rows without name or procedure are dropped")

	_, _, err = f.svc.ImportRoster(ctx, authorized, strings.NewReader("Name,Abteilung\nAnna,QM\n"))
	assert.ErrorIs(t, err, types.ErrInvalidData)

	roster, err := f.backend.Roster().List()
	require.NoError(t, err)
	require.Len(t, roster, 1, "a rejected upload keeps the current roster")
	assert.Equal(t, "VA003", roster[0].ProcedureID)
}

func TestExport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, _, err := f.svc.SaveRecord(ctx, authorized, types.ProcedureRecord{ID: "VA1", Title: "Eins"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.Export(ctx, store.TableRecords, &buf))
	assert.Contains(t, buf.String(), "VA_Nr;Titel")
	assert.Contains(t, buf.String(), "VA001;Eins")

	assert.ErrorIs(t, f.svc.Export(ctx, "passwords", io.Discard), types.ErrUnknownTable)
}

func TestRenderDocument(t *testing.T) {
	t.Run("unknown record", func(t *testing.T) {
		f := setup(t)
		_, err := f.svc.RenderDocument(context.Background(), "VA9")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("renderer failure is reported", func(t *testing.T) {
		r := render.New("")
		r.Font = "NoSuchFont"
		f := setup(t, WithRenderer(r))
		_, _, err := f.svc.SaveRecord(context.Background(), authorized, types.ProcedureRecord{ID: "VA1"})
		require.NoError(t, err)

		_, err = f.svc.RenderDocument(context.Background(), "VA1")
		assert.ErrorIs(t, err, types.ErrRenderFailed)
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.DocumentsRendered.WithLabelValues(metrics.ResultError)))
	})

	t.Run("archived under the identifier", func(t *testing.T) {
		a, err := archivefs.New(t.TempDir())
		require.NoError(t, err)
		f := setup(t, WithArchive(a))
		ctx := context.Background()
		_, _, err = f.svc.SaveRecord(ctx, authorized, types.ProcedureRecord{ID: "VA3", Title: "Hygiene Plan"})
		require.NoError(t, err)

		doc, err := f.svc.RenderDocument(ctx, "3")
		require.NoError(t, err)

		infos, err := f.svc.ArchivedDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, "VA003.pdf", infos[0].Key)
		assert.Equal(t, int64(len(doc)), infos[0].Size)
	})

	t.Run("archive failure does not fail the render", func(t *testing.T) {
		f := setup(t, WithArchive(failingArchive{}))
		ctx := context.Background()
		_, _, err := f.svc.SaveRecord(ctx, authorized, types.ProcedureRecord{ID: "VA3"})
		require.NoError(t, err)

		doc, err := f.svc.RenderDocument(ctx, "VA3")
		require.NoError(t, err)
		assert.NotEmpty(t, doc)
		assert.Equal(t, 1, f.logs.FilterMessage("archiving document failed").Len())
	})
}

func TestArchivedDocumentsWithoutArchive(t *testing.T) {
	f := setup(t)
	infos, err := f.svc.ArchivedDocuments(context.Background())
	require.NoError(t, err)
	assert.Nil(t, infos)
}

func TestCanceledContext(t *testing.T) {
	f := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := f.svc.SaveRecord(ctx, authorized, types.ProcedureRecord{ID: "VA1"})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = f.svc.Records(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type failingArchive struct{}

func (failingArchive) Driver() archive.Driver { return archive.DriverFilesystem }

func (failingArchive) Put(context.Context, string, io.Reader, string) (archive.Info, error) {
	return archive.Info{}, errors.New("disk full")
}

func (failingArchive) Get(context.Context, string) (archive.Info, io.ReadCloser, error) {
	return archive.Info{}, nil, archive.ErrNotFound
}

func (failingArchive) List(context.Context) ([]archive.Info, error) { return nil, nil }
