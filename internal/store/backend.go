// Package store implements types.Backend on top of the semicolon-separated
// table files in the data directory. The files are the only state; every
// read loads the current file and every mutation runs a locked
// load-modify-write cycle that ends in an atomic rename.
package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/qmva/internal/csvfile"
	"github.com/mesh-intelligence/qmva/pkg/types"
)

// Table file names inside the data directory.
const (
	RecordsFile       = "qm_va.csv"
	ConfirmationsFile = "lesebestaetigungen.csv"
	RosterFile        = "mitarbeiter.csv"
)

// Table names accepted by Path and Export.
const (
	TableRecords       = "va"
	TableConfirmations = "bestaetigungen"
	TableRoster        = "mitarbeiter"
)

var tableFiles = map[string]struct {
	file    string
	columns []string
}{
	TableRecords:       {RecordsFile, types.RecordColumns},
	TableConfirmations: {ConfirmationsFile, types.ConfirmationColumns},
	TableRoster:        {RosterFile, types.RosterColumns},
}

// Backend implements types.Backend using flat files.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	dataDir  string
	loc      *time.Location
	log      *zap.Logger

	records       *recordTable
	confirmations *confirmationLog
	roster        *rosterTable
}

var _ types.Backend = (*Backend)(nil)

// NewBackend creates a detached backend. A nil logger discards output.
func NewBackend(log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Backend{log: log.Named("store")}
	b.records = &recordTable{b: b}
	b.confirmations = &confirmationLog{b: b}
	b.roster = &rosterTable{b: b}
	return b
}

// Attach binds the backend to config.DataDir, creating the directory if it
// does not exist. Only DataDir and Timezone are consulted.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if config.DataDir == "" {
		return types.ErrDataDirEmpty
	}
	loc, err := config.Location()
	if err != nil {
		return fmt.Errorf("%w: %s", types.ErrTimezoneUnknown, config.Timezone)
	}
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	b.dataDir = config.DataDir
	b.loc = loc
	b.attached = true
	b.log.Debug("attached", zap.String("data_dir", b.dataDir), zap.String("timezone", loc.String()))
	return nil
}

// Detach releases the backend. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attached = false
	return nil
}

// Records returns the procedure table.
func (b *Backend) Records() types.RecordTable { return b.records }

// Confirmations returns the read-confirmation log.
func (b *Backend) Confirmations() types.ConfirmationLog { return b.confirmations }

// Roster returns the assignment table.
func (b *Backend) Roster() types.RosterTable { return b.roster }

// Location returns the zone confirmation timestamps are written in.
func (b *Backend) Location() *time.Location {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.loc == nil {
		return time.Local
	}
	return b.loc
}

// Path returns the file backing the named table.
func (b *Backend) Path(table string) (string, error) {
	tf, ok := tableFiles[table]
	if !ok {
		return "", fmt.Errorf("%w: %q", types.ErrUnknownTable, table)
	}
	dir, err := b.dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tf.file), nil
}

// Export writes the named table to w in the file format, header included,
// even when the file does not exist yet.
func (b *Backend) Export(table string, w io.Writer) error {
	path, err := b.Path(table)
	if err != nil {
		return err
	}
	return csvfile.Encode(w, b.load(path, tableFiles[table].columns))
}

func (b *Backend) dir() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return "", types.ErrDetached
	}
	return b.dataDir, nil
}

func (b *Backend) pathFor(file string) (string, error) {
	dir, err := b.dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, file), nil
}

// load reads a table and logs any degradation.
func (b *Backend) load(path string, columns []string) csvfile.Table {
	t := csvfile.Load(path, columns)
	if len(t.Warnings) > 0 {
		b.log.Warn("table loaded with problems",
			zap.String("path", path),
			zap.Strings("warnings", t.Warnings),
			zap.Int("rows", len(t.Rows)))
	}
	return t
}

// mutate runs fn under the writer lock of path.
func (b *Backend) mutate(path string, fn func() error) error {
	unlock, err := csvfile.Lock(path)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}
