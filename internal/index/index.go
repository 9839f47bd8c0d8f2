// Package index loads the three tables into an in-memory SQLite database
// and answers the joined queries the overview page and search box need. The
// CSV files stay the source of truth; an Index is a snapshot built on demand
// and thrown away after use.
package index

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/qmva/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// Index is a read-only query snapshot of the tables.
type Index struct {
	db *sql.DB
}

// Build snapshots backend into a fresh in-memory database. The three
// tables are read concurrently.
func Build(ctx context.Context, backend types.Backend) (*Index, error) {
	var (
		records       []types.ProcedureRecord
		roster        []types.RosterEntry
		confirmations []types.ConfirmationEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if records, err = backend.Records().List(); err != nil {
			return fmt.Errorf("listing records: %w", err)
		}
		return gctx.Err()
	})
	g.Go(func() (err error) {
		if roster, err = backend.Roster().List(); err != nil {
			return fmt.Errorf("listing roster: %w", err)
		}
		return gctx.Err()
	})
	g.Go(func() (err error) {
		if confirmations, err = backend.Confirmations().List(); err != nil {
			return fmt.Errorf("listing confirmations: %w", err)
		}
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return FromEntries(ctx, records, roster, confirmations)
}

// FromEntries builds an index from already loaded table contents.
func FromEntries(ctx context.Context, records []types.ProcedureRecord, roster []types.RosterEntry, confirmations []types.ConfirmationEntry) (*Index, error) {
	db, err := sql.Open("sqlite", "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}
	// A second pooled connection would see its own empty memory database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating index schema: %w", err)
	}
	if err := load(ctx, db, records, roster, confirmations); err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

// Close releases the database.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// load inserts all rows in one transaction. Later roster rows for the same
// person and procedure replace earlier ones; repeated confirmations keep the
// first.
func load(ctx context.Context, db *sql.DB, records []types.ProcedureRecord, roster []types.RosterEntry, confirmations []types.ConfirmationEntry) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	recStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO procedures
(va_nr, ordinal, title, chapter, sub_chapter, revision, purpose, scope, procedure_text, comment, refs, haystack)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing procedure insert: %w", err)
	}
	defer recStmt.Close()
	for i, r := range records {
		id := types.NormalizeID(r.ID)
		if id == "" {
			continue
		}
		if _, err := recStmt.ExecContext(ctx, id, i, r.Title, r.Chapter, r.SubChapter, r.Revision,
			r.Purpose, r.Scope, r.Procedure, r.Comment, r.References, haystack(id, r)); err != nil {
			return fmt.Errorf("inserting procedure %s: %w", id, err)
		}
	}

	rosterStmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO assignments (name_key, display_name, va_nr) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing assignment insert: %w", err)
	}
	defer rosterStmt.Close()
	for _, e := range roster {
		name := e.FullName()
		id := types.NormalizeID(e.ProcedureID)
		if name == "" || id == "" {
			continue
		}
		if _, err := rosterStmt.ExecContext(ctx, types.NameKey(name), name, id); err != nil {
			return fmt.Errorf("inserting assignment %s/%s: %w", name, id, err)
		}
	}

	confStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO confirmations (name_key, va_nr, confirmed_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing confirmation insert: %w", err)
	}
	defer confStmt.Close()
	for _, c := range confirmations {
		key := types.NameKey(c.Person)
		id := types.NormalizeID(c.ProcedureID)
		if key == "" || id == "" {
			continue
		}
		if _, err := confStmt.ExecContext(ctx, key, id, c.ConfirmedAt.Format(types.TimestampLayout)); err != nil {
			return fmt.Errorf("inserting confirmation %s/%s: %w", c.Person, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// haystack is the lowercased text Search matches against.
func haystack(id string, r types.ProcedureRecord) string {
	return strings.ToLower(strings.Join([]string{
		id, r.Title, r.Chapter, r.SubChapter, r.Purpose, r.Scope, r.Procedure,
	}, "\n"))
}
