package store

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/qmva/internal/csvfile"
	"github.com/mesh-intelligence/qmva/pkg/types"
)

// recordTable implements types.RecordTable over RecordsFile.
type recordTable struct {
	b *Backend
}

// loadRecords returns the file's records in order. Rows without a usable
// identifier are skipped and later duplicates of an identifier are dropped,
// so the first row for an identifier wins.
func (t *recordTable) loadRecords(path string) []types.ProcedureRecord {
	table := t.b.load(path, types.RecordColumns)
	seen := make(map[string]bool, len(table.Rows))
	recs := make([]types.ProcedureRecord, 0, len(table.Rows))
	for _, row := range table.Rows {
		rec := types.RecordFromRow(row)
		if rec.ID == "" {
			continue
		}
		if seen[rec.ID] {
			t.b.log.Warn("duplicate procedure row ignored", zap.String("va_nr", rec.ID))
			continue
		}
		seen[rec.ID] = true
		recs = append(recs, rec)
	}
	return recs
}

func (t *recordTable) save(path string, recs []types.ProcedureRecord) error {
	table := csvfile.Table{Columns: types.RecordColumns}
	for _, r := range recs {
		table.Rows = append(table.Rows, r.Row())
	}
	return csvfile.Save(path, table)
}

func (t *recordTable) List() ([]types.ProcedureRecord, error) {
	path, err := t.b.pathFor(RecordsFile)
	if err != nil {
		return nil, err
	}
	return t.loadRecords(path), nil
}

func (t *recordTable) Get(id string) (types.ProcedureRecord, error) {
	key := types.NormalizeID(id)
	if key == "" {
		return types.ProcedureRecord{}, types.ErrInvalidID
	}
	recs, err := t.List()
	if err != nil {
		return types.ProcedureRecord{}, err
	}
	for _, r := range recs {
		if r.ID == key {
			return r, nil
		}
	}
	return types.ProcedureRecord{}, fmt.Errorf("%w: %s", types.ErrNotFound, key)
}

// Upsert replaces the row with rec's identifier or appends rec. The whole
// file is rewritten either way, so rows without an identifier and later
// duplicates are dropped on every write.
func (t *recordTable) Upsert(rec types.ProcedureRecord) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}
	rec = rec.Normalized()

	path, err := t.b.pathFor(RecordsFile)
	if err != nil {
		return false, err
	}

	created := false
	err = t.b.mutate(path, func() error {
		recs := t.loadRecords(path)
		for i := range recs {
			if recs[i].ID == rec.ID {
				recs[i] = rec
				return t.save(path, recs)
			}
		}
		created = true
		return t.save(path, append(recs, rec))
	})
	if err != nil {
		return false, fmt.Errorf("saving %s: %w", rec.ID, err)
	}
	return created, nil
}

func (t *recordTable) Delete(id string) error {
	key := types.NormalizeID(id)
	if key == "" {
		return types.ErrInvalidID
	}
	path, err := t.b.pathFor(RecordsFile)
	if err != nil {
		return err
	}
	return t.b.mutate(path, func() error {
		recs := t.loadRecords(path)
		kept := recs[:0]
		for _, r := range recs {
			if r.ID != key {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(recs) {
			return fmt.Errorf("%w: %s", types.ErrNotFound, key)
		}
		return t.save(path, kept)
	})
}
