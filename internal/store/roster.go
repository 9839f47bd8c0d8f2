package store

import (
	"io"

	"github.com/mesh-intelligence/qmva/internal/csvfile"
	"github.com/mesh-intelligence/qmva/pkg/types"
)

// rosterTable implements types.RosterTable over RosterFile.
type rosterTable struct {
	b *Backend
}

func (r *rosterTable) List() ([]types.RosterEntry, error) {
	path, err := r.b.pathFor(RosterFile)
	if err != nil {
		return nil, err
	}
	return rosterEntries(r.b.load(path, types.RosterColumns)), nil
}

func (r *rosterTable) ForProcedure(procedureID string) ([]types.RosterEntry, error) {
	all, err := r.List()
	if err != nil {
		return nil, err
	}
	id := types.NormalizeID(procedureID)
	var out []types.RosterEntry
	for _, e := range all {
		if e.ProcedureID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

// Replace atomically swaps the roster file for entries.
func (r *rosterTable) Replace(entries []types.RosterEntry) error {
	path, err := r.b.pathFor(RosterFile)
	if err != nil {
		return err
	}
	table := csvfile.Table{Columns: types.RosterColumns}
	for _, e := range entries {
		table.Rows = append(table.Rows, e.Row())
	}
	return r.b.mutate(path, func() error {
		return csvfile.Save(path, table)
	})
}

// ParseRoster decodes an uploaded roster file. Rows without a name or without
// an assigned procedure are dropped; the returned warnings describe parse
// problems.
func ParseRoster(rd io.Reader) ([]types.RosterEntry, []string, error) {
	table, err := csvfile.Decode(rd, types.RosterColumns)
	if err != nil {
		return nil, nil, err
	}
	return rosterEntries(table), table.Warnings, nil
}

func rosterEntries(table csvfile.Table) []types.RosterEntry {
	entries := make([]types.RosterEntry, 0, len(table.Rows))
	for _, row := range table.Rows {
		e := types.RosterFromRow(row)
		if e.FullName() == "" || e.ProcedureID == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}
