package store

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/qmva/internal/csvfile"
	"github.com/mesh-intelligence/qmva/pkg/types"
)

// confirmationLog implements types.ConfirmationLog over ConfirmationsFile.
type confirmationLog struct {
	b *Backend
}

func (l *confirmationLog) load(path string) []types.ConfirmationEntry {
	table := l.b.load(path, types.ConfirmationColumns)
	loc := l.b.Location()
	entries := make([]types.ConfirmationEntry, 0, len(table.Rows))
	for _, row := range table.Rows {
		e := types.ConfirmationFromRow(row, loc)
		if e.Person == "" || e.ProcedureID == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// Record appends a confirmation for person and procedureID stamped with now
// in the backend's zone, truncated to the second. A person confirms a
// procedure at most once.
func (l *confirmationLog) Record(person, procedureID string, now time.Time) (types.ConfirmationEntry, error) {
	name := types.NormalizeName(person)
	if name == "" {
		return types.ConfirmationEntry{}, types.ErrInvalidName
	}
	id := types.NormalizeID(procedureID)
	if id == "" {
		return types.ConfirmationEntry{}, types.ErrInvalidID
	}

	path, err := l.b.pathFor(ConfirmationsFile)
	if err != nil {
		return types.ConfirmationEntry{}, err
	}

	entry := types.ConfirmationEntry{
		Person:      name,
		ProcedureID: id,
		ConfirmedAt: now.In(l.b.Location()).Truncate(time.Second),
	}
	key := types.NameKey(name)
	err = l.b.mutate(path, func() error {
		for _, e := range l.load(path) {
			if e.ProcedureID == id && types.NameKey(e.Person) == key {
				return fmt.Errorf("%w: %s, %s", types.ErrAlreadyConfirmed, name, id)
			}
		}
		return csvfile.Append(path, types.ConfirmationColumns, entry.Row())
	})
	if err != nil {
		return types.ConfirmationEntry{}, err
	}
	return entry, nil
}

func (l *confirmationLog) List() ([]types.ConfirmationEntry, error) {
	path, err := l.b.pathFor(ConfirmationsFile)
	if err != nil {
		return nil, err
	}
	return l.load(path), nil
}

func (l *confirmationLog) ForProcedure(procedureID string) ([]types.ConfirmationEntry, error) {
	all, err := l.List()
	if err != nil {
		return nil, err
	}
	id := types.NormalizeID(procedureID)
	var out []types.ConfirmationEntry
	for _, e := range all {
		if e.ProcedureID == id {
			out = append(out, e)
		}
	}
	return out, nil
}
