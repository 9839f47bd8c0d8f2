// Package progress computes read-confirmation progress by joining the roster
// with the confirmation log on normalized procedure identifiers and
// normalized person names.
package progress

import (
	"sort"

	"github.com/mesh-intelligence/qmva/pkg/types"
)

// Calculate returns how many of the people assigned to procedureID have
// confirmed it. Each person counts once however often they appear in the
// roster or the log. Confirmations from people who are not assigned are
// ignored. Total is 0 when nobody is assigned; see types.Progress.Undefined.
func Calculate(procedureID string, roster []types.RosterEntry, confirmations []types.ConfirmationEntry) types.Progress {
	id := types.NormalizeID(procedureID)

	// key -> display name
	target := make(map[string]string)
	for _, r := range roster {
		if types.NormalizeID(r.ProcedureID) != id {
			continue
		}
		name := r.FullName()
		if name == "" {
			continue
		}
		target[types.NameKey(name)] = name
	}

	confirmed := make(map[string]bool)
	for _, c := range confirmations {
		if types.NormalizeID(c.ProcedureID) == id {
			confirmed[types.NameKey(c.Person)] = true
		}
	}

	p := types.Progress{ProcedureID: id, Total: len(target)}
	for key, name := range target {
		if confirmed[key] {
			p.Confirmed++
		} else {
			p.Missing = append(p.Missing, name)
		}
	}
	sort.Strings(p.Missing)
	return p
}

// Overview returns the progress of every procedure that appears in records
// or in the roster, sorted by identifier.
func Overview(records []types.ProcedureRecord, roster []types.RosterEntry, confirmations []types.ConfirmationEntry) []types.Progress {
	ids := make(map[string]bool)
	for _, r := range records {
		if id := types.NormalizeID(r.ID); id != "" {
			ids[id] = true
		}
	}
	for _, r := range roster {
		if id := types.NormalizeID(r.ProcedureID); id != "" {
			ids[id] = true
		}
	}

	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	out := make([]types.Progress, 0, len(sorted))
	for _, id := range sorted {
		out = append(out, Calculate(id, roster, confirmations))
	}
	return out
}
