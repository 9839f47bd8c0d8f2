package types

import "strings"

// Roster file column names.
const (
	ColumnFirstName = "Vorname"
	ColumnLastName  = "Nachname"
)

// RosterColumns is the fixed header of the roster file.
var RosterColumns = []string{ColumnFirstName, ColumnLastName, ColumnID}

// RosterEntry assigns a staff member to a procedure they must confirm.
type RosterEntry struct {
	FirstName   string `json:"vorname"`
	LastName    string `json:"nachname"`
	ProcedureID string `json:"va_nr"`
}

// FullName returns the canonical "First Last" form.
func (r RosterEntry) FullName() string {
	return NormalizeName(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

// Row renders the entry as a roster file row.
func (r RosterEntry) Row() []string {
	return []string{strings.TrimSpace(r.FirstName), strings.TrimSpace(r.LastName), r.ProcedureID}
}

// RosterFromRow parses a roster file row and normalizes the identifier.
func RosterFromRow(row []string) RosterEntry {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	return RosterEntry{
		FirstName:   cell(0),
		LastName:    cell(1),
		ProcedureID: NormalizeID(cell(2)),
	}
}
