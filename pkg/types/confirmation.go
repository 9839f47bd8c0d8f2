package types

import "time"

// TimestampLayout is the wall-clock format of the confirmation file.
const TimestampLayout = "2006-01-02 15:04:05"

// Confirmation file column names.
const (
	ColumnPerson    = "Name"
	ColumnTimestamp = "Zeitpunkt"
)

// ConfirmationColumns is the fixed header of the confirmation file.
var ConfirmationColumns = []string{ColumnPerson, ColumnID, ColumnTimestamp}

// ConfirmationEntry records that Person has read procedure ProcedureID.
type ConfirmationEntry struct {
	Person      string    `json:"name"`
	ProcedureID string    `json:"va_nr"`
	ConfirmedAt time.Time `json:"zeitpunkt"`
}

// Row renders the entry as a confirmation file row. The timestamp is written
// in the zone it carries.
func (c ConfirmationEntry) Row() []string {
	return []string{c.Person, c.ProcedureID, c.ConfirmedAt.Format(TimestampLayout)}
}

// ConfirmationFromRow parses a confirmation file row. An unparseable
// timestamp yields the zero time rather than an error; loc is the zone the
// file was written in.
func ConfirmationFromRow(row []string, loc *time.Location) ConfirmationEntry {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	at, _ := time.ParseInLocation(TimestampLayout, cell(2), loc)
	return ConfirmationEntry{
		Person:      NormalizeName(cell(0)),
		ProcedureID: NormalizeID(cell(1)),
		ConfirmedAt: at,
	}
}
