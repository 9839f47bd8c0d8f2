package types

import "strings"

// ProcedureRecord is one procedure instruction ("Verfahrensanweisung").
// ID is the business key and is stored in normalized form (see NormalizeID).
type ProcedureRecord struct {
	ID         string `json:"va_nr"`
	Title      string `json:"titel"`
	Chapter    string `json:"kapitel"`
	SubChapter string `json:"unterkapitel"`
	Revision   string `json:"revisionsstand"`
	Purpose    string `json:"ziel"`
	Scope      string `json:"geltungsbereich"`
	Procedure  string `json:"vorgehensweise"`
	Comment    string `json:"kommentar"`
	References string `json:"mitgeltende_unterlagen"`
}

// Procedure file column names, in file order.
const (
	ColumnID         = "VA_Nr"
	ColumnTitle      = "Titel"
	ColumnChapter    = "Kapitel"
	ColumnSubChapter = "Unterkapitel"
	ColumnRevision   = "Revisionsstand"
	ColumnPurpose    = "Ziel"
	ColumnScope      = "Geltungsbereich"
	ColumnProcedure  = "Vorgehensweise"
	ColumnComment    = "Kommentar"
	ColumnReferences = "Mitgeltende Unterlagen"
)

// RecordColumns is the fixed header of the procedure file.
var RecordColumns = []string{
	ColumnID, ColumnTitle, ColumnChapter, ColumnSubChapter, ColumnRevision,
	ColumnPurpose, ColumnScope, ColumnProcedure, ColumnComment, ColumnReferences,
}

// Field is a labeled text field of a record.
type Field struct {
	Label string
	Value string
}

// Fields returns the textual fields after the identifier, labeled by their
// column names and in file order.
func (r ProcedureRecord) Fields() []Field {
	return []Field{
		{ColumnTitle, r.Title},
		{ColumnChapter, r.Chapter},
		{ColumnSubChapter, r.SubChapter},
		{ColumnRevision, r.Revision},
		{ColumnPurpose, r.Purpose},
		{ColumnScope, r.Scope},
		{ColumnProcedure, r.Procedure},
		{ColumnComment, r.Comment},
		{ColumnReferences, r.References},
	}
}

// Row renders the record as a procedure file row in RecordColumns order.
func (r ProcedureRecord) Row() []string {
	row := []string{r.ID}
	for _, f := range r.Fields() {
		row = append(row, f.Value)
	}
	return row
}

// RecordFromRow builds a record from a row in RecordColumns order. Missing
// trailing cells are treated as empty. The identifier is normalized.
func RecordFromRow(row []string) ProcedureRecord {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return ProcedureRecord{
		ID:         NormalizeID(cell(0)),
		Title:      cell(1),
		Chapter:    cell(2),
		SubChapter: cell(3),
		Revision:   cell(4),
		Purpose:    cell(5),
		Scope:      cell(6),
		Procedure:  cell(7),
		Comment:    cell(8),
		References: cell(9),
	}
}

// Normalized returns a copy with the identifier normalized and the single-line
// fields trimmed. Multi-line bodies are kept as entered.
func (r ProcedureRecord) Normalized() ProcedureRecord {
	r.ID = NormalizeID(r.ID)
	r.Title = strings.TrimSpace(r.Title)
	r.Chapter = strings.TrimSpace(r.Chapter)
	r.SubChapter = strings.TrimSpace(r.SubChapter)
	r.Revision = strings.TrimSpace(r.Revision)
	return r
}

// Validate reports ErrInvalidID when the record has no usable identifier.
func (r ProcedureRecord) Validate() error {
	if NormalizeID(r.ID) == "" {
		return ErrInvalidID
	}
	return nil
}
