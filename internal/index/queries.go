package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/qmva/pkg/types"
)

const overviewSQL = `WITH ids AS (
    SELECT va_nr FROM procedures
    UNION
    SELECT va_nr FROM assignments
)
SELECT ids.va_nr,
    (SELECT COUNT(*) FROM assignments a
        JOIN confirmations c ON c.name_key = a.name_key AND c.va_nr = a.va_nr
        WHERE a.va_nr = ids.va_nr),
    (SELECT COUNT(*) FROM assignments a WHERE a.va_nr = ids.va_nr)
FROM ids
ORDER BY ids.va_nr`

const missingSQL = `SELECT a.va_nr, a.display_name
FROM assignments a
LEFT JOIN confirmations c ON c.name_key = a.name_key AND c.va_nr = a.va_nr
WHERE c.name_key IS NULL
ORDER BY a.va_nr, a.display_name`

// Overview returns the progress of every procedure that has a record or a
// roster assignment, sorted by identifier. It agrees with progress.Overview
// on the same input.
func (ix *Index) Overview(ctx context.Context) ([]types.Progress, error) {
	rows, err := ix.db.QueryContext(ctx, overviewSQL)
	if err != nil {
		return nil, fmt.Errorf("querying overview: %w", err)
	}
	defer rows.Close()

	out := make([]types.Progress, 0)
	pos := make(map[string]int)
	for rows.Next() {
		var p types.Progress
		if err := rows.Scan(&p.ProcedureID, &p.Confirmed, &p.Total); err != nil {
			return nil, fmt.Errorf("scanning overview: %w", err)
		}
		pos[p.ProcedureID] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	missing, err := ix.db.QueryContext(ctx, missingSQL)
	if err != nil {
		return nil, fmt.Errorf("querying missing confirmations: %w", err)
	}
	defer missing.Close()
	for missing.Next() {
		var id, name string
		if err := missing.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning missing confirmations: %w", err)
		}
		if i, ok := pos[id]; ok {
			out[i].Missing = append(out[i].Missing, name)
		}
	}
	return out, missing.Err()
}

// Search returns the records whose identifier, title, chapter, purpose,
// scope or procedure text contains term, ignoring case, in file order. An
// empty term matches everything.
func (ix *Index) Search(ctx context.Context, term string) ([]types.ProcedureRecord, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	rows, err := ix.db.QueryContext(ctx, `SELECT va_nr, title, chapter, sub_chapter, revision, purpose, scope, procedure_text, comment, refs
FROM procedures
WHERE ? = '' OR instr(haystack, ?) > 0
ORDER BY ordinal`, term, term)
	if err != nil {
		return nil, fmt.Errorf("searching procedures: %w", err)
	}
	defer rows.Close()

	var out []types.ProcedureRecord
	for rows.Next() {
		var r types.ProcedureRecord
		if err := rows.Scan(&r.ID, &r.Title, &r.Chapter, &r.SubChapter, &r.Revision,
			&r.Purpose, &r.Scope, &r.Procedure, &r.Comment, &r.References); err != nil {
			return nil, fmt.Errorf("scanning procedure: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
