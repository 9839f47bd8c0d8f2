// Package render lays out a procedure record as a paginated PDF document
// with a running footer on every page.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/mesh-intelligence/qmva/pkg/types"
)

// Placeholder is printed for empty fields.
const Placeholder = "-"

// pageTotalAlias is replaced by the page count once layout is finished.
const pageTotalAlias = "{nb}"

// Renderer produces procedure documents. The zero value is not usable; call
// New.
type Renderer struct {
	// Attribution is printed in every footer.
	Attribution string
	// Font is a core PDF font family.
	Font string
	// Compress enables stream compression. Tests turn it off to inspect
	// page content.
	Compress bool
	// Now stamps the document creation date.
	Now func() time.Time
}

// New returns a renderer with the given footer attribution.
func New(attribution string) *Renderer {
	if attribution == "" {
		attribution = types.DefaultAttribution
	}
	return &Renderer{
		Attribution: attribution,
		Font:        "Helvetica",
		Compress:    true,
		Now:         time.Now,
	}
}

// Title returns the title line of the document for rec.
func Title(rec types.ProcedureRecord) string {
	return "QM-Verfahrensanweisung " + rec.ID
}

// Render lays out rec: a title line with the identifier, one labeled section
// per field in fixed order, and a footer with identifier and title, the
// attribution and "Seite N von TOTAL". Any failure, including a panic in the
// layout library, is returned wrapped in types.ErrRenderFailed.
func (r *Renderer) Render(rec types.ProcedureRecord) (doc []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			doc = nil
			err = fmt.Errorf("%w: %s: %v", types.ErrRenderFailed, rec.ID, p)
		}
	}()

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetTitle(Sanitize(Title(rec)), false)
	pdf.SetAuthor(Sanitize(r.Attribution), false)
	pdf.SetCreationDate(r.Now())
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 28)
	pdf.AliasNbPages(pageTotalAlias)

	footerHead := Sanitize(rec.ID + " - " + rec.Title)
	attribution := Sanitize(r.Attribution)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-22)
		pdf.SetFont(r.Font, "I", 8)
		pdf.CellFormat(0, 4, footerHead, "T", 1, "L", false, 0, "")
		pdf.CellFormat(0, 4, attribution, "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 4, fmt.Sprintf("Seite %d von %s", pdf.PageNo(), pageTotalAlias), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(r.Font, "B", 16)
	pdf.CellFormat(0, 10, Sanitize(Title(rec)), "", 1, "C", false, 0, "")
	if t := strings.TrimSpace(rec.Title); t != "" {
		pdf.SetFont(r.Font, "", 12)
		pdf.MultiCell(0, 7, Sanitize(t), "", "C", false)
	}
	pdf.Ln(6)

	for _, f := range rec.Fields() {
		pdf.SetFont(r.Font, "B", 11)
		pdf.CellFormat(0, 7, Sanitize(f.Label), "", 1, "L", false, 0, "")
		pdf.SetFont(r.Font, "", 11)
		pdf.MultiCell(0, 6, body(f.Value), "", "L", false)
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrRenderFailed, rec.ID, err)
	}
	return buf.Bytes(), nil
}

func body(v string) string {
	v = strings.TrimSpace(Sanitize(v))
	if v == "" {
		return Placeholder
	}
	return v
}
