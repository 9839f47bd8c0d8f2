package render

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// replacements maps characters outside the core-font repertoire to ASCII.
var replacements = strings.NewReplacer(
	// quotes
	"“", `"`, "”", `"`, "„", `"`, "‟", `"`, "«", `"`, "»", `"`,
	"‘", "'", "’", "'", "‚", "'", "‛", "'", "‹", "'", "›", "'",
	"′", "'", "″", `"`,
	// dashes
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-", "―", "-", "−", "-",
	// bullets and dots
	"•", "*", "‣", "*", "●", "*", "▪", "*", "·", "*", "…", "...",
	// currency
	"€", "EUR", "£", "GBP", "¥", "JPY", "¢", "ct",
	// German letters
	"ä", "ae", "ö", "oe", "ü", "ue", "Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
	"ß", "ss", "ẞ", "SS",
	// letters without a decomposition
	"ø", "o", "Ø", "O", "æ", "ae", "Æ", "AE", "œ", "oe", "Œ", "OE",
	"ł", "l", "Ł", "L", "đ", "d", "Đ", "D",
	// symbols
	"©", "(c)", "®", "(R)", "™", "(TM)", "°", " Grad", "§", "Par.",
	"½", "1/2", "¼", "1/4", "¾", "3/4", "×", "x", "→", "->", "←", "<-",
	// spacing
	"\u00a0", " ", "\u2009", " ", "\u202f", " ", "\u00ad", "", "\u200b", "", "\ufeff", "",
	"\t", "    ", "\r\n", "\n", "\r", "\n",
)

// stripMarks removes combining marks left after canonical decomposition.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Sanitize transliterates s to printable ASCII so that the core PDF fonts can
// render it. Known typographic characters get their conventional ASCII
// spelling, diacritics are dropped, and any other non-ASCII rune becomes '?'.
// Control characters other than newline are removed.
func Sanitize(s string) string {
	s = replacements.Replace(norm.NFC.String(s))
	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = stripped
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteRune(r)
		case r < 0x20 || r == 0x7F:
		case r > 0x7E:
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
