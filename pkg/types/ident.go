package types

import (
	"strings"
	"unicode"
)

// IDPrefix is the literal tag of a canonical procedure identifier.
const IDPrefix = "VA"

// idDigits is the minimum zero-padded width of the numeric part.
const idDigits = 3

// NormalizeID canonicalizes a user-entered procedure identifier so that "7",
// "VA7", "va 007" and "VA007" all compare equal. The input is uppercased and
// stripped of whitespace; an optional leading "VA" is removed; an all-digit
// remainder is rendered as "VA" plus at least three digits. Anything else is
// returned uppercased and stripped. NormalizeID is total and idempotent.
func NormalizeID(raw string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToUpper(raw))

	rest := strings.TrimPrefix(s, IDPrefix)
	if rest == "" || !allASCIIDigits(rest) {
		return s
	}

	rest = strings.TrimLeft(rest, "0")
	if len(rest) < idDigits {
		rest = strings.Repeat("0", idDigits-len(rest)) + rest
	}
	return IDPrefix + rest
}

func allASCIIDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NormalizeName returns the canonical "First Last" display form of a person
// name. "Last, First" is reordered; names with more than one comma have their
// commas replaced by spaces. Whitespace runs collapse to a single space.
// NormalizeName is idempotent and its result never contains a comma.
func NormalizeName(raw string) string {
	s := strings.TrimSpace(raw)
	switch strings.Count(s, ",") {
	case 0:
	case 1:
		last, first, _ := strings.Cut(s, ",")
		s = strings.TrimSpace(first) + " " + strings.TrimSpace(last)
	default:
		s = strings.ReplaceAll(s, ",", " ")
	}
	return strings.Join(strings.Fields(s), " ")
}

// NameKey is the join key for person names: the normalized name, lowercased.
func NameKey(raw string) string {
	return strings.ToLower(NormalizeName(raw))
}
