package types

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"7", "VA007"},
		{"VA7", "VA007"},
		{"va 007", "VA007"},
		{"VA007", "VA007"},
		{" va\t3 ", "VA003"},
		{"VA0007", "VA007"},
		{"VA1234", "VA1234"},
		{"0", "VA000"},
		{"VA07B", "VA07B"},
		{"va07b", "VA07B"},
		{"QM-12", "QM-12"},
		{"VA", "VA"},
		{"", ""},
		{"   ", ""},
		{"VAVA7", "VAVA7"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeID(tt.raw))
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Anna Schmidt", "Anna Schmidt"},
		{"Schmidt, Anna", "Anna Schmidt"},
		{"  Schmidt ,   Anna  ", "Anna Schmidt"},
		{"Anna   Maria  Schmidt", "Anna Maria Schmidt"},
		{"Schmidt,", "Schmidt"},
		{", Anna", "Anna"},
		{"a, b, c", "a b c"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.raw))
		})
	}
}

func TestNameKeyIgnoresOrderAndCase(t *testing.T) {
	assert.Equal(t, NameKey("Anna Schmidt"), NameKey("SCHMIDT, anna"))
	assert.NotEqual(t, NameKey("Anna Schmidt"), NameKey("Anne Schmidt"))
}

func TestNormalizeID_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.OneOf(
			rapid.String(),
			rapid.StringMatching(`(?i)\s*(va)?\s*[0-9]{0,6}[a-z]?\s*`),
		).Draw(t, "raw")
		once := NormalizeID(raw)
		if twice := NormalizeID(once); twice != once {
			t.Fatalf("NormalizeID not idempotent: %q -> %q -> %q", raw, once, twice)
		}
	})
}

func TestNormalizeID_NumericFormsAgree(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 999).Draw(t, "n")
		digits := rapid.StringMatching(`0{0,3}`).Draw(t, "pad") + strconv.Itoa(n)
		want := NormalizeID(strconv.Itoa(n))
		for _, form := range []string{digits, "VA" + digits, "va " + digits} {
			if got := NormalizeID(form); got != want {
				t.Fatalf("NormalizeID(%q) = %q, want %q", form, got, want)
			}
		}
	})
}

func TestNormalizeName_Idempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.OneOf(
			rapid.String(),
			rapid.StringMatching(`\s*[A-Za-z]{1,10}\s*,?\s*[A-Za-z]{0,10}\s*`),
		).Draw(t, "raw")
		once := NormalizeName(raw)
		if twice := NormalizeName(once); twice != once {
			t.Fatalf("NormalizeName not idempotent: %q -> %q -> %q", raw, once, twice)
		}
	})
}
