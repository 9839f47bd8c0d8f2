package types

// Progress is the read-confirmation status of one procedure. It is derived
// on every read and never stored.
type Progress struct {
	ProcedureID string   `json:"va_nr"`
	Confirmed   int      `json:"confirmed"`
	Total       int      `json:"total"`
	Missing     []string `json:"missing,omitempty"`
}

// Fraction returns Confirmed/Total, or 0 when nobody is assigned.
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Confirmed) / float64(p.Total)
}

// Undefined reports that no roster entry targets the procedure. Callers must
// not present this as complete.
func (p Progress) Undefined() bool {
	return p.Total == 0
}

// Complete reports that every assigned person has confirmed.
func (p Progress) Complete() bool {
	return p.Total > 0 && p.Confirmed == p.Total
}
