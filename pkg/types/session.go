package types

// Session is the request-scoped access state handed to every mutating
// operation. It replaces any process-wide login flag.
type Session struct {
	ID         string
	Authorized bool
}

// Require returns ErrUnauthorized unless the session passed the access gate.
func (s Session) Require() error {
	if !s.Authorized {
		return ErrUnauthorized
	}
	return nil
}
