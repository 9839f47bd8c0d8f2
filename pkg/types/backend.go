package types

import "time"

// Backend defines storage access for the three tables. Callers attach to a
// data directory, use the tables, and detach when done.
type Backend interface {
	// Attach opens the tables under config.DataDir, creating the directory
	// if needed. Returns ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases resources. Idempotent. After Detach the tables return
	// ErrDetached.
	Detach() error

	Records() RecordTable
	Confirmations() ConfirmationLog
	Roster() RosterTable
}

// RecordTable stores procedure records keyed by normalized identifier.
type RecordTable interface {
	// List returns all records in file order.
	List() ([]ProcedureRecord, error)

	// Get returns the record with the given identifier (normalized before
	// lookup). Returns ErrNotFound if none exists.
	Get(id string) (ProcedureRecord, error)

	// Upsert replaces every field of the record with the same identifier, or
	// appends it. created reports whether a new row was written.
	Upsert(rec ProcedureRecord) (created bool, err error)

	// Delete removes the record. Returns ErrNotFound if none exists.
	Delete(id string) error
}

// ConfirmationLog is the append-only read-confirmation table.
type ConfirmationLog interface {
	// Record appends a confirmation stamped with now. Returns
	// ErrAlreadyConfirmed if the person already confirmed the procedure.
	Record(person, procedureID string, now time.Time) (ConfirmationEntry, error)

	List() ([]ConfirmationEntry, error)
	ForProcedure(procedureID string) ([]ConfirmationEntry, error)
}

// RosterTable is the externally supplied assignment list.
type RosterTable interface {
	List() ([]RosterEntry, error)
	ForProcedure(procedureID string) ([]RosterEntry, error)

	// Replace swaps the whole roster for entries, as an upload does.
	Replace(entries []RosterEntry) error
}
