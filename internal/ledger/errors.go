package ledger

import "fmt"

// PersistenceError wraps any failure to durably record an ImpactRecord.
// Callers must treat it as fatal: reporting success after a failed write is
// the one outcome this package exists to prevent.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
