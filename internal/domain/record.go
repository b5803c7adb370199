package domain

import "fmt"

// Persistence controls whether a record is durably mirrored while it waits
// in the buffer. Low records exist only in memory until flushed; High records
// are written to the persistence mirror as they arrive.
type Persistence string

const (
	PersistenceLow  Persistence = "low"
	PersistenceHigh Persistence = "high"
)

// Valid reports whether p is a recognized persistence level.
func (p Persistence) Valid() bool {
	return p == PersistenceLow || p == PersistenceHigh
}

// Record represents a single accumulated error.
// Count starts at 1 on first observation and advances by one per repeat;
// the remaining fields are fixed at first observation and never merged.
type Record struct {
	// Name is the error class (e.g., "NetworkError")
	Name string `json:"name"`

	// Message is the human-readable error description
	Message string `json:"message"`

	// StackTrace is the capture site, if any
	StackTrace string `json:"stack_trace"`

	// Count is the number of observed occurrences
	Count int `json:"count"`

	// Persistence is the durability level (low or high)
	Persistence Persistence `json:"persistence"`
}

// Normalize fills defaults and validates the minimal required fields.
// An empty persistence level defaults to low. The supplied Count is
// overwritten by the buffer and is not validated here.
func (r *Record) Normalize() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRecord)
	}
	if r.Message == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidRecord)
	}
	if r.Persistence == "" {
		r.Persistence = PersistenceLow
	}
	if !r.Persistence.Valid() {
		return fmt.Errorf("%w: unknown persistence level %q", ErrInvalidRecord, r.Persistence)
	}
	return nil
}
