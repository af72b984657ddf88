package audit

import "context"

// Recorder is the write side of the audit trail. Domain services depend on
// this narrow interface so tests can substitute a capture.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// ListFilter narrows List results.
type ListFilter struct {
	Module string
	Actor  string
}

// Repository is the full audit store.
type Repository interface {
	Recorder
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Event, int, error)
}
