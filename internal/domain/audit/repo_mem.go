package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepo is a mutex-guarded in-memory audit trail, used when no database is
// configured. Durability is out of scope for the engine itself.
type MemRepo struct {
	mu     sync.Mutex
	events []*Event
	now    func() time.Time
}

func NewMemRepo() *MemRepo {
	return &MemRepo{now: func() time.Time { return time.Now().UTC() }}
}

func (r *MemRepo) Record(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now()
	}
	r.events = append(r.events, &e)
	return nil
}

func (r *MemRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*Event, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*Event
	// Newest first.
	for i := len(r.events) - 1; i >= 0; i-- {
		e := r.events[i]
		if f.Module != "" && e.Module != f.Module {
			continue
		}
		if f.Actor != "" && e.Actor != f.Actor {
			continue
		}
		matched = append(matched, e)
	}

	total := len(matched)
	if offset >= total {
		return []*Event{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]*Event, 0, end-offset)
	for _, e := range matched[offset:end] {
		cp := *e
		out = append(out, &cp)
	}
	return out, total, nil
}
