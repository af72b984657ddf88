package journey

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows List results.
type ListFilter struct {
	Station    Station
	Status     Status
	ActiveOnly bool
}

// Repository is the patient-journey store. Each method is a single atomic
// read-modify-write: implementations must guarantee that a mutation,
// including its journey-history append, cannot interleave with the ticker's
// IncrementWait pass.
//
// Mutating methods return (patient, applied, error). A nil patient with
// applied=false means the id was not found; a non-nil patient with
// applied=false means the operation did not apply in the patient's current
// state. Both are deliberate no-ops, never errors.
type Repository interface {
	CheckIn(ctx context.Context, name, chiefComplaint string, priority Priority) (*QueuePatient, error)
	Get(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error)
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*QueuePatient, int, error)

	Transfer(ctx context.Context, id uuid.UUID, to Station, room *RoomAssignment) (*QueuePatient, bool, error)
	Complete(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error)
	MarkNoShow(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error)
	Skip(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error)
	Pause(ctx context.Context, id uuid.UUID, reason string, notes *string, resumeDate *time.Time) (*QueuePatient, bool, error)
	Resume(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error)

	AddOrders(ctx context.Context, id uuid.UUID, types []OrderType, mode OrderMode) (*QueuePatient, bool, error)
	StartOrder(ctx context.Context, id, orderID uuid.UUID) (*QueuePatient, bool, error)
	CompleteOrder(ctx context.Context, id, orderID uuid.UUID) (*QueuePatient, bool, error)
	CompleteCurrentOrder(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error)
	DeferOrder(ctx context.Context, id, orderID uuid.UUID) (*QueuePatient, bool, error)

	CallNext(ctx context.Context, station Station, id *uuid.UUID) (*QueuePatient, bool, error)
	StartPatient(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error)

	IncrementWait(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*QueueStats, error)
}
