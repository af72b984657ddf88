package teleconsult

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NewSessionInput carries the fields gathered by intake before a session is
// created. Intake always completes upstream, so IntakeCompleted is implied.
type NewSessionInput struct {
	PatientName    string
	Type           SessionType
	Priority       SessionPriority
	Specialty      string
	ChiefComplaint string
	ScheduledTime  *time.Time
}

// SessionListFilter narrows ListSessions results.
type SessionListFilter struct {
	Status     SessionStatus
	Specialty  string
	ActiveOnly bool
}

// Repository is the teleconsult store. Sessions and doctors live in one
// store because doctor release must be transactional with the session
// mutation: a doctor must never be left in-session with no session, or
// vice versa.
//
// Mutating methods follow the journey store convention: (entity, applied,
// error), where not-found and inapplicable-state are silent no-ops.
type Repository interface {
	AddSession(ctx context.Context, in NewSessionInput) (*Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*Session, bool, error)
	ListSessions(ctx context.Context, f SessionListFilter, limit, offset int) ([]*Session, int, error)

	AssignDoctor(ctx context.Context, sessionID, doctorID uuid.UUID) (*Session, bool, error)
	MarkConnecting(ctx context.Context, sessionID uuid.UUID) (*Session, bool, error)
	StartSession(ctx context.Context, sessionID uuid.UUID) (*Session, bool, error)
	BeginWrapUp(ctx context.Context, sessionID uuid.UUID) (*Session, bool, error)
	EndSession(ctx context.Context, sessionID uuid.UUID) (*Session, bool, error)
	MarkNoShow(ctx context.Context, sessionID uuid.UUID) (*Session, bool, error)
	Cancel(ctx context.Context, sessionID uuid.UUID) (*Session, bool, error)

	AddDoctor(ctx context.Context, d *Doctor) (*Doctor, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, bool, error)
	ListDoctors(ctx context.Context) ([]*Doctor, error)
	CheckInDoctor(ctx context.Context, id uuid.UUID) (*Doctor, bool, error)
	UpdateDoctorStatus(ctx context.Context, id uuid.UUID, status DoctorStatus, activity *string) (*Doctor, bool, error)

	IncrementWait(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*Stats, error)
}
