package teleconsult

import (
	"time"

	"github.com/google/uuid"
)

// SessionType distinguishes consult-now requests from scheduled ones.
type SessionType string

const (
	SessionNow   SessionType = "now"
	SessionLater SessionType = "later"
)

// Valid reports whether t is a known session type.
func (t SessionType) Valid() bool { return t == SessionNow || t == SessionLater }

// SessionStatus is the lifecycle status of a teleconsult session.
type SessionStatus string

const (
	StatusInQueue        SessionStatus = "in-queue"
	StatusDoctorAssigned SessionStatus = "doctor-assigned"
	StatusConnecting     SessionStatus = "connecting"
	StatusInSession      SessionStatus = "in-session"
	StatusWrapUp         SessionStatus = "wrap-up"
	StatusCompleted      SessionStatus = "completed"
	StatusNoShow         SessionStatus = "no-show"
	StatusCancelled      SessionStatus = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusNoShow || s == StatusCancelled
}

// Waiting reports whether the session is in the waiting partition for stats.
func (s SessionStatus) Waiting() bool {
	return s == StatusInQueue || s == StatusDoctorAssigned || s == StatusConnecting
}

// Active reports whether the session is live with a doctor.
func (s SessionStatus) Active() bool {
	return s == StatusInSession || s == StatusWrapUp
}

// transitionMap lists the statuses each lifecycle action may fire from.
// Repeated calls and calls from other states are silent no-ops, matching the
// engine-wide permissive policy.
var transitionMap = map[string][]SessionStatus{
	"assign":  {StatusInQueue, StatusDoctorAssigned},
	"connect": {StatusDoctorAssigned},
	"start":   {StatusDoctorAssigned, StatusConnecting},
	"wrap-up": {StatusInSession},
	"end":     {StatusInSession, StatusWrapUp},
	"no-show": {StatusInQueue, StatusDoctorAssigned, StatusConnecting},
}

// ValidTransition reports whether action may fire from the given status.
// "cancel" is allowed from any non-terminal status.
func ValidTransition(action string, from SessionStatus) bool {
	if action == "cancel" {
		return !from.Terminal()
	}
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == from {
			return true
		}
	}
	return false
}

// SessionPriority orders the teleconsult queue.
type SessionPriority string

const (
	PriorityNormal   SessionPriority = "normal"
	PriorityUrgent   SessionPriority = "urgent"
	PriorityFollowUp SessionPriority = "follow-up"
)

// Session is one remote-consultation request, independent of the in-person
// station journey.
type Session struct {
	ID                 uuid.UUID       `json:"id"`
	PatientName        string          `json:"patient_name"`
	Type               SessionType     `json:"type"`
	Status             SessionStatus   `json:"status"`
	Priority           SessionPriority `json:"priority"`
	Specialty          string          `json:"specialty"`
	ChiefComplaint     string          `json:"chief_complaint"`
	ScheduledTime      *time.Time      `json:"scheduled_time,omitempty"`
	WaitMinutes        int             `json:"wait_minutes"`
	AssignedDoctorID   *uuid.UUID      `json:"assigned_doctor_id,omitempty"`
	AssignedDoctorName string          `json:"assigned_doctor_name,omitempty"`
	IntakeCompleted    bool            `json:"intake_completed"`
	PatientOnline      bool            `json:"patient_online"`
	ConnectionQuality  string          `json:"connection_quality,omitempty"`
	SessionStartedAt   *time.Time      `json:"session_started_at,omitempty"`
	SessionEndedAt     *time.Time      `json:"session_ended_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Clone returns a deep copy safe to hold outside the store lock.
func (s *Session) Clone() *Session {
	cp := *s
	if s.ScheduledTime != nil {
		v := *s.ScheduledTime
		cp.ScheduledTime = &v
	}
	if s.AssignedDoctorID != nil {
		v := *s.AssignedDoctorID
		cp.AssignedDoctorID = &v
	}
	if s.SessionStartedAt != nil {
		v := *s.SessionStartedAt
		cp.SessionStartedAt = &v
	}
	if s.SessionEndedAt != nil {
		v := *s.SessionEndedAt
		cp.SessionEndedAt = &v
	}
	return &cp
}

// DoctorStatus is the availability state of a staffed teleconsult slot.
type DoctorStatus string

const (
	DoctorAvailable     DoctorStatus = "available"
	DoctorInSession     DoctorStatus = "in-session"
	DoctorOnBreak       DoctorStatus = "on-break"
	DoctorClinicConsult DoctorStatus = "clinic-consult"
	DoctorRounds        DoctorStatus = "rounds"
	DoctorOffline       DoctorStatus = "offline"
	DoctorScheduled     DoctorStatus = "scheduled"
)

var validDoctorStatuses = map[DoctorStatus]bool{
	DoctorAvailable:     true,
	DoctorInSession:     true,
	DoctorOnBreak:       true,
	DoctorClinicConsult: true,
	DoctorRounds:        true,
	DoctorOffline:       true,
	DoctorScheduled:     true,
}

// Valid reports whether s is a known doctor status.
func (s DoctorStatus) Valid() bool { return validDoctorStatuses[s] }

// Doctor is a staffed teleconsult slot.
// Invariant: CurrentSessionID is set if and only if Status is in-session.
type Doctor struct {
	ID                uuid.UUID    `json:"id"`
	Name              string       `json:"name"`
	Specialty         string       `json:"specialty"`
	Status            DoctorStatus `json:"status"`
	CheckedIn         bool         `json:"checked_in"`
	CurrentSessionID  *uuid.UUID   `json:"current_session_id,omitempty"`
	CurrentActivity   *string      `json:"current_activity,omitempty"`
	SessionsCompleted int          `json:"sessions_completed"`
	AvgSessionMinutes int          `json:"avg_session_minutes"`
	ShiftStart        string       `json:"shift_start,omitempty"`
	ShiftEnd          string       `json:"shift_end,omitempty"`
	BreakStart        *string      `json:"break_start,omitempty"`
	BreakEnd          *string      `json:"break_end,omitempty"`
	ScheduledDate     string       `json:"scheduled_date,omitempty"`
}

// Clone returns a deep copy safe to hold outside the store lock.
func (d *Doctor) Clone() *Doctor {
	cp := *d
	if d.CurrentSessionID != nil {
		v := *d.CurrentSessionID
		cp.CurrentSessionID = &v
	}
	if d.CurrentActivity != nil {
		v := *d.CurrentActivity
		cp.CurrentActivity = &v
	}
	if d.BreakStart != nil {
		v := *d.BreakStart
		cp.BreakStart = &v
	}
	if d.BreakEnd != nil {
		v := *d.BreakEnd
		cp.BreakEnd = &v
	}
	return &cp
}

// Stats is the derived teleconsult dashboard view, recomputed on every read.
// Doctor counts cover checked-in doctors only.
type Stats struct {
	WaitingSessions int            `json:"waiting_sessions"`
	ActiveSessions  int            `json:"active_sessions"`
	AvgWaitMinutes  float64        `json:"avg_wait_minutes"`
	DoctorsByStatus map[string]int `json:"doctors_by_status"`
}
