package teleconsult

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepo is the in-memory teleconsult store. One mutex covers sessions and
// doctors so session/doctor pairs mutate atomically, and so the ticker's
// wait increment cannot interleave with a lifecycle transition.
type MemRepo struct {
	mu       sync.Mutex
	sessions []*Session
	byID     map[uuid.UUID]*Session
	doctors  map[uuid.UUID]*Doctor
	now      func() time.Time
}

// NewMemRepo creates an empty in-memory teleconsult store.
func NewMemRepo() *MemRepo {
	return &MemRepo{
		byID:    make(map[uuid.UUID]*Session),
		doctors: make(map[uuid.UUID]*Doctor),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the store clock. Test hook.
func (r *MemRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func (r *MemRepo) AddSession(_ context.Context, in NewSessionInput) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	s := &Session{
		ID:              uuid.New(),
		PatientName:     in.PatientName,
		Type:            in.Type,
		Status:          StatusInQueue,
		Priority:        in.Priority,
		Specialty:       in.Specialty,
		ChiefComplaint:  in.ChiefComplaint,
		ScheduledTime:   in.ScheduledTime,
		IntakeCompleted: true,
		PatientOnline:   true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.sessions = append(r.sessions, s)
	r.byID[s.ID] = s
	return s.Clone(), nil
}

func (r *MemRepo) GetSession(_ context.Context, id uuid.UUID) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}
	return s.Clone(), true, nil
}

func (r *MemRepo) ListSessions(_ context.Context, f SessionListFilter, limit, offset int) ([]*Session, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*Session
	for _, s := range r.sessions {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.Specialty != "" && s.Specialty != f.Specialty {
			continue
		}
		if f.ActiveOnly && s.Status.Terminal() {
			continue
		}
		matched = append(matched, s)
	}

	total := len(matched)
	if offset >= total {
		return []*Session{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]*Session, 0, end-offset)
	for _, s := range matched[offset:end] {
		out = append(out, s.Clone())
	}
	return out, total, nil
}

func (r *MemRepo) AssignDoctor(_ context.Context, sessionID, doctorID uuid.UUID) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return nil, false, nil
	}
	d, ok := r.doctors[doctorID]
	if !ok {
		return s.Clone(), false, nil
	}
	if !ValidTransition("assign", s.Status) {
		return s.Clone(), false, nil
	}

	// Assignment binds the doctor to the session record only; the doctor's
	// own state does not change until the session starts.
	id := d.ID
	s.AssignedDoctorID = &id
	s.AssignedDoctorName = d.Name
	s.Status = StatusDoctorAssigned
	s.UpdatedAt = r.now()
	return s.Clone(), true, nil
}

func (r *MemRepo) MarkConnecting(_ context.Context, sessionID uuid.UUID) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return nil, false, nil
	}
	if !ValidTransition("connect", s.Status) {
		return s.Clone(), false, nil
	}
	s.Status = StatusConnecting
	s.UpdatedAt = r.now()
	return s.Clone(), true, nil
}

func (r *MemRepo) StartSession(_ context.Context, sessionID uuid.UUID) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return nil, false, nil
	}
	if s.AssignedDoctorID == nil {
		return s.Clone(), false, nil
	}
	if !ValidTransition("start", s.Status) {
		return s.Clone(), false, nil
	}

	now := r.now()
	s.Status = StatusInSession
	if s.SessionStartedAt == nil {
		s.SessionStartedAt = &now
	}
	s.UpdatedAt = now

	// Session and doctor flip together under the one lock.
	if d, ok := r.doctors[*s.AssignedDoctorID]; ok {
		sid := s.ID
		activity := fmt.Sprintf("Teleconsult with %s", s.PatientName)
		d.Status = DoctorInSession
		d.CurrentSessionID = &sid
		d.CurrentActivity = &activity
	}
	return s.Clone(), true, nil
}

func (r *MemRepo) BeginWrapUp(_ context.Context, sessionID uuid.UUID) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return nil, false, nil
	}
	if !ValidTransition("wrap-up", s.Status) {
		return s.Clone(), false, nil
	}
	s.Status = StatusWrapUp
	s.UpdatedAt = r.now()
	return s.Clone(), true, nil
}

func (r *MemRepo) EndSession(_ context.Context, sessionID uuid.UUID) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return nil, false, nil
	}
	if !ValidTransition("end", s.Status) {
		return s.Clone(), false, nil
	}

	now := r.now()
	s.Status = StatusCompleted
	if s.SessionEndedAt == nil {
		s.SessionEndedAt = &now
	}
	s.PatientOnline = false
	s.UpdatedAt = now

	if s.AssignedDoctorID != nil {
		r.releaseDoctor(*s.AssignedDoctorID, s, now, true)
	}
	return s.Clone(), true, nil
}

func (r *MemRepo) MarkNoShow(_ context.Context, sessionID uuid.UUID) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return nil, false, nil
	}
	if !ValidTransition("no-show", s.Status) {
		return s.Clone(), false, nil
	}
	s.Status = StatusNoShow
	s.PatientOnline = false
	s.UpdatedAt = r.now()
	return s.Clone(), true, nil
}

func (r *MemRepo) Cancel(_ context.Context, sessionID uuid.UUID) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sessionID]
	if !ok {
		return nil, false, nil
	}
	if !ValidTransition("cancel", s.Status) {
		return s.Clone(), false, nil
	}

	now := r.now()
	s.Status = StatusCancelled
	s.UpdatedAt = now

	// Free the doctor only if they are still on this session; a doctor who
	// has already moved on to a different session is left alone.
	if s.AssignedDoctorID != nil {
		if d, ok := r.doctors[*s.AssignedDoctorID]; ok {
			if d.CurrentSessionID != nil && *d.CurrentSessionID == s.ID {
				r.releaseDoctor(d.ID, s, now, false)
			}
		}
	}
	return s.Clone(), true, nil
}

// releaseDoctor returns a doctor to the available pool. Caller holds the
// lock. countCompleted also folds the session length into the doctor's
// running average.
func (r *MemRepo) releaseDoctor(doctorID uuid.UUID, s *Session, now time.Time, countCompleted bool) {
	d, ok := r.doctors[doctorID]
	if !ok {
		return
	}
	d.Status = DoctorAvailable
	d.CurrentSessionID = nil
	d.CurrentActivity = nil
	if countCompleted {
		d.SessionsCompleted++
		if s.SessionStartedAt != nil {
			minutes := int(now.Sub(*s.SessionStartedAt).Minutes())
			n := d.SessionsCompleted
			d.AvgSessionMinutes = (d.AvgSessionMinutes*(n-1) + minutes) / n
		}
	}
}

func (r *MemRepo) AddDoctor(_ context.Context, d *Doctor) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := d.Clone()
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.Status == "" {
		cp.Status = DoctorScheduled
	}
	r.doctors[cp.ID] = cp
	return cp.Clone(), nil
}

func (r *MemRepo) GetDoctor(_ context.Context, id uuid.UUID) (*Doctor, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, false, nil
	}
	return d.Clone(), true, nil
}

func (r *MemRepo) ListDoctors(_ context.Context) ([]*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		out = append(out, d.Clone())
	}
	return out, nil
}

func (r *MemRepo) CheckInDoctor(_ context.Context, id uuid.UUID) (*Doctor, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, false, nil
	}
	d.CheckedIn = true
	d.Status = DoctorAvailable
	return d.Clone(), true, nil
}

func (r *MemRepo) UpdateDoctorStatus(_ context.Context, id uuid.UUID, status DoctorStatus, activity *string) (*Doctor, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, false, nil
	}
	// The in-session state belongs to the session lifecycle: StartSession
	// sets it and releaseDoctor clears it together with the session binding.
	// Manual updates into or out of it are silent no-ops.
	if d.Status == DoctorInSession || status == DoctorInSession {
		return d.Clone(), false, nil
	}
	d.Status = status
	d.CurrentActivity = activity
	return d.Clone(), true, nil
}

// IncrementWait advances the wait counter on every non-terminal session.
func (r *MemRepo) IncrementWait(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, s := range r.sessions {
		if !s.Status.Terminal() {
			s.WaitMinutes++
			count++
		}
	}
	return count, nil
}

func (r *MemRepo) Stats(_ context.Context) (*Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &Stats{DoctorsByStatus: make(map[string]int)}
	waitSum := 0
	for _, s := range r.sessions {
		switch {
		case s.Status.Waiting():
			stats.WaitingSessions++
			waitSum += s.WaitMinutes
		case s.Status.Active():
			stats.ActiveSessions++
		}
	}
	if stats.WaitingSessions > 0 {
		stats.AvgWaitMinutes = float64(waitSum) / float64(stats.WaitingSessions)
	}
	for _, d := range r.doctors {
		if d.CheckedIn {
			stats.DoctorsByStatus[string(d.Status)]++
		}
	}
	return stats, nil
}
