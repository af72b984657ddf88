package journey

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemRepo is the in-memory journey store. The whole engine state lives in one
// process by design; a single mutex serialises every operation against the
// ticker's bulk wait increment.
type MemRepo struct {
	mu        sync.Mutex
	patients  []*QueuePatient
	byID      map[uuid.UUID]*QueuePatient
	ticketSeq int
	now       func() time.Time
}

// NewMemRepo creates an empty in-memory journey store.
func NewMemRepo() *MemRepo {
	return &MemRepo{
		byID: make(map[uuid.UUID]*QueuePatient),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the store clock. Test hook.
func (r *MemRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func (r *MemRepo) CheckIn(_ context.Context, name, chiefComplaint string, priority Priority) (*QueuePatient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.ticketSeq++
	p := &QueuePatient{
		ID:                uuid.New(),
		PatientID:         uuid.New(),
		TicketNumber:      fmt.Sprintf("Q-%04d", r.ticketSeq),
		Name:              name,
		ChiefComplaint:    chiefComplaint,
		Priority:          priority,
		Status:            StatusQueued,
		Station:           StationCheckIn,
		CurrentOrderIndex: -1,
		JourneyHistory:    []JourneyEntry{{Station: StationCheckIn, EnteredAt: now}},
		DoctorOrders:      []DoctorOrder{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.patients = append(r.patients, p)
	r.byID[p.ID] = p
	return p.Clone(), nil
}

func (r *MemRepo) Get(_ context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (r *MemRepo) List(_ context.Context, f ListFilter, limit, offset int) ([]*QueuePatient, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*QueuePatient
	for _, p := range r.patients {
		if f.Station != "" && p.Station != f.Station {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.ActiveOnly && p.Status.Terminal() {
			continue
		}
		matched = append(matched, p)
	}

	total := len(matched)
	if offset >= total {
		return []*QueuePatient{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	out := make([]*QueuePatient, 0, end-offset)
	for _, p := range matched[offset:end] {
		out = append(out, p.Clone())
	}
	return out, total, nil
}

// moveToStation closes the open journey entry, opens one at the target and
// resets the wait counter. Shared by transfers and order-driven advances.
func (r *MemRepo) moveToStation(p *QueuePatient, to Station, now time.Time) {
	if open := p.OpenJourneyEntry(); open != nil {
		exited := now
		open.ExitedAt = &exited
	}
	p.JourneyHistory = append(p.JourneyHistory, JourneyEntry{Station: to, EnteredAt: now})
	p.Station = to
	p.WaitMinutes = 0
	p.UpdatedAt = now
}

func (r *MemRepo) Transfer(_ context.Context, id uuid.UUID, to Station, room *RoomAssignment) (*QueuePatient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}

	now := r.now()
	r.moveToStation(p, to, now)
	if to == StationDone {
		p.Status = StatusCompleted
		p.CompletedAt = &now
	} else {
		p.Status = StatusQueued
	}
	if room != nil {
		if room.RoomID != "" {
			v := room.RoomID
			p.ConsultRoomID = &v
		}
		if room.RoomName != "" {
			v := room.RoomName
			p.ConsultRoomName = &v
		}
		if room.Doctor != "" {
			v := room.Doctor
			p.AssignedDoctor = &v
		}
	}
	return p.Clone(), true, nil
}

func (r *MemRepo) Complete(_ context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}
	if p.Status.Terminal() {
		return p.Clone(), false, nil
	}

	now := r.now()
	if open := p.OpenJourneyEntry(); open != nil {
		exited := now
		open.ExitedAt = &exited
	}
	p.Status = StatusCompleted
	p.CompletedAt = &now
	p.UpdatedAt = now
	return p.Clone(), true, nil
}

func (r *MemRepo) MarkNoShow(_ context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}
	if p.Status.Terminal() {
		return p.Clone(), false, nil
	}

	// The journey entry stays open: a no-show is recorded against the
	// station the patient never showed up at.
	p.Status = StatusNoShow
	p.UpdatedAt = r.now()
	return p.Clone(), true, nil
}

func (r *MemRepo) Skip(_ context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}
	if p.Status.Terminal() || p.Status == StatusPaused {
		return p.Clone(), false, nil
	}

	// Soft re-queue: no station change, the open journey entry is not
	// closed, the record just goes to the back of the line.
	p.Status = StatusQueued
	p.WaitMinutes = 0
	p.UpdatedAt = r.now()
	r.sendToBack(p)
	return p.Clone(), true, nil
}

func (r *MemRepo) Pause(_ context.Context, id uuid.UUID, reason string, notes *string, resumeDate *time.Time) (*QueuePatient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}
	if p.Status.Terminal() || p.Status == StatusPaused {
		return p.Clone(), false, nil
	}

	now := r.now()
	var preserved []DoctorOrder
	for _, o := range p.DoctorOrders {
		if o.Status != OrderCompleted {
			preserved = append(preserved, o)
		}
	}
	p.PauseInfo = &PauseInfo{
		PausedAt:        now,
		Reason:          reason,
		Notes:           notes,
		ResumeDate:      resumeDate,
		PausedAtStation: p.Station,
		PreservedOrders: preserved,
	}
	p.Status = StatusPaused
	p.UpdatedAt = now
	return p.Clone(), true, nil
}

func (r *MemRepo) Resume(_ context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}
	if p.Status != StatusPaused {
		return p.Clone(), false, nil
	}

	// The station deliberately stays whatever it was at pause time;
	// PausedAtStation is recorded but not read back. See DESIGN.md.
	p.Status = StatusQueued
	p.PauseInfo = nil
	p.WaitMinutes = 0
	p.UpdatedAt = r.now()
	return p.Clone(), true, nil
}

func (r *MemRepo) AddOrders(_ context.Context, id uuid.UUID, types []OrderType, mode OrderMode) (*QueuePatient, bool, error) {
	if len(types) == 0 {
		return nil, false, fmt.Errorf("order types must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}

	// Resolve every target before touching the record so a bad type cannot
	// leave a partial batch behind.
	targets := make([]Station, len(types))
	for i, t := range types {
		target, ok := t.TargetStation()
		if !ok {
			return nil, false, fmt.Errorf("no target station configured for order type %q", t)
		}
		targets[i] = target
	}

	now := r.now()
	firstIdx := len(p.DoctorOrders)
	for i, t := range types {
		status := OrderQueued
		if mode == OrderModeLinear && i > 0 {
			status = OrderPending
		}
		p.DoctorOrders = append(p.DoctorOrders, DoctorOrder{
			ID:            uuid.New(),
			Type:          t,
			TargetStation: targets[i],
			Status:        status,
			OrderedAt:     now,
		})
	}

	first := p.DoctorOrders[firstIdx]
	if mode == OrderModeLinear {
		p.CurrentOrderIndex = firstIdx
	}
	// In multi-stream mode the station is a display-only primary; the
	// authoritative position is ActiveStations().
	r.moveToStation(p, first.TargetStation, now)
	p.Status = StatusQueued
	return p.Clone(), true, nil
}

func (r *MemRepo) StartOrder(_ context.Context, id, orderID uuid.UUID) (*QueuePatient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}
	o := findOrder(p, orderID)
	if o == nil || o.Status != OrderQueued {
		return p.Clone(), false, nil
	}

	now := r.now()
	o.Status = OrderInProgress
	o.StartedAt = &now
	p.UpdatedAt = now
	return p.Clone(), true, nil
}

func (r *MemRepo) CompleteOrder(_ context.Context, id, orderID uuid.UUID) (*QueuePatient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}
	o := findOrder(p, orderID)
	if o == nil || o.Status == OrderCompleted {
		return p.Clone(), false, nil
	}

	now := r.now()
	o.Status = OrderCompleted
	o.CompletedAt = &now
	p.UpdatedAt = now

	if allOrdersCompleted(p) {
		r.convergeToReturnConsult(p, now)
	}
	return p.Clone(), true, nil
}

func (r *MemRepo) CompleteCurrentOrder(_ context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}
	if p.CurrentOrderIndex < 0 || p.CurrentOrderIndex >= len(p.DoctorOrders) {
		return p.Clone(), false, nil
	}

	now := r.now()
	cur := &p.DoctorOrders[p.CurrentOrderIndex]
	cur.Status = OrderCompleted
	cur.CompletedAt = &now
	p.UpdatedAt = now

	for i := range p.DoctorOrders {
		if p.DoctorOrders[i].Status == OrderPending {
			p.DoctorOrders[i].Status = OrderQueued
			p.CurrentOrderIndex = i
			r.moveToStation(p, p.DoctorOrders[i].TargetStation, now)
			p.Status = StatusQueued
			return p.Clone(), true, nil
		}
	}

	r.convergeToReturnConsult(p, now)
	return p.Clone(), true, nil
}

func (r *MemRepo) DeferOrder(_ context.Context, id, orderID uuid.UUID) (*QueuePatient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}
	o := findOrder(p, orderID)
	if o == nil || o.Status == OrderCompleted {
		return p.Clone(), false, nil
	}

	// Back of the line, not a station change.
	o.Status = OrderQueued
	o.StartedAt = nil
	p.WaitMinutes = 0
	p.UpdatedAt = r.now()
	r.sendToBack(p)
	return p.Clone(), true, nil
}

func (r *MemRepo) CallNext(_ context.Context, station Station, id *uuid.UUID) (*QueuePatient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	// Manual override: a named patient is promoted directly, ignoring the
	// station filter.
	if id != nil {
		p, ok := r.byID[*id]
		if !ok {
			return nil, false, nil
		}
		if p.Status != StatusQueued {
			return p.Clone(), false, nil
		}
		p.Status = StatusReady
		p.UpdatedAt = now
		return p.Clone(), true, nil
	}

	var candidates []*QueuePatient
	for _, p := range r.patients {
		if p.Status == StatusQueued && (station == "" || p.Station == station) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil, false, nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority.Rank() < candidates[j].Priority.Rank()
	})

	p := candidates[0]
	p.Status = StatusReady
	p.UpdatedAt = now
	return p.Clone(), true, nil
}

func (r *MemRepo) StartPatient(_ context.Context, id uuid.UUID) (*QueuePatient, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, false, nil
	}
	if p.Status != StatusQueued && p.Status != StatusReady {
		return p.Clone(), false, nil
	}
	p.Status = StatusInSession
	p.UpdatedAt = r.now()
	return p.Clone(), true, nil
}

// IncrementWait advances the wait counter on every active patient. Paused
// and terminal records do not tick.
func (r *MemRepo) IncrementWait(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, p := range r.patients {
		switch p.Status {
		case StatusQueued, StatusReady, StatusInSession:
			p.WaitMinutes++
			count++
		}
	}
	return count, nil
}

func (r *MemRepo) Stats(_ context.Context) (*QueueStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := &QueueStats{}
	waitSum := 0
	waiting := 0
	now := r.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, p := range r.patients {
		switch p.Status {
		case StatusQueued, StatusReady:
			stats.TotalInQueue++
			waiting++
			waitSum += p.WaitMinutes
			if p.WaitMinutes > stats.LongestWaitMinutes {
				stats.LongestWaitMinutes = p.WaitMinutes
			}
		case StatusCompleted:
			if p.CompletedAt != nil && !p.CompletedAt.Before(midnight) {
				stats.CompletedToday++
			}
		}
	}
	if waiting > 0 {
		stats.AvgWaitMinutes = float64(waitSum) / float64(waiting)
	}
	return stats, nil
}

// convergeToReturnConsult routes a patient whose orders have all resolved
// back toward the doctor.
func (r *MemRepo) convergeToReturnConsult(p *QueuePatient, now time.Time) {
	p.CurrentOrderIndex = -1
	r.moveToStation(p, StationReturnConsult, now)
	p.Status = StatusQueued
}

func (r *MemRepo) sendToBack(p *QueuePatient) {
	for i, q := range r.patients {
		if q.ID == p.ID {
			r.patients = append(r.patients[:i], r.patients[i+1:]...)
			r.patients = append(r.patients, p)
			return
		}
	}
}

func findOrder(p *QueuePatient, orderID uuid.UUID) *DoctorOrder {
	for i := range p.DoctorOrders {
		if p.DoctorOrders[i].ID == orderID {
			return &p.DoctorOrders[i]
		}
	}
	return nil
}

func allOrdersCompleted(p *QueuePatient) bool {
	if len(p.DoctorOrders) == 0 {
		return false
	}
	for _, o := range p.DoctorOrders {
		if o.Status != OrderCompleted {
			return false
		}
	}
	return true
}
