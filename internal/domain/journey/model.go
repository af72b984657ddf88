package journey

import (
	"time"

	"github.com/google/uuid"
)

// Station is a named stage of physical or workflow presence in the clinic.
type Station string

const (
	StationCheckIn       Station = "check-in"
	StationTriage        Station = "triage"
	StationConsult       Station = "consult"
	StationLab           Station = "lab"
	StationImaging       Station = "imaging"
	StationPharmacy      Station = "pharmacy"
	StationBilling       Station = "billing"
	StationReturnConsult Station = "return-consult"
	StationDone          Station = "done"
)

var validStations = map[Station]bool{
	StationCheckIn:       true,
	StationTriage:        true,
	StationConsult:       true,
	StationLab:           true,
	StationImaging:       true,
	StationPharmacy:      true,
	StationBilling:       true,
	StationReturnConsult: true,
	StationDone:          true,
}

// Valid reports whether s is a known station.
func (s Station) Valid() bool { return validStations[s] }

// Priority is the triage class of a queue patient.
type Priority string

const (
	PriorityEmergency Priority = "emergency"
	PrioritySenior    Priority = "senior"
	PriorityPWD       Priority = "pwd"
	PriorityNormal    Priority = "normal"
)

// priorityRanks orders queue selection: lower rank is called first.
// Senior and PWD share a rank.
var priorityRanks = map[Priority]int{
	PriorityEmergency: 0,
	PrioritySenior:    1,
	PriorityPWD:       1,
	PriorityNormal:    2,
}

// Rank returns the selection rank of p. Unknown priorities sort last.
func (p Priority) Rank() int {
	if r, ok := priorityRanks[p]; ok {
		return r
	}
	return len(priorityRanks)
}

// Valid reports whether p is a known priority class.
func (p Priority) Valid() bool {
	_, ok := priorityRanks[p]
	return ok
}

// Status is the lifecycle status of a queue patient.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusReady     Status = "ready"
	StatusInSession Status = "in-session"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no-show"
	StatusPaused    Status = "paused"
)

// Terminal reports whether no further mutation is expected for the status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusNoShow
}

// OrderMode controls how a batch of doctor orders is processed.
type OrderMode string

const (
	// OrderModeLinear processes orders one at a time, in order.
	OrderModeLinear OrderMode = "linear"
	// OrderModeMultiStream opens all orders at once as parallel sub-queues.
	OrderModeMultiStream OrderMode = "multi-stream"
)

// Valid reports whether m is a known order mode.
func (m OrderMode) Valid() bool {
	return m == OrderModeLinear || m == OrderModeMultiStream
}

// OrderType identifies a kind of doctor order.
type OrderType string

const (
	OrderTypeLabPanel      OrderType = "lab-panel"
	OrderTypeImaging       OrderType = "imaging"
	OrderTypePharmacy      OrderType = "pharmacy"
	OrderTypeReturnConsult OrderType = "return-consult"
)

// orderTargets maps each order type to the station that fulfils it.
// This is configuration; an order type missing here is a broken deployment,
// not a runtime condition.
var orderTargets = map[OrderType]Station{
	OrderTypeLabPanel:      StationLab,
	OrderTypeImaging:       StationImaging,
	OrderTypePharmacy:      StationPharmacy,
	OrderTypeReturnConsult: StationReturnConsult,
}

// TargetStation returns the station that fulfils orders of type t.
func (t OrderType) TargetStation() (Station, bool) {
	s, ok := orderTargets[t]
	return s, ok
}

// OrderStatus is the lifecycle status of a single doctor order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderQueued     OrderStatus = "queued"
	OrderInProgress OrderStatus = "in-progress"
	OrderCompleted  OrderStatus = "completed"
)

// JourneyEntry is one contiguous interval a patient spent at a single
// station. ExitedAt is nil while the patient is still at the station.
type JourneyEntry struct {
	Station   Station    `json:"station"`
	EnteredAt time.Time  `json:"entered_at"`
	ExitedAt  *time.Time `json:"exited_at,omitempty"`
}

// DoctorOrder is a single order placed during a consult.
type DoctorOrder struct {
	ID            uuid.UUID   `json:"id"`
	Type          OrderType   `json:"type"`
	TargetStation Station     `json:"target_station"`
	Status        OrderStatus `json:"status"`
	OrderedAt     time.Time   `json:"ordered_at"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
}

// PauseInfo is recorded while a patient is paused and cleared on resume.
// PreservedOrders snapshots every non-completed order at pause time.
type PauseInfo struct {
	PausedAt        time.Time     `json:"paused_at"`
	Reason          string        `json:"reason"`
	Notes           *string       `json:"notes,omitempty"`
	ResumeDate      *time.Time    `json:"resume_date,omitempty"`
	PausedAtStation Station       `json:"paused_at_station"`
	PreservedOrders []DoctorOrder `json:"preserved_orders"`
}

// RoomAssignment is an optional consult-room binding applied on transfer.
type RoomAssignment struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	Doctor   string `json:"doctor"`
}

// QueuePatient is one active or historical visit instance.
type QueuePatient struct {
	ID                uuid.UUID      `json:"id"`
	PatientID         uuid.UUID      `json:"patient_id"`
	TicketNumber      string         `json:"ticket_number"`
	Name              string         `json:"name"`
	ChiefComplaint    string         `json:"chief_complaint"`
	Priority          Priority       `json:"priority"`
	Status            Status         `json:"status"`
	Station           Station        `json:"station"`
	WaitMinutes       int            `json:"wait_minutes"`
	JourneyHistory    []JourneyEntry `json:"journey_history"`
	DoctorOrders      []DoctorOrder  `json:"doctor_orders"`
	CurrentOrderIndex int            `json:"current_order_index"`
	ConsultRoomID     *string        `json:"consult_room_id,omitempty"`
	ConsultRoomName   *string        `json:"consult_room_name,omitempty"`
	AssignedDoctor    *string        `json:"assigned_doctor,omitempty"`
	PauseInfo         *PauseInfo     `json:"pause_info,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
}

// OpenJourneyEntry returns the currently open journey entry, or nil if every
// entry is closed.
func (p *QueuePatient) OpenJourneyEntry() *JourneyEntry {
	for i := len(p.JourneyHistory) - 1; i >= 0; i-- {
		if p.JourneyHistory[i].ExitedAt == nil {
			return &p.JourneyHistory[i]
		}
	}
	return nil
}

// ActiveStations returns the authoritative set of stations the patient is
// present in: every station with at least one non-completed order targeting
// it. The Station field is only the primary displayed station; in
// multi-stream mode the patient is conceptually in several places at once.
func (p *QueuePatient) ActiveStations() []Station {
	seen := make(map[Station]bool)
	var stations []Station
	for _, o := range p.DoctorOrders {
		if o.Status == OrderCompleted {
			continue
		}
		if !seen[o.TargetStation] {
			seen[o.TargetStation] = true
			stations = append(stations, o.TargetStation)
		}
	}
	if len(stations) == 0 {
		return []Station{p.Station}
	}
	return stations
}

// Clone returns a deep copy so callers can hold the result without racing
// against later store mutation.
func (p *QueuePatient) Clone() *QueuePatient {
	cp := *p
	cp.JourneyHistory = append([]JourneyEntry(nil), p.JourneyHistory...)
	cp.DoctorOrders = append([]DoctorOrder(nil), p.DoctorOrders...)
	if p.ConsultRoomID != nil {
		v := *p.ConsultRoomID
		cp.ConsultRoomID = &v
	}
	if p.ConsultRoomName != nil {
		v := *p.ConsultRoomName
		cp.ConsultRoomName = &v
	}
	if p.AssignedDoctor != nil {
		v := *p.AssignedDoctor
		cp.AssignedDoctor = &v
	}
	if p.CompletedAt != nil {
		v := *p.CompletedAt
		cp.CompletedAt = &v
	}
	if p.PauseInfo != nil {
		pi := *p.PauseInfo
		pi.PreservedOrders = append([]DoctorOrder(nil), p.PauseInfo.PreservedOrders...)
		if p.PauseInfo.Notes != nil {
			n := *p.PauseInfo.Notes
			pi.Notes = &n
		}
		if p.PauseInfo.ResumeDate != nil {
			d := *p.PauseInfo.ResumeDate
			pi.ResumeDate = &d
		}
		cp.PauseInfo = &pi
	}
	return &cp
}

// QueueStats is the derived queue dashboard view, recomputed on every read.
type QueueStats struct {
	TotalInQueue       int     `json:"total_in_queue"`
	AvgWaitMinutes     float64 `json:"avg_wait_minutes"`
	LongestWaitMinutes int     `json:"longest_wait_minutes"`
	CompletedToday     int     `json:"completed_today"`
}
