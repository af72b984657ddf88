package journey

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPriorityRank(t *testing.T) {
	tests := []struct {
		priority Priority
		rank     int
	}{
		{PriorityEmergency, 0},
		{PrioritySenior, 1},
		{PriorityPWD, 1},
		{PriorityNormal, 2},
		{Priority("bogus"), 4},
	}
	for _, tt := range tests {
		if got := tt.priority.Rank(); got != tt.rank {
			t.Errorf("Rank(%s) = %d, want %d", tt.priority, got, tt.rank)
		}
	}
}

func TestOrderTypeTargetStation(t *testing.T) {
	tests := []struct {
		orderType OrderType
		station   Station
		ok        bool
	}{
		{OrderTypeLabPanel, StationLab, true},
		{OrderTypeImaging, StationImaging, true},
		{OrderTypePharmacy, StationPharmacy, true},
		{OrderTypeReturnConsult, StationReturnConsult, true},
		{OrderType("bogus"), "", false},
	}
	for _, tt := range tests {
		got, ok := tt.orderType.TargetStation()
		if got != tt.station || ok != tt.ok {
			t.Errorf("TargetStation(%s) = (%s, %v), want (%s, %v)", tt.orderType, got, ok, tt.station, tt.ok)
		}
	}
}

func TestActiveStations(t *testing.T) {
	p := &QueuePatient{Station: StationConsult}

	stations := p.ActiveStations()
	if len(stations) != 1 || stations[0] != StationConsult {
		t.Fatalf("no orders: ActiveStations() = %v, want [consult]", stations)
	}

	p.DoctorOrders = []DoctorOrder{
		{ID: uuid.New(), Type: OrderTypeLabPanel, TargetStation: StationLab, Status: OrderQueued},
		{ID: uuid.New(), Type: OrderTypeImaging, TargetStation: StationImaging, Status: OrderQueued},
		{ID: uuid.New(), Type: OrderTypePharmacy, TargetStation: StationPharmacy, Status: OrderCompleted},
	}
	stations = p.ActiveStations()
	if len(stations) != 2 {
		t.Fatalf("ActiveStations() = %v, want lab and imaging", stations)
	}
	want := map[Station]bool{StationLab: true, StationImaging: true}
	for _, s := range stations {
		if !want[s] {
			t.Errorf("unexpected active station %s", s)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now()
	notes := "follow up"
	p := &QueuePatient{
		ID:             uuid.New(),
		Station:        StationLab,
		JourneyHistory: []JourneyEntry{{Station: StationCheckIn, EnteredAt: now}},
		DoctorOrders:   []DoctorOrder{{ID: uuid.New(), Status: OrderQueued}},
		PauseInfo:      &PauseInfo{Reason: "lunch", Notes: &notes},
	}

	cp := p.Clone()
	cp.JourneyHistory[0].Station = StationDone
	cp.DoctorOrders[0].Status = OrderCompleted
	*cp.PauseInfo.Notes = "changed"
	cp.PauseInfo.Reason = "changed"

	if p.JourneyHistory[0].Station != StationCheckIn {
		t.Error("clone shares journey history with original")
	}
	if p.DoctorOrders[0].Status != OrderQueued {
		t.Error("clone shares orders with original")
	}
	if *p.PauseInfo.Notes != "follow up" || p.PauseInfo.Reason != "lunch" {
		t.Error("clone shares pause info with original")
	}
}
