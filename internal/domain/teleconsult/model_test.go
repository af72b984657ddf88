package teleconsult

import "testing"

func TestValidTransition(t *testing.T) {
	tests := []struct {
		action string
		from   SessionStatus
		want   bool
	}{
		{"assign", StatusInQueue, true},
		{"assign", StatusDoctorAssigned, true}, // reassignment
		{"assign", StatusInSession, false},
		{"connect", StatusDoctorAssigned, true},
		{"connect", StatusInQueue, false},
		{"start", StatusDoctorAssigned, true},
		{"start", StatusConnecting, true},
		{"start", StatusInSession, false},
		{"wrap-up", StatusInSession, true},
		{"wrap-up", StatusInQueue, false},
		{"end", StatusInSession, true},
		{"end", StatusWrapUp, true},
		{"end", StatusCompleted, false},
		{"no-show", StatusInQueue, true},
		{"no-show", StatusConnecting, true},
		{"no-show", StatusInSession, false},
		{"cancel", StatusInQueue, true},
		{"cancel", StatusInSession, true},
		{"cancel", StatusCompleted, false},
		{"cancel", StatusCancelled, false},
		{"unknown", StatusInQueue, false},
	}
	for _, tt := range tests {
		if got := ValidTransition(tt.action, tt.from); got != tt.want {
			t.Errorf("ValidTransition(%s, %s) = %v, want %v", tt.action, tt.from, got, tt.want)
		}
	}
}

func TestSessionStatusPartitions(t *testing.T) {
	waiting := []SessionStatus{StatusInQueue, StatusDoctorAssigned, StatusConnecting}
	active := []SessionStatus{StatusInSession, StatusWrapUp}
	terminal := []SessionStatus{StatusCompleted, StatusNoShow, StatusCancelled}

	for _, s := range waiting {
		if !s.Waiting() || s.Active() || s.Terminal() {
			t.Errorf("%s should be waiting only", s)
		}
	}
	for _, s := range active {
		if s.Waiting() || !s.Active() || s.Terminal() {
			t.Errorf("%s should be active only", s)
		}
	}
	for _, s := range terminal {
		if s.Waiting() || s.Active() || !s.Terminal() {
			t.Errorf("%s should be terminal only", s)
		}
	}
}
