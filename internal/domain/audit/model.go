package audit

import (
	"time"

	"github.com/google/uuid"
)

// Event is one attributed, timestamped record of a mutating engine
// operation. The trail is write-only: events are appended and queried, never
// updated.
type Event struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Actor     string    `json:"actor" db:"actor"`
	Action    string    `json:"action" db:"action"`
	Module    string    `json:"module" db:"module"`
	Details   string    `json:"details" db:"details"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}
