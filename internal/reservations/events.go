package reservations

import (
	"encoding/json"
	"time"
)

const EventReservationUpdated = "ReservationUpdated"

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // EventReservationUpdated
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "reservation-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // reservation id
	Payload       json.RawMessage `json:"payload"`
}

type ReservationUpdatedPayload struct {
	ReservationID int64  `json:"reservation_id"`
	Reservation   Record `json:"reservation"`
}
