package notify

import "time"

// Event types emitted on the request lifecycle topic. Consumers fan these
// out to client and agent notification channels.
const (
	EventVisitRequested = "visit.requested"
	EventVisitApproved  = "visit.approved"
	EventVisitDenied    = "visit.denied"

	EventReservationRequested = "reservation.requested"
	EventReservationApproved  = "reservation.approved"
	EventReservationDenied    = "reservation.denied"
	EventReservationCompleted = "reservation.completed"
	EventReservationCancelled = "reservation.cancelled"

	EventRequestWithdrawn = "request.withdrawn"
)

// Event is the payload published after a lifecycle transition commits.
type Event struct {
	Type       string    `json:"type"`
	RequestID  string    `json:"request_id"`
	ClientID   string    `json:"client_id"`
	PropertyID string    `json:"property_id,omitempty"`
	UnitID     string    `json:"unit_id,omitempty"`
	AgentID    string    `json:"agent_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	ClientMsg  string    `json:"client_msg,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
