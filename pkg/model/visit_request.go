package model

import "time"

// VisitRequest is a client's ask to visit a property. Visits are not gated
// on unit availability; multiple clients may hold live requests for the same
// property, but one client may hold at most one.
type VisitRequest struct {
	ID              string       `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClientID        string       `json:"client_id" bson:"client_id" validate:"required,mongodb"`
	PropertyID      string       `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	UnitID          string       `json:"unit_id" bson:"unit_id" validate:"required,mongodb"`
	RequestedSlots  []time.Time  `json:"requested_slots" bson:"requested_slots" validate:"required,min=1,max=10"`
	ScheduledSlot   *time.Time   `json:"scheduled_slot,omitempty" bson:"scheduled_slot,omitempty"`
	Status          VisitStatus  `json:"status" bson:"status" validate:"required,oneof=pending approved denied"`
	ClientMsg       string       `json:"client_msg,omitempty" bson:"client_msg,omitempty" validate:"omitempty,max=1000"`
	AgentMsg        string       `json:"agent_msg,omitempty" bson:"agent_msg,omitempty" validate:"omitempty,max=1000"`
	AssignedAgentID string       `json:"assigned_agent_id,omitempty" bson:"assigned_agent_id,omitempty" validate:"omitempty,mongodb"`
	CreatedAt       time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" bson:"updated_at"`
}

// VisitDecision carries the admin's approve/deny outcome for a visit.
type VisitDecision struct {
	Status        VisitStatus
	ScheduledSlot *time.Time
	AgentID       string
	ClientMsg     string
	AgentMsg      string
}
