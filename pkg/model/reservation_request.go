package model

import "time"

// ReservationRequest is a client's ask to reserve a specific unit. Approval
// is exclusive: it flips the unit's availability flag so no other
// reservation for the unit can be approved afterwards.
type ReservationRequest struct {
	ID              string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClientID        string            `json:"client_id" bson:"client_id" validate:"required,mongodb"`
	PropertyID      string            `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	UnitID          string            `json:"unit_id" bson:"unit_id" validate:"required,mongodb"`
	Status          ReservationStatus `json:"status" bson:"status" validate:"required,oneof=pending approved denied completed cancelled"`
	ClientMsg       string            `json:"client_msg,omitempty" bson:"client_msg,omitempty" validate:"omitempty,max=1000"`
	AgentMsg        string            `json:"agent_msg,omitempty" bson:"agent_msg,omitempty" validate:"omitempty,max=1000"`
	AssignedAgentID string            `json:"assigned_agent_id,omitempty" bson:"assigned_agent_id,omitempty" validate:"omitempty,mongodb"`
	TransactionDocs map[string]string `json:"transaction_docs,omitempty" bson:"transaction_docs,omitempty"`
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" bson:"updated_at"`
}

// ReservationDecision carries an admin transition outcome for a reservation.
type ReservationDecision struct {
	Status    ReservationStatus
	AgentID   string
	ClientMsg string
	AgentMsg  string
}
