package model

import "time"

// Unit is one sellable/rentable physical unit inside a property. IsAvailable
// is the single source of truth for bookability: reservation approval flips
// it to false exactly once, and nothing in this engine flips it back.
// Re-listing a unit is a catalog operation outside this service.
type Unit struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PropertyID  string    `json:"property_id" bson:"property_id" validate:"required,mongodb"`
	Block       string    `json:"block,omitempty" bson:"block,omitempty"`
	Identifier  string    `json:"identifier" bson:"identifier" validate:"required,min=1,max=50"`
	IsAvailable bool      `json:"is_available" bson:"is_available"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
