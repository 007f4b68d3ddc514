package errors

import "errors"

var (
	ErrNotFound = errors.New("request not found")

	ErrInvalidID = errors.New("invalid ID format")

	ErrUnitNotFound = errors.New("unit not found")

	ErrAgentNotFound = errors.New("agent not found")
)
