package model

import "fmt"

// RequestKind distinguishes the two request collections on endpoints that
// address either, e.g. DELETE /user/requests/:id?type=visits.
type RequestKind string

const (
	KindVisits       RequestKind = "visits"
	KindReservations RequestKind = "reservations"
)

func ParseRequestKind(s string) (RequestKind, error) {
	switch RequestKind(s) {
	case KindVisits:
		return KindVisits, nil
	case KindReservations:
		return KindReservations, nil
	default:
		return "", fmt.Errorf("unknown request type %q", s)
	}
}

// VisitStatus is the closed set of visit request states. Approved and denied
// are both terminal for visits.
type VisitStatus string

const (
	VisitPending  VisitStatus = "pending"
	VisitApproved VisitStatus = "approved"
	VisitDenied   VisitStatus = "denied"
)

func (s VisitStatus) Valid() bool {
	switch s {
	case VisitPending, VisitApproved, VisitDenied:
		return true
	}
	return false
}

// IsLive reports whether the request still counts against the one-live-
// request-per-property dedup invariant.
func (s VisitStatus) IsLive() bool {
	switch s {
	case VisitPending, VisitApproved:
		return true
	case VisitDenied:
		return false
	}
	return false
}

func (s VisitStatus) IsTerminal() bool {
	switch s {
	case VisitApproved, VisitDenied:
		return true
	case VisitPending:
		return false
	}
	return false
}

// ReservationStatus is the closed set of reservation request states.
//
//	pending --approve--> approved --complete--> completed
//	pending --approve--> approved --cancel----> cancelled
//	pending --deny-----> denied
//	pending --cancel---> cancelled
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationApproved  ReservationStatus = "approved"
	ReservationDenied    ReservationStatus = "denied"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationApproved, ReservationDenied,
		ReservationCompleted, ReservationCancelled:
		return true
	}
	return false
}

// IsLive reports whether the request still counts against the one-live-
// request-per-unit dedup invariant.
func (s ReservationStatus) IsLive() bool {
	switch s {
	case ReservationPending, ReservationApproved:
		return true
	case ReservationDenied, ReservationCompleted, ReservationCancelled:
		return false
	}
	return false
}

func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationDenied, ReservationCompleted, ReservationCancelled:
		return true
	case ReservationPending, ReservationApproved:
		return false
	}
	return false
}

func (s ReservationStatus) CanApprove() bool {
	return s == ReservationPending
}

func (s ReservationStatus) CanDeny() bool {
	return s == ReservationPending
}

func (s ReservationStatus) CanComplete() bool {
	return s == ReservationApproved
}

func (s ReservationStatus) CanCancel() bool {
	switch s {
	case ReservationPending, ReservationApproved:
		return true
	case ReservationDenied, ReservationCompleted, ReservationCancelled:
		return false
	}
	return false
}

// LiveVisitStatuses and LiveReservationStatuses are the status sets the
// partial unique indexes and dedup counts filter on.
var (
	LiveVisitStatuses       = []VisitStatus{VisitPending, VisitApproved}
	LiveReservationStatuses = []ReservationStatus{ReservationPending, ReservationApproved}
)
