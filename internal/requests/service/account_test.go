package service

import (
	"context"
	"testing"

	"imovia/internal/notify"
	apperrors "imovia/pkg/errors"
	"imovia/pkg/model"
)

func newAccountService(
	visits *mockVisitRepository,
	reservations *mockReservationRepository,
	dispatcher *recordingDispatcher,
) AccountService {
	return NewAccountService(visits, reservations, dispatcher, testConfig())
}

func TestListVisits(t *testing.T) {
	visits := &mockVisitRepository{
		countByClientFunc: func(ctx context.Context, gotClient string) (int64, error) {
			return 7, nil
		},
		findByClientFunc: func(ctx context.Context, gotClient string, limit int, offset int64) ([]*model.VisitRequest, error) {
			if gotClient != clientID {
				t.Errorf("listed client = %s, want %s", gotClient, clientID)
			}
			return []*model.VisitRequest{pendingVisit()}, nil
		},
	}
	svc := newAccountService(visits, &mockReservationRepository{}, &recordingDispatcher{})

	requests, count, err := svc.ListVisits(context.Background(), clientID, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 7 {
		t.Errorf("count = %d, want 7", count)
	}
	if len(requests) != 1 {
		t.Errorf("expected 1 request, got %d", len(requests))
	}
}

func TestListReservationsClampsPagination(t *testing.T) {
	var gotLimit int
	var gotOffset int64
	reservations := &mockReservationRepository{
		findByClientFunc: func(ctx context.Context, gotClient string, limit int, offset int64) ([]*model.ReservationRequest, error) {
			gotLimit = limit
			gotOffset = offset
			return nil, nil
		},
	}
	svc := newAccountService(&mockVisitRepository{}, reservations, &recordingDispatcher{})

	if _, _, err := svc.ListReservations(context.Background(), clientID, -5, -20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit <= 0 {
		t.Errorf("limit should be normalized to a positive value, got %d", gotLimit)
	}
	if gotOffset != 0 {
		t.Errorf("negative offset should be normalized to 0, got %d", gotOffset)
	}
}

func TestCancelOwnVisit(t *testing.T) {
	deleted := ""
	visits := &mockVisitRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.VisitRequest, error) {
			return pendingVisit(), nil
		},
		deleteFunc: func(ctx context.Context, id, gotClient string) (bool, error) {
			deleted = id
			if gotClient != clientID {
				t.Errorf("delete scoped to client %s, want %s", gotClient, clientID)
			}
			return true, nil
		},
	}
	dispatcher := &recordingDispatcher{}
	svc := newAccountService(visits, &mockReservationRepository{}, dispatcher)

	if err := svc.CancelOwn(context.Background(), clientID, requestID, model.KindVisits); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != requestID {
		t.Errorf("deleted id = %s, want %s", deleted, requestID)
	}

	events := dispatcher.Events()
	if len(events) != 1 || events[0].Type != notify.EventRequestWithdrawn {
		t.Fatalf("expected one %s event, got %+v", notify.EventRequestWithdrawn, events)
	}
}

func TestCancelOwnRejectsOtherClients(t *testing.T) {
	deleted := false
	reservations := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationRequest, error) {
			return reservationWith(model.ReservationPending), nil
		},
		deleteFunc: func(ctx context.Context, id, gotClient string) (bool, error) {
			deleted = true
			return true, nil
		},
	}
	svc := newAccountService(&mockVisitRepository{}, reservations, &recordingDispatcher{})

	err := svc.CancelOwn(context.Background(), "507f1f77bcf86cd799439077", requestID, model.KindReservations)
	assertCode(t, err, apperrors.CodeForbidden)
	if deleted {
		t.Error("another client's request must not be deleted")
	}
}

func TestCancelOwnOnlyPending(t *testing.T) {
	for _, status := range []model.ReservationStatus{
		model.ReservationApproved, model.ReservationDenied,
		model.ReservationCompleted, model.ReservationCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			reservations := &mockReservationRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.ReservationRequest, error) {
					return reservationWith(status), nil
				},
			}
			svc := newAccountService(&mockVisitRepository{}, reservations, &recordingDispatcher{})

			err := svc.CancelOwn(context.Background(), clientID, requestID, model.KindReservations)
			assertCode(t, err, apperrors.CodeConflict)
		})
	}
}

// An admin approval can commit between the ownership read and the delete.
// The delete is conditional on pending status, so the approved request must
// survive and the client gets a conflict, not a silent removal.
func TestCancelOwnLosesRaceToApproval(t *testing.T) {
	reads := 0
	reservations := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationRequest, error) {
			reads++
			if reads == 1 {
				return reservationWith(model.ReservationPending), nil
			}
			return reservationWith(model.ReservationApproved), nil
		},
		deleteFunc: func(ctx context.Context, id, gotClient string) (bool, error) {
			return false, nil
		},
	}
	dispatcher := &recordingDispatcher{}
	svc := newAccountService(&mockVisitRepository{}, reservations, dispatcher)

	err := svc.CancelOwn(context.Background(), clientID, requestID, model.KindReservations)
	assertCode(t, err, apperrors.CodeConflict)
	if reads != 2 {
		t.Errorf("expected a re-read after the delete matched nothing, got %d reads", reads)
	}
	if events := dispatcher.Events(); len(events) != 0 {
		t.Errorf("no withdrawal event must be published, got %+v", events)
	}
}

func TestCancelOwnUnknownKind(t *testing.T) {
	svc := newAccountService(&mockVisitRepository{}, &mockReservationRepository{}, &recordingDispatcher{})

	err := svc.CancelOwn(context.Background(), clientID, requestID, model.RequestKind("bookings"))
	assertCode(t, err, apperrors.CodeInvalidInput)
}
