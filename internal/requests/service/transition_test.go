package service

import (
	"context"
	"testing"
	"time"

	"imovia/internal/notify"
	apperrors "imovia/pkg/errors"
	"imovia/pkg/model"

	requesterrors "imovia/internal/requests/errors"
)

func pendingVisit() *model.VisitRequest {
	return &model.VisitRequest{
		ID:         requestID,
		ClientID:   clientID,
		PropertyID: propertyID,
		UnitID:     unitID,
		Status:     model.VisitPending,
	}
}

func reservationWith(status model.ReservationStatus) *model.ReservationRequest {
	return &model.ReservationRequest{
		ID:         requestID,
		ClientID:   clientID,
		PropertyID: propertyID,
		UnitID:     unitID,
		Status:     status,
	}
}

func newTransitionService(
	visits *mockVisitRepository,
	reservations *mockReservationRepository,
	units *mockUnitRepository,
	agents *mockAgentRepository,
	dispatcher *recordingDispatcher,
) TransitionService {
	return NewTransitionService(visits, reservations, units, agents, dispatcher, testConfig())
}

func TestApproveVisit(t *testing.T) {
	slot := time.Now().AddDate(0, 0, 3)
	visits := &mockVisitRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.VisitRequest, error) {
			return pendingVisit(), nil
		},
		applyDecisionFunc: func(ctx context.Context, id string, from model.VisitStatus, decision *model.VisitDecision) (bool, error) {
			if from != model.VisitPending {
				t.Errorf("expected transition from pending, got %s", from)
			}
			if decision.Status != model.VisitApproved {
				t.Errorf("expected decision status approved, got %s", decision.Status)
			}
			return true, nil
		},
	}
	dispatcher := &recordingDispatcher{}
	svc := newTransitionService(visits, &mockReservationRepository{}, &mockUnitRepository{}, &mockAgentRepository{}, dispatcher)

	err := svc.ApproveVisit(context.Background(), requestID, &model.VisitDecision{
		ScheduledSlot: &slot,
		AgentID:       agentID,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := dispatcher.Events()
	if len(events) != 1 || events[0].Type != notify.EventVisitApproved {
		t.Fatalf("expected one %s event, got %+v", notify.EventVisitApproved, events)
	}
	if events[0].AgentID != agentID {
		t.Errorf("event agent_id = %s, want %s", events[0].AgentID, agentID)
	}
}

func TestApproveVisitMissingInputs(t *testing.T) {
	slot := time.Now().AddDate(0, 0, 3)
	svc := newTransitionService(&mockVisitRepository{}, &mockReservationRepository{}, &mockUnitRepository{}, &mockAgentRepository{}, &recordingDispatcher{})

	tests := []struct {
		name     string
		decision *model.VisitDecision
	}{
		{
			name:     "missing scheduled slot",
			decision: &model.VisitDecision{AgentID: agentID},
		},
		{
			name:     "missing agent",
			decision: &model.VisitDecision{ScheduledSlot: &slot},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ApproveVisit(context.Background(), requestID, tt.decision)
			assertCode(t, err, apperrors.CodeInvalidInput)
		})
	}
}

func TestApproveVisitUnknownAgent(t *testing.T) {
	slot := time.Now().AddDate(0, 0, 3)
	tests := []struct {
		name   string
		lookup func(ctx context.Context, id string) (*model.Agent, error)
	}{
		{
			name: "no such agent",
			lookup: func(ctx context.Context, id string) (*model.Agent, error) {
				return nil, requesterrors.ErrAgentNotFound
			},
		},
		{
			name: "deactivated agent",
			lookup: func(ctx context.Context, id string) (*model.Agent, error) {
				return &model.Agent{ID: id, Active: false}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agents := &mockAgentRepository{findByIDFunc: tt.lookup}
			svc := newTransitionService(&mockVisitRepository{}, &mockReservationRepository{}, &mockUnitRepository{}, agents, &recordingDispatcher{})

			err := svc.ApproveVisit(context.Background(), requestID, &model.VisitDecision{
				ScheduledSlot: &slot,
				AgentID:       agentID,
			})
			assertCode(t, err, apperrors.CodeAgentNotFound)
		})
	}
}

func TestDenyVisitRequiresClientMessage(t *testing.T) {
	applied := false
	visits := &mockVisitRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.VisitRequest, error) {
			return pendingVisit(), nil
		},
		applyDecisionFunc: func(ctx context.Context, id string, from model.VisitStatus, decision *model.VisitDecision) (bool, error) {
			applied = true
			return true, nil
		},
	}
	svc := newTransitionService(visits, &mockReservationRepository{}, &mockUnitRepository{}, &mockAgentRepository{}, &recordingDispatcher{})

	for _, msg := range []string{"", "   "} {
		err := svc.DenyVisit(context.Background(), requestID, &model.VisitDecision{ClientMsg: msg})
		assertCode(t, err, apperrors.CodeInvalidInput)
	}
	if applied {
		t.Error("no write should happen when the client message is blank")
	}

	if err := svc.DenyVisit(context.Background(), requestID, &model.VisitDecision{ClientMsg: "Horário indisponível"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDenyVisitAlreadyDecided(t *testing.T) {
	// The conditional update matches nothing; the re-read shows the request
	// was already denied by a concurrent admin.
	visits := &mockVisitRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.VisitRequest, error) {
			v := pendingVisit()
			v.Status = model.VisitDenied
			return v, nil
		},
		applyDecisionFunc: func(ctx context.Context, id string, from model.VisitStatus, decision *model.VisitDecision) (bool, error) {
			return false, nil
		},
	}
	svc := newTransitionService(visits, &mockReservationRepository{}, &mockUnitRepository{}, &mockAgentRepository{}, &recordingDispatcher{})

	err := svc.DenyVisit(context.Background(), requestID, &model.VisitDecision{ClientMsg: "msg"})
	assertCode(t, err, apperrors.CodeInvalidStatus)
}

func TestApproveReservation(t *testing.T) {
	claimedUnit := ""
	units := &mockUnitRepository{
		claimFunc: func(ctx context.Context, id string) (bool, error) {
			claimedUnit = id
			return true, nil
		},
	}
	reservations := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationRequest, error) {
			return reservationWith(model.ReservationPending), nil
		},
	}
	dispatcher := &recordingDispatcher{}
	svc := newTransitionService(&mockVisitRepository{}, reservations, units, &mockAgentRepository{}, dispatcher)

	err := svc.ApproveReservation(context.Background(), requestID, &model.ReservationDecision{AgentID: agentID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claimedUnit != unitID {
		t.Errorf("claimed unit = %s, want %s", claimedUnit, unitID)
	}

	events := dispatcher.Events()
	if len(events) != 1 || events[0].Type != notify.EventReservationApproved {
		t.Fatalf("expected one %s event, got %+v", notify.EventReservationApproved, events)
	}
}

func TestApproveReservationUnitAlreadyClaimed(t *testing.T) {
	transitioned := false
	units := &mockUnitRepository{
		claimFunc: func(ctx context.Context, id string) (bool, error) {
			return false, nil
		},
	}
	reservations := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationRequest, error) {
			return reservationWith(model.ReservationPending), nil
		},
		applyTransitionFunc: func(ctx context.Context, id string, from []model.ReservationStatus, decision *model.ReservationDecision) (bool, error) {
			transitioned = true
			return true, nil
		},
	}
	dispatcher := &recordingDispatcher{}
	svc := newTransitionService(&mockVisitRepository{}, reservations, units, &mockAgentRepository{}, dispatcher)

	err := svc.ApproveReservation(context.Background(), requestID, &model.ReservationDecision{})
	assertCode(t, err, apperrors.CodeUnitUnavailable)
	if transitioned {
		t.Error("status must not change when the unit claim fails")
	}
	if len(dispatcher.Events()) != 0 {
		t.Error("no event should be dispatched on failure")
	}
}

func TestCompleteReservationRequiresApproved(t *testing.T) {
	tests := []struct {
		name     string
		status   model.ReservationStatus
		wantCode string
	}{
		{name: "pending", status: model.ReservationPending, wantCode: apperrors.CodeInvalidStatus},
		{name: "denied", status: model.ReservationDenied, wantCode: apperrors.CodeInvalidStatus},
		{name: "completed", status: model.ReservationCompleted, wantCode: apperrors.CodeInvalidStatus},
		{name: "cancelled", status: model.ReservationCancelled, wantCode: apperrors.CodeInvalidStatus},
		{name: "approved", status: model.ReservationApproved, wantCode: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reservations := &mockReservationRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.ReservationRequest, error) {
					return reservationWith(tt.status), nil
				},
			}
			svc := newTransitionService(&mockVisitRepository{}, reservations, &mockUnitRepository{}, &mockAgentRepository{}, &recordingDispatcher{})

			err := svc.CompleteReservation(context.Background(), requestID)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			assertCode(t, err, tt.wantCode)
		})
	}
}

func TestDenyReservationRequiresClientMessage(t *testing.T) {
	reservations := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationRequest, error) {
			return reservationWith(model.ReservationPending), nil
		},
	}
	svc := newTransitionService(&mockVisitRepository{}, reservations, &mockUnitRepository{}, &mockAgentRepository{}, &recordingDispatcher{})

	err := svc.DenyReservation(context.Background(), requestID, &model.ReservationDecision{})
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestCancelReservationDoesNotReleaseUnit(t *testing.T) {
	claimCalls := 0
	units := &mockUnitRepository{
		claimFunc: func(ctx context.Context, id string) (bool, error) {
			claimCalls++
			return true, nil
		},
	}
	reservations := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationRequest, error) {
			return reservationWith(model.ReservationApproved), nil
		},
	}
	dispatcher := &recordingDispatcher{}
	svc := newTransitionService(&mockVisitRepository{}, reservations, units, &mockAgentRepository{}, dispatcher)

	if err := svc.CancelReservation(context.Background(), requestID, &model.ReservationDecision{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claimCalls != 0 {
		t.Error("cancelling must not touch the unit's availability flag")
	}

	events := dispatcher.Events()
	if len(events) != 1 || events[0].Type != notify.EventReservationCancelled {
		t.Fatalf("expected one %s event, got %+v", notify.EventReservationCancelled, events)
	}
}

func TestCancelReservationTerminalStates(t *testing.T) {
	for _, status := range []model.ReservationStatus{
		model.ReservationDenied, model.ReservationCompleted, model.ReservationCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			reservations := &mockReservationRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.ReservationRequest, error) {
					return reservationWith(status), nil
				},
			}
			svc := newTransitionService(&mockVisitRepository{}, reservations, &mockUnitRepository{}, &mockAgentRepository{}, &recordingDispatcher{})

			err := svc.CancelReservation(context.Background(), requestID, &model.ReservationDecision{})
			assertCode(t, err, apperrors.CodeInvalidStatus)
		})
	}
}

func TestTransitionOnMissingRequest(t *testing.T) {
	reservations := &mockReservationRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.ReservationRequest, error) {
			return nil, requesterrors.ErrNotFound
		},
	}
	svc := newTransitionService(&mockVisitRepository{}, reservations, &mockUnitRepository{}, &mockAgentRepository{}, &recordingDispatcher{})

	err := svc.CompleteReservation(context.Background(), requestID)
	assertCode(t, err, apperrors.CodeNotFound)
}
