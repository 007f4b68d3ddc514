package service

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"imovia/internal/notify"
	"imovia/internal/requests/repository"
	"imovia/pkg/config"
	apperrors "imovia/pkg/errors"
	"imovia/pkg/model"

	requesterrors "imovia/internal/requests/errors"
)

// TransitionService applies admin decisions to pending and approved
// requests. Every transition is a conditional write on the current status,
// so two admins racing on the same request resolve to one winner and one
// clean status-conflict failure.
type TransitionService interface {
	ApproveVisit(ctx context.Context, id string, decision *model.VisitDecision) error
	DenyVisit(ctx context.Context, id string, decision *model.VisitDecision) error

	ApproveReservation(ctx context.Context, id string, decision *model.ReservationDecision) error
	DenyReservation(ctx context.Context, id string, decision *model.ReservationDecision) error
	CompleteReservation(ctx context.Context, id string) error
	CancelReservation(ctx context.Context, id string, decision *model.ReservationDecision) error
}

type transitionService struct {
	visits       repository.VisitRequestRepository
	reservations repository.ReservationRequestRepository
	units        repository.UnitRepository
	agents       repository.AgentRepository
	dispatcher   notify.Dispatcher
	cfg          *config.Config
}

func NewTransitionService(
	visits repository.VisitRequestRepository,
	reservations repository.ReservationRequestRepository,
	units repository.UnitRepository,
	agents repository.AgentRepository,
	dispatcher notify.Dispatcher,
	cfg *config.Config,
) TransitionService {
	return &transitionService{
		visits:       visits,
		reservations: reservations,
		units:        units,
		agents:       agents,
		dispatcher:   dispatcher,
		cfg:          cfg,
	}
}

func (s *transitionService) ApproveVisit(ctx context.Context, id string, decision *model.VisitDecision) error {
	if decision.ScheduledSlot == nil {
		return apperrors.InvalidInput("A scheduled slot is required to approve a visit")
	}
	if decision.AgentID == "" {
		return apperrors.InvalidInput("An agent assignment is required to approve a visit")
	}

	if err := s.resolveAgent(ctx, decision.AgentID); err != nil {
		return err
	}

	decision.Status = model.VisitApproved

	req, err := s.findVisit(ctx, id)
	if err != nil {
		return err
	}

	applied, err := s.visits.ApplyDecision(ctx, id, model.VisitPending, decision)
	if err != nil {
		return s.storeFailure("Failed to approve visit request", id, err)
	}
	if !applied {
		return s.visitConflict(ctx, id)
	}

	s.cfg.Log.Info("Visit request approved",
		"id", id,
		"agent_id", decision.AgentID,
		"scheduled_slot", decision.ScheduledSlot,
	)

	s.dispatcher.Dispatch(notify.Event{
		Type:       notify.EventVisitApproved,
		RequestID:  id,
		ClientID:   req.ClientID,
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		AgentID:    decision.AgentID,
		Status:     string(model.VisitApproved),
	})
	return nil
}

func (s *transitionService) DenyVisit(ctx context.Context, id string, decision *model.VisitDecision) error {
	if strings.TrimSpace(decision.ClientMsg) == "" {
		return apperrors.InvalidInput("A message for the client is required to deny a request")
	}

	decision.Status = model.VisitDenied
	decision.ScheduledSlot = nil
	decision.AgentID = ""

	req, err := s.findVisit(ctx, id)
	if err != nil {
		return err
	}

	applied, err := s.visits.ApplyDecision(ctx, id, model.VisitPending, decision)
	if err != nil {
		return s.storeFailure("Failed to deny visit request", id, err)
	}
	if !applied {
		return s.visitConflict(ctx, id)
	}

	s.cfg.Log.Info("Visit request denied", "id", id)

	s.dispatcher.Dispatch(notify.Event{
		Type:       notify.EventVisitDenied,
		RequestID:  id,
		ClientID:   req.ClientID,
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		Status:     string(model.VisitDenied),
		ClientMsg:  decision.ClientMsg,
	})
	return nil
}

// ApproveReservation claims the unit and writes the status inside one
// transaction. If another reservation already claimed the unit the claim
// matches nothing and the whole transaction aborts with UNIT_UNAVAILABLE,
// leaving the request pending.
func (s *transitionService) ApproveReservation(ctx context.Context, id string, decision *model.ReservationDecision) error {
	if decision.AgentID != "" {
		if err := s.resolveAgent(ctx, decision.AgentID); err != nil {
			return err
		}
	}

	decision.Status = model.ReservationApproved

	req, err := s.findReservation(ctx, id)
	if err != nil {
		return err
	}
	if !req.Status.CanApprove() {
		return apperrors.InvalidStatus("Only pending reservation requests can be approved")
	}

	err = s.reservations.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		claimed, err := s.units.Claim(sessCtx, req.UnitID)
		if err != nil {
			return apperrors.Internal("Failed to claim unit", err)
		}
		if !claimed {
			return apperrors.UnitUnavailable("This unit is no longer available")
		}

		applied, err := s.reservations.ApplyTransition(sessCtx, id, []model.ReservationStatus{model.ReservationPending}, decision)
		if err != nil {
			return apperrors.Internal("Failed to update reservation request", err)
		}
		if !applied {
			// Lost a race after the read above; abort so the claim rolls back.
			return apperrors.InvalidStatus("Only pending reservation requests can be approved")
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to approve reservation request",
			"id", id,
			"unit_id", req.UnitID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Reservation request approved",
		"id", id,
		"unit_id", req.UnitID,
		"agent_id", decision.AgentID,
	)

	s.dispatcher.Dispatch(notify.Event{
		Type:       notify.EventReservationApproved,
		RequestID:  id,
		ClientID:   req.ClientID,
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		AgentID:    decision.AgentID,
		Status:     string(model.ReservationApproved),
	})
	return nil
}

func (s *transitionService) DenyReservation(ctx context.Context, id string, decision *model.ReservationDecision) error {
	if strings.TrimSpace(decision.ClientMsg) == "" {
		return apperrors.InvalidInput("A message for the client is required to deny a request")
	}

	decision.Status = model.ReservationDenied
	decision.AgentID = ""

	req, err := s.findReservation(ctx, id)
	if err != nil {
		return err
	}

	applied, err := s.reservations.ApplyTransition(ctx, id, []model.ReservationStatus{model.ReservationPending}, decision)
	if err != nil {
		return s.storeFailure("Failed to deny reservation request", id, err)
	}
	if !applied {
		return s.reservationConflict(ctx, id)
	}

	s.cfg.Log.Info("Reservation request denied", "id", id)

	s.dispatcher.Dispatch(notify.Event{
		Type:       notify.EventReservationDenied,
		RequestID:  id,
		ClientID:   req.ClientID,
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		Status:     string(model.ReservationDenied),
		ClientMsg:  decision.ClientMsg,
	})
	return nil
}

func (s *transitionService) CompleteReservation(ctx context.Context, id string) error {
	req, err := s.findReservation(ctx, id)
	if err != nil {
		return err
	}
	if !req.Status.CanComplete() {
		return apperrors.InvalidStatus("Only approved reservation requests can be completed")
	}

	decision := &model.ReservationDecision{Status: model.ReservationCompleted}

	applied, err := s.reservations.ApplyTransition(ctx, id, []model.ReservationStatus{model.ReservationApproved}, decision)
	if err != nil {
		return s.storeFailure("Failed to complete reservation request", id, err)
	}
	if !applied {
		return s.reservationConflict(ctx, id)
	}

	s.cfg.Log.Info("Reservation request completed", "id", id)

	s.dispatcher.Dispatch(notify.Event{
		Type:       notify.EventReservationCompleted,
		RequestID:  id,
		ClientID:   req.ClientID,
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		Status:     string(model.ReservationCompleted),
	})
	return nil
}

// CancelReservation is legal from pending or approved. Cancelling an
// approved reservation does not release the unit's availability flag; the
// unit stays off the market until the catalog re-lists it.
func (s *transitionService) CancelReservation(ctx context.Context, id string, decision *model.ReservationDecision) error {
	decision.Status = model.ReservationCancelled
	decision.AgentID = ""

	req, err := s.findReservation(ctx, id)
	if err != nil {
		return err
	}
	if !req.Status.CanCancel() {
		return apperrors.InvalidStatus("Only pending or approved reservation requests can be cancelled")
	}

	applied, err := s.reservations.ApplyTransition(ctx, id, model.LiveReservationStatuses, decision)
	if err != nil {
		return s.storeFailure("Failed to cancel reservation request", id, err)
	}
	if !applied {
		return s.reservationConflict(ctx, id)
	}

	s.cfg.Log.Info("Reservation request cancelled", "id", id, "previous_status", req.Status)

	s.dispatcher.Dispatch(notify.Event{
		Type:       notify.EventReservationCancelled,
		RequestID:  id,
		ClientID:   req.ClientID,
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		Status:     string(model.ReservationCancelled),
		ClientMsg:  decision.ClientMsg,
	})
	return nil
}

func (s *transitionService) resolveAgent(ctx context.Context, agentID string) error {
	agent, err := s.agents.FindByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, requesterrors.ErrAgentNotFound) {
			return apperrors.AgentNotFound(agentID)
		}
		if errors.Is(err, requesterrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid agent ID format")
		}
		return apperrors.Internal("Failed to look up agent", err)
	}
	if !agent.Active {
		return apperrors.AgentNotFound(agentID)
	}
	return nil
}

func (s *transitionService) findVisit(ctx context.Context, id string) (*model.VisitRequest, error) {
	req, err := s.visits.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, requesterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Visit request", id)
		}
		if errors.Is(err, requesterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid request ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve visit request", err)
	}
	return req, nil
}

func (s *transitionService) findReservation(ctx context.Context, id string) (*model.ReservationRequest, error) {
	req, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, requesterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation request", id)
		}
		if errors.Is(err, requesterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid request ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation request", err)
	}
	return req, nil
}

// visitConflict re-reads after a conditional update matched nothing, to
// report whether the request vanished or moved to another status.
func (s *transitionService) visitConflict(ctx context.Context, id string) error {
	req, err := s.findVisit(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.InvalidStatus("Request is no longer pending").WithDetails(map[string]any{
		"status": req.Status,
	})
}

func (s *transitionService) reservationConflict(ctx context.Context, id string) error {
	req, err := s.findReservation(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.InvalidStatus("Request is not in a state that allows this action").WithDetails(map[string]any{
		"status": req.Status,
	})
}

func (s *transitionService) storeFailure(message, id string, err error) error {
	if errors.Is(err, requesterrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid request ID format")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}
