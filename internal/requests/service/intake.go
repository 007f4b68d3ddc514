package service

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"imovia/internal/notify"
	"imovia/internal/requests/repository"
	"imovia/internal/requests/validator"
	"imovia/pkg/config"
	apperrors "imovia/pkg/errors"
	"imovia/pkg/model"

	requesterrors "imovia/internal/requests/errors"
)

// IntakeService accepts new visit and reservation requests from clients.
// Both paths run their duplicate check and insert inside one transaction so
// a concurrent submission cannot slip a second live request in between.
type IntakeService interface {
	SubmitVisit(ctx context.Context, req *model.VisitRequest) error
	SubmitReservation(ctx context.Context, req *model.ReservationRequest) error
}

type intakeService struct {
	visits       repository.VisitRequestRepository
	reservations repository.ReservationRequestRepository
	units        repository.UnitRepository
	validator    *validator.RequestValidator
	dispatcher   notify.Dispatcher
	cfg          *config.Config
}

func NewIntakeService(
	visits repository.VisitRequestRepository,
	reservations repository.ReservationRequestRepository,
	units repository.UnitRepository,
	validator *validator.RequestValidator,
	dispatcher notify.Dispatcher,
	cfg *config.Config,
) IntakeService {
	return &intakeService{
		visits:       visits,
		reservations: reservations,
		units:        units,
		validator:    validator,
		dispatcher:   dispatcher,
		cfg:          cfg,
	}
}

func (s *intakeService) SubmitVisit(ctx context.Context, req *model.VisitRequest) error {
	// Server-owned fields; whatever the caller sent is discarded.
	req.ID = ""
	req.Status = model.VisitPending
	req.ScheduledSlot = nil
	req.AgentMsg = ""
	req.AssignedAgentID = ""

	if err := translateValidation(s.validator.ValidateVisit(req)); err != nil {
		return err
	}

	err := s.visits.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		live, err := s.visits.CountLive(sessCtx, req.ClientID, req.PropertyID)
		if err != nil {
			return apperrors.Internal("Failed to check for existing visit requests", err)
		}
		if live > 0 {
			return apperrors.Conflict("An active visit request already exists for this property")
		}

		if _, err := s.units.FindByID(sessCtx, req.UnitID); err != nil {
			if errors.Is(err, requesterrors.ErrUnitNotFound) {
				return apperrors.NotFoundWithID("Unit", req.UnitID)
			}
			if errors.Is(err, requesterrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid unit ID format")
			}
			return apperrors.Internal("Failed to look up unit", err)
		}

		if err := s.visits.Create(sessCtx, req); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return apperrors.Conflict("An active visit request already exists for this property")
			}
			return apperrors.Internal("Failed to create visit request", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to submit visit request",
			"client_id", req.ClientID,
			"property_id", req.PropertyID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Visit request submitted",
		"id", req.ID,
		"client_id", req.ClientID,
		"property_id", req.PropertyID,
		"slots", len(req.RequestedSlots),
	)

	s.dispatcher.Dispatch(notify.Event{
		Type:       notify.EventVisitRequested,
		RequestID:  req.ID,
		ClientID:   req.ClientID,
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		Status:     string(req.Status),
	})
	return nil
}

func (s *intakeService) SubmitReservation(ctx context.Context, req *model.ReservationRequest) error {
	req.ID = ""
	req.Status = model.ReservationPending
	req.AgentMsg = ""
	req.AssignedAgentID = ""

	if err := translateValidation(s.validator.ValidateReservation(req)); err != nil {
		return err
	}

	err := s.reservations.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		live, err := s.reservations.CountLive(sessCtx, req.ClientID, req.UnitID)
		if err != nil {
			return apperrors.Internal("Failed to check for existing reservation requests", err)
		}
		if live > 0 {
			return apperrors.Conflict("An active reservation request already exists for this unit")
		}

		unit, err := s.units.FindByID(sessCtx, req.UnitID)
		if err != nil {
			if errors.Is(err, requesterrors.ErrUnitNotFound) {
				return apperrors.NotFoundWithID("Unit", req.UnitID)
			}
			if errors.Is(err, requesterrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid unit ID format")
			}
			return apperrors.Internal("Failed to look up unit", err)
		}
		if !unit.IsAvailable {
			return apperrors.UnitUnavailable("This unit is no longer available")
		}

		if err := s.reservations.Create(sessCtx, req); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return apperrors.Conflict("An active reservation request already exists for this unit")
			}
			return apperrors.Internal("Failed to create reservation request", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to submit reservation request",
			"client_id", req.ClientID,
			"unit_id", req.UnitID,
			"error", err,
		)
		return err
	}

	s.cfg.Log.Info("Reservation request submitted",
		"id", req.ID,
		"client_id", req.ClientID,
		"unit_id", req.UnitID,
	)

	s.dispatcher.Dispatch(notify.Event{
		Type:       notify.EventReservationRequested,
		RequestID:  req.ID,
		ClientID:   req.ClientID,
		PropertyID: req.PropertyID,
		UnitID:     req.UnitID,
		Status:     string(req.Status),
	})
	return nil
}

// translateValidation converts validator field errors into the input-error
// shape the HTTP boundary serves directly.
func translateValidation(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return apperrors.InvalidInput("Request validation failed").WithDetails(map[string]any{
			"validation_errors": validationErrs,
		})
	}
	return apperrors.Internal("Failed to validate request", err)
}
