package service

import (
	"context"
	"errors"
	"sync"

	"imovia/internal/notify"
	"imovia/internal/requests/repository"
	"imovia/pkg/config"
	apperrors "imovia/pkg/errors"
	"imovia/pkg/model"

	requesterrors "imovia/internal/requests/errors"
)

// AccountService serves the owning client's view of their requests:
// paginated listings and withdrawal of requests no admin has acted on yet.
type AccountService interface {
	ListVisits(ctx context.Context, clientID string, limit int, offset int64) ([]*model.VisitRequest, int64, error)
	ListReservations(ctx context.Context, clientID string, limit int, offset int64) ([]*model.ReservationRequest, int64, error)
	CancelOwn(ctx context.Context, clientID, requestID string, kind model.RequestKind) error
}

type accountService struct {
	visits       repository.VisitRequestRepository
	reservations repository.ReservationRequestRepository
	dispatcher   notify.Dispatcher
	cfg          *config.Config
}

func NewAccountService(
	visits repository.VisitRequestRepository,
	reservations repository.ReservationRequestRepository,
	dispatcher notify.Dispatcher,
	cfg *config.Config,
) AccountService {
	return &accountService{
		visits:       visits,
		reservations: reservations,
		dispatcher:   dispatcher,
		cfg:          cfg,
	}
}

func (s *accountService) ListVisits(ctx context.Context, clientID string, limit int, offset int64) ([]*model.VisitRequest, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var requests []*model.VisitRequest
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.visits.CountByClient(ctx, clientID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count visit requests", "client_id", clientID, "error", errCount)
			errCount = apperrors.Internal("Failed to count visit requests", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		requests, errFind = s.visits.FindByClient(ctx, clientID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list visit requests", "client_id", clientID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve visit requests", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return requests, count, nil
}

func (s *accountService) ListReservations(ctx context.Context, clientID string, limit int, offset int64) ([]*model.ReservationRequest, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var requests []*model.ReservationRequest
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.reservations.CountByClient(ctx, clientID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservation requests", "client_id", clientID, "error", errCount)
			errCount = apperrors.Internal("Failed to count reservation requests", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		requests, errFind = s.reservations.FindByClient(ctx, clientID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservation requests", "client_id", clientID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservation requests", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return requests, count, nil
}

// CancelOwn withdraws a request before any admin decision. Withdrawal is a
// hard delete, not a status transition: a request nobody acted on leaves no
// lifecycle record behind.
func (s *accountService) CancelOwn(ctx context.Context, clientID, requestID string, kind model.RequestKind) error {
	var owner string
	var status string
	var pending bool
	var event notify.Event

	switch kind {
	case model.KindVisits:
		req, err := s.findVisit(ctx, requestID)
		if err != nil {
			return err
		}
		owner = req.ClientID
		status = string(req.Status)
		pending = req.Status == model.VisitPending
		event = notify.Event{
			Type:       notify.EventRequestWithdrawn,
			RequestID:  requestID,
			ClientID:   clientID,
			PropertyID: req.PropertyID,
			UnitID:     req.UnitID,
		}
	case model.KindReservations:
		req, err := s.findReservation(ctx, requestID)
		if err != nil {
			return err
		}
		owner = req.ClientID
		status = string(req.Status)
		pending = req.Status == model.ReservationPending
		event = notify.Event{
			Type:       notify.EventRequestWithdrawn,
			RequestID:  requestID,
			ClientID:   clientID,
			PropertyID: req.PropertyID,
			UnitID:     req.UnitID,
		}
	default:
		return apperrors.InvalidInput("Unknown request type")
	}

	if owner != clientID {
		s.cfg.Log.Warn("Client attempted to cancel another client's request",
			"client_id", clientID,
			"request_id", requestID,
		)
		return apperrors.Forbidden("You may only cancel your own requests")
	}
	if !pending {
		return apperrors.Conflict("Only pending requests can be canceled").WithDetails(map[string]any{
			"status": status,
		})
	}

	var deleted bool
	var err error
	switch kind {
	case model.KindVisits:
		deleted, err = s.visits.DeleteOwnPending(ctx, requestID, clientID)
	case model.KindReservations:
		deleted, err = s.reservations.DeleteOwnPending(ctx, requestID, clientID)
	}
	if err != nil {
		if errors.Is(err, requesterrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid request ID format")
		}
		s.cfg.Log.Error("Failed to delete request", "request_id", requestID, "error", err)
		return apperrors.Internal("Failed to cancel request", err)
	}
	if !deleted {
		// The request changed between the read and the delete, most likely
		// an admin decision. Re-read to tell the caller what it is now.
		return s.cancelLost(ctx, clientID, requestID, kind)
	}

	s.cfg.Log.Info("Request withdrawn by client",
		"request_id", requestID,
		"client_id", clientID,
		"type", kind,
	)

	s.dispatcher.Dispatch(event)
	return nil
}

// cancelLost classifies a withdrawal whose conditional delete matched
// nothing: the request was already removed, belongs to someone else, or has
// left the pending state.
func (s *accountService) cancelLost(ctx context.Context, clientID, requestID string, kind model.RequestKind) error {
	var owner, status string

	switch kind {
	case model.KindVisits:
		req, err := s.findVisit(ctx, requestID)
		if err != nil {
			return err
		}
		owner, status = req.ClientID, string(req.Status)
	case model.KindReservations:
		req, err := s.findReservation(ctx, requestID)
		if err != nil {
			return err
		}
		owner, status = req.ClientID, string(req.Status)
	}

	if owner != clientID {
		return apperrors.Forbidden("You may only cancel your own requests")
	}
	return apperrors.Conflict("Only pending requests can be canceled").WithDetails(map[string]any{
		"status": status,
	})
}

func (s *accountService) findVisit(ctx context.Context, id string) (*model.VisitRequest, error) {
	req, err := s.visits.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, requesterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Request", id)
		}
		if errors.Is(err, requesterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid request ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve request", err)
	}
	return req, nil
}

func (s *accountService) findReservation(ctx context.Context, id string) (*model.ReservationRequest, error) {
	req, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, requesterrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Request", id)
		}
		if errors.Is(err, requesterrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid request ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve request", err)
	}
	return req, nil
}
