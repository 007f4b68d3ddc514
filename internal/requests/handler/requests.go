package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"imovia/internal/requests/service"
	apperrors "imovia/pkg/errors"
	"imovia/pkg/httpx"
	"imovia/pkg/logger"
	"imovia/pkg/middleware"
	"imovia/pkg/model"
)

// RequestHandler serves the client-facing surface: submitting visit and
// reservation requests, listing own requests, and withdrawing pending ones.
// The acting client is always the session subject, never a body field.
type RequestHandler struct {
	intake  service.IntakeService
	account service.AccountService
	log     *logger.Logger
}

func NewRequestHandler(intake service.IntakeService, account service.AccountService, log *logger.Logger) *RequestHandler {
	return &RequestHandler{
		intake:  intake,
		account: account,
		log:     log,
	}
}

type submitVisitRequest struct {
	PropertyID     string      `json:"property_id"`
	UnitID         string      `json:"unit_id"`
	RequestedSlots []time.Time `json:"requested_slots"`
	ClientMsg      string      `json:"client_msg"`
}

func (h *RequestHandler) SubmitVisit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	clientID := middleware.UserID(r.Context())
	if clientID == "" {
		h.writeError(w, "SubmitVisit", apperrors.Unauthorized("No session"))
		return
	}

	var body submitVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "SubmitVisit", apperrors.InvalidInput("Invalid request body"))
		return
	}

	req := &model.VisitRequest{
		ClientID:       clientID,
		PropertyID:     body.PropertyID,
		UnitID:         body.UnitID,
		RequestedSlots: body.RequestedSlots,
		ClientMsg:      body.ClientMsg,
	}

	if err := h.intake.SubmitVisit(r.Context(), req); err != nil {
		h.writeError(w, "SubmitVisit", err)
		return
	}

	if err := httpx.WriteCreated(w, req); err != nil {
		h.log.Error("failed to write created response", "handler", "SubmitVisit", "error", err)
	}
}

type submitReservationRequest struct {
	PropertyID string `json:"property_id"`
	UnitID     string `json:"unit_id"`
	ClientMsg  string `json:"client_msg"`
}

func (h *RequestHandler) SubmitReservation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	clientID := middleware.UserID(r.Context())
	if clientID == "" {
		h.writeError(w, "SubmitReservation", apperrors.Unauthorized("No session"))
		return
	}

	var body submitReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "SubmitReservation", apperrors.InvalidInput("Invalid request body"))
		return
	}

	req := &model.ReservationRequest{
		ClientID:   clientID,
		PropertyID: body.PropertyID,
		UnitID:     body.UnitID,
		ClientMsg:  body.ClientMsg,
	}

	if err := h.intake.SubmitReservation(r.Context(), req); err != nil {
		h.writeError(w, "SubmitReservation", err)
		return
	}

	if err := httpx.WriteCreated(w, req); err != nil {
		h.log.Error("failed to write created response", "handler", "SubmitReservation", "error", err)
	}
}

func (h *RequestHandler) ListOwn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	clientID := middleware.UserID(r.Context())
	if clientID == "" {
		h.writeError(w, "ListOwn", apperrors.Unauthorized("No session"))
		return
	}

	query := r.URL.Query()

	kind, err := model.ParseRequestKind(query.Get("type"))
	if err != nil {
		h.writeError(w, "ListOwn", apperrors.InvalidInput("type must be 'visits' or 'reservations'"))
		return
	}

	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			h.writeError(w, "ListOwn", apperrors.InvalidInput(fmt.Sprintf("invalid limit parameter: %s", limitStr)))
			return
		}
	}

	var offset int64
	if offsetStr := query.Get("offset"); offsetStr != "" {
		offset, err = strconv.ParseInt(offsetStr, 10, 64)
		if err != nil {
			h.writeError(w, "ListOwn", apperrors.InvalidInput(fmt.Sprintf("invalid offset parameter: %s", offsetStr)))
			return
		}
	}

	switch kind {
	case model.KindVisits:
		requests, total, err := h.account.ListVisits(r.Context(), clientID, limit, offset)
		if err != nil {
			h.writeError(w, "ListOwn", err)
			return
		}
		if err := httpx.WritePaginated(w, requests, total, limit, offset); err != nil {
			h.log.Error("failed to write paginated response", "handler", "ListOwn", "error", err)
		}
	case model.KindReservations:
		requests, total, err := h.account.ListReservations(r.Context(), clientID, limit, offset)
		if err != nil {
			h.writeError(w, "ListOwn", err)
			return
		}
		if err := httpx.WritePaginated(w, requests, total, limit, offset); err != nil {
			h.log.Error("failed to write paginated response", "handler", "ListOwn", "error", err)
		}
	}
}

func (h *RequestHandler) CancelOwn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	clientID := middleware.UserID(r.Context())
	if clientID == "" {
		h.writeError(w, "CancelOwn", apperrors.Unauthorized("No session"))
		return
	}

	kind, err := model.ParseRequestKind(r.URL.Query().Get("type"))
	if err != nil {
		h.writeError(w, "CancelOwn", apperrors.InvalidInput("type must be 'visits' or 'reservations'"))
		return
	}

	if err := h.account.CancelOwn(r.Context(), clientID, ps.ByName("id"), kind); err != nil {
		h.writeError(w, "CancelOwn", err)
		return
	}

	if err := httpx.WriteSuccess(w, "Request canceled"); err != nil {
		h.log.Error("failed to write success response", "handler", "CancelOwn", "error", err)
	}
}

func (h *RequestHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httpx.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *RequestHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/requests/visits", h.SubmitVisit)
	router.POST("/api/v1/requests/reservations", h.SubmitReservation)
	router.GET("/api/v1/user/requests", h.ListOwn)
	router.DELETE("/api/v1/user/requests/:id", h.CancelOwn)
}
