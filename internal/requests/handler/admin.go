package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"imovia/internal/requests/service"
	apperrors "imovia/pkg/errors"
	"imovia/pkg/httpx"
	"imovia/pkg/logger"
	"imovia/pkg/model"
)

const (
	actionApprove  = "approve"
	actionDeny     = "deny"
	actionComplete = "complete"
	actionCancel   = "cancel"
)

var actionOutcome = map[string]string{
	actionApprove:  "approved",
	actionDeny:     "denied",
	actionComplete: "completed",
	actionCancel:   "cancelled",
}

// AdminHandler serves the back-office action endpoints. Each request kind
// exposes one action route dispatching on the body's "action" field.
type AdminHandler struct {
	transitions service.TransitionService
	log         *logger.Logger
}

func NewAdminHandler(transitions service.TransitionService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		transitions: transitions,
		log:         log,
	}
}

type visitActionRequest struct {
	Action        string     `json:"action"`
	ScheduledSlot *time.Time `json:"scheduled_slot"`
	AgentID       string     `json:"agent_id"`
	ClientMsg     string     `json:"client_msg"`
	AgentMsg      string     `json:"agent_msg"`
}

func (h *AdminHandler) VisitAction(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var body visitActionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "VisitAction", apperrors.InvalidInput("Invalid request body"))
		return
	}

	decision := &model.VisitDecision{
		ScheduledSlot: body.ScheduledSlot,
		AgentID:       body.AgentID,
		ClientMsg:     body.ClientMsg,
		AgentMsg:      body.AgentMsg,
	}

	var err error
	switch body.Action {
	case actionApprove:
		err = h.transitions.ApproveVisit(r.Context(), id, decision)
	case actionDeny:
		err = h.transitions.DenyVisit(r.Context(), id, decision)
	default:
		err = apperrors.InvalidInput(fmt.Sprintf("unknown action %q for visit requests", body.Action))
	}
	if err != nil {
		h.writeError(w, "VisitAction", err)
		return
	}

	if err := httpx.WriteSuccess(w, fmt.Sprintf("Visit request %s", actionOutcome[body.Action])); err != nil {
		h.log.Error("failed to write success response", "handler", "VisitAction", "error", err)
	}
}

type reservationActionRequest struct {
	Action    string `json:"action"`
	AgentID   string `json:"agent_id"`
	ClientMsg string `json:"client_msg"`
	AgentMsg  string `json:"agent_msg"`
}

func (h *AdminHandler) ReservationAction(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var body reservationActionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "ReservationAction", apperrors.InvalidInput("Invalid request body"))
		return
	}

	decision := &model.ReservationDecision{
		AgentID:   body.AgentID,
		ClientMsg: body.ClientMsg,
		AgentMsg:  body.AgentMsg,
	}

	var err error
	switch body.Action {
	case actionApprove:
		err = h.transitions.ApproveReservation(r.Context(), id, decision)
	case actionDeny:
		err = h.transitions.DenyReservation(r.Context(), id, decision)
	case actionComplete:
		err = h.transitions.CompleteReservation(r.Context(), id)
	case actionCancel:
		err = h.transitions.CancelReservation(r.Context(), id, decision)
	default:
		err = apperrors.InvalidInput(fmt.Sprintf("unknown action %q for reservation requests", body.Action))
	}
	if err != nil {
		h.writeError(w, "ReservationAction", err)
		return
	}

	if err := httpx.WriteSuccess(w, fmt.Sprintf("Reservation request %s", actionOutcome[body.Action])); err != nil {
		h.log.Error("failed to write success response", "handler", "ReservationAction", "error", err)
	}
}

func (h *AdminHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httpx.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *AdminHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/admin/requests/visits/:id/action", h.VisitAction)
	router.POST("/api/v1/admin/requests/reservations/:id/action", h.ReservationAction)
}
