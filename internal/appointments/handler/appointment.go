package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"consultly/internal/appointments/service"
	apperrors "consultly/pkg/errors"
	httputil "consultly/pkg/http"
	"consultly/pkg/logger"
	"consultly/pkg/middleware"
	"consultly/pkg/model"
)

type AppointmentHandler struct {
	service service.AppointmentService
	log     *logger.Logger
}

func NewAppointmentHandler(service service.AppointmentService, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		log:     log,
	}
}

type transitionFunc func(ctx context.Context, caller model.Identity, id string) (*model.Appointment, error)

type listFunc func(ctx context.Context, caller model.Identity) ([]*model.Appointment, error)

func (h *AppointmentHandler) GetAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := h.caller(w, r, "GetAvailability")
	if !ok {
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		h.writeError(w, "GetAvailability", apperrors.InvalidInput("'date' query parameter is required"))
		return
	}

	slots, err := h.service.GetAvailability(r.Context(), caller, ps.ByName("consultantId"), date)
	if err != nil {
		h.writeError(w, "GetAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAvailability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) LockSlot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, ok := h.caller(w, r, "LockSlot")
	if !ok {
		return
	}

	var req model.LockSlotRequest
	if !h.decode(w, r, "LockSlot", &req) {
		return
	}

	resp, err := h.service.LockSlot(r.Context(), caller, &req)
	if err != nil {
		h.writeError(w, "LockSlot", err)
		return
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "LockSlot", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) ReleaseSlot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, ok := h.caller(w, r, "ReleaseSlot")
	if !ok {
		return
	}

	query := r.URL.Query()
	consultantID, startAt := query.Get("consultantId"), query.Get("startAt")
	if consultantID == "" || startAt == "" {
		h.writeError(w, "ReleaseSlot", apperrors.InvalidInput("'consultantId' and 'startAt' query parameters are required"))
		return
	}

	if err := h.service.ReleaseSlot(r.Context(), caller, consultantID, startAt); err != nil {
		h.writeError(w, "ReleaseSlot", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, ok := h.caller(w, r, "Create")
	if !ok {
		return
	}

	var req model.CreateAppointmentRequest
	if !h.decode(w, r, "Create", &req) {
		return
	}

	appointment, err := h.service.Create(r.Context(), caller, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, appointment); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *AppointmentHandler) Accept(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Accept", h.service.Accept)
}

func (h *AppointmentHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Reject", h.service.Reject)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Cancel", h.service.Cancel)
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Complete", h.service.Complete)
}

func (h *AppointmentHandler) ClientAppointments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.list(w, r, "ClientAppointments", h.service.ClientAppointments)
}

func (h *AppointmentHandler) ClientHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.list(w, r, "ClientHistory", h.service.ClientHistory)
}

func (h *AppointmentHandler) ConsultantAppointments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.list(w, r, "ConsultantAppointments", h.service.ConsultantAppointments)
}

func (h *AppointmentHandler) ConsultantHistory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.list(w, r, "ConsultantHistory", h.service.ConsultantHistory)
}

func (h *AppointmentHandler) transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params, name string, fn transitionFunc) {
	caller, ok := h.caller(w, r, name)
	if !ok {
		return
	}

	id := ps.ByName("id")
	if id == "" {
		h.writeError(w, name, apperrors.InvalidInput("ID parameter is required"))
		return
	}

	appointment, err := fn(r.Context(), caller, id)
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	if err := httputil.WriteSuccess(w, appointment); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) list(w http.ResponseWriter, r *http.Request, name string, fn listFunc) {
	caller, ok := h.caller(w, r, name)
	if !ok {
		return
	}

	appointments, err := fn(r.Context(), caller)
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	if err := httputil.WriteSuccess(w, appointments); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

// caller writes 401 when the authentication middleware did not run.
func (h *AppointmentHandler) caller(w http.ResponseWriter, r *http.Request, name string) (model.Identity, bool) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, name, apperrors.Unauthorized("Authentication required"))
	}
	return identity, ok
}

func (h *AppointmentHandler) decode(w http.ResponseWriter, r *http.Request, name string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, name, apperrors.InvalidInput("Invalid request body"))
		return false
	}
	return true
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/appointment/availability/:consultantId", h.GetAvailability)
	router.POST("/appointment/lock-slot", h.LockSlot)
	router.DELETE("/appointment/lock-slot", h.ReleaseSlot)
	router.POST("/appointment/create", h.Create)

	router.PATCH("/appointment/accept/:id", h.Accept)
	router.PATCH("/appointment/reject/:id", h.Reject)
	router.PATCH("/appointment/cancel/:id", h.Cancel)
	router.PATCH("/appointment/complete/:id", h.Complete)

	router.GET("/appointment/me", h.ClientAppointments)
	router.GET("/appointment/me/history", h.ClientHistory)
	router.GET("/appointment/consultant", h.ConsultantAppointments)
	router.GET("/appointment/consultant/history", h.ConsultantHistory)
}
