package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"consultly/internal/parties/service"
	httputil "consultly/pkg/http"
	"consultly/pkg/logger"
)

type PartyHandler struct {
	service service.PartyService
	log     *logger.Logger
}

func NewPartyHandler(service service.PartyService, log *logger.Logger) *PartyHandler {
	return &PartyHandler{
		service: service,
		log:     log,
	}
}

func (h *PartyHandler) ListConsultants(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	consultants, err := h.service.ListConsultants(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListConsultants", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, consultants); err != nil {
		h.log.Error("failed to write success response", "handler", "ListConsultants", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PartyHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/consultant/list", h.ListConsultants)
}
