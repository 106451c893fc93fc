package handler

import (
	"net/http"

	"github.com/hrm-gateway/internal/application/directory"
	"github.com/hrm-gateway/internal/domain"
)

// HolidayHandler serves the cached holiday calendar.
type HolidayHandler struct {
	svc *directory.Service
}

func NewHolidayHandler(svc *directory.Service) *HolidayHandler {
	return &HolidayHandler{svc: svc}
}

func (h *HolidayHandler) List(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.svc.Holidays(r.Context(), tokenFromRequest(r))
	if err != nil {
		httpError(w, err)
		return
	}
	if holidays == nil {
		holidays = []domain.Holiday{}
	}
	writeJSON(w, http.StatusOK, holidays)
}
