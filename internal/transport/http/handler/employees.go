package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hrm-gateway/internal/application/directory"
	"github.com/hrm-gateway/internal/domain"
	"github.com/hrm-gateway/internal/transport/http/middleware"
)

// EmployeeHandler serves the cached employee directory.
type EmployeeHandler struct {
	svc *directory.Service
}

func NewEmployeeHandler(svc *directory.Service) *EmployeeHandler {
	return &EmployeeHandler{svc: svc}
}

func tokenFromRequest(r *http.Request) string {
	token, _ := middleware.TokenFromContext(r.Context())
	return token
}

// List returns one cached page using the upstream skip/limit contract.
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	employees, err := h.svc.ListEmployees(r.Context(), tokenFromRequest(r), skip, limit)
	if err != nil {
		httpError(w, err)
		return
	}
	if employees == nil {
		employees = []domain.Employee{}
	}
	writeJSON(w, http.StatusOK, employees)
}

func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	employee, err := h.svc.GetEmployee(r.Context(), tokenFromRequest(r), id)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	created, err := h.svc.CreateEmployee(r.Context(), tokenFromRequest(r), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	var req domain.UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := h.svc.UpdateEmployee(r.Context(), tokenFromRequest(r), id, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee id")
		return
	}
	if err := h.svc.DeleteEmployee(r.Context(), tokenFromRequest(r), id); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "deleted"})
}
