package corehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gestimmo/internal/domain/auth"
	"gestimmo/internal/domain/core"
	"gestimmo/internal/domain/workflow"
	"gestimmo/internal/transport/http/api"
	"gestimmo/internal/transport/http/middleware"
	"gestimmo/internal/transport/http/shared"
)

type Handler struct {
	Store  *core.Store
	Engine *workflow.Engine
	Perms  middleware.PermissionStore
}

func NewHandler(store *core.Store, engine *workflow.Engine, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Engine: engine, Perms: perms}
}

type employeePayload struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	Position        string `json:"position"`
	AgencyID        string `json:"agencyId"`
	PendingAgencyID string `json:"pendingAgencyId"`
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

type agencyPayload struct {
	Name string `json:"name"`
	City string `json:"city"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/{employeeID}", h.handleUpdate)
		r.Post("/{employeeID}/approve", h.handleApprove)
		r.Post("/{employeeID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/{employeeID}/resubmit", h.handleResubmit)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/{employeeID}/withdraw", h.handleWithdraw)
	})
	r.Route("/agencies", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleListAgencies)
		r.With(middleware.RequirePermission(auth.PermSystemAdmin, h.Perms)).Post("/", h.handleCreateAgency)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	employees, total, err := h.Store.ListEmployees(r.Context(), r.URL.Query().Get("agencyId"), r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_list_failed", "failed to list employees", reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, employees, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("email", payload.Email, "email is required")
	if v.Reject(w, reqID) {
		return
	}

	emp, err := h.Store.CreateEmployee(r.Context(), core.Employee{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Position:  payload.Position,
		AgencyID:  payload.AgencyID,
		CreatedBy: user.UserID,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "employee_create_failed", "failed to create employee", reqID)
		return
	}
	api.Created(w, emp, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "employeeID"))
	if err != nil {
		failEmployee(w, err, reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload employeePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "first name is required")
	v.Required("lastName", payload.LastName, "last name is required")
	v.Required("email", payload.Email, "email is required")
	if v.Reject(w, reqID) {
		return
	}

	id := chi.URLParam(r, "employeeID")
	if err := h.Store.UpdateEmployee(r.Context(), id, payload.FirstName, payload.LastName, payload.Email, payload.Position, payload.PendingAgencyID); err != nil {
		failEmployee(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	result, err := h.Engine.Approve(r.Context(), workflow.EntityEmployee, chi.URLParam(r, "employeeID"), user.UserID)
	if err != nil {
		shared.FailTransition(w, err, reqID)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	var payload rejectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	result, err := h.Engine.Reject(r.Context(), workflow.EntityEmployee, chi.URLParam(r, "employeeID"), user.UserID, payload.Reason)
	if err != nil {
		shared.FailTransition(w, err, reqID)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleResubmit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "employeeID")
	if err := h.Store.Resubmit(r.Context(), id); err != nil {
		failEmployee(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"id": id, "status": workflow.StatusPendingAgency}, reqID)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "employeeID")
	if err := h.Store.Withdraw(r.Context(), id); err != nil {
		failEmployee(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"id": id, "status": "withdrawn"}, reqID)
}

func (h *Handler) handleListAgencies(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	agencies, err := h.Store.ListAgencies(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "agency_list_failed", "failed to list agencies", reqID)
		return
	}
	api.Success(w, agencies, reqID)
}

func (h *Handler) handleCreateAgency(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload agencyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, reqID) {
		return
	}

	id, err := h.Store.CreateAgency(r.Context(), payload.Name, payload.City)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "agency_create_failed", "failed to create agency", reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

func failEmployee(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, core.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	case errors.Is(err, core.ErrEmployeeLocked):
		api.Fail(w, http.StatusConflict, "employee_locked", err.Error(), reqID)
	case errors.Is(err, core.ErrNotRejected):
		api.Fail(w, http.StatusConflict, "not_rejected", err.Error(), reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "employee_failed", "operation failed", reqID)
	}
}
