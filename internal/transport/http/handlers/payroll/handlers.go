package payrollhandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gestimmo/internal/domain/auth"
	"gestimmo/internal/domain/payroll"
	"gestimmo/internal/domain/workflow"
	"gestimmo/internal/transport/http/api"
	"gestimmo/internal/transport/http/middleware"
	"gestimmo/internal/transport/http/shared"
)

type Handler struct {
	Store  *payroll.Store
	Engine *workflow.Engine
	Perms  middleware.PermissionStore
}

func NewHandler(store *payroll.Store, engine *workflow.Engine, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Engine: engine, Perms: perms}
}

type runPayload struct {
	Month    int    `json:"month"`
	Year     int    `json:"year"`
	AgencyID string `json:"agencyId"`
}

type itemPayload struct {
	EmployeeID         string `json:"employeeId"`
	BaseSalary         string `json:"baseSalary"`
	Bonus              string `json:"bonus"`
	Tax                string `json:"tax"`
	SocialContribution string `json:"socialContribution"`
	Advance            string `json:"advance"`
	LatenessDeduction  string `json:"latenessDeduction"`
	OtherDeduction     string `json:"otherDeduction"`
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll/runs", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/", h.handleListRuns)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Post("/", h.handleCreateRun)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/{runID}", h.handleGetRun)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/{runID}/items", h.handleListItems)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Put("/{runID}/items", h.handleUpsertItem)
		r.With(middleware.RequirePermission(auth.PermPayrollWrite, h.Perms)).Delete("/{runID}/items/{itemID}", h.handleDeleteItem)
		r.With(middleware.RequirePermission(auth.PermPayrollRead, h.Perms)).Get("/{runID}/export/register", h.handleExportRegister)
		r.Post("/{runID}/approve", h.handleApprove)
		r.Post("/{runID}/reject", h.handleReject)
		r.Post("/{runID}/revert", h.handleRevert)
	})
}

func (h *Handler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	runs, total, err := h.Store.ListRuns(r.Context(), r.URL.Query().Get("agencyId"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_list_failed", "failed to list payroll runs", reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, runs, reqID)
}

func (h *Handler) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload runPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.IntRange("month", payload.Month, 1, 12, "month must be between 1 and 12")
	v.IntRange("year", payload.Year, 2000, time.Now().Year()+1, "year is out of range")
	if v.Reject(w, reqID) {
		return
	}

	id, err := h.Store.CreateRun(r.Context(), payload.Month, payload.Year, payload.AgencyID, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_create_failed", "failed to create payroll run", reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		failRun(w, err, reqID)
		return
	}
	api.Success(w, run, reqID)
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	items, err := h.Store.ListItems(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_items_failed", "failed to list items", reqID)
		return
	}
	api.Success(w, items, reqID)
}

func (h *Handler) handleUpsertItem(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload itemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "employee id is required")
	item := payroll.Item{
		EmployeeID:         payload.EmployeeID,
		BaseSalary:         v.Amount("baseSalary", payload.BaseSalary),
		Bonus:              v.Amount("bonus", payload.Bonus),
		Tax:                v.Amount("tax", payload.Tax),
		SocialContribution: v.Amount("socialContribution", payload.SocialContribution),
		Advance:            v.Amount("advance", payload.Advance),
		LatenessDeduction:  v.Amount("latenessDeduction", payload.LatenessDeduction),
		OtherDeduction:     v.Amount("otherDeduction", payload.OtherDeduction),
	}
	if v.Reject(w, reqID) {
		return
	}

	saved, err := h.Store.UpsertItem(r.Context(), chi.URLParam(r, "runID"), item)
	if err != nil {
		failRun(w, err, reqID)
		return
	}
	api.Success(w, saved, reqID)
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if err := h.Store.DeleteItem(r.Context(), chi.URLParam(r, "runID"), chi.URLParam(r, "itemID")); err != nil {
		failRun(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, reqID)
}

func (h *Handler) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	runID := chi.URLParam(r, "runID")

	run, err := h.Store.GetRun(r.Context(), runID)
	if err != nil {
		failRun(w, err, reqID)
		return
	}

	content, err := h.Store.RegisterXLSX(r.Context(), runID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_export_failed", "failed to export register", reqID)
		return
	}

	filename := fmt.Sprintf("payroll-register-%02d-%d.xlsx", run.Month, run.Year)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(content)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	result, err := h.Engine.Approve(r.Context(), workflow.EntityPayrollRun, chi.URLParam(r, "runID"), user.UserID)
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
	result, err := h.Engine.Reject(r.Context(), workflow.EntityPayrollRun, chi.URLParam(r, "runID"), user.UserID, payload.Reason)
	if err != nil {
		shared.FailTransition(w, err, reqID)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) handleRevert(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	result, err := h.Engine.Revert(r.Context(), workflow.EntityPayrollRun, chi.URLParam(r, "runID"), user.UserID)
	if err != nil {
		shared.FailTransition(w, err, reqID)
		return
	}
	api.Success(w, result, reqID)
}

func failRun(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, payroll.ErrRunNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", reqID)
	case errors.Is(err, payroll.ErrRunLocked):
		api.Fail(w, http.StatusConflict, "run_locked", "payroll run is no longer editable", reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "payroll_failed", "operation failed", reqID)
	}
}
