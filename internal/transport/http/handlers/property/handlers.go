package propertyhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gestimmo/internal/domain/auth"
	"gestimmo/internal/domain/property"
	"gestimmo/internal/transport/http/api"
	"gestimmo/internal/transport/http/middleware"
	"gestimmo/internal/transport/http/shared"
)

type Handler struct {
	Store *property.Store
	Perms middleware.PermissionStore
}

func NewHandler(store *property.Store, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Perms: perms}
}

type lotPayload struct {
	Reference string `json:"reference"`
	Location  string `json:"location"`
	Area      string `json:"area"`
	Price     string `json:"price"`
	AgencyID  string `json:"agencyId"`
}

type bulkStatusPayload struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/lots", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLotsRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermLotsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermLotsRead, h.Perms)).Get("/{lotID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermLotsWrite, h.Perms)).Post("/bulk-status", h.handleBulkStatus)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 500)

	lots, total, err := h.Store.ListLots(r.Context(), r.URL.Query().Get("agencyId"), r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "lot_list_failed", "failed to list lots", reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, lots, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload lotPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("reference", payload.Reference, "reference is required")
	area := v.Amount("area", payload.Area)
	price := v.Amount("price", payload.Price)
	if v.Reject(w, reqID) {
		return
	}

	id, err := h.Store.CreateLot(r.Context(), property.Lot{
		Reference: payload.Reference,
		Location:  payload.Location,
		Area:      area,
		Price:     price,
		Status:    property.LotStatusAvailable,
		AgencyID:  payload.AgencyID,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "lot_create_failed", "failed to create lot", reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	lot, err := h.Store.GetLot(r.Context(), chi.URLParam(r, "lotID"))
	if err != nil {
		if errors.Is(err, property.ErrLotNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "lot not found", reqID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "lot_failed", "operation failed", reqID)
		return
	}
	api.Success(w, lot, reqID)
}

// handleBulkStatus applies one status to a set of lots atomically: if any id
// is missing the whole request fails and the offending ids are reported.
func (h *Handler) handleBulkStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload bulkStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	if len(payload.IDs) == 0 {
		v.Add("ids", "at least one lot id is required")
	}
	v.Required("status", payload.Status, "status is required")
	v.Enum("status", payload.Status, property.LotStatuses, "unknown lot status")
	if v.Reject(w, reqID) {
		return
	}

	count, err := h.Store.BulkUpdateStatus(r.Context(), payload.IDs, payload.Status)
	if err != nil {
		var bulkErr *property.BulkError
		switch {
		case errors.As(err, &bulkErr):
			api.FailWithDetails(w, http.StatusNotFound, "lots_missing", bulkErr.Error(),
				map[string]any{"missingIds": bulkErr.MissingIDs}, reqID)
		case errors.Is(err, property.ErrInvalidLotState):
			api.Fail(w, http.StatusBadRequest, "invalid_status", "unknown lot status", reqID)
		default:
			api.Fail(w, http.StatusInternalServerError, "bulk_update_failed", "bulk update failed", reqID)
		}
		return
	}
	api.Success(w, map[string]any{"updated": count, "status": payload.Status}, reqID)
}
