package financehandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"gestimmo/internal/domain/auth"
	"gestimmo/internal/domain/finance"
	"gestimmo/internal/domain/workflow"
	"gestimmo/internal/transport/http/api"
	"gestimmo/internal/transport/http/middleware"
	"gestimmo/internal/transport/http/shared"
)

type Handler struct {
	Store  *finance.Store
	Engine *workflow.Engine
	Perms  middleware.PermissionStore
}

func NewHandler(store *finance.Store, engine *workflow.Engine, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Engine: engine, Perms: perms}
}

type transactionPayload struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	AgencyID    string `json:"agencyId"`
}

type invoiceItemPayload struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
}

type invoicePayload struct {
	Type     string               `json:"type"`
	AgencyID string               `json:"agencyId"`
	ClientID string               `json:"clientId"`
	Items    []invoiceItemPayload `json:"items"`
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/finance/transactions", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermFinanceRead, h.Perms)).Get("/", h.handleListTransactions)
		r.With(middleware.RequirePermission(auth.PermFinanceRead, h.Perms)).Get("/export", h.handleExportTransactions)
		r.With(middleware.RequirePermission(auth.PermFinanceRead, h.Perms)).Get("/{transactionID}", h.handleGetTransaction)
		r.Post("/", h.handleCreateTransaction)
		r.Put("/{transactionID}", h.handleUpdateTransaction)
		r.Post("/{transactionID}/approve", h.handleApproveTransaction)
		r.Post("/{transactionID}/reject", h.handleRejectTransaction)
		r.Post("/{transactionID}/cancel", h.handleCancelTransaction)
	})
	r.Route("/finance/invoices", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermInvoicesRead, h.Perms)).Get("/", h.handleListInvoices)
		r.With(middleware.RequirePermission(auth.PermInvoicesWrite, h.Perms)).Post("/", h.handleCreateInvoice)
		r.With(middleware.RequirePermission(auth.PermInvoicesRead, h.Perms)).Get("/{invoiceID}", h.handleGetInvoice)
		r.With(middleware.RequirePermission(auth.PermInvoicesWrite, h.Perms)).Put("/{invoiceID}/items", h.handleReplaceItems)
		r.With(middleware.RequirePermission(auth.PermInvoicesRead, h.Perms)).Get("/{invoiceID}/pdf", h.handleInvoicePDF)
		r.Post("/{invoiceID}/approve", h.handleApproveInvoice)
		r.Post("/{invoiceID}/reject", h.handleRejectInvoice)
	})
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	out, total, err := h.Store.ListTransactions(r.Context(), r.URL.Query().Get("agencyId"), r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "transaction_list_failed", "failed to list transactions", reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, out, reqID)
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	t, err := h.Store.GetTransaction(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		failFinance(w, err, reqID)
		return
	}
	api.Success(w, t, reqID)
}

func (h *Handler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("description", payload.Description, "description is required")
	v.Required("amount", payload.Amount, "amount is required")
	amount := v.Amount("amount", payload.Amount)
	v.Enum("type", payload.Type, []string{finance.TypeIncome, finance.TypeExpense}, "type must be income or expense")
	v.Required("type", payload.Type, "type is required")
	if v.Reject(w, reqID) {
		return
	}

	category := payload.Category
	if category == "" {
		category = finance.CategoryGeneral
	}

	id, err := h.Store.CreateTransaction(r.Context(), finance.Transaction{
		Description: payload.Description,
		Amount:      amount,
		Category:    category,
		Type:        payload.Type,
		AgencyID:    payload.AgencyID,
		RecordedBy:  user.UserID,
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "transaction_create_failed", "failed to create transaction", reqID)
		return
	}
	api.Created(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("description", payload.Description, "description is required")
	v.Required("amount", payload.Amount, "amount is required")
	amount := v.Amount("amount", payload.Amount)
	if v.Reject(w, reqID) {
		return
	}

	id := chi.URLParam(r, "transactionID")
	if err := h.Store.UpdateTransaction(r.Context(), id, payload.Description, payload.Category, amount); err != nil {
		failFinance(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"id": id}, reqID)
}

func (h *Handler) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	content, err := h.Store.TransactionsXLSX(r.Context(), r.URL.Query().Get("agencyId"))
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "transaction_export_failed", "failed to export transactions", reqID)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=transactions.xlsx")
	_, _ = w.Write(content)
}

func (h *Handler) handleApproveTransaction(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, workflow.EntityTransaction, chi.URLParam(r, "transactionID"), workflow.ActionApprove)
}

func (h *Handler) handleRejectTransaction(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, workflow.EntityTransaction, chi.URLParam(r, "transactionID"), workflow.ActionReject)
}

func (h *Handler) handleCancelTransaction(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if _, ok := middleware.GetUser(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	id := chi.URLParam(r, "transactionID")
	if err := h.Store.CancelTransaction(r.Context(), id); err != nil {
		failFinance(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"id": id, "status": workflow.StatusCancelled}, reqID)
}

func (h *Handler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)

	out, total, err := h.Store.ListInvoices(r.Context(), r.URL.Query().Get("agencyId"), r.URL.Query().Get("status"), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "invoice_list_failed", "failed to list invoices", reqID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, out, reqID)
}

func (h *Handler) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload invoicePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	v.Required("type", payload.Type, "type is required")
	v.Enum("type", payload.Type, []string{finance.InvoiceTypeSale, finance.InvoiceTypePurchase}, "type must be sale or purchase")
	if len(payload.Items) == 0 {
		v.Add("items", "at least one line item is required")
	}
	items := make([]finance.InvoiceItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		v.Required("items.description", item.Description, "item description is required")
		items = append(items, finance.InvoiceItem{
			Description: item.Description,
			Quantity:    v.Amount("items.quantity", item.Quantity),
			UnitPrice:   v.Amount("items.unitPrice", item.UnitPrice),
		})
	}
	if v.Reject(w, reqID) {
		return
	}

	inv, err := h.Store.CreateInvoice(r.Context(), finance.Invoice{
		Type:      payload.Type,
		AgencyID:  payload.AgencyID,
		ClientID:  payload.ClientID,
		CreatedBy: user.UserID,
		Items:     items,
	}, time.Now().Year())
	if err != nil {
		failFinance(w, err, reqID)
		return
	}
	api.Created(w, inv, reqID)
}

func (h *Handler) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	inv, err := h.Store.GetInvoice(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		failFinance(w, err, reqID)
		return
	}
	api.Success(w, inv, reqID)
}

func (h *Handler) handleReplaceItems(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload struct {
		Items []invoiceItemPayload `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	v := shared.NewValidator()
	if len(payload.Items) == 0 {
		v.Add("items", "at least one line item is required")
	}
	items := make([]finance.InvoiceItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		v.Required("items.description", item.Description, "item description is required")
		items = append(items, finance.InvoiceItem{
			Description: item.Description,
			Quantity:    v.Amount("items.quantity", item.Quantity),
			UnitPrice:   v.Amount("items.unitPrice", item.UnitPrice),
		})
	}
	if v.Reject(w, reqID) {
		return
	}

	inv, err := h.Store.ReplaceInvoiceItems(r.Context(), chi.URLParam(r, "invoiceID"), items)
	if err != nil {
		failFinance(w, err, reqID)
		return
	}
	api.Success(w, inv, reqID)
}

func (h *Handler) handleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	invoiceID := chi.URLParam(r, "invoiceID")

	inv, err := h.Store.GetInvoice(r.Context(), invoiceID)
	if err != nil {
		failFinance(w, err, reqID)
		return
	}

	content, err := h.Store.InvoicePDF(r.Context(), invoiceID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "invoice_pdf_failed", "failed to render invoice", reqID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename="+inv.Number+".pdf")
	_, _ = w.Write(content)
}

func (h *Handler) handleApproveInvoice(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, workflow.EntityInvoice, chi.URLParam(r, "invoiceID"), workflow.ActionApprove)
}

func (h *Handler) handleRejectInvoice(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, workflow.EntityInvoice, chi.URLParam(r, "invoiceID"), workflow.ActionReject)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, entityType workflow.EntityType, id string, action workflow.Action) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var result workflow.Result
	var err error
	switch action {
	case workflow.ActionReject:
		var payload rejectPayload
		if decodeErr := json.NewDecoder(r.Body).Decode(&payload); decodeErr != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
			return
		}
		result, err = h.Engine.Reject(r.Context(), entityType, id, user.UserID, payload.Reason)
	default:
		result, err = h.Engine.Approve(r.Context(), entityType, id, user.UserID)
	}
	if err != nil {
		shared.FailTransition(w, err, reqID)
		return
	}
	api.Success(w, result, reqID)
}

func failFinance(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, finance.ErrTransactionNotFound), errors.Is(err, finance.ErrInvoiceNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "record not found", reqID)
	case errors.Is(err, finance.ErrTransactionLocked), errors.Is(err, finance.ErrInvoiceLocked):
		api.Fail(w, http.StatusConflict, "record_locked", "record is no longer editable", reqID)
	case errors.Is(err, finance.ErrNotRejected):
		api.Fail(w, http.StatusConflict, "not_rejected", "only rejected transactions can be cancelled", reqID)
	case errors.Is(err, finance.ErrEmptyInvoice):
		api.Fail(w, http.StatusBadRequest, "empty_invoice", "invoice needs at least one line item", reqID)
	default:
		api.Fail(w, http.StatusInternalServerError, "finance_failed", "operation failed", reqID)
	}
}
