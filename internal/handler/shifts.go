package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sajian-pos/api/internal/database"
	"github.com/sajian-pos/api/internal/service"
	"github.com/shopspring/decimal"
)

// ShiftServicer defines the service methods needed by shift handlers.
// Satisfied by *service.ShiftService; narrow interface for testability.
type ShiftServicer interface {
	Open(ctx context.Context, tenant service.Tenant, startAmount decimal.Decimal) (*database.Shift, bool, error)
	Current(ctx context.Context, tenant service.Tenant) (*database.Shift, error)
	PreviewClose(ctx context.Context, tenant service.Tenant) (*service.ClosePreview, error)
	Close(ctx context.Context, tenant service.Tenant, endAmount decimal.Decimal) (*database.Shift, error)
	Summary(ctx context.Context, tenant service.Tenant, shiftID uuid.UUID) (*service.ShiftSummary, error)
}

// ShiftHandler handles cash shift endpoints.
type ShiftHandler struct {
	svc ShiftServicer
}

// NewShiftHandler creates a new ShiftHandler.
func NewShiftHandler(svc ShiftServicer) *ShiftHandler {
	return &ShiftHandler{svc: svc}
}

// RegisterRoutes registers shift endpoints on the given Chi router.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/shifts
func (h *ShiftHandler) RegisterRoutes(r chi.Router) {
	r.Post("/open", h.Open)
	r.Get("/current", h.Current)
	r.Get("/close-preview", h.PreviewClose)
	r.Post("/close", h.Close)
	r.Get("/{id}/summary", h.Summary)
}

// --- Request / Response types ---

type openShiftRequest struct {
	StartAmount string `json:"start_amount"`
}

type closeShiftRequest struct {
	EndAmount string `json:"end_amount"`
}

type shiftResponse struct {
	ID             uuid.UUID  `json:"id"`
	BranchID       uuid.UUID  `json:"branch_id"`
	OpenedBy       uuid.UUID  `json:"opened_by"`
	StartAmount    string     `json:"start_amount"`
	EndAmount      *string    `json:"end_amount"`
	ExpectedAmount *string    `json:"expected_amount"`
	DiffAmount     *string    `json:"diff_amount"`
	Status         string     `json:"status"`
	OpenTime       time.Time  `json:"open_time"`
	CloseTime      *time.Time `json:"close_time"`
}

type closePreviewResponse struct {
	Shift          shiftResponse `json:"shift"`
	CashSales      string        `json:"cash_sales"`
	ExpectedAmount string        `json:"expected_amount"`
}

// --- Handlers ---

// Open handles POST /branches/{bid}/shifts/open. Opening is idempotent:
// if a shift is already open for the branch it is returned with 200 instead
// of 201.
func (h *ShiftHandler) Open(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	var req openShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	startAmount, err := decimal.NewFromString(req.StartAmount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid start_amount"})
		return
	}

	shift, opened, err := h.svc.Open(r.Context(), tenant, startAmount)
	if err != nil {
		serviceError(w, err, "open shift")
		return
	}

	status := http.StatusOK
	if opened {
		status = http.StatusCreated
	}
	writeJSON(w, status, dbShiftToResponse(*shift))
}

// Current handles GET /branches/{bid}/shifts/current.
func (h *ShiftHandler) Current(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	shift, err := h.svc.Current(r.Context(), tenant)
	if err != nil {
		serviceError(w, err, "get current shift")
		return
	}

	writeJSON(w, http.StatusOK, dbShiftToResponse(*shift))
}

// PreviewClose handles GET /branches/{bid}/shifts/close-preview. It returns
// the expected drawer amount so the cashier can count against it before
// committing the close.
func (h *ShiftHandler) PreviewClose(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	preview, err := h.svc.PreviewClose(r.Context(), tenant)
	if err != nil {
		serviceError(w, err, "preview shift close")
		return
	}

	writeJSON(w, http.StatusOK, closePreviewResponse{
		Shift:          dbShiftToResponse(preview.Shift),
		CashSales:      preview.CashSales.StringFixed(2),
		ExpectedAmount: preview.ExpectedAmount.StringFixed(2),
	})
}

// Close handles POST /branches/{bid}/shifts/close.
func (h *ShiftHandler) Close(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	var req closeShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	endAmount, err := decimal.NewFromString(req.EndAmount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid end_amount"})
		return
	}

	shift, err := h.svc.Close(r.Context(), tenant, endAmount)
	if err != nil {
		serviceError(w, err, "close shift")
		return
	}

	writeJSON(w, http.StatusOK, dbShiftToResponse(*shift))
}

// Summary handles GET /branches/{bid}/shifts/{id}/summary.
func (h *ShiftHandler) Summary(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	shiftID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid shift ID"})
		return
	}

	summary, err := h.svc.Summary(r.Context(), tenant, shiftID)
	if err != nil {
		serviceError(w, err, "get shift summary")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// --- Helpers ---

func numericToStringPtr(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := numericToString(n)
	return &s
}

// dbShiftToResponse converts a database.Shift to a shiftResponse.
func dbShiftToResponse(s database.Shift) shiftResponse {
	resp := shiftResponse{
		ID:             s.ID,
		BranchID:       s.BranchID,
		OpenedBy:       s.OpenedBy,
		StartAmount:    numericToString(s.StartAmount),
		EndAmount:      numericToStringPtr(s.EndAmount),
		ExpectedAmount: numericToStringPtr(s.ExpectedAmount),
		DiffAmount:     numericToStringPtr(s.DiffAmount),
		Status:         s.Status,
		OpenTime:       s.OpenTime,
	}
	if s.CloseTime.Valid {
		resp.CloseTime = &s.CloseTime.Time
	}
	return resp
}
