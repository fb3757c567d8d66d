package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sajian-pos/api/internal/database"
	"github.com/sajian-pos/api/internal/service"
)

// PaymentServicer defines the service methods needed by payment handlers.
// Satisfied by *service.PaymentService; narrow interface for testability.
type PaymentServicer interface {
	Create(ctx context.Context, tenant service.Tenant, req service.CreatePaymentRequest) (*service.PaymentResult, error)
	Update(ctx context.Context, tenant service.Tenant, paymentID uuid.UUID, req service.UpdatePaymentRequest) (*service.PaymentResult, error)
	Delete(ctx context.Context, tenant service.Tenant, paymentID uuid.UUID) error
	Get(ctx context.Context, tenant service.Tenant, paymentID uuid.UUID) (*database.Payment, error)
	ListByOrder(ctx context.Context, tenant service.Tenant, orderID uuid.UUID) ([]database.Payment, error)
}

// PaymentHandler handles payment endpoints.
type PaymentHandler struct {
	svc PaymentServicer
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(svc PaymentServicer) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// RegisterRoutes registers payment endpoints on the given Chi router.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/payments
func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createPaymentRequest struct {
	OrderID        string `json:"order_id"`
	MethodID       string `json:"method_id"`
	Amount         string `json:"amount"`
	AmountReceived string `json:"amount_received"`
	Status         string `json:"status"`
}

type updatePaymentRequest struct {
	OrderID        *string `json:"order_id"`
	MethodID       *string `json:"method_id"`
	Amount         *string `json:"amount"`
	AmountReceived *string `json:"amount_received"`
	Status         *string `json:"status"`
}

// paymentDetailResponse carries the payment and the order it settled against,
// so the client sees the refreshed totals without a second round trip.
type paymentDetailResponse struct {
	Payment paymentResponse `json:"payment"`
	Order   orderResponse   `json:"order"`
}

// --- Handlers ---

// Create handles POST /branches/{bid}/payments.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.OrderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_id is required"})
		return
	}
	if req.MethodID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "method_id is required"})
		return
	}
	if req.Amount == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount is required"})
		return
	}

	result, err := h.svc.Create(r.Context(), tenant, service.CreatePaymentRequest{
		OrderID:        req.OrderID,
		MethodID:       req.MethodID,
		Amount:         req.Amount,
		AmountReceived: req.AmountReceived,
		Status:         req.Status,
	})
	if err != nil {
		serviceError(w, err, "create payment")
		return
	}

	writeJSON(w, http.StatusCreated, paymentDetailResponse{
		Payment: dbPaymentToResponse(result.Payment),
		Order:   dbOrderToResponse(result.Order),
	})
}

// List handles GET /branches/{bid}/payments?order_id={id}.
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(r.URL.Query().Get("order_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_id is required"})
		return
	}

	payments, err := h.svc.ListByOrder(r.Context(), tenant, orderID)
	if err != nil {
		serviceError(w, err, "list payments")
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = dbPaymentToResponse(p)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": resp})
}

// Get handles GET /branches/{bid}/payments/{id}.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment ID"})
		return
	}

	payment, err := h.svc.Get(r.Context(), tenant, paymentID)
	if err != nil {
		serviceError(w, err, "get payment")
		return
	}

	writeJSON(w, http.StatusOK, dbPaymentToResponse(*payment))
}

// Update handles PATCH /branches/{bid}/payments/{id}.
func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment ID"})
		return
	}

	var req updatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.Update(r.Context(), tenant, paymentID, service.UpdatePaymentRequest{
		OrderID:        req.OrderID,
		MethodID:       req.MethodID,
		Amount:         req.Amount,
		AmountReceived: req.AmountReceived,
		Status:         req.Status,
	})
	if err != nil {
		serviceError(w, err, "update payment")
		return
	}

	writeJSON(w, http.StatusOK, paymentDetailResponse{
		Payment: dbPaymentToResponse(result.Payment),
		Order:   dbOrderToResponse(result.Order),
	})
}

// Delete handles DELETE /branches/{bid}/payments/{id}.
func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payment ID"})
		return
	}

	if err := h.svc.Delete(r.Context(), tenant, paymentID); err != nil {
		serviceError(w, err, "delete payment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
