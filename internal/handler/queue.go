package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sajian-pos/api/internal/database"
	"github.com/sajian-pos/api/internal/service"
)

// QueueServicer defines the service methods needed by queue handlers.
// Satisfied by *service.QueueService; narrow interface for testability.
type QueueServicer interface {
	Add(ctx context.Context, tenant service.Tenant, orderID uuid.UUID, priority string) (*service.QueueEntryView, error)
	UpdateStatus(ctx context.Context, tenant service.Tenant, entryID uuid.UUID, status string) (*database.QueueEntry, error)
	Remove(ctx context.Context, tenant service.Tenant, orderID uuid.UUID) error
	Reorder(ctx context.Context, tenant service.Tenant) error
	GetQueue(ctx context.Context, tenant service.Tenant, status string) ([]service.QueueEntryView, error)
}

// QueueHandler handles kitchen queue endpoints.
type QueueHandler struct {
	svc QueueServicer
}

// NewQueueHandler creates a new QueueHandler.
func NewQueueHandler(svc QueueServicer) *QueueHandler {
	return &QueueHandler{svc: svc}
}

// RegisterRoutes registers queue endpoints on the given Chi router.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/queue
func (h *QueueHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Add)
	r.Post("/reorder", h.Reorder)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Delete("/order/{orderID}", h.Remove)
}

// --- Request / Response types ---

type addQueueRequest struct {
	OrderID  string `json:"order_id"`
	Priority string `json:"priority"`
}

type queueEntryResponse struct {
	ID            uuid.UUID  `json:"id"`
	OrderID       uuid.UUID  `json:"order_id"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	QueuePosition int32      `json:"queue_position"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type queueListResponse struct {
	Queue []service.QueueEntryView `json:"queue"`
}

// --- Handlers ---

// List handles GET /branches/{bid}/queue. The optional status query filters
// the entries; reads are served through the short-lived cache.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	entries, err := h.svc.GetQueue(r.Context(), tenant, r.URL.Query().Get("status"))
	if err != nil {
		serviceError(w, err, "list queue")
		return
	}

	if entries == nil {
		entries = []service.QueueEntryView{}
	}
	writeJSON(w, http.StatusOK, queueListResponse{Queue: entries})
}

// Add handles POST /branches/{bid}/queue.
func (h *QueueHandler) Add(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	var req addQueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order_id"})
		return
	}

	entry, err := h.svc.Add(r.Context(), tenant, orderID, req.Priority)
	if err != nil {
		serviceError(w, err, "add to queue")
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// UpdateStatus handles PATCH /branches/{bid}/queue/{id}/status.
func (h *QueueHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid queue entry ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	entry, err := h.svc.UpdateStatus(r.Context(), tenant, entryID, req.Status)
	if err != nil {
		serviceError(w, err, "update queue status")
		return
	}

	writeJSON(w, http.StatusOK, dbQueueEntryToResponse(*entry))
}

// Reorder handles POST /branches/{bid}/queue/reorder. It reassigns positions
// for pending entries by priority, then creation order.
func (h *QueueHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	if err := h.svc.Reorder(r.Context(), tenant); err != nil {
		serviceError(w, err, "reorder queue")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Remove handles DELETE /branches/{bid}/queue/order/{orderID}.
func (h *QueueHandler) Remove(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requestTenant(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	if err := h.svc.Remove(r.Context(), tenant, orderID); err != nil {
		serviceError(w, err, "remove from queue")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// dbQueueEntryToResponse converts a database.QueueEntry to a queueEntryResponse.
func dbQueueEntryToResponse(e database.QueueEntry) queueEntryResponse {
	resp := queueEntryResponse{
		ID:            e.ID,
		OrderID:       e.OrderID,
		Status:        e.Status,
		Priority:      e.Priority,
		QueuePosition: e.QueuePosition,
		CreatedAt:     e.CreatedAt,
	}
	if e.StartedAt.Valid {
		resp.StartedAt = &e.StartedAt.Time
	}
	if e.CompletedAt.Valid {
		resp.CompletedAt = &e.CompletedAt.Time
	}
	return resp
}
