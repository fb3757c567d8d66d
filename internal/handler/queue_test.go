package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sajian-pos/api/internal/database"
	"github.com/sajian-pos/api/internal/handler"
	"github.com/sajian-pos/api/internal/middleware"
	"github.com/sajian-pos/api/internal/service"
)

// --- Mock QueueServicer ---

type mockQueueService struct {
	addFn          func(ctx context.Context, tenant service.Tenant, orderID uuid.UUID, priority string) (*service.QueueEntryView, error)
	updateStatusFn func(ctx context.Context, tenant service.Tenant, entryID uuid.UUID, status string) (*database.QueueEntry, error)
	removeFn       func(ctx context.Context, tenant service.Tenant, orderID uuid.UUID) error
	reorderFn      func(ctx context.Context, tenant service.Tenant) error
	getQueueFn     func(ctx context.Context, tenant service.Tenant, status string) ([]service.QueueEntryView, error)
}

func (m *mockQueueService) Add(ctx context.Context, tenant service.Tenant, orderID uuid.UUID, priority string) (*service.QueueEntryView, error) {
	return m.addFn(ctx, tenant, orderID, priority)
}

func (m *mockQueueService) UpdateStatus(ctx context.Context, tenant service.Tenant, entryID uuid.UUID, status string) (*database.QueueEntry, error) {
	return m.updateStatusFn(ctx, tenant, entryID, status)
}

func (m *mockQueueService) Remove(ctx context.Context, tenant service.Tenant, orderID uuid.UUID) error {
	return m.removeFn(ctx, tenant, orderID)
}

func (m *mockQueueService) Reorder(ctx context.Context, tenant service.Tenant) error {
	return m.reorderFn(ctx, tenant)
}

func (m *mockQueueService) GetQueue(ctx context.Context, tenant service.Tenant, status string) ([]service.QueueEntryView, error) {
	return m.getQueueFn(ctx, tenant, status)
}

func setupQueueRouter(svc *mockQueueService) *chi.Mux {
	h := handler.NewQueueHandler(svc)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testSecret))
	r.Route("/branches/{bid}/queue", func(r chi.Router) {
		r.Use(middleware.RequireBranch)
		h.RegisterRoutes(r)
	})
	return r
}

// --- Tests ---

func TestQueueList_PassesStatusFilter(t *testing.T) {
	branchID := uuid.New()
	var captured string
	svc := &mockQueueService{
		getQueueFn: func(ctx context.Context, tenant service.Tenant, status string) ([]service.QueueEntryView, error) {
			captured = status
			return []service.QueueEntryView{{
				ID:            uuid.New(),
				OrderID:       uuid.New(),
				OrderNo:       "ORD-20250101-120000-0001",
				OrderType:     "DineIn",
				Status:        "Pending",
				Priority:      "Normal",
				QueuePosition: 1,
				CreatedAt:     time.Now(),
			}}, nil
		},
	}
	r := setupQueueRouter(svc)

	rr := doAuthRequest(t, r, "GET", "/branches/"+branchID.String()+"/queue?status=Pending", nil, testClaims(branchID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if captured != "Pending" {
		t.Errorf("status filter: got %q, want Pending", captured)
	}
	resp := decodeResponse(t, rr)
	queue, ok := resp["queue"].([]interface{})
	if !ok || len(queue) != 1 {
		t.Fatalf("expected 1 queue entry, got %v", resp["queue"])
	}
}

func TestQueueList_EmptyIsArrayNotNull(t *testing.T) {
	branchID := uuid.New()
	svc := &mockQueueService{
		getQueueFn: func(ctx context.Context, tenant service.Tenant, status string) ([]service.QueueEntryView, error) {
			return nil, nil
		},
	}
	r := setupQueueRouter(svc)

	rr := doAuthRequest(t, r, "GET", "/branches/"+branchID.String()+"/queue", nil, testClaims(branchID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	if _, ok := resp["queue"].([]interface{}); !ok {
		t.Errorf("queue should be an empty array, got %v", resp["queue"])
	}
}

func TestQueueAdd_Success(t *testing.T) {
	branchID := uuid.New()
	orderID := uuid.New()
	svc := &mockQueueService{
		addFn: func(ctx context.Context, tenant service.Tenant, oid uuid.UUID, priority string) (*service.QueueEntryView, error) {
			if oid != orderID {
				t.Errorf("order ID: got %v, want %v", oid, orderID)
			}
			if priority != "High" {
				t.Errorf("priority: got %q, want High", priority)
			}
			return &service.QueueEntryView{
				ID:            uuid.New(),
				OrderID:       orderID,
				Status:        "Pending",
				Priority:      "High",
				QueuePosition: 8,
				CreatedAt:     time.Now(),
			}, nil
		},
	}
	r := setupQueueRouter(svc)

	rr := doAuthRequest(t, r, "POST", "/branches/"+branchID.String()+"/queue", map[string]string{
		"order_id": orderID.String(),
		"priority": "High",
	}, testClaims(branchID))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["queue_position"] != float64(8) {
		t.Errorf("queue_position: got %v, want 8", resp["queue_position"])
	}
}

func TestQueueAdd_AlreadyQueued(t *testing.T) {
	branchID := uuid.New()
	svc := &mockQueueService{
		addFn: func(ctx context.Context, tenant service.Tenant, orderID uuid.UUID, priority string) (*service.QueueEntryView, error) {
			return nil, service.ErrAlreadyQueued
		},
	}
	r := setupQueueRouter(svc)

	rr := doAuthRequest(t, r, "POST", "/branches/"+branchID.String()+"/queue", map[string]string{
		"order_id": uuid.New().String(),
	}, testClaims(branchID))

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestQueueAdd_InvalidOrderID(t *testing.T) {
	branchID := uuid.New()
	r := setupQueueRouter(&mockQueueService{})

	rr := doAuthRequest(t, r, "POST", "/branches/"+branchID.String()+"/queue", map[string]string{
		"order_id": "not-a-uuid",
	}, testClaims(branchID))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestQueueUpdateStatus_StampsStartedAt(t *testing.T) {
	branchID := uuid.New()
	entryID := uuid.New()
	now := time.Now()

	svc := &mockQueueService{
		updateStatusFn: func(ctx context.Context, tenant service.Tenant, id uuid.UUID, status string) (*database.QueueEntry, error) {
			return &database.QueueEntry{
				ID:            entryID,
				OrderID:       uuid.New(),
				BranchID:      branchID,
				Status:        status,
				Priority:      "Normal",
				QueuePosition: 3,
				StartedAt:     pgtype.Timestamptz{Time: now, Valid: true},
				CreatedAt:     now,
			}, nil
		},
	}
	r := setupQueueRouter(svc)

	rr := doAuthRequest(t, r, "PATCH", "/branches/"+branchID.String()+"/queue/"+entryID.String()+"/status", map[string]string{
		"status": "Processing",
	}, testClaims(branchID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["status"] != "Processing" {
		t.Errorf("status: got %v, want Processing", resp["status"])
	}
	if resp["started_at"] == nil {
		t.Error("expected started_at to be set")
	}
}

func TestQueueUpdateStatus_NotFound(t *testing.T) {
	branchID := uuid.New()
	svc := &mockQueueService{
		updateStatusFn: func(ctx context.Context, tenant service.Tenant, entryID uuid.UUID, status string) (*database.QueueEntry, error) {
			return nil, service.ErrQueueEntryNotFound
		},
	}
	r := setupQueueRouter(svc)

	rr := doAuthRequest(t, r, "PATCH", "/branches/"+branchID.String()+"/queue/"+uuid.New().String()+"/status", map[string]string{
		"status": "Completed",
	}, testClaims(branchID))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestQueueReorder_Success(t *testing.T) {
	branchID := uuid.New()
	called := false
	svc := &mockQueueService{
		reorderFn: func(ctx context.Context, tenant service.Tenant) error {
			called = true
			return nil
		},
	}
	r := setupQueueRouter(svc)

	rr := doAuthRequest(t, r, "POST", "/branches/"+branchID.String()+"/queue/reorder", nil, testClaims(branchID))

	if rr.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if !called {
		t.Error("expected reorder to be called")
	}
}

func TestQueueRemove_Success(t *testing.T) {
	branchID := uuid.New()
	orderID := uuid.New()
	svc := &mockQueueService{
		removeFn: func(ctx context.Context, tenant service.Tenant, oid uuid.UUID) error {
			if oid != orderID {
				t.Errorf("order ID: got %v, want %v", oid, orderID)
			}
			return nil
		},
	}
	r := setupQueueRouter(svc)

	rr := doAuthRequest(t, r, "DELETE", "/branches/"+branchID.String()+"/queue/order/"+orderID.String(), nil, testClaims(branchID))

	if rr.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
}
