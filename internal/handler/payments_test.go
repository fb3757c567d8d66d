package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sajian-pos/api/internal/database"
	"github.com/sajian-pos/api/internal/handler"
	"github.com/sajian-pos/api/internal/middleware"
	"github.com/sajian-pos/api/internal/service"
)

// --- Mock PaymentServicer ---

type mockPaymentService struct {
	createFn func(ctx context.Context, tenant service.Tenant, req service.CreatePaymentRequest) (*service.PaymentResult, error)
	updateFn func(ctx context.Context, tenant service.Tenant, paymentID uuid.UUID, req service.UpdatePaymentRequest) (*service.PaymentResult, error)
	deleteFn func(ctx context.Context, tenant service.Tenant, paymentID uuid.UUID) error
	getFn    func(ctx context.Context, tenant service.Tenant, paymentID uuid.UUID) (*database.Payment, error)
	listFn   func(ctx context.Context, tenant service.Tenant, orderID uuid.UUID) ([]database.Payment, error)
}

func (m *mockPaymentService) Create(ctx context.Context, tenant service.Tenant, req service.CreatePaymentRequest) (*service.PaymentResult, error) {
	return m.createFn(ctx, tenant, req)
}

func (m *mockPaymentService) Update(ctx context.Context, tenant service.Tenant, paymentID uuid.UUID, req service.UpdatePaymentRequest) (*service.PaymentResult, error) {
	return m.updateFn(ctx, tenant, paymentID, req)
}

func (m *mockPaymentService) Delete(ctx context.Context, tenant service.Tenant, paymentID uuid.UUID) error {
	return m.deleteFn(ctx, tenant, paymentID)
}

func (m *mockPaymentService) Get(ctx context.Context, tenant service.Tenant, paymentID uuid.UUID) (*database.Payment, error) {
	return m.getFn(ctx, tenant, paymentID)
}

func (m *mockPaymentService) ListByOrder(ctx context.Context, tenant service.Tenant, orderID uuid.UUID) ([]database.Payment, error) {
	if m.listFn != nil {
		return m.listFn(ctx, tenant, orderID)
	}
	return nil, nil
}

func setupPaymentRouter(svc *mockPaymentService) *chi.Mux {
	h := handler.NewPaymentHandler(svc)
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testSecret))
	r.Route("/branches/{bid}/payments", func(r chi.Router) {
		r.Use(middleware.RequireBranch)
		h.RegisterRoutes(r)
	})
	return r
}

func testPayment(t *testing.T, branchID uuid.UUID) database.Payment {
	t.Helper()
	return database.Payment{
		ID:             uuid.New(),
		OrderID:        uuid.New(),
		MethodID:       uuid.New(),
		ShiftID:        uuid.New(),
		BranchID:       branchID,
		Amount:         testNumeric(t, "214.00"),
		AmountReceived: testNumeric(t, "250.00"),
		ChangeAmount:   testNumeric(t, "36.00"),
		Status:         "Success",
		CreatedBy:      uuid.New(),
		CreatedAt:      time.Now(),
	}
}

// --- Tests ---

func TestCreatePayment_SettlesOrder(t *testing.T) {
	branchID := uuid.New()
	payment := testPayment(t, branchID)
	order := testOrder(t, branchID)
	order.Status = "Completed"
	order.ReceivedAmount = testNumeric(t, "250.00")
	order.ChangeAmount = testNumeric(t, "36.00")

	svc := &mockPaymentService{
		createFn: func(ctx context.Context, tenant service.Tenant, req service.CreatePaymentRequest) (*service.PaymentResult, error) {
			if req.Amount != "214.00" {
				t.Errorf("amount: got %q, want 214.00", req.Amount)
			}
			return &service.PaymentResult{Payment: payment, Order: order}, nil
		},
	}
	r := setupPaymentRouter(svc)

	rr := doAuthRequest(t, r, "POST", "/branches/"+branchID.String()+"/payments", map[string]string{
		"order_id":        payment.OrderID.String(),
		"method_id":       payment.MethodID.String(),
		"amount":          "214.00",
		"amount_received": "250.00",
	}, testClaims(branchID))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	paymentResp, ok := resp["payment"].(map[string]interface{})
	if !ok {
		t.Fatal("expected payment object in response")
	}
	if paymentResp["change_amount"] != "36.00" {
		t.Errorf("change_amount: got %v, want 36.00", paymentResp["change_amount"])
	}
	orderResp, ok := resp["order"].(map[string]interface{})
	if !ok {
		t.Fatal("expected order object in response")
	}
	if orderResp["status"] != "Completed" {
		t.Errorf("order status: got %v, want Completed", orderResp["status"])
	}
}

func TestCreatePayment_MissingFields(t *testing.T) {
	branchID := uuid.New()
	r := setupPaymentRouter(&mockPaymentService{})

	rr := doAuthRequest(t, r, "POST", "/branches/"+branchID.String()+"/payments", map[string]string{
		"order_id": uuid.New().String(),
	}, testClaims(branchID))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreatePayment_CancelledOrder(t *testing.T) {
	branchID := uuid.New()
	svc := &mockPaymentService{
		createFn: func(ctx context.Context, tenant service.Tenant, req service.CreatePaymentRequest) (*service.PaymentResult, error) {
			return nil, service.ErrOrderCancelled
		},
	}
	r := setupPaymentRouter(svc)

	rr := doAuthRequest(t, r, "POST", "/branches/"+branchID.String()+"/payments", map[string]string{
		"order_id":  uuid.New().String(),
		"method_id": uuid.New().String(),
		"amount":    "10.00",
	}, testClaims(branchID))

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestCreatePayment_InvalidAmount(t *testing.T) {
	branchID := uuid.New()
	svc := &mockPaymentService{
		createFn: func(ctx context.Context, tenant service.Tenant, req service.CreatePaymentRequest) (*service.PaymentResult, error) {
			return nil, service.ErrInvalidAmount
		},
	}
	r := setupPaymentRouter(svc)

	rr := doAuthRequest(t, r, "POST", "/branches/"+branchID.String()+"/payments", map[string]string{
		"order_id":  uuid.New().String(),
		"method_id": uuid.New().String(),
		"amount":    "-5.00",
	}, testClaims(branchID))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetPayment_Success(t *testing.T) {
	branchID := uuid.New()
	payment := testPayment(t, branchID)

	svc := &mockPaymentService{
		getFn: func(ctx context.Context, tenant service.Tenant, paymentID uuid.UUID) (*database.Payment, error) {
			if paymentID != payment.ID {
				return nil, service.ErrPaymentNotFound
			}
			return &payment, nil
		},
	}
	r := setupPaymentRouter(svc)

	rr := doAuthRequest(t, r, "GET", "/branches/"+branchID.String()+"/payments/"+payment.ID.String(), nil, testClaims(branchID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["amount"] != "214.00" {
		t.Errorf("amount: got %v, want 214.00", resp["amount"])
	}
}

func TestGetPayment_NotFound(t *testing.T) {
	branchID := uuid.New()
	svc := &mockPaymentService{
		getFn: func(ctx context.Context, tenant service.Tenant, paymentID uuid.UUID) (*database.Payment, error) {
			return nil, service.ErrPaymentNotFound
		},
	}
	r := setupPaymentRouter(svc)

	rr := doAuthRequest(t, r, "GET", "/branches/"+branchID.String()+"/payments/"+uuid.New().String(), nil, testClaims(branchID))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestListPayments_ByOrder(t *testing.T) {
	branchID := uuid.New()
	orderID := uuid.New()
	payment := testPayment(t, branchID)
	payment.OrderID = orderID

	svc := &mockPaymentService{
		listFn: func(ctx context.Context, tenant service.Tenant, oid uuid.UUID) ([]database.Payment, error) {
			if oid != orderID {
				t.Errorf("order ID: got %v, want %v", oid, orderID)
			}
			return []database.Payment{payment}, nil
		},
	}
	r := setupPaymentRouter(svc)

	rr := doAuthRequest(t, r, "GET", "/branches/"+branchID.String()+"/payments?order_id="+orderID.String(), nil, testClaims(branchID))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	payments, ok := resp["payments"].([]interface{})
	if !ok || len(payments) != 1 {
		t.Fatalf("expected 1 payment, got %v", resp["payments"])
	}
}

func TestUpdatePayment_RelinkRejected(t *testing.T) {
	branchID := uuid.New()
	svc := &mockPaymentService{
		updateFn: func(ctx context.Context, tenant service.Tenant, paymentID uuid.UUID, req service.UpdatePaymentRequest) (*service.PaymentResult, error) {
			return nil, service.ErrPaymentRelink
		},
	}
	r := setupPaymentRouter(svc)

	rr := doAuthRequest(t, r, "PATCH", "/branches/"+branchID.String()+"/payments/"+uuid.New().String(), map[string]string{
		"order_id": uuid.New().String(),
	}, testClaims(branchID))

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestDeletePayment_Success(t *testing.T) {
	branchID := uuid.New()
	svc := &mockPaymentService{
		deleteFn: func(ctx context.Context, tenant service.Tenant, paymentID uuid.UUID) error {
			return nil
		},
	}
	r := setupPaymentRouter(svc)

	rr := doAuthRequest(t, r, "DELETE", "/branches/"+branchID.String()+"/payments/"+uuid.New().String(), nil, testClaims(branchID))

	if rr.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
}
