package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sajian-pos/api/internal/cache"
	"github.com/sajian-pos/api/internal/database"
	"github.com/sajian-pos/api/internal/enum"
)

// Errors returned by the payment service.
var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrMethodNotFound  = errors.New("payment method not found for this branch")
	ErrOrderCancelled  = errors.New("cannot pay a cancelled order")
	ErrPaymentRelink   = errors.New("payment cannot be moved to another order")
)

// PaymentStore defines the DB methods needed by the payment service.
type PaymentStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, arg database.GetOrderForUpdateParams) (database.Order, error)
	GetOpenShiftByBranch(ctx context.Context, branchID uuid.UUID) (database.Shift, error)
	GetPaymentMethod(ctx context.Context, arg database.GetPaymentMethodParams) (database.PaymentMethod, error)
	CreatePayment(ctx context.Context, arg database.CreatePaymentParams) (database.Payment, error)
	GetPayment(ctx context.Context, arg database.GetPaymentParams) (database.Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.Payment, error)
	UpdatePayment(ctx context.Context, arg database.UpdatePaymentParams) (database.Payment, error)
	DeletePayment(ctx context.Context, arg database.DeletePaymentParams) error
	SumSuccessPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (database.SumSuccessPaymentsByOrderRow, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	UpdateOrderPaymentSummary(ctx context.Context, arg database.UpdateOrderPaymentSummaryParams) (database.Order, error)
	UpdateOrderItemsStatusByOrder(ctx context.Context, arg database.UpdateOrderItemsStatusByOrderParams) error
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.Table, error)
}

// NewPaymentStore creates a PaymentStore from a DBTX.
type NewPaymentStore func(db database.DBTX) PaymentStore

// CreatePaymentRequest is the validated input for recording a payment.
type CreatePaymentRequest struct {
	OrderID        string
	MethodID       string
	Amount         string
	AmountReceived string // optional; defaults to Amount
	Status         string // optional; defaults to Success
}

// UpdatePaymentRequest carries the mutable payment fields.
type UpdatePaymentRequest struct {
	OrderID        *string // kept for explicit rejection: payments never move
	MethodID       *string
	Amount         *string
	AmountReceived *string
	Status         *string
}

// PaymentResult is a payment together with its order after state refresh.
type PaymentResult struct {
	Payment database.Payment
	Order   database.Order
}

// PaymentService records and mutates payments, and keeps the owning order's
// payment summary and settlement state consistent in the same transaction.
type PaymentService struct {
	pool     TxBeginner
	store    PaymentStore
	newStore NewPaymentStore
	queue    OrderQueue
	notifier Notifier
	audit    AuditLogger
	cache    cache.Cache
}

// NewPaymentService creates a new PaymentService. store handles reads outside
// transactions; newStore builds tx-scoped stores for mutations.
func NewPaymentService(pool TxBeginner, store PaymentStore, newStore NewPaymentStore, queue OrderQueue, notifier Notifier, audit AuditLogger, c cache.Cache) *PaymentService {
	return &PaymentService{
		pool:     pool,
		store:    store,
		newStore: newStore,
		queue:    queue,
		notifier: notifier,
		audit:    audit,
		cache:    c,
	}
}

// shiftSummaryCachePrefix matches the shift summary cache keys for a branch.
func shiftSummaryCachePrefix(branchID uuid.UUID) string {
	return fmt.Sprintf("shiftsum:%s:", branchID)
}

// Create records a payment against an order. Amounts are fixed at two
// decimals; change is received minus amount. Successful payments immediately
// refresh the order's received/change summary and, when they cover the total,
// settle the order.
func (s *PaymentService) Create(ctx context.Context, tenant Tenant, req CreatePaymentRequest) (*PaymentResult, error) {
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	methodID, err := uuid.Parse(req.MethodID)
	if err != nil {
		return nil, ErrMethodNotFound
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	amount = amount.Round(2)

	received := amount
	if req.AmountReceived != "" {
		received, err = decimal.NewFromString(req.AmountReceived)
		if err != nil || received.LessThan(amount) {
			return nil, ErrInvalidAmount
		}
		received = received.Round(2)
	}
	change := received.Sub(amount).Round(2)

	status := enum.PaymentStatusSuccess
	if req.Status != "" {
		if !validPaymentStatus(req.Status) {
			return nil, ErrInvalidStatus
		}
		status = req.Status
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{ID: orderID, BranchID: tenant.BranchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status == enum.OrderStatusCancelled {
		return nil, ErrOrderCancelled
	}

	if _, err := store.GetPaymentMethod(ctx, database.GetPaymentMethodParams{ID: methodID, BranchID: tenant.BranchID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMethodNotFound
		}
		return nil, fmt.Errorf("get payment method: %w", err)
	}

	shift, err := store.GetOpenShiftByBranch(ctx, tenant.BranchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveShift
		}
		return nil, fmt.Errorf("get open shift: %w", err)
	}

	payment, err := store.CreatePayment(ctx, database.CreatePaymentParams{
		OrderID:        orderID,
		MethodID:       methodID,
		ShiftID:        shift.ID,
		BranchID:       tenant.BranchID,
		Amount:         decimalToNumeric(amount),
		AmountReceived: decimalToNumeric(received),
		ChangeAmount:   decimalToNumeric(change),
		Status:         status,
		CreatedBy:      tenant.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	refreshed, err := s.refreshOrderPaymentState(ctx, store, order)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.afterPaymentChange(ctx, tenant, order, refreshed)
	s.audit.Log(ctx, tenant, AuditEntry{
		ActionType:  "CREATE",
		EntityType:  "payment",
		EntityID:    payment.ID,
		NewValues:   payment,
		Description: "payment recorded for order " + refreshed.OrderNo,
	})
	s.notifier.EmitToBranch(tenant.BranchID, "payment.created", payment)

	return &PaymentResult{Payment: payment, Order: refreshed}, nil
}

// Update changes a payment's method, amounts or status, then refreshes the
// owning order. Relinking to another order is rejected.
func (s *PaymentService) Update(ctx context.Context, tenant Tenant, paymentID uuid.UUID, req UpdatePaymentRequest) (*PaymentResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	payment, err := store.GetPayment(ctx, database.GetPaymentParams{ID: paymentID, BranchID: tenant.BranchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}

	if req.OrderID != nil {
		requested, err := uuid.Parse(*req.OrderID)
		if err != nil || requested != payment.OrderID {
			return nil, ErrPaymentRelink
		}
	}

	order, err := store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{ID: payment.OrderID, BranchID: tenant.BranchID})
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}

	methodID := payment.MethodID
	if req.MethodID != nil {
		methodID, err = uuid.Parse(*req.MethodID)
		if err != nil {
			return nil, ErrMethodNotFound
		}
		if _, err := store.GetPaymentMethod(ctx, database.GetPaymentMethodParams{ID: methodID, BranchID: tenant.BranchID}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrMethodNotFound
			}
			return nil, fmt.Errorf("get payment method: %w", err)
		}
	}

	amount := numericToDecimal(payment.Amount)
	if req.Amount != nil {
		amount, err = decimal.NewFromString(*req.Amount)
		if err != nil || !amount.IsPositive() {
			return nil, ErrInvalidAmount
		}
		amount = amount.Round(2)
	}

	received := numericToDecimal(payment.AmountReceived)
	if req.AmountReceived != nil {
		received, err = decimal.NewFromString(*req.AmountReceived)
		if err != nil {
			return nil, ErrInvalidAmount
		}
		received = received.Round(2)
	}
	if received.LessThan(amount) {
		return nil, ErrInvalidAmount
	}
	change := received.Sub(amount).Round(2)

	status := payment.Status
	if req.Status != nil {
		if !validPaymentStatus(*req.Status) {
			return nil, ErrInvalidStatus
		}
		status = *req.Status
	}

	updated, err := store.UpdatePayment(ctx, database.UpdatePaymentParams{
		ID:             paymentID,
		BranchID:       tenant.BranchID,
		MethodID:       methodID,
		Amount:         decimalToNumeric(amount),
		AmountReceived: decimalToNumeric(received),
		ChangeAmount:   decimalToNumeric(change),
		Status:         status,
	})
	if err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}

	refreshed, err := s.refreshOrderPaymentState(ctx, store, order)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.afterPaymentChange(ctx, tenant, order, refreshed)
	s.audit.Log(ctx, tenant, AuditEntry{
		ActionType:  "UPDATE",
		EntityType:  "payment",
		EntityID:    paymentID,
		OldValues:   payment,
		NewValues:   updated,
		Description: "payment updated for order " + refreshed.OrderNo,
	})
	s.notifier.EmitToBranch(tenant.BranchID, "payment.updated", updated)

	return &PaymentResult{Payment: updated, Order: refreshed}, nil
}

// Delete removes a payment and refreshes the owning order. Deleting the
// payment that settled the order reopens it for payment.
func (s *PaymentService) Delete(ctx context.Context, tenant Tenant, paymentID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	payment, err := store.GetPayment(ctx, database.GetPaymentParams{ID: paymentID, BranchID: tenant.BranchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPaymentNotFound
		}
		return fmt.Errorf("get payment: %w", err)
	}

	order, err := store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{ID: payment.OrderID, BranchID: tenant.BranchID})
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}

	if err := store.DeletePayment(ctx, database.DeletePaymentParams{ID: paymentID, BranchID: tenant.BranchID}); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}

	refreshed, err := s.refreshOrderPaymentState(ctx, store, order)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.afterPaymentChange(ctx, tenant, order, refreshed)
	s.audit.Log(ctx, tenant, AuditEntry{
		ActionType:  "DELETE",
		EntityType:  "payment",
		EntityID:    paymentID,
		OldValues:   payment,
		Description: "payment deleted for order " + refreshed.OrderNo,
	})
	s.notifier.EmitToBranch(tenant.BranchID, "payment.deleted", map[string]uuid.UUID{"payment_id": paymentID, "order_id": order.ID})

	return nil
}

// ListByOrder returns an order's payments.
func (s *PaymentService) ListByOrder(ctx context.Context, tenant Tenant, orderID uuid.UUID) ([]database.Payment, error) {
	if _, err := s.store.GetOrder(ctx, database.GetOrderParams{ID: orderID, BranchID: tenant.BranchID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return s.store.ListPaymentsByOrder(ctx, orderID)
}

// Get returns one payment.
func (s *PaymentService) Get(ctx context.Context, tenant Tenant, paymentID uuid.UUID) (*database.Payment, error) {
	payment, err := s.store.GetPayment(ctx, database.GetPaymentParams{ID: paymentID, BranchID: tenant.BranchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &payment, nil
}

// refreshOrderPaymentState re-derives the order's received/change summary
// from its successful payments and moves the order between settled and
// unsettled states:
//
//   - paid covers the total and the order is not terminal: the order becomes
//     Completed, remaining items become Paid, the table is released.
//   - paid no longer covers the total and the order is Completed: the order
//     reverts to WaitingForPayment and the table is taken again. This is the
//     path a payment deletion takes after settlement.
func (s *PaymentService) refreshOrderPaymentState(ctx context.Context, store PaymentStore, order database.Order) (database.Order, error) {
	sums, err := store.SumSuccessPaymentsByOrder(ctx, order.ID)
	if err != nil {
		return database.Order{}, fmt.Errorf("sum payments: %w", err)
	}

	refreshed, err := store.UpdateOrderPaymentSummary(ctx, database.UpdateOrderPaymentSummaryParams{
		ID:             order.ID,
		ReceivedAmount: sums.TotalReceived,
		ChangeAmount:   sums.TotalChange,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("update payment summary: %w", err)
	}

	paid := numericToDecimal(sums.TotalAmount)
	total := numericToDecimal(refreshed.TotalAmount)

	switch {
	case paid.GreaterThanOrEqual(total) && !isTerminalOrderStatus(refreshed.Status):
		refreshed, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:     order.ID,
			Status: enum.OrderStatusCompleted,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("settle order: %w", err)
		}
		if err := store.UpdateOrderItemsStatusByOrder(ctx, database.UpdateOrderItemsStatusByOrderParams{
			OrderID: order.ID,
			Status:  enum.ItemStatusPaid,
		}); err != nil {
			return database.Order{}, fmt.Errorf("mark items paid: %w", err)
		}
		if refreshed.TableID.Valid {
			if _, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
				ID:     uuid.UUID(refreshed.TableID.Bytes),
				Status: enum.TableStatusAvailable,
			}); err != nil {
				return database.Order{}, fmt.Errorf("release table: %w", err)
			}
		}

	case paid.LessThan(total) && refreshed.Status == enum.OrderStatusCompleted:
		refreshed, err = store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
			ID:     order.ID,
			Status: enum.OrderStatusWaitingForPayment,
		})
		if err != nil {
			return database.Order{}, fmt.Errorf("reopen order: %w", err)
		}
		if refreshed.TableID.Valid {
			if _, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
				ID:     uuid.UUID(refreshed.TableID.Bytes),
				Status: enum.TableStatusUnavailable,
			}); err != nil {
				return database.Order{}, fmt.Errorf("reoccupy table: %w", err)
			}
		}
	}

	return refreshed, nil
}

// afterPaymentChange runs the best-effort side effects of a payment mutation:
// shift summary cache invalidation, queue mirroring and realtime updates for
// order state changes.
func (s *PaymentService) afterPaymentChange(ctx context.Context, tenant Tenant, before, after database.Order) {
	if err := s.cache.Invalidate(ctx, shiftSummaryCachePrefix(tenant.BranchID)); err != nil {
		log.Printf("ERROR: invalidate shift summary cache for branch %s: %v", tenant.BranchID, err)
	}

	if before.Status == after.Status {
		return
	}

	if err := s.queue.SyncOrderStatus(ctx, tenant, after.ID, queueStatusForOrder(after.Status)); err != nil {
		log.Printf("ERROR: sync queue for order %s: %v", after.OrderNo, err)
	}

	s.notifier.EmitToBranch(tenant.BranchID, "order.updated", after)
	if after.TableID.Valid {
		s.notifier.EmitToPublicTable(uuid.UUID(after.TableID.Bytes), "order.updated", after)
	}
}

func validPaymentStatus(s string) bool {
	switch s {
	case enum.PaymentStatusPending, enum.PaymentStatusSuccess, enum.PaymentStatusFailed:
		return true
	}
	return false
}
