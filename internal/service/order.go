package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/sajian-pos/api/internal/database"
	"github.com/sajian-pos/api/internal/enum"
	"github.com/sajian-pos/api/internal/pricing"
)

const maxOrderNumberRetries = 5

// Errors returned by the order service.
var (
	ErrNoActiveShift     = errors.New("active shift required")
	ErrInvalidOrderType  = errors.New("invalid order_type")
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrTableNotFound     = errors.New("table not found for this branch")
	ErrDeliveryNotFound  = errors.New("delivery provider not found for this branch")
	ErrDiscountNotFound  = errors.New("discount not found for this branch")
	ErrProductNotFound   = errors.New("product not found or inactive")
	ErrOrderNotFound     = errors.New("order not found")
	ErrItemNotFound      = errors.New("order item not found")
	ErrDuplicateOrderNo  = errors.New("order number already exists")
	ErrOrderNoExhausted  = errors.New("could not generate a unique order number")
	ErrOrderHasPayments  = errors.New("order has payments and cannot be deleted")
	ErrInvalidTableID    = errors.New("invalid table_id")
	ErrInvalidDeliveryID = errors.New("invalid delivery_id")
	ErrInvalidDiscountID = errors.New("invalid discount_id")
	ErrInvalidProductID  = errors.New("invalid product_id")
	ErrInvalidAmount     = errors.New("invalid amount")
)

// OrderStore defines the DB methods needed by the order lifecycle service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	RecalcStore
	GetOpenShiftByBranch(ctx context.Context, branchID uuid.UUID) (database.Shift, error)
	GetTable(ctx context.Context, arg database.GetTableParams) (database.Table, error)
	UpdateTableStatus(ctx context.Context, arg database.UpdateTableStatusParams) (database.Table, error)
	GetDeliveryProvider(ctx context.Context, arg database.GetDeliveryProviderParams) (database.DeliveryProvider, error)
	GetProductsForOrder(ctx context.Context, arg database.GetProductsForOrderParams) ([]database.Product, error)
	GetOrderByNumber(ctx context.Context, arg database.GetOrderByNumberParams) (database.Order, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, arg database.GetOrderForUpdateParams) (database.Order, error)
	UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error)
	DeleteOrder(ctx context.Context, arg database.DeleteOrderParams) error
	CountPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderItem(ctx context.Context, arg database.GetOrderItemParams) (database.OrderItem, error)
	UpdateOrderItem(ctx context.Context, arg database.UpdateOrderItemParams) (database.OrderItem, error)
	UpdateOrderItemStatus(ctx context.Context, arg database.UpdateOrderItemStatusParams) (database.OrderItem, error)
	UpdateOrderItemsStatusByOrder(ctx context.Context, arg database.UpdateOrderItemsStatusByOrderParams) error
	DeleteOrderItem(ctx context.Context, arg database.DeleteOrderItemParams) error
	CreateOrderItemDetail(ctx context.Context, arg database.CreateOrderItemDetailParams) (database.OrderItemDetail, error)
	ListOrderItemDetailsByItem(ctx context.Context, orderItemID uuid.UUID) ([]database.OrderItemDetail, error)
	DeleteOrderItemDetails(ctx context.Context, orderItemID uuid.UUID) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// OrderQueue is the slice of the queue service the order lifecycle needs.
// Both calls are made after commit and treated as best-effort.
type OrderQueue interface {
	Add(ctx context.Context, tenant Tenant, orderID uuid.UUID, priority string) (*QueueEntryView, error)
	SyncOrderStatus(ctx context.Context, tenant Tenant, orderID uuid.UUID, status string) error
}

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	OrderNo    string // optional; generated when empty
	OrderType  string
	TableID    string
	DeliveryID string
	DiscountID string
	Notes      string
	Status     string // optional; defaults to Pending
	Items      []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single item in the order.
type CreateOrderItemRequest struct {
	ProductID      string
	Quantity       int32
	DiscountAmount string
	Notes          string
	Details        []CreateOrderItemDetailRequest
}

// CreateOrderItemDetailRequest is a modifier line on an order item.
type CreateOrderItemDetailRequest struct {
	Name       string
	ExtraPrice string
}

// UpdateOrderRequest carries the mutable order fields. Nil pointers mean
// "leave unchanged".
type UpdateOrderRequest struct {
	TableID    *string
	DeliveryID *string
	DiscountID *string
	Notes      *string
	Status     *string
}

// UpdateOrderItemRequest carries the mutable item fields. A non-nil Details
// slice fully replaces the existing modifier lines.
type UpdateOrderItemRequest struct {
	Quantity       *int32
	DiscountAmount *string
	Notes          *string
	Status         *string
	Details        []CreateOrderItemDetailRequest
}

// CreateOrderResult is the full created order with items.
type CreateOrderResult struct {
	Order database.Order
	Items []OrderItemResult
}

// OrderItemResult is an item with its modifier lines.
type OrderItemResult struct {
	Item    database.OrderItem
	Details []database.OrderItemDetail
}

// OrderService handles the order lifecycle: creation, item mutations, status
// transitions and deletion. Every mutation recalculates the order totals in
// the same transaction.
type OrderService struct {
	pool         TxBeginner
	newStore     NewOrderStore
	queue        OrderQueue
	notifier     Notifier
	audit        AuditLogger
	vatInclusive bool
}

// NewOrderService creates a new OrderService. vatInclusive selects whether
// listed prices already contain VAT (extracted) or VAT is added on top.
func NewOrderService(pool TxBeginner, newStore NewOrderStore, queue OrderQueue, notifier Notifier, audit AuditLogger, vatInclusive bool) *OrderService {
	return &OrderService{
		pool:         pool,
		newStore:     newStore,
		queue:        queue,
		notifier:     notifier,
		audit:        audit,
		vatInclusive: vatInclusive,
	}
}

// stagedItem holds a prepared order item and its modifier lines.
type stagedItem struct {
	params  database.CreateOrderItemParams
	details []database.CreateOrderItemDetailParams
	total   decimal.Decimal
}

// CreateOrder validates, snapshots prices, and creates an order atomically.
// Requires an open shift for the branch. Retries the whole transaction on
// order-number unique constraint violations when the number was generated
// (concurrent transactions can draw the same random suffix); an explicit
// duplicate number is a conflict, not a retry.
func (s *OrderService) CreateOrder(ctx context.Context, tenant Tenant, req CreateOrderRequest) (*CreateOrderResult, error) {
	if err := validateOrderType(req.OrderType); err != nil {
		return nil, err
	}

	status := enum.OrderStatusPending
	if req.Status != "" {
		normalized, err := NormalizeOrderStatus(req.Status)
		if err != nil {
			return nil, err
		}
		status = normalized
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := s.createOrderTx(ctx, tenant, req, status)
		if err == nil {
			s.afterCreate(ctx, tenant, result)
			return result, nil
		}
		if isOrderNumberConflict(err) {
			if req.OrderNo != "" {
				return nil, ErrDuplicateOrderNo
			}
			lastErr = ErrOrderNoExhausted
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// afterCreate runs the best-effort post-commit side effects: queue placement,
// audit trail and realtime notification. Failures are logged, never returned.
func (s *OrderService) afterCreate(ctx context.Context, tenant Tenant, result *CreateOrderResult) {
	order := result.Order

	if order.Status == enum.OrderStatusPending {
		if _, err := s.queue.Add(ctx, tenant, order.ID, enum.QueuePriorityNormal); err != nil {
			log.Printf("ERROR: enqueue order %s: %v", order.OrderNo, err)
		}
	}

	s.audit.Log(ctx, tenant, AuditEntry{
		ActionType:  "CREATE",
		EntityType:  "order",
		EntityID:    order.ID,
		NewValues:   order,
		Description: "order " + order.OrderNo + " created",
	})

	s.notifier.EmitToBranch(tenant.BranchID, "order.created", order)
	if order.TableID.Valid {
		s.notifier.EmitToPublicTable(uuid.UUID(order.TableID.Bytes), "order.created", order)
	}
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the branch-scoped order number (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_branch_id_order_no_key"
	}
	return false
}

// createOrderTx executes the full order creation in a single transaction.
func (s *OrderService) createOrderTx(ctx context.Context, tenant Tenant, req CreateOrderRequest, status string) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Active shift precondition ---
	if _, err := store.GetOpenShiftByBranch(ctx, tenant.BranchID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveShift
		}
		return nil, fmt.Errorf("get open shift: %w", err)
	}

	// --- Branch-scoped foreign key validation ---
	tableID, err := s.resolveTable(ctx, store, tenant, req.TableID)
	if err != nil {
		return nil, err
	}
	deliveryID, err := resolveDelivery(ctx, store, tenant, req.DeliveryID)
	if err != nil {
		return nil, err
	}
	discountID, discount, err := resolveDiscount(ctx, store, tenant, req.DiscountID)
	if err != nil {
		return nil, err
	}

	// --- Order number ---
	orderNo := req.OrderNo
	if orderNo == "" {
		orderNo, err = generateOrderNumber(ctx, store, tenant.BranchID)
		if err != nil {
			return nil, err
		}
	}

	// --- Stage items: validate, snapshot prices ---
	staged, err := stageItems(ctx, store, tenant, req.OrderType, req.Items)
	if err != nil {
		return nil, err
	}

	lineTotals := make([]decimal.Decimal, len(staged))
	for i, it := range staged {
		lineTotals[i] = it.total
	}
	totals := pricing.OrderTotal(lineTotals, discount, s.vatInclusive)

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	// --- Insert order ---
	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		BranchID:       tenant.BranchID,
		OrderNo:        orderNo,
		OrderType:      req.OrderType,
		TableID:        tableID,
		DeliveryID:     deliveryID,
		DiscountID:     discountID,
		SubTotal:       decimalToNumeric(totals.SubTotal),
		DiscountAmount: decimalToNumeric(totals.DiscountAmount),
		Vat:            decimalToNumeric(totals.VATAmount),
		TotalAmount:    decimalToNumeric(totals.TotalAmount),
		Status:         status,
		Notes:          notes,
		CreatedBy:      tenant.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Insert items + details ---
	var itemResults []OrderItemResult
	for _, it := range staged {
		it.params.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, it.params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}

		var details []database.OrderItemDetail
		for _, dp := range it.details {
			dp.OrderItemID = item.ID
			detail, err := store.CreateOrderItemDetail(ctx, dp)
			if err != nil {
				return nil, fmt.Errorf("create order item detail: %w", err)
			}
			details = append(details, detail)
		}

		itemResults = append(itemResults, OrderItemResult{Item: item, Details: details})
	}

	// --- Occupy the table ---
	if tableID.Valid {
		if _, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
			ID:     uuid.UUID(tableID.Bytes),
			Status: enum.TableStatusUnavailable,
		}); err != nil {
			return nil, fmt.Errorf("occupy table: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: itemResults}, nil
}

// AddItem appends one item (with optional modifier lines) to an existing
// order and recalculates the order totals in the same transaction.
func (s *OrderService) AddItem(ctx context.Context, tenant Tenant, orderID uuid.UUID, req CreateOrderItemRequest) (*OrderItemResult, error) {
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

	staged, err := stageItems(ctx, store, tenant, order.OrderType, []CreateOrderItemRequest{req})
	if err != nil {
		return nil, err
	}

	st := staged[0]
	st.params.OrderID = order.ID
	item, err := store.CreateOrderItem(ctx, st.params)
	if err != nil {
		return nil, fmt.Errorf("create order item: %w", err)
	}

	var details []database.OrderItemDetail
	for _, dp := range st.details {
		dp.OrderItemID = item.ID
		detail, err := store.CreateOrderItemDetail(ctx, dp)
		if err != nil {
			return nil, fmt.Errorf("create order item detail: %w", err)
		}
		details = append(details, detail)
	}

	if _, err := recalculateOrderTotals(ctx, store, orderID, tenant.BranchID, s.vatInclusive); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.notifier.EmitToBranch(tenant.BranchID, "order.item_added", item)
	s.audit.Log(ctx, tenant, AuditEntry{
		ActionType:  "UPDATE",
		EntityType:  "order",
		EntityID:    orderID,
		NewValues:   item,
		Description: "item added to order " + order.OrderNo,
	})

	return &OrderItemResult{Item: item, Details: details}, nil
}

// UpdateItem changes quantity, discount, notes, status or modifier lines of
// one item. A non-nil Details slice replaces all existing lines (delete-all,
// re-insert). The line total and order totals are recomputed in the same
// transaction.
func (s *OrderService) UpdateItem(ctx context.Context, tenant Tenant, orderID, itemID uuid.UUID, req UpdateOrderItemRequest) (*OrderItemResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{ID: orderID, BranchID: tenant.BranchID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	item, err := store.GetOrderItem(ctx, database.GetOrderItemParams{ID: itemID, OrderID: orderID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get order item: %w", err)
	}

	quantity := item.Quantity
	if req.Quantity != nil {
		if *req.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		quantity = *req.Quantity
	}

	itemDiscount := numericToDecimal(item.DiscountAmount)
	if req.DiscountAmount != nil {
		itemDiscount, err = decimal.NewFromString(*req.DiscountAmount)
		if err != nil || itemDiscount.IsNegative() {
			return nil, ErrInvalidAmount
		}
	}

	status := item.Status
	if req.Status != nil {
		status, err = NormalizeItemStatus(*req.Status)
		if err != nil {
			return nil, err
		}
	}

	notes := item.Notes
	if req.Notes != nil {
		notes = pgtype.Text{}
		if *req.Notes != "" {
			notes = pgtype.Text{String: *req.Notes, Valid: true}
		}
	}

	// Modifier lines are fully replaced when provided.
	var details []database.OrderItemDetail
	if req.Details != nil {
		if err := store.DeleteOrderItemDetails(ctx, itemID); err != nil {
			return nil, fmt.Errorf("delete order item details: %w", err)
		}
		for _, d := range req.Details {
			extra, err := parseExtraPrice(d.ExtraPrice)
			if err != nil {
				return nil, err
			}
			detail, err := store.CreateOrderItemDetail(ctx, database.CreateOrderItemDetailParams{
				OrderItemID: itemID,
				Name:        d.Name,
				ExtraPrice:  decimalToNumeric(extra),
			})
			if err != nil {
				return nil, fmt.Errorf("create order item detail: %w", err)
			}
			details = append(details, detail)
		}
	} else {
		details, err = store.ListOrderItemDetailsByItem(ctx, itemID)
		if err != nil {
			return nil, fmt.Errorf("list order item details: %w", err)
		}
	}

	extras := decimal.Zero
	for _, d := range details {
		extras = extras.Add(numericToDecimal(d.ExtraPrice))
	}

	// Line total keeps the snapshot unit price; only quantity, discount and
	// modifier lines move it.
	lineTotal := pricing.ItemTotal(numericToDecimal(item.UnitPrice).Add(extras), quantity, itemDiscount)

	updated, err := store.UpdateOrderItem(ctx, database.UpdateOrderItemParams{
		ID:             itemID,
		OrderID:        orderID,
		Quantity:       quantity,
		DiscountAmount: decimalToNumeric(itemDiscount),
		TotalPrice:     decimalToNumeric(lineTotal),
		Notes:          notes,
		Status:         status,
	})
	if err != nil {
		return nil, fmt.Errorf("update order item: %w", err)
	}

	if _, err := recalculateOrderTotals(ctx, store, orderID, tenant.BranchID, s.vatInclusive); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.notifier.EmitToBranch(tenant.BranchID, "order.item_updated", updated)

	return &OrderItemResult{Item: updated, Details: details}, nil
}

// UpdateItemStatus normalizes and applies a new item status, then
// recalculates the order totals (a cancelled item drops out of the sums).
func (s *OrderService) UpdateItemStatus(ctx context.Context, tenant Tenant, orderID, itemID uuid.UUID, status string) (*database.OrderItem, error) {
	normalized, err := NormalizeItemStatus(status)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{ID: orderID, BranchID: tenant.BranchID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	item, err := store.UpdateOrderItemStatus(ctx, database.UpdateOrderItemStatusParams{
		ID:      itemID,
		OrderID: orderID,
		Status:  normalized,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("update order item status: %w", err)
	}

	if _, err := recalculateOrderTotals(ctx, store, orderID, tenant.BranchID, s.vatInclusive); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.notifier.EmitToBranch(tenant.BranchID, "order.item_updated", item)

	return &item, nil
}

// DeleteItem removes one item and recalculates the order totals.
func (s *OrderService) DeleteItem(ctx context.Context, tenant Tenant, orderID, itemID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if _, err := store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{ID: orderID, BranchID: tenant.BranchID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order: %w", err)
	}

	if _, err := store.GetOrderItem(ctx, database.GetOrderItemParams{ID: itemID, OrderID: orderID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("get order item: %w", err)
	}

	if err := store.DeleteOrderItem(ctx, database.DeleteOrderItemParams{ID: itemID, OrderID: orderID}); err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}

	if _, err := recalculateOrderTotals(ctx, store, orderID, tenant.BranchID, s.vatInclusive); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.notifier.EmitToBranch(tenant.BranchID, "order.item_removed", map[string]uuid.UUID{"order_id": orderID, "item_id": itemID})

	return nil
}

// UpdateOrder applies order-level changes: foreign keys, notes and status.
// A transition to Cancelled cascades to all non-cancelled items. Totals are
// recalculated, the table is released on terminal states, and the queue entry
// is synchronized best-effort after commit.
func (s *OrderService) UpdateOrder(ctx context.Context, tenant Tenant, orderID uuid.UUID, req UpdateOrderRequest) (*database.Order, error) {
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

	tableID := order.TableID
	if req.TableID != nil {
		tableID, err = s.resolveTable(ctx, store, tenant, *req.TableID)
		if err != nil {
			return nil, err
		}
	}
	deliveryID := order.DeliveryID
	if req.DeliveryID != nil {
		deliveryID, err = resolveDelivery(ctx, store, tenant, *req.DeliveryID)
		if err != nil {
			return nil, err
		}
	}
	discountID := order.DiscountID
	if req.DiscountID != nil {
		discountID, _, err = resolveDiscount(ctx, store, tenant, *req.DiscountID)
		if err != nil {
			return nil, err
		}
	}

	status := order.Status
	if req.Status != nil {
		status, err = NormalizeOrderStatus(*req.Status)
		if err != nil {
			return nil, err
		}
	}

	notes := order.Notes
	if req.Notes != nil {
		notes = pgtype.Text{}
		if *req.Notes != "" {
			notes = pgtype.Text{String: *req.Notes, Valid: true}
		}
	}

	// Cancelling the order cancels every remaining item.
	if status == enum.OrderStatusCancelled && order.Status != enum.OrderStatusCancelled {
		if err := store.UpdateOrderItemsStatusByOrder(ctx, database.UpdateOrderItemsStatusByOrderParams{
			OrderID: orderID,
			Status:  enum.ItemStatusCancelled,
		}); err != nil {
			return nil, fmt.Errorf("cancel order items: %w", err)
		}
	}

	if _, err := store.UpdateOrder(ctx, database.UpdateOrderParams{
		ID:         orderID,
		BranchID:   tenant.BranchID,
		OrderType:  order.OrderType,
		TableID:    tableID,
		DeliveryID: deliveryID,
		DiscountID: discountID,
		Status:     status,
		Notes:      notes,
	}); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	updated, err := recalculateOrderTotals(ctx, store, orderID, tenant.BranchID, s.vatInclusive)
	if err != nil {
		return nil, err
	}

	// Terminal orders give their table back.
	if isTerminalOrderStatus(status) && tableID.Valid {
		if _, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
			ID:     uuid.UUID(tableID.Bytes),
			Status: enum.TableStatusAvailable,
		}); err != nil {
			return nil, fmt.Errorf("release table: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	// Queue entry mirrors the order status; a sync failure must not fail the
	// update that already committed.
	if status != order.Status {
		if err := s.queue.SyncOrderStatus(ctx, tenant, orderID, queueStatusForOrder(status)); err != nil {
			log.Printf("ERROR: sync queue for order %s: %v", updated.OrderNo, err)
		}
	}

	s.audit.Log(ctx, tenant, AuditEntry{
		ActionType:  "UPDATE",
		EntityType:  "order",
		EntityID:    orderID,
		OldValues:   order,
		NewValues:   updated,
		Description: "order " + updated.OrderNo + " updated",
	})
	s.notifier.EmitToBranch(tenant.BranchID, "order.updated", updated)
	if updated.TableID.Valid {
		s.notifier.EmitToPublicTable(uuid.UUID(updated.TableID.Bytes), "order.updated", updated)
	}

	return &updated, nil
}

// DeleteOrder removes an order that has no payments, releasing its table
// first. Authorization for deletion lives in the HTTP layer.
func (s *OrderService) DeleteOrder(ctx context.Context, tenant Tenant, orderID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, database.GetOrderForUpdateParams{ID: orderID, BranchID: tenant.BranchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order: %w", err)
	}

	count, err := store.CountPaymentsByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("count payments: %w", err)
	}
	if count > 0 {
		return ErrOrderHasPayments
	}

	if order.TableID.Valid {
		if _, err := store.UpdateTableStatus(ctx, database.UpdateTableStatusParams{
			ID:     uuid.UUID(order.TableID.Bytes),
			Status: enum.TableStatusAvailable,
		}); err != nil {
			return fmt.Errorf("release table: %w", err)
		}
	}

	if err := store.DeleteOrder(ctx, database.DeleteOrderParams{ID: orderID, BranchID: tenant.BranchID}); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.audit.Log(ctx, tenant, AuditEntry{
		ActionType:  "DELETE",
		EntityType:  "order",
		EntityID:    orderID,
		OldValues:   order,
		Description: "order " + order.OrderNo + " deleted",
	})
	s.notifier.EmitToBranch(tenant.BranchID, "order.deleted", map[string]uuid.UUID{"order_id": orderID})

	return nil
}

// --- Helpers ---

func validateOrderType(s string) error {
	switch s {
	case enum.OrderTypeDineIn, enum.OrderTypeTakeAway, enum.OrderTypeDelivery:
		return nil
	}
	return ErrInvalidOrderType
}

func (s *OrderService) resolveTable(ctx context.Context, store OrderStore, tenant Tenant, raw string) (pgtype.UUID, error) {
	if raw == "" {
		return pgtype.UUID{}, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return pgtype.UUID{}, ErrInvalidTableID
	}
	if _, err := store.GetTable(ctx, database.GetTableParams{ID: id, BranchID: tenant.BranchID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgtype.UUID{}, ErrTableNotFound
		}
		return pgtype.UUID{}, fmt.Errorf("get table: %w", err)
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

func resolveDelivery(ctx context.Context, store OrderStore, tenant Tenant, raw string) (pgtype.UUID, error) {
	if raw == "" {
		return pgtype.UUID{}, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return pgtype.UUID{}, ErrInvalidDeliveryID
	}
	if _, err := store.GetDeliveryProvider(ctx, database.GetDeliveryProviderParams{ID: id, BranchID: tenant.BranchID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgtype.UUID{}, ErrDeliveryNotFound
		}
		return pgtype.UUID{}, fmt.Errorf("get delivery provider: %w", err)
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

func resolveDiscount(ctx context.Context, store OrderStore, tenant Tenant, raw string) (pgtype.UUID, *pricing.Discount, error) {
	if raw == "" {
		return pgtype.UUID{}, nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return pgtype.UUID{}, nil, ErrInvalidDiscountID
	}
	d, err := store.GetDiscount(ctx, database.GetDiscountParams{ID: id, BranchID: tenant.BranchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgtype.UUID{}, nil, ErrDiscountNotFound
		}
		return pgtype.UUID{}, nil, fmt.Errorf("get discount: %w", err)
	}
	return pgtype.UUID{Bytes: id, Valid: true}, &pricing.Discount{
		Type:   d.Type,
		Amount: numericToDecimal(d.Amount),
		Active: d.Active,
	}, nil
}

// generateOrderNumber draws ORD-{date}-{time}-{4-digit-random} numbers until
// one is free in the branch, bounded at maxOrderNumberRetries attempts.
func generateOrderNumber(ctx context.Context, store OrderStore, branchID uuid.UUID) (string, error) {
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		now := time.Now()
		candidate := fmt.Sprintf("ORD-%s-%s-%04d", now.Format("20060102"), now.Format("150405"), rand.Intn(10000))

		_, err := store.GetOrderByNumber(ctx, database.GetOrderByNumberParams{BranchID: branchID, OrderNo: candidate})
		if errors.Is(err, pgx.ErrNoRows) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check order number: %w", err)
		}
	}
	return "", ErrOrderNoExhausted
}

// stageItems validates items against the live product catalog and snapshots
// their prices. Delivery orders use the product's delivery price; the
// snapshot is never recomputed from the product afterwards.
func stageItems(ctx context.Context, store OrderStore, tenant Tenant, orderType string, items []CreateOrderItemRequest) ([]stagedItem, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidProductID)
		}
		ids = append(ids, id)
	}

	products, err := store.GetProductsForOrder(ctx, database.GetProductsForOrderParams{
		BranchID: tenant.BranchID,
		IDs:      ids,
	})
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	byID := make(map[uuid.UUID]database.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	staged := make([]stagedItem, 0, len(items))
	for i, item := range items {
		product, ok := byID[ids[i]]
		if !ok || !product.Active {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrProductNotFound)
		}

		unitPrice := numericToDecimal(product.Price)
		if orderType == enum.OrderTypeDelivery {
			unitPrice = numericToDecimal(product.DeliveryPrice)
		}

		itemDiscount := decimal.Zero
		if item.DiscountAmount != "" {
			itemDiscount, err = decimal.NewFromString(item.DiscountAmount)
			if err != nil || itemDiscount.IsNegative() {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidAmount)
			}
		}

		extras := decimal.Zero
		var details []database.CreateOrderItemDetailParams
		for j, d := range item.Details {
			extra, err := parseExtraPrice(d.ExtraPrice)
			if err != nil {
				return nil, fmt.Errorf("items[%d].details[%d]: %w", i, j, err)
			}
			extras = extras.Add(extra)
			details = append(details, database.CreateOrderItemDetailParams{
				Name:       d.Name,
				ExtraPrice: decimalToNumeric(extra),
			})
		}

		lineTotal := pricing.ItemTotal(unitPrice.Add(extras), item.Quantity, itemDiscount)

		notes := pgtype.Text{}
		if item.Notes != "" {
			notes = pgtype.Text{String: item.Notes, Valid: true}
		}

		staged = append(staged, stagedItem{
			params: database.CreateOrderItemParams{
				ProductID:      ids[i],
				Quantity:       item.Quantity,
				UnitPrice:      decimalToNumeric(unitPrice),
				DiscountAmount: decimalToNumeric(itemDiscount),
				TotalPrice:     decimalToNumeric(lineTotal),
				Notes:          notes,
				Status:         enum.ItemStatusPending,
			},
			details: details,
			total:   lineTotal,
		})
	}

	return staged, nil
}

func parseExtraPrice(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	extra, err := decimal.NewFromString(raw)
	if err != nil || extra.IsNegative() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return extra, nil
}
