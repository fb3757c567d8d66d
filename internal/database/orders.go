package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, branch_id, order_no, order_type, table_id, delivery_id, discount_id, sub_total, discount_amount, vat, total_amount, received_amount, change_amount, status, notes, created_by, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.BranchID,
		&i.OrderNo,
		&i.OrderType,
		&i.TableID,
		&i.DeliveryID,
		&i.DiscountID,
		&i.SubTotal,
		&i.DiscountAmount,
		&i.Vat,
		&i.TotalAmount,
		&i.ReceivedAmount,
		&i.ChangeAmount,
		&i.Status,
		&i.Notes,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    branch_id, order_no, order_type, table_id, delivery_id, discount_id,
    sub_total, discount_amount, vat, total_amount, received_amount, change_amount,
    status, notes, created_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, 0, $11, $12, $13)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	BranchID       uuid.UUID
	OrderNo        string
	OrderType      string
	TableID        pgtype.UUID
	DeliveryID     pgtype.UUID
	DiscountID     pgtype.UUID
	SubTotal       pgtype.Numeric
	DiscountAmount pgtype.Numeric
	Vat            pgtype.Numeric
	TotalAmount    pgtype.Numeric
	Status         string
	Notes          pgtype.Text
	CreatedBy      uuid.UUID
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.BranchID,
		arg.OrderNo,
		arg.OrderType,
		arg.TableID,
		arg.DeliveryID,
		arg.DiscountID,
		arg.SubTotal,
		arg.DiscountAmount,
		arg.Vat,
		arg.TotalAmount,
		arg.Status,
		arg.Notes,
		arg.CreatedBy,
	)
	return scanOrder(row)
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1 AND branch_id = $2`

type GetOrderParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetOrder(ctx context.Context, arg GetOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, arg.ID, arg.BranchID)
	return scanOrder(row)
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + ` FROM orders
WHERE id = $1 AND branch_id = $2
FOR NO KEY UPDATE`

type GetOrderForUpdateParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetOrderForUpdate(ctx context.Context, arg GetOrderForUpdateParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, arg.ID, arg.BranchID)
	return scanOrder(row)
}

const getOrderByNumber = `-- name: GetOrderByNumber :one
SELECT ` + orderColumns + ` FROM orders
WHERE branch_id = $1 AND order_no = $2`

type GetOrderByNumberParams struct {
	BranchID uuid.UUID
	OrderNo  string
}

func (q *Queries) GetOrderByNumber(ctx context.Context, arg GetOrderByNumberParams) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderByNumber, arg.BranchID, arg.OrderNo)
	return scanOrder(row)
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + ` FROM orders
WHERE branch_id = $1
  AND ($2::text IS NULL OR status = $2)
  AND ($3::text IS NULL OR order_type = $3)
  AND ($4::timestamptz IS NULL OR created_at >= $4)
  AND ($5::timestamptz IS NULL OR created_at < $5 + interval '1 day')
ORDER BY created_at DESC
LIMIT $6 OFFSET $7`

type ListOrdersParams struct {
	BranchID  uuid.UUID
	Status    pgtype.Text
	OrderType pgtype.Text
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	Limit     int32
	Offset    int32
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.BranchID,
		arg.Status,
		arg.OrderType,
		arg.StartDate,
		arg.EndDate,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Order
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateOrder = `-- name: UpdateOrder :one
UPDATE orders
SET order_type = $3,
    table_id = $4,
    delivery_id = $5,
    discount_id = $6,
    status = $7,
    notes = $8,
    updated_at = now()
WHERE id = $1 AND branch_id = $2
RETURNING ` + orderColumns

type UpdateOrderParams struct {
	ID         uuid.UUID
	BranchID   uuid.UUID
	OrderType  string
	TableID    pgtype.UUID
	DeliveryID pgtype.UUID
	DiscountID pgtype.UUID
	Status     string
	Notes      pgtype.Text
}

func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrder,
		arg.ID,
		arg.BranchID,
		arg.OrderType,
		arg.TableID,
		arg.DeliveryID,
		arg.DiscountID,
		arg.Status,
		arg.Notes,
	)
	return scanOrder(row)
}

const updateOrderTotals = `-- name: UpdateOrderTotals :one
UPDATE orders
SET sub_total = $2,
    discount_amount = $3,
    vat = $4,
    total_amount = $5,
    updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderTotalsParams struct {
	ID             uuid.UUID
	SubTotal       pgtype.Numeric
	DiscountAmount pgtype.Numeric
	Vat            pgtype.Numeric
	TotalAmount    pgtype.Numeric
}

func (q *Queries) UpdateOrderTotals(ctx context.Context, arg UpdateOrderTotalsParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderTotals,
		arg.ID,
		arg.SubTotal,
		arg.DiscountAmount,
		arg.Vat,
		arg.TotalAmount,
	)
	return scanOrder(row)
}

const updateOrderStatus = `-- name: UpdateOrderStatus :one
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderStatus, arg.ID, arg.Status)
	return scanOrder(row)
}

const updateOrderPaymentSummary = `-- name: UpdateOrderPaymentSummary :one
UPDATE orders
SET received_amount = $2,
    change_amount = $3,
    updated_at = now()
WHERE id = $1
RETURNING ` + orderColumns

type UpdateOrderPaymentSummaryParams struct {
	ID             uuid.UUID
	ReceivedAmount pgtype.Numeric
	ChangeAmount   pgtype.Numeric
}

func (q *Queries) UpdateOrderPaymentSummary(ctx context.Context, arg UpdateOrderPaymentSummaryParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrderPaymentSummary, arg.ID, arg.ReceivedAmount, arg.ChangeAmount)
	return scanOrder(row)
}

const deleteOrder = `-- name: DeleteOrder :exec
DELETE FROM orders WHERE id = $1 AND branch_id = $2`

type DeleteOrderParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) DeleteOrder(ctx context.Context, arg DeleteOrderParams) error {
	_, err := q.db.Exec(ctx, deleteOrder, arg.ID, arg.BranchID)
	return err
}

const countPendingOrdersByType = `-- name: CountPendingOrdersByType :many
SELECT order_type, COUNT(*) AS order_count
FROM orders
WHERE branch_id = $1
  AND created_at >= $2
  AND status NOT IN ('Completed', 'Cancelled')
GROUP BY order_type
ORDER BY order_type`

type CountPendingOrdersByTypeParams struct {
	BranchID uuid.UUID
	Since    pgtype.Timestamptz
}

type CountPendingOrdersByTypeRow struct {
	OrderType  string
	OrderCount int64
}

func (q *Queries) CountPendingOrdersByType(ctx context.Context, arg CountPendingOrdersByTypeParams) ([]CountPendingOrdersByTypeRow, error) {
	rows, err := q.db.Query(ctx, countPendingOrdersByType, arg.BranchID, arg.Since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountPendingOrdersByTypeRow
	for rows.Next() {
		var i CountPendingOrdersByTypeRow
		if err := rows.Scan(&i.OrderType, &i.OrderCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countPaymentsByOrder = `-- name: CountPaymentsByOrder :one
SELECT COUNT(*) FROM payments WHERE order_id = $1`

func (q *Queries) CountPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	row := q.db.QueryRow(ctx, countPaymentsByOrder, orderID)
	var count int64
	err := row.Scan(&count)
	return count, err
}
