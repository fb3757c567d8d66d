package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const shiftColumns = `id, branch_id, opened_by, start_amount, end_amount, expected_amount, diff_amount, status, open_time, close_time`

func scanShift(row interface{ Scan(...interface{}) error }) (Shift, error) {
	var i Shift
	err := row.Scan(
		&i.ID,
		&i.BranchID,
		&i.OpenedBy,
		&i.StartAmount,
		&i.EndAmount,
		&i.ExpectedAmount,
		&i.DiffAmount,
		&i.Status,
		&i.OpenTime,
		&i.CloseTime,
	)
	return i, err
}

const createShift = `-- name: CreateShift :one
INSERT INTO shifts (branch_id, opened_by, start_amount, status)
VALUES ($1, $2, $3, 'OPEN')
RETURNING ` + shiftColumns

type CreateShiftParams struct {
	BranchID    uuid.UUID
	OpenedBy    uuid.UUID
	StartAmount pgtype.Numeric
}

func (q *Queries) CreateShift(ctx context.Context, arg CreateShiftParams) (Shift, error) {
	row := q.db.QueryRow(ctx, createShift, arg.BranchID, arg.OpenedBy, arg.StartAmount)
	return scanShift(row)
}

const getShift = `-- name: GetShift :one
SELECT ` + shiftColumns + ` FROM shifts
WHERE id = $1 AND branch_id = $2`

type GetShiftParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetShift(ctx context.Context, arg GetShiftParams) (Shift, error) {
	row := q.db.QueryRow(ctx, getShift, arg.ID, arg.BranchID)
	return scanShift(row)
}

const getOpenShiftByBranch = `-- name: GetOpenShiftByBranch :one
SELECT ` + shiftColumns + ` FROM shifts
WHERE branch_id = $1 AND status = 'OPEN'`

func (q *Queries) GetOpenShiftByBranch(ctx context.Context, branchID uuid.UUID) (Shift, error) {
	row := q.db.QueryRow(ctx, getOpenShiftByBranch, branchID)
	return scanShift(row)
}

const closeShift = `-- name: CloseShift :one
UPDATE shifts
SET end_amount = $2,
    expected_amount = $3,
    diff_amount = $4,
    status = 'CLOSED',
    close_time = now()
WHERE id = $1 AND status = 'OPEN'
RETURNING ` + shiftColumns

type CloseShiftParams struct {
	ID             uuid.UUID
	EndAmount      pgtype.Numeric
	ExpectedAmount pgtype.Numeric
	DiffAmount     pgtype.Numeric
}

func (q *Queries) CloseShift(ctx context.Context, arg CloseShiftParams) (Shift, error) {
	row := q.db.QueryRow(ctx, closeShift, arg.ID, arg.EndAmount, arg.ExpectedAmount, arg.DiffAmount)
	return scanShift(row)
}

const getShiftSales = `-- name: GetShiftSales :one
SELECT
    COALESCE(SUM(p.amount), 0)::numeric AS total_sales,
    COALESCE(SUM(p.amount) FILTER (WHERE lower(pm.name) = 'cash'), 0)::numeric AS cash_sales,
    COUNT(p.id) AS payment_count
FROM payments p
JOIN payment_methods pm ON pm.id = p.method_id
WHERE p.shift_id = $1 AND p.status = 'Success'`

type GetShiftSalesRow struct {
	TotalSales   pgtype.Numeric
	CashSales    pgtype.Numeric
	PaymentCount int64
}

func (q *Queries) GetShiftSales(ctx context.Context, shiftID uuid.UUID) (GetShiftSalesRow, error) {
	row := q.db.QueryRow(ctx, getShiftSales, shiftID)
	var i GetShiftSalesRow
	err := row.Scan(&i.TotalSales, &i.CashSales, &i.PaymentCount)
	return i, err
}

const getShiftSalesByMethod = `-- name: GetShiftSalesByMethod :many
SELECT pm.name AS method_name,
       COUNT(p.id) AS transaction_count,
       COALESCE(SUM(p.amount), 0)::numeric AS total_amount
FROM payments p
JOIN payment_methods pm ON pm.id = p.method_id
WHERE p.shift_id = $1 AND p.status = 'Success'
GROUP BY pm.name
ORDER BY total_amount DESC`

type GetShiftSalesByMethodRow struct {
	MethodName       string
	TransactionCount int64
	TotalAmount      pgtype.Numeric
}

func (q *Queries) GetShiftSalesByMethod(ctx context.Context, shiftID uuid.UUID) ([]GetShiftSalesByMethodRow, error) {
	rows, err := q.db.Query(ctx, getShiftSalesByMethod, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetShiftSalesByMethodRow
	for rows.Next() {
		var i GetShiftSalesByMethodRow
		if err := rows.Scan(&i.MethodName, &i.TransactionCount, &i.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getShiftSalesByOrderType = `-- name: GetShiftSalesByOrderType :many
SELECT o.order_type,
       COUNT(DISTINCT o.id) AS order_count,
       COALESCE(SUM(p.amount), 0)::numeric AS total_amount
FROM payments p
JOIN orders o ON o.id = p.order_id
WHERE p.shift_id = $1 AND p.status = 'Success'
GROUP BY o.order_type
ORDER BY total_amount DESC`

type GetShiftSalesByOrderTypeRow struct {
	OrderType   string
	OrderCount  int64
	TotalAmount pgtype.Numeric
}

func (q *Queries) GetShiftSalesByOrderType(ctx context.Context, shiftID uuid.UUID) ([]GetShiftSalesByOrderTypeRow, error) {
	rows, err := q.db.Query(ctx, getShiftSalesByOrderType, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetShiftSalesByOrderTypeRow
	for rows.Next() {
		var i GetShiftSalesByOrderTypeRow
		if err := rows.Scan(&i.OrderType, &i.OrderCount, &i.TotalAmount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// Cost is summed once per order even when an order carries several payments,
// hence the paid_orders dedup step.
const getShiftCost = `-- name: GetShiftCost :one
WITH paid_orders AS (
    SELECT DISTINCT p.order_id
    FROM payments p
    WHERE p.shift_id = $1 AND p.status = 'Success'
)
SELECT COALESCE(SUM(pr.cost * oi.quantity), 0)::numeric
FROM paid_orders po
JOIN order_items oi ON oi.order_id = po.order_id AND oi.status <> 'Cancelled'
JOIN products pr ON pr.id = oi.product_id`

func (q *Queries) GetShiftCost(ctx context.Context, shiftID uuid.UUID) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, getShiftCost, shiftID)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}

const getShiftProductSales = `-- name: GetShiftProductSales :many
WITH paid_orders AS (
    SELECT DISTINCT p.order_id
    FROM payments p
    WHERE p.shift_id = $1 AND p.status = 'Success'
)
SELECT pr.id AS product_id,
       pr.name AS product_name,
       SUM(oi.quantity)::bigint AS quantity_sold,
       COALESCE(SUM(oi.total_price), 0)::numeric AS total_revenue
FROM paid_orders po
JOIN order_items oi ON oi.order_id = po.order_id AND oi.status <> 'Cancelled'
JOIN products pr ON pr.id = oi.product_id
GROUP BY pr.id, pr.name
ORDER BY quantity_sold DESC
LIMIT $2`

type GetShiftProductSalesParams struct {
	ShiftID uuid.UUID
	Limit   int32
}

type GetShiftProductSalesRow struct {
	ProductID    uuid.UUID
	ProductName  string
	QuantitySold int64
	TotalRevenue pgtype.Numeric
}

func (q *Queries) GetShiftProductSales(ctx context.Context, arg GetShiftProductSalesParams) ([]GetShiftProductSalesRow, error) {
	rows, err := q.db.Query(ctx, getShiftProductSales, arg.ShiftID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetShiftProductSalesRow
	for rows.Next() {
		var i GetShiftProductSalesRow
		if err := rows.Scan(&i.ProductID, &i.ProductName, &i.QuantitySold, &i.TotalRevenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const getShiftCategoryCounts = `-- name: GetShiftCategoryCounts :many
WITH paid_orders AS (
    SELECT DISTINCT p.order_id
    FROM payments p
    WHERE p.shift_id = $1 AND p.status = 'Success'
)
SELECT COALESCE(c.name, 'Uncategorized') AS category_name,
       SUM(oi.quantity)::bigint AS item_count
FROM paid_orders po
JOIN order_items oi ON oi.order_id = po.order_id AND oi.status <> 'Cancelled'
JOIN products pr ON pr.id = oi.product_id
LEFT JOIN categories c ON c.id = pr.category_id
GROUP BY c.name
ORDER BY item_count DESC`

type GetShiftCategoryCountsRow struct {
	CategoryName string
	ItemCount    int64
}

func (q *Queries) GetShiftCategoryCounts(ctx context.Context, shiftID uuid.UUID) ([]GetShiftCategoryCountsRow, error) {
	rows, err := q.db.Query(ctx, getShiftCategoryCounts, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetShiftCategoryCountsRow
	for rows.Next() {
		var i GetShiftCategoryCountsRow
		if err := rows.Scan(&i.CategoryName, &i.ItemCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
