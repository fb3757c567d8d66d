package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, order_id, method_id, shift_id, branch_id, amount, amount_received, change_amount, status, created_by, created_at, updated_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (Payment, error) {
	var i Payment
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.MethodID,
		&i.ShiftID,
		&i.BranchID,
		&i.Amount,
		&i.AmountReceived,
		&i.ChangeAmount,
		&i.Status,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createPayment = `-- name: CreatePayment :one
INSERT INTO payments (
    order_id, method_id, shift_id, branch_id, amount, amount_received, change_amount, status, created_by
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + paymentColumns

type CreatePaymentParams struct {
	OrderID        uuid.UUID
	MethodID       uuid.UUID
	ShiftID        uuid.UUID
	BranchID       uuid.UUID
	Amount         pgtype.Numeric
	AmountReceived pgtype.Numeric
	ChangeAmount   pgtype.Numeric
	Status         string
	CreatedBy      uuid.UUID
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, createPayment,
		arg.OrderID,
		arg.MethodID,
		arg.ShiftID,
		arg.BranchID,
		arg.Amount,
		arg.AmountReceived,
		arg.ChangeAmount,
		arg.Status,
		arg.CreatedBy,
	)
	return scanPayment(row)
}

const getPayment = `-- name: GetPayment :one
SELECT ` + paymentColumns + ` FROM payments
WHERE id = $1 AND branch_id = $2`

type GetPaymentParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetPayment(ctx context.Context, arg GetPaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, getPayment, arg.ID, arg.BranchID)
	return scanPayment(row)
}

const listPaymentsByOrder = `-- name: ListPaymentsByOrder :many
SELECT ` + paymentColumns + ` FROM payments
WHERE order_id = $1
ORDER BY created_at`

func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error) {
	rows, err := q.db.Query(ctx, listPaymentsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Payment
	for rows.Next() {
		i, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updatePayment = `-- name: UpdatePayment :one
UPDATE payments
SET method_id = $3,
    amount = $4,
    amount_received = $5,
    change_amount = $6,
    status = $7,
    updated_at = now()
WHERE id = $1 AND branch_id = $2
RETURNING ` + paymentColumns

type UpdatePaymentParams struct {
	ID             uuid.UUID
	BranchID       uuid.UUID
	MethodID       uuid.UUID
	Amount         pgtype.Numeric
	AmountReceived pgtype.Numeric
	ChangeAmount   pgtype.Numeric
	Status         string
}

func (q *Queries) UpdatePayment(ctx context.Context, arg UpdatePaymentParams) (Payment, error) {
	row := q.db.QueryRow(ctx, updatePayment,
		arg.ID,
		arg.BranchID,
		arg.MethodID,
		arg.Amount,
		arg.AmountReceived,
		arg.ChangeAmount,
		arg.Status,
	)
	return scanPayment(row)
}

const deletePayment = `-- name: DeletePayment :exec
DELETE FROM payments WHERE id = $1 AND branch_id = $2`

type DeletePaymentParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) DeletePayment(ctx context.Context, arg DeletePaymentParams) error {
	_, err := q.db.Exec(ctx, deletePayment, arg.ID, arg.BranchID)
	return err
}

const sumSuccessPaymentsByOrder = `-- name: SumSuccessPaymentsByOrder :one
SELECT
    COALESCE(SUM(amount), 0)::numeric AS total_amount,
    COALESCE(SUM(amount_received), 0)::numeric AS total_received,
    COALESCE(SUM(change_amount), 0)::numeric AS total_change
FROM payments
WHERE order_id = $1 AND status = 'Success'`

type SumSuccessPaymentsByOrderRow struct {
	TotalAmount   pgtype.Numeric
	TotalReceived pgtype.Numeric
	TotalChange   pgtype.Numeric
}

func (q *Queries) SumSuccessPaymentsByOrder(ctx context.Context, orderID uuid.UUID) (SumSuccessPaymentsByOrderRow, error) {
	row := q.db.QueryRow(ctx, sumSuccessPaymentsByOrder, orderID)
	var i SumSuccessPaymentsByOrderRow
	err := row.Scan(&i.TotalAmount, &i.TotalReceived, &i.TotalChange)
	return i, err
}

const sumCashSalesByShift = `-- name: SumCashSalesByShift :one
SELECT COALESCE(SUM(p.amount), 0)::numeric
FROM payments p
JOIN payment_methods pm ON pm.id = p.method_id
WHERE p.shift_id = $1
  AND p.status = 'Success'
  AND lower(pm.name) = 'cash'`

func (q *Queries) SumCashSalesByShift(ctx context.Context, shiftID uuid.UUID) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumCashSalesByShift, shiftID)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}
