package database

import (
	"context"

	"github.com/google/uuid"
)

const getTable = `-- name: GetTable :one
SELECT id, branch_id, name, status FROM tables
WHERE id = $1 AND branch_id = $2`

type GetTableParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetTable(ctx context.Context, arg GetTableParams) (Table, error) {
	row := q.db.QueryRow(ctx, getTable, arg.ID, arg.BranchID)
	var i Table
	err := row.Scan(&i.ID, &i.BranchID, &i.Name, &i.Status)
	return i, err
}

const updateTableStatus = `-- name: UpdateTableStatus :one
UPDATE tables SET status = $2 WHERE id = $1
RETURNING id, branch_id, name, status`

type UpdateTableStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateTableStatus(ctx context.Context, arg UpdateTableStatusParams) (Table, error) {
	row := q.db.QueryRow(ctx, updateTableStatus, arg.ID, arg.Status)
	var i Table
	err := row.Scan(&i.ID, &i.BranchID, &i.Name, &i.Status)
	return i, err
}

const getDiscount = `-- name: GetDiscount :one
SELECT id, branch_id, name, type, amount, active FROM discounts
WHERE id = $1 AND branch_id = $2`

type GetDiscountParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetDiscount(ctx context.Context, arg GetDiscountParams) (Discount, error) {
	row := q.db.QueryRow(ctx, getDiscount, arg.ID, arg.BranchID)
	var i Discount
	err := row.Scan(&i.ID, &i.BranchID, &i.Name, &i.Type, &i.Amount, &i.Active)
	return i, err
}

const getDeliveryProvider = `-- name: GetDeliveryProvider :one
SELECT id, branch_id, name, active FROM delivery_providers
WHERE id = $1 AND branch_id = $2`

type GetDeliveryProviderParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetDeliveryProvider(ctx context.Context, arg GetDeliveryProviderParams) (DeliveryProvider, error) {
	row := q.db.QueryRow(ctx, getDeliveryProvider, arg.ID, arg.BranchID)
	var i DeliveryProvider
	err := row.Scan(&i.ID, &i.BranchID, &i.Name, &i.Active)
	return i, err
}

const getPaymentMethod = `-- name: GetPaymentMethod :one
SELECT id, branch_id, name, active FROM payment_methods
WHERE id = $1 AND branch_id = $2`

type GetPaymentMethodParams struct {
	ID       uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetPaymentMethod(ctx context.Context, arg GetPaymentMethodParams) (PaymentMethod, error) {
	row := q.db.QueryRow(ctx, getPaymentMethod, arg.ID, arg.BranchID)
	var i PaymentMethod
	err := row.Scan(&i.ID, &i.BranchID, &i.Name, &i.Active)
	return i, err
}

const getProductsForOrder = `-- name: GetProductsForOrder :many
SELECT id, branch_id, category_id, name, price, delivery_price, cost, unit, active
FROM products
WHERE branch_id = $1 AND id = ANY($2::uuid[])`

type GetProductsForOrderParams struct {
	BranchID uuid.UUID
	IDs      []uuid.UUID
}

func (q *Queries) GetProductsForOrder(ctx context.Context, arg GetProductsForOrderParams) ([]Product, error) {
	rows, err := q.db.Query(ctx, getProductsForOrder, arg.BranchID, arg.IDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		var i Product
		if err := rows.Scan(
			&i.ID,
			&i.BranchID,
			&i.CategoryID,
			&i.Name,
			&i.Price,
			&i.DeliveryPrice,
			&i.Cost,
			&i.Unit,
			&i.Active,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
