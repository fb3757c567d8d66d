package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderItemColumns = `id, order_id, product_id, quantity, unit_price, discount_amount, total_price, notes, status, created_at, updated_at`

func scanOrderItem(row interface{ Scan(...interface{}) error }) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ProductID,
		&i.Quantity,
		&i.UnitPrice,
		&i.DiscountAmount,
		&i.TotalPrice,
		&i.Notes,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (
    order_id, product_id, quantity, unit_price, discount_amount, total_price, notes, status
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + orderItemColumns

type CreateOrderItemParams struct {
	OrderID        uuid.UUID
	ProductID      uuid.UUID
	Quantity       int32
	UnitPrice      pgtype.Numeric
	DiscountAmount pgtype.Numeric
	TotalPrice     pgtype.Numeric
	Notes          pgtype.Text
	Status         string
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID,
		arg.ProductID,
		arg.Quantity,
		arg.UnitPrice,
		arg.DiscountAmount,
		arg.TotalPrice,
		arg.Notes,
		arg.Status,
	)
	return scanOrderItem(row)
}

const getOrderItem = `-- name: GetOrderItem :one
SELECT ` + orderItemColumns + ` FROM order_items
WHERE id = $1 AND order_id = $2`

type GetOrderItemParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) GetOrderItem(ctx context.Context, arg GetOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, getOrderItem, arg.ID, arg.OrderID)
	return scanOrderItem(row)
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT ` + orderItemColumns + ` FROM order_items
WHERE order_id = $1
ORDER BY created_at`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateOrderItem = `-- name: UpdateOrderItem :one
UPDATE order_items
SET quantity = $3,
    discount_amount = $4,
    total_price = $5,
    notes = $6,
    status = $7,
    updated_at = now()
WHERE id = $1 AND order_id = $2
RETURNING ` + orderItemColumns

type UpdateOrderItemParams struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	Quantity       int32
	DiscountAmount pgtype.Numeric
	TotalPrice     pgtype.Numeric
	Notes          pgtype.Text
	Status         string
}

func (q *Queries) UpdateOrderItem(ctx context.Context, arg UpdateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, updateOrderItem,
		arg.ID,
		arg.OrderID,
		arg.Quantity,
		arg.DiscountAmount,
		arg.TotalPrice,
		arg.Notes,
		arg.Status,
	)
	return scanOrderItem(row)
}

const updateOrderItemStatus = `-- name: UpdateOrderItemStatus :one
UPDATE order_items
SET status = $3, updated_at = now()
WHERE id = $1 AND order_id = $2
RETURNING ` + orderItemColumns

type UpdateOrderItemStatusParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
	Status  string
}

func (q *Queries) UpdateOrderItemStatus(ctx context.Context, arg UpdateOrderItemStatusParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, updateOrderItemStatus, arg.ID, arg.OrderID, arg.Status)
	return scanOrderItem(row)
}

const updateOrderItemsStatusByOrder = `-- name: UpdateOrderItemsStatusByOrder :exec
UPDATE order_items
SET status = $2, updated_at = now()
WHERE order_id = $1 AND status <> 'Cancelled'`

type UpdateOrderItemsStatusByOrderParams struct {
	OrderID uuid.UUID
	Status  string
}

func (q *Queries) UpdateOrderItemsStatusByOrder(ctx context.Context, arg UpdateOrderItemsStatusByOrderParams) error {
	_, err := q.db.Exec(ctx, updateOrderItemsStatusByOrder, arg.OrderID, arg.Status)
	return err
}

const deleteOrderItem = `-- name: DeleteOrderItem :exec
DELETE FROM order_items WHERE id = $1 AND order_id = $2`

type DeleteOrderItemParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) DeleteOrderItem(ctx context.Context, arg DeleteOrderItemParams) error {
	_, err := q.db.Exec(ctx, deleteOrderItem, arg.ID, arg.OrderID)
	return err
}

const createOrderItemDetail = `-- name: CreateOrderItemDetail :one
INSERT INTO order_item_details (order_item_id, name, extra_price)
VALUES ($1, $2, $3)
RETURNING id, order_item_id, name, extra_price`

type CreateOrderItemDetailParams struct {
	OrderItemID uuid.UUID
	Name        string
	ExtraPrice  pgtype.Numeric
}

func (q *Queries) CreateOrderItemDetail(ctx context.Context, arg CreateOrderItemDetailParams) (OrderItemDetail, error) {
	row := q.db.QueryRow(ctx, createOrderItemDetail, arg.OrderItemID, arg.Name, arg.ExtraPrice)
	var i OrderItemDetail
	err := row.Scan(&i.ID, &i.OrderItemID, &i.Name, &i.ExtraPrice)
	return i, err
}

const listOrderItemDetailsByItem = `-- name: ListOrderItemDetailsByItem :many
SELECT id, order_item_id, name, extra_price FROM order_item_details
WHERE order_item_id = $1
ORDER BY name`

func (q *Queries) ListOrderItemDetailsByItem(ctx context.Context, orderItemID uuid.UUID) ([]OrderItemDetail, error) {
	rows, err := q.db.Query(ctx, listOrderItemDetailsByItem, orderItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItemDetail
	for rows.Next() {
		var i OrderItemDetail
		if err := rows.Scan(&i.ID, &i.OrderItemID, &i.Name, &i.ExtraPrice); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteOrderItemDetails = `-- name: DeleteOrderItemDetails :exec
DELETE FROM order_item_details WHERE order_item_id = $1`

func (q *Queries) DeleteOrderItemDetails(ctx context.Context, orderItemID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItemDetails, orderItemID)
	return err
}
