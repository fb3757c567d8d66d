package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const queueEntryColumns = `id, order_id, branch_id, status, priority, queue_position, started_at, completed_at, created_at`

func scanQueueEntry(row interface{ Scan(...interface{}) error }) (QueueEntry, error) {
	var i QueueEntry
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.BranchID,
		&i.Status,
		&i.Priority,
		&i.QueuePosition,
		&i.StartedAt,
		&i.CompletedAt,
		&i.CreatedAt,
	)
	return i, err
}

const createQueueEntry = `-- name: CreateQueueEntry :one
INSERT INTO order_queue (order_id, branch_id, status, priority, queue_position)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + queueEntryColumns

type CreateQueueEntryParams struct {
	OrderID       uuid.UUID
	BranchID      uuid.UUID
	Status        string
	Priority      string
	QueuePosition int32
}

func (q *Queries) CreateQueueEntry(ctx context.Context, arg CreateQueueEntryParams) (QueueEntry, error) {
	row := q.db.QueryRow(ctx, createQueueEntry,
		arg.OrderID,
		arg.BranchID,
		arg.Status,
		arg.Priority,
		arg.QueuePosition,
	)
	return scanQueueEntry(row)
}

const getQueueEntryByOrder = `-- name: GetQueueEntryByOrder :one
SELECT ` + queueEntryColumns + ` FROM order_queue
WHERE order_id = $1 AND branch_id = $2`

type GetQueueEntryByOrderParams struct {
	OrderID  uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) GetQueueEntryByOrder(ctx context.Context, arg GetQueueEntryByOrderParams) (QueueEntry, error) {
	row := q.db.QueryRow(ctx, getQueueEntryByOrder, arg.OrderID, arg.BranchID)
	return scanQueueEntry(row)
}

// Positions restart each day: only entries created today count toward the max.
const getMaxQueuePositionToday = `-- name: GetMaxQueuePositionToday :one
SELECT COALESCE(MAX(queue_position), 0)::int
FROM order_queue
WHERE branch_id = $1 AND created_at::date = CURRENT_DATE`

func (q *Queries) GetMaxQueuePositionToday(ctx context.Context, branchID uuid.UUID) (int32, error) {
	row := q.db.QueryRow(ctx, getMaxQueuePositionToday, branchID)
	var maxPos int32
	err := row.Scan(&maxPos)
	return maxPos, err
}

const listQueueEntries = `-- name: ListQueueEntries :many
SELECT q.id, q.order_id, q.branch_id, q.status, q.priority, q.queue_position,
       q.started_at, q.completed_at, q.created_at,
       o.order_no, o.order_type
FROM order_queue q
JOIN orders o ON o.id = q.order_id
WHERE q.branch_id = $1
  AND ($2::text IS NULL OR q.status = $2)
ORDER BY q.queue_position`

type ListQueueEntriesParams struct {
	BranchID uuid.UUID
	Status   pgtype.Text
}

type ListQueueEntriesRow struct {
	QueueEntry QueueEntry
	OrderNo    string
	OrderType  string
}

func (q *Queries) ListQueueEntries(ctx context.Context, arg ListQueueEntriesParams) ([]ListQueueEntriesRow, error) {
	rows, err := q.db.Query(ctx, listQueueEntries, arg.BranchID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListQueueEntriesRow
	for rows.Next() {
		var i ListQueueEntriesRow
		if err := rows.Scan(
			&i.QueueEntry.ID,
			&i.QueueEntry.OrderID,
			&i.QueueEntry.BranchID,
			&i.QueueEntry.Status,
			&i.QueueEntry.Priority,
			&i.QueueEntry.QueuePosition,
			&i.QueueEntry.StartedAt,
			&i.QueueEntry.CompletedAt,
			&i.QueueEntry.CreatedAt,
			&i.OrderNo,
			&i.OrderType,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listPendingQueueEntriesForUpdate = `-- name: ListPendingQueueEntriesForUpdate :many
SELECT ` + queueEntryColumns + ` FROM order_queue
WHERE branch_id = $1 AND status = 'Pending'
ORDER BY queue_position
FOR UPDATE`

func (q *Queries) ListPendingQueueEntriesForUpdate(ctx context.Context, branchID uuid.UUID) ([]QueueEntry, error) {
	rows, err := q.db.Query(ctx, listPendingQueueEntriesForUpdate, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []QueueEntry
	for rows.Next() {
		i, err := scanQueueEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateQueueEntryStatus = `-- name: UpdateQueueEntryStatus :one
UPDATE order_queue
SET status = $3,
    started_at = COALESCE($4, started_at),
    completed_at = COALESCE($5, completed_at)
WHERE id = $1 AND branch_id = $2
RETURNING ` + queueEntryColumns

type UpdateQueueEntryStatusParams struct {
	ID          uuid.UUID
	BranchID    uuid.UUID
	Status      string
	StartedAt   pgtype.Timestamptz
	CompletedAt pgtype.Timestamptz
}

func (q *Queries) UpdateQueueEntryStatus(ctx context.Context, arg UpdateQueueEntryStatusParams) (QueueEntry, error) {
	row := q.db.QueryRow(ctx, updateQueueEntryStatus,
		arg.ID,
		arg.BranchID,
		arg.Status,
		arg.StartedAt,
		arg.CompletedAt,
	)
	return scanQueueEntry(row)
}

const updateQueueEntryStatusByOrder = `-- name: UpdateQueueEntryStatusByOrder :one
UPDATE order_queue
SET status = $3,
    started_at = COALESCE($4, started_at),
    completed_at = COALESCE($5, completed_at)
WHERE order_id = $1 AND branch_id = $2
RETURNING ` + queueEntryColumns

type UpdateQueueEntryStatusByOrderParams struct {
	OrderID     uuid.UUID
	BranchID    uuid.UUID
	Status      string
	StartedAt   pgtype.Timestamptz
	CompletedAt pgtype.Timestamptz
}

func (q *Queries) UpdateQueueEntryStatusByOrder(ctx context.Context, arg UpdateQueueEntryStatusByOrderParams) (QueueEntry, error) {
	row := q.db.QueryRow(ctx, updateQueueEntryStatusByOrder,
		arg.OrderID,
		arg.BranchID,
		arg.Status,
		arg.StartedAt,
		arg.CompletedAt,
	)
	return scanQueueEntry(row)
}

const updateQueueEntryPosition = `-- name: UpdateQueueEntryPosition :exec
UPDATE order_queue SET queue_position = $3 WHERE id = $1 AND branch_id = $2`

type UpdateQueueEntryPositionParams struct {
	ID            uuid.UUID
	BranchID      uuid.UUID
	QueuePosition int32
}

func (q *Queries) UpdateQueueEntryPosition(ctx context.Context, arg UpdateQueueEntryPositionParams) error {
	_, err := q.db.Exec(ctx, updateQueueEntryPosition, arg.ID, arg.BranchID, arg.QueuePosition)
	return err
}

const deleteQueueEntryByOrder = `-- name: DeleteQueueEntryByOrder :exec
DELETE FROM order_queue WHERE order_id = $1 AND branch_id = $2`

type DeleteQueueEntryByOrderParams struct {
	OrderID  uuid.UUID
	BranchID uuid.UUID
}

func (q *Queries) DeleteQueueEntryByOrder(ctx context.Context, arg DeleteQueueEntryByOrderParams) error {
	_, err := q.db.Exec(ctx, deleteQueueEntryByOrder, arg.OrderID, arg.BranchID)
	return err
}
