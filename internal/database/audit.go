package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createAuditLog = `-- name: CreateAuditLog :exec
INSERT INTO audit_logs (
    action_type, user_id, entity_type, entity_id, branch_id, old_values, new_values, description
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

type CreateAuditLogParams struct {
	ActionType  string
	UserID      pgtype.UUID
	EntityType  string
	EntityID    pgtype.UUID
	BranchID    uuid.UUID
	OldValues   []byte
	NewValues   []byte
	Description pgtype.Text
}

func (q *Queries) CreateAuditLog(ctx context.Context, arg CreateAuditLogParams) error {
	_, err := q.db.Exec(ctx, createAuditLog,
		arg.ActionType,
		arg.UserID,
		arg.EntityType,
		arg.EntityID,
		arg.BranchID,
		arg.OldValues,
		arg.NewValues,
		arg.Description,
	)
	return err
}
