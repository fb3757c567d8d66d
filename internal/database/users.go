package database

import (
	"context"

	"github.com/google/uuid"
)

const getUserByID = `-- name: GetUserByID :one
SELECT id, branch_id, name, email, hashed_password, role, active
FROM users
WHERE id = $1 AND active = true`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var i User
	err := row.Scan(
		&i.ID,
		&i.BranchID,
		&i.Name,
		&i.Email,
		&i.HashedPassword,
		&i.Role,
		&i.Active,
	)
	return i, err
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, branch_id, name, email, hashed_password, role, active
FROM users
WHERE email = $1 AND active = true`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(
		&i.ID,
		&i.BranchID,
		&i.Name,
		&i.Email,
		&i.HashedPassword,
		&i.Role,
		&i.Active,
	)
	return i, err
}
