package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Tenant identifies the branch scope and acting user of every core operation.
// Branch scoping is a hard multi-tenancy boundary: cross-branch references are
// reported as not-found so existence never leaks between branches.
type Tenant struct {
	BranchID uuid.UUID
	UserID   uuid.UUID
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Notifier pushes realtime events to connected clients. Implementations are
// best-effort: a failed emit must never fail the originating operation.
// Satisfied by *ws.Hub.
type Notifier interface {
	EmitToBranch(branchID uuid.UUID, eventName string, payload interface{})
	EmitToPublicTable(tableID uuid.UUID, eventName string, payload interface{})
	EmitToRole(role string, eventName string, payload interface{})
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) EmitToBranch(uuid.UUID, string, interface{})      {}
func (NopNotifier) EmitToPublicTable(uuid.UUID, string, interface{}) {}
func (NopNotifier) EmitToRole(string, string, interface{})           {}

// --- Numeric helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
