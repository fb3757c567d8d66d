package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sajian-pos/api/internal/database"
)

// AuditEntry describes one recorded action. Old/NewValues are marshalled to
// JSON snapshots; a nil value stores NULL.
type AuditEntry struct {
	ActionType  string
	EntityType  string
	EntityID    uuid.UUID
	OldValues   interface{}
	NewValues   interface{}
	Description string
}

// AuditLogger records who did what. Implementations are best-effort: a failed
// write never fails the operation it describes.
type AuditLogger interface {
	Log(ctx context.Context, tenant Tenant, entry AuditEntry)
}

// NopAudit discards entries. Used in tests.
type NopAudit struct{}

func (NopAudit) Log(context.Context, Tenant, AuditEntry) {}

// AuditStore defines the DB methods needed by the audit logger.
type AuditStore interface {
	CreateAuditLog(ctx context.Context, arg database.CreateAuditLogParams) error
}

// DBAudit writes audit entries to the audit_logs table asynchronously. The
// write happens outside the caller's transaction so an audit failure (or a
// slow insert) cannot roll back or delay business writes.
type DBAudit struct {
	store   AuditStore
	timeout time.Duration
}

// NewDBAudit creates a DBAudit over the given store.
func NewDBAudit(store AuditStore) *DBAudit {
	return &DBAudit{store: store, timeout: 5 * time.Second}
}

func (a *DBAudit) Log(ctx context.Context, tenant Tenant, entry AuditEntry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()

		params := database.CreateAuditLogParams{
			ActionType: entry.ActionType,
			EntityType: entry.EntityType,
			BranchID:   tenant.BranchID,
		}
		if tenant.UserID != uuid.Nil {
			params.UserID = pgtype.UUID{Bytes: tenant.UserID, Valid: true}
		}
		if entry.EntityID != uuid.Nil {
			params.EntityID = pgtype.UUID{Bytes: entry.EntityID, Valid: true}
		}
		if entry.Description != "" {
			params.Description = pgtype.Text{String: entry.Description, Valid: true}
		}
		if entry.OldValues != nil {
			if data, err := json.Marshal(entry.OldValues); err == nil {
				params.OldValues = data
			}
		}
		if entry.NewValues != nil {
			if data, err := json.Marshal(entry.NewValues); err == nil {
				params.NewValues = data
			}
		}

		if err := a.store.CreateAuditLog(ctx, params); err != nil {
			log.Printf("ERROR: write audit log (%s %s): %v", entry.ActionType, entry.EntityType, err)
		}
	}()
}
