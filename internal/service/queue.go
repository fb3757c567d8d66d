package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sajian-pos/api/internal/cache"
	"github.com/sajian-pos/api/internal/database"
	"github.com/sajian-pos/api/internal/enum"
)

// queueCacheTTL bounds how stale a cached queue read can be.
const queueCacheTTL = 10 * time.Second

// Errors returned by the queue service.
var (
	ErrQueueEntryNotFound = errors.New("queue entry not found")
	ErrAlreadyQueued      = errors.New("order is already queued")
	ErrInvalidPriority    = errors.New("invalid priority")
)

// QueueStore defines the DB methods needed by the queue service.
type QueueStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	CreateQueueEntry(ctx context.Context, arg database.CreateQueueEntryParams) (database.QueueEntry, error)
	GetQueueEntryByOrder(ctx context.Context, arg database.GetQueueEntryByOrderParams) (database.QueueEntry, error)
	GetMaxQueuePositionToday(ctx context.Context, branchID uuid.UUID) (int32, error)
	ListQueueEntries(ctx context.Context, arg database.ListQueueEntriesParams) ([]database.ListQueueEntriesRow, error)
	ListPendingQueueEntriesForUpdate(ctx context.Context, branchID uuid.UUID) ([]database.QueueEntry, error)
	UpdateQueueEntryStatus(ctx context.Context, arg database.UpdateQueueEntryStatusParams) (database.QueueEntry, error)
	UpdateQueueEntryStatusByOrder(ctx context.Context, arg database.UpdateQueueEntryStatusByOrderParams) (database.QueueEntry, error)
	UpdateQueueEntryPosition(ctx context.Context, arg database.UpdateQueueEntryPositionParams) error
	DeleteQueueEntryByOrder(ctx context.Context, arg database.DeleteQueueEntryByOrderParams) error
}

// NewQueueStore creates a QueueStore from a DBTX.
type NewQueueStore func(db database.DBTX) QueueStore

// QueueEntryView is the JSON shape served (and cached) for queue reads.
type QueueEntryView struct {
	ID            uuid.UUID  `json:"id"`
	OrderID       uuid.UUID  `json:"order_id"`
	OrderNo       string     `json:"order_no"`
	OrderType     string     `json:"order_type"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	QueuePosition int32      `json:"queue_position"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// QueueService manages the per-branch kitchen queue: placement, status
// mirroring, priority reordering and cached reads.
type QueueService struct {
	pool     TxBeginner
	store    QueueStore
	newStore NewQueueStore
	cache    cache.Cache
	notifier Notifier
}

// NewQueueService creates a new QueueService. store handles reads outside
// transactions; newStore builds tx-scoped stores for mutations.
func NewQueueService(pool TxBeginner, store QueueStore, newStore NewQueueStore, c cache.Cache, notifier Notifier) *QueueService {
	return &QueueService{
		pool:     pool,
		store:    store,
		newStore: newStore,
		cache:    c,
		notifier: notifier,
	}
}

func queueCacheKey(branchID uuid.UUID, status string) string {
	return fmt.Sprintf("queue:%s:%s", branchID, status)
}

func queueCachePrefix(branchID uuid.UUID) string {
	return fmt.Sprintf("queue:%s:", branchID)
}

// invalidate drops every cached queue view for the branch. Runs before the
// mutation returns so the next read cannot serve the stale list.
func (s *QueueService) invalidate(ctx context.Context, branchID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, queueCachePrefix(branchID)); err != nil {
		log.Printf("ERROR: invalidate queue cache for branch %s: %v", branchID, err)
	}
}

// Add places an order at the back of today's branch queue. Position is
// max(today, branch)+1, computed inside the transaction so concurrent adds
// cannot collide silently.
func (s *QueueService) Add(ctx context.Context, tenant Tenant, orderID uuid.UUID, priority string) (*QueueEntryView, error) {
	if priority == "" {
		priority = enum.QueuePriorityNormal
	}
	if _, ok := enum.QueuePriorityRank[priority]; !ok {
		return nil, ErrInvalidPriority
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, database.GetOrderParams{ID: orderID, BranchID: tenant.BranchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if _, err := store.GetQueueEntryByOrder(ctx, database.GetQueueEntryByOrderParams{OrderID: orderID, BranchID: tenant.BranchID}); err == nil {
		return nil, ErrAlreadyQueued
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get queue entry: %w", err)
	}

	maxPos, err := store.GetMaxQueuePositionToday(ctx, tenant.BranchID)
	if err != nil {
		return nil, fmt.Errorf("get max queue position: %w", err)
	}

	entry, err := store.CreateQueueEntry(ctx, database.CreateQueueEntryParams{
		OrderID:       orderID,
		BranchID:      tenant.BranchID,
		Status:        enum.QueueStatusPending,
		Priority:      priority,
		QueuePosition: maxPos + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create queue entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.invalidate(ctx, tenant.BranchID)

	view := entryView(entry, order.OrderNo, order.OrderType)
	s.notifier.EmitToBranch(tenant.BranchID, "queue.added", view)
	return &view, nil
}

// UpdateStatus transitions a queue entry, stamping started_at on the first
// move to Processing and completed_at on terminal states.
func (s *QueueService) UpdateStatus(ctx context.Context, tenant Tenant, entryID uuid.UUID, status string) (*database.QueueEntry, error) {
	if !validQueueStatus(status) {
		return nil, ErrInvalidStatus
	}

	started, completed := queueTimestamps(status)
	entry, err := s.store.UpdateQueueEntryStatus(ctx, database.UpdateQueueEntryStatusParams{
		ID:          entryID,
		BranchID:    tenant.BranchID,
		Status:      status,
		StartedAt:   started,
		CompletedAt: completed,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQueueEntryNotFound
		}
		return nil, fmt.Errorf("update queue entry status: %w", err)
	}

	s.invalidate(ctx, tenant.BranchID)
	s.notifier.EmitToBranch(tenant.BranchID, "queue.updated", entry)
	return &entry, nil
}

// SyncOrderStatus mirrors an order status change onto its queue entry, if
// one exists. A missing entry is not an error: not every order is queued.
func (s *QueueService) SyncOrderStatus(ctx context.Context, tenant Tenant, orderID uuid.UUID, status string) error {
	if !validQueueStatus(status) {
		return ErrInvalidStatus
	}

	started, completed := queueTimestamps(status)
	entry, err := s.store.UpdateQueueEntryStatusByOrder(ctx, database.UpdateQueueEntryStatusByOrderParams{
		OrderID:     orderID,
		BranchID:    tenant.BranchID,
		Status:      status,
		StartedAt:   started,
		CompletedAt: completed,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update queue entry by order: %w", err)
	}

	s.invalidate(ctx, tenant.BranchID)
	s.notifier.EmitToBranch(tenant.BranchID, "queue.updated", entry)
	return nil
}

// Remove drops an order's queue entry, if present.
func (s *QueueService) Remove(ctx context.Context, tenant Tenant, orderID uuid.UUID) error {
	if err := s.store.DeleteQueueEntryByOrder(ctx, database.DeleteQueueEntryByOrderParams{OrderID: orderID, BranchID: tenant.BranchID}); err != nil {
		return fmt.Errorf("delete queue entry: %w", err)
	}
	s.invalidate(ctx, tenant.BranchID)
	s.notifier.EmitToBranch(tenant.BranchID, "queue.removed", map[string]uuid.UUID{"order_id": orderID})
	return nil
}

// Reorder reassigns positions 1..N over the branch's pending entries by
// priority rank (highest first), breaking ties by current position. Rows are
// locked FOR UPDATE so a concurrent reorder serializes instead of interleaving.
func (s *QueueService) Reorder(ctx context.Context, tenant Tenant) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	entries, err := store.ListPendingQueueEntriesForUpdate(ctx, tenant.BranchID)
	if err != nil {
		return fmt.Errorf("list pending queue entries: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := enum.QueuePriorityRank[entries[i].Priority], enum.QueuePriorityRank[entries[j].Priority]
		if ri != rj {
			return ri > rj
		}
		return entries[i].QueuePosition < entries[j].QueuePosition
	})

	for i, entry := range entries {
		pos := int32(i + 1)
		if entry.QueuePosition == pos {
			continue
		}
		if err := store.UpdateQueueEntryPosition(ctx, database.UpdateQueueEntryPositionParams{
			ID:            entry.ID,
			BranchID:      tenant.BranchID,
			QueuePosition: pos,
		}); err != nil {
			return fmt.Errorf("update queue position: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.invalidate(ctx, tenant.BranchID)
	s.notifier.EmitToBranch(tenant.BranchID, "queue.reordered", nil)
	return nil
}

// GetQueue lists the branch queue, optionally filtered by status, through a
// short-lived cache keyed by branch and filter.
func (s *QueueService) GetQueue(ctx context.Context, tenant Tenant, status string) ([]QueueEntryView, error) {
	if status != "" && !validQueueStatus(status) {
		return nil, ErrInvalidStatus
	}

	key := queueCacheKey(tenant.BranchID, status)
	data, err := s.cache.WithCache(ctx, key, queueCacheTTL, func(ctx context.Context) ([]byte, error) {
		filter := pgtype.Text{}
		if status != "" {
			filter = pgtype.Text{String: status, Valid: true}
		}
		rows, err := s.store.ListQueueEntries(ctx, database.ListQueueEntriesParams{
			BranchID: tenant.BranchID,
			Status:   filter,
		})
		if err != nil {
			return nil, fmt.Errorf("list queue entries: %w", err)
		}
		out := make([]QueueEntryView, 0, len(rows))
		for _, row := range rows {
			out = append(out, entryView(row.QueueEntry, row.OrderNo, row.OrderType))
		}
		return cache.Marshal(out)
	})
	if err != nil {
		return nil, err
	}

	var views []QueueEntryView
	if err := json.Unmarshal(data, &views); err != nil {
		return nil, fmt.Errorf("decode cached queue: %w", err)
	}
	return views, nil
}

// --- Helpers ---

func validQueueStatus(s string) bool {
	switch s {
	case enum.QueueStatusPending, enum.QueueStatusProcessing, enum.QueueStatusCompleted, enum.QueueStatusCancelled:
		return true
	}
	return false
}

// queueTimestamps returns the started_at / completed_at stamps for a status
// transition. Nil values keep the existing stamp (COALESCE in the query).
func queueTimestamps(status string) (started, completed pgtype.Timestamptz) {
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	switch status {
	case enum.QueueStatusProcessing:
		started = now
	case enum.QueueStatusCompleted, enum.QueueStatusCancelled:
		completed = now
	}
	return started, completed
}

func entryView(e database.QueueEntry, orderNo, orderType string) QueueEntryView {
	view := QueueEntryView{
		ID:            e.ID,
		OrderID:       e.OrderID,
		OrderNo:       orderNo,
		OrderType:     orderType,
		Status:        e.Status,
		Priority:      e.Priority,
		QueuePosition: e.QueuePosition,
		CreatedAt:     e.CreatedAt,
	}
	if e.StartedAt.Valid {
		t := e.StartedAt.Time
		view.StartedAt = &t
	}
	if e.CompletedAt.Valid {
		t := e.CompletedAt.Time
		view.CompletedAt = &t
	}
	return view
}
