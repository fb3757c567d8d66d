package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/sajian-pos/api/internal/cache"
	"github.com/sajian-pos/api/internal/database"
)

// shiftSummaryCacheTTL bounds how stale a cached shift summary can be.
const shiftSummaryCacheTTL = 10 * time.Second

// topProductLimit caps the best-seller list in the shift summary.
const topProductLimit = 5

// Errors returned by the shift service.
var (
	ErrShiftNotFound = errors.New("shift not found")
	ErrShiftClosed   = errors.New("shift is already closed")
)

// PendingOrdersError blocks a shift close while unfinished orders remain. It
// carries the per-type counts so the client can show what is outstanding.
type PendingOrdersError struct {
	Counts []database.CountPendingOrdersByTypeRow
}

func (e *PendingOrdersError) Error() string {
	parts := make([]string, 0, len(e.Counts))
	for _, c := range e.Counts {
		parts = append(parts, fmt.Sprintf("%s: %d", c.OrderType, c.OrderCount))
	}
	return "shift has unfinished orders (" + strings.Join(parts, ", ") + ")"
}

// ShiftStore defines the DB methods needed by the shift service.
type ShiftStore interface {
	CreateShift(ctx context.Context, arg database.CreateShiftParams) (database.Shift, error)
	GetShift(ctx context.Context, arg database.GetShiftParams) (database.Shift, error)
	GetOpenShiftByBranch(ctx context.Context, branchID uuid.UUID) (database.Shift, error)
	CloseShift(ctx context.Context, arg database.CloseShiftParams) (database.Shift, error)
	CountPendingOrdersByType(ctx context.Context, arg database.CountPendingOrdersByTypeParams) ([]database.CountPendingOrdersByTypeRow, error)
	SumCashSalesByShift(ctx context.Context, shiftID uuid.UUID) (pgtype.Numeric, error)
	GetShiftSales(ctx context.Context, shiftID uuid.UUID) (database.GetShiftSalesRow, error)
	GetShiftSalesByMethod(ctx context.Context, shiftID uuid.UUID) ([]database.GetShiftSalesByMethodRow, error)
	GetShiftSalesByOrderType(ctx context.Context, shiftID uuid.UUID) ([]database.GetShiftSalesByOrderTypeRow, error)
	GetShiftCost(ctx context.Context, shiftID uuid.UUID) (pgtype.Numeric, error)
	GetShiftProductSales(ctx context.Context, arg database.GetShiftProductSalesParams) ([]database.GetShiftProductSalesRow, error)
	GetShiftCategoryCounts(ctx context.Context, shiftID uuid.UUID) ([]database.GetShiftCategoryCountsRow, error)
}

// ShiftService manages cash shifts: opening, guarded closing and the cached
// sales summary.
type ShiftService struct {
	store    ShiftStore
	cache    cache.Cache
	notifier Notifier
	audit    AuditLogger
}

// NewShiftService creates a new ShiftService.
func NewShiftService(store ShiftStore, c cache.Cache, notifier Notifier, audit AuditLogger) *ShiftService {
	return &ShiftService{store: store, cache: c, notifier: notifier, audit: audit}
}

// ClosePreview is what a cashier reconciles against before closing.
type ClosePreview struct {
	Shift          database.Shift  `json:"shift"`
	CashSales      decimal.Decimal `json:"cash_sales"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
}

// ShiftSummary is the financial roll-up for one shift.
type ShiftSummary struct {
	ShiftID      uuid.UUID            `json:"shift_id"`
	Status       string               `json:"status"`
	OpenTime     time.Time            `json:"open_time"`
	CloseTime    *time.Time           `json:"close_time,omitempty"`
	StartAmount  decimal.Decimal      `json:"start_amount"`
	TotalSales   decimal.Decimal      `json:"total_sales"`
	CashSales    decimal.Decimal      `json:"cash_sales"`
	PaymentCount int64                `json:"payment_count"`
	TotalCost    decimal.Decimal      `json:"total_cost"`
	NetProfit    decimal.Decimal      `json:"net_profit"`
	ProfitMargin decimal.Decimal      `json:"profit_margin"`
	ByMethod     []MethodSales        `json:"by_method"`
	ByOrderType  []OrderTypeSales     `json:"by_order_type"`
	TopProducts  []ProductSales       `json:"top_products"`
	ByCategory   []CategoryItemCounts `json:"by_category"`
}

type MethodSales struct {
	Method       string          `json:"method"`
	Transactions int64           `json:"transactions"`
	Total        decimal.Decimal `json:"total"`
}

type OrderTypeSales struct {
	OrderType string          `json:"order_type"`
	Orders    int64           `json:"orders"`
	Total     decimal.Decimal `json:"total"`
}

type ProductSales struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type CategoryItemCounts struct {
	Category string `json:"category"`
	Items    int64  `json:"items"`
}

// Open starts a shift for the branch with the given float. At most one shift
// per branch can be open; a concurrent open loses the insert race on the
// partial unique index and gets the winner's shift back.
func (s *ShiftService) Open(ctx context.Context, tenant Tenant, startAmount decimal.Decimal) (*database.Shift, bool, error) {
	if startAmount.IsNegative() {
		return nil, false, ErrInvalidAmount
	}

	if existing, err := s.store.GetOpenShiftByBranch(ctx, tenant.BranchID); err == nil {
		return &existing, false, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("get open shift: %w", err)
	}

	shift, err := s.store.CreateShift(ctx, database.CreateShiftParams{
		BranchID:    tenant.BranchID,
		OpenedBy:    tenant.UserID,
		StartAmount: decimalToNumeric(startAmount.Round(2)),
	})
	if err != nil {
		if isOpenShiftConflict(err) {
			winner, err := s.store.GetOpenShiftByBranch(ctx, tenant.BranchID)
			if err != nil {
				return nil, false, fmt.Errorf("get open shift after conflict: %w", err)
			}
			return &winner, false, nil
		}
		return nil, false, fmt.Errorf("create shift: %w", err)
	}

	s.audit.Log(ctx, tenant, AuditEntry{
		ActionType:  "CREATE",
		EntityType:  "shift",
		EntityID:    shift.ID,
		NewValues:   shift,
		Description: "shift opened",
	})
	s.notifier.EmitToBranch(tenant.BranchID, "shift.opened", shift)

	return &shift, true, nil
}

func isOpenShiftConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "shifts_branch_open_key"
	}
	return false
}

// Current returns the branch's open shift.
func (s *ShiftService) Current(ctx context.Context, tenant Tenant) (*database.Shift, error) {
	shift, err := s.store.GetOpenShiftByBranch(ctx, tenant.BranchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoActiveShift
		}
		return nil, fmt.Errorf("get open shift: %w", err)
	}
	return &shift, nil
}

// PreviewClose computes the expected drawer amount for the open shift without
// closing it: starting float plus cash sales taken during the shift.
func (s *ShiftService) PreviewClose(ctx context.Context, tenant Tenant) (*ClosePreview, error) {
	shift, err := s.Current(ctx, tenant)
	if err != nil {
		return nil, err
	}

	cash, err := s.store.SumCashSalesByShift(ctx, shift.ID)
	if err != nil {
		return nil, fmt.Errorf("sum cash sales: %w", err)
	}
	cashSales := numericToDecimal(cash)

	return &ClosePreview{
		Shift:          *shift,
		CashSales:      cashSales,
		ExpectedAmount: numericToDecimal(shift.StartAmount).Add(cashSales).Round(2),
	}, nil
}

// Close ends the open shift, recording the counted drawer amount and the
// difference against the expectation. Orders created during the shift that
// are neither Completed nor Cancelled block the close.
func (s *ShiftService) Close(ctx context.Context, tenant Tenant, endAmount decimal.Decimal) (*database.Shift, error) {
	if endAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	shift, err := s.Current(ctx, tenant)
	if err != nil {
		return nil, err
	}

	pending, err := s.store.CountPendingOrdersByType(ctx, database.CountPendingOrdersByTypeParams{
		BranchID: tenant.BranchID,
		Since:    pgtype.Timestamptz{Time: shift.OpenTime, Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("count pending orders: %w", err)
	}
	if len(pending) > 0 {
		return nil, &PendingOrdersError{Counts: pending}
	}

	cash, err := s.store.SumCashSalesByShift(ctx, shift.ID)
	if err != nil {
		return nil, fmt.Errorf("sum cash sales: %w", err)
	}

	endAmount = endAmount.Round(2)
	expected := numericToDecimal(shift.StartAmount).Add(numericToDecimal(cash)).Round(2)
	diff := endAmount.Sub(expected).Round(2)

	closed, err := s.store.CloseShift(ctx, database.CloseShiftParams{
		ID:             shift.ID,
		EndAmount:      decimalToNumeric(endAmount),
		ExpectedAmount: decimalToNumeric(expected),
		DiffAmount:     decimalToNumeric(diff),
	})
	if err != nil {
		// CloseShift only matches OPEN rows; a lost race reads back closed.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShiftClosed
		}
		return nil, fmt.Errorf("close shift: %w", err)
	}

	s.audit.Log(ctx, tenant, AuditEntry{
		ActionType:  "UPDATE",
		EntityType:  "shift",
		EntityID:    closed.ID,
		OldValues:   shift,
		NewValues:   closed,
		Description: "shift closed",
	})
	s.notifier.EmitToBranch(tenant.BranchID, "shift.closed", closed)

	return &closed, nil
}

// Summary builds the financial roll-up for a shift through a short-lived
// cache. Payment mutations invalidate the branch's summary keys, so a cached
// read is at most one TTL stale and never survives a payment change.
func (s *ShiftService) Summary(ctx context.Context, tenant Tenant, shiftID uuid.UUID) (*ShiftSummary, error) {
	key := fmt.Sprintf("shiftsum:%s:%s", tenant.BranchID, shiftID)
	data, err := s.cache.WithCache(ctx, key, shiftSummaryCacheTTL, func(ctx context.Context) ([]byte, error) {
		summary, err := s.buildSummary(ctx, tenant, shiftID)
		if err != nil {
			return nil, err
		}
		return cache.Marshal(summary)
	})
	if err != nil {
		return nil, err
	}

	var summary ShiftSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decode cached shift summary: %w", err)
	}
	return &summary, nil
}

func (s *ShiftService) buildSummary(ctx context.Context, tenant Tenant, shiftID uuid.UUID) (*ShiftSummary, error) {
	shift, err := s.store.GetShift(ctx, database.GetShiftParams{ID: shiftID, BranchID: tenant.BranchID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("get shift: %w", err)
	}

	sales, err := s.store.GetShiftSales(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("get shift sales: %w", err)
	}
	cost, err := s.store.GetShiftCost(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("get shift cost: %w", err)
	}
	byMethod, err := s.store.GetShiftSalesByMethod(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("get sales by method: %w", err)
	}
	byType, err := s.store.GetShiftSalesByOrderType(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("get sales by order type: %w", err)
	}
	topProducts, err := s.store.GetShiftProductSales(ctx, database.GetShiftProductSalesParams{
		ShiftID: shiftID,
		Limit:   topProductLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("get product sales: %w", err)
	}
	byCategory, err := s.store.GetShiftCategoryCounts(ctx, shiftID)
	if err != nil {
		return nil, fmt.Errorf("get category counts: %w", err)
	}

	totalSales := numericToDecimal(sales.TotalSales)
	totalCost := numericToDecimal(cost)
	netProfit := totalSales.Sub(totalCost).Round(2)

	margin := decimal.Zero
	if totalSales.IsPositive() {
		margin = netProfit.Div(totalSales).Mul(decimal.NewFromInt(100)).Round(2)
	}

	summary := &ShiftSummary{
		ShiftID:      shift.ID,
		Status:       shift.Status,
		OpenTime:     shift.OpenTime,
		StartAmount:  numericToDecimal(shift.StartAmount),
		TotalSales:   totalSales,
		CashSales:    numericToDecimal(sales.CashSales),
		PaymentCount: sales.PaymentCount,
		TotalCost:    totalCost,
		NetProfit:    netProfit,
		ProfitMargin: margin,
		ByMethod:     make([]MethodSales, 0, len(byMethod)),
		ByOrderType:  make([]OrderTypeSales, 0, len(byType)),
		TopProducts:  make([]ProductSales, 0, len(topProducts)),
		ByCategory:   make([]CategoryItemCounts, 0, len(byCategory)),
	}
	if shift.CloseTime.Valid {
		t := shift.CloseTime.Time
		summary.CloseTime = &t
	}

	for _, m := range byMethod {
		summary.ByMethod = append(summary.ByMethod, MethodSales{
			Method:       m.MethodName,
			Transactions: m.TransactionCount,
			Total:        numericToDecimal(m.TotalAmount),
		})
	}
	for _, t := range byType {
		summary.ByOrderType = append(summary.ByOrderType, OrderTypeSales{
			OrderType: t.OrderType,
			Orders:    t.OrderCount,
			Total:     numericToDecimal(t.TotalAmount),
		})
	}
	for _, p := range topProducts {
		summary.TopProducts = append(summary.TopProducts, ProductSales{
			ProductID: p.ProductID,
			Name:      p.ProductName,
			Quantity:  p.QuantitySold,
			Revenue:   numericToDecimal(p.TotalRevenue),
		})
	}
	for _, c := range byCategory {
		summary.ByCategory = append(summary.ByCategory, CategoryItemCounts{
			Category: c.CategoryName,
			Items:    c.ItemCount,
		})
	}

	return summary, nil
}
