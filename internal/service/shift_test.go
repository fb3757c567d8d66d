package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/sajian-pos/api/internal/cache"
	"github.com/sajian-pos/api/internal/database"
	"github.com/sajian-pos/api/internal/enum"
)

// mockShiftStore implements ShiftStore with configurable behavior.
type mockShiftStore struct {
	createShiftFn    func(ctx context.Context, arg database.CreateShiftParams) (database.Shift, error)
	getShiftFn       func(ctx context.Context, arg database.GetShiftParams) (database.Shift, error)
	getOpenShiftFn   func(ctx context.Context, branchID uuid.UUID) (database.Shift, error)
	closeShiftFn     func(ctx context.Context, arg database.CloseShiftParams) (database.Shift, error)
	countPendingFn   func(ctx context.Context, arg database.CountPendingOrdersByTypeParams) ([]database.CountPendingOrdersByTypeRow, error)
	sumCashFn        func(ctx context.Context, shiftID uuid.UUID) (pgtype.Numeric, error)
	salesFn          func(ctx context.Context, shiftID uuid.UUID) (database.GetShiftSalesRow, error)
	salesByMethodFn  func(ctx context.Context, shiftID uuid.UUID) ([]database.GetShiftSalesByMethodRow, error)
	salesByTypeFn    func(ctx context.Context, shiftID uuid.UUID) ([]database.GetShiftSalesByOrderTypeRow, error)
	costFn           func(ctx context.Context, shiftID uuid.UUID) (pgtype.Numeric, error)
	productSalesFn   func(ctx context.Context, arg database.GetShiftProductSalesParams) ([]database.GetShiftProductSalesRow, error)
	categoryCountsFn func(ctx context.Context, shiftID uuid.UUID) ([]database.GetShiftCategoryCountsRow, error)
}

func (m *mockShiftStore) CreateShift(ctx context.Context, arg database.CreateShiftParams) (database.Shift, error) {
	return m.createShiftFn(ctx, arg)
}
func (m *mockShiftStore) GetShift(ctx context.Context, arg database.GetShiftParams) (database.Shift, error) {
	return m.getShiftFn(ctx, arg)
}
func (m *mockShiftStore) GetOpenShiftByBranch(ctx context.Context, branchID uuid.UUID) (database.Shift, error) {
	return m.getOpenShiftFn(ctx, branchID)
}
func (m *mockShiftStore) CloseShift(ctx context.Context, arg database.CloseShiftParams) (database.Shift, error) {
	return m.closeShiftFn(ctx, arg)
}
func (m *mockShiftStore) CountPendingOrdersByType(ctx context.Context, arg database.CountPendingOrdersByTypeParams) ([]database.CountPendingOrdersByTypeRow, error) {
	return m.countPendingFn(ctx, arg)
}
func (m *mockShiftStore) SumCashSalesByShift(ctx context.Context, shiftID uuid.UUID) (pgtype.Numeric, error) {
	return m.sumCashFn(ctx, shiftID)
}
func (m *mockShiftStore) GetShiftSales(ctx context.Context, shiftID uuid.UUID) (database.GetShiftSalesRow, error) {
	return m.salesFn(ctx, shiftID)
}
func (m *mockShiftStore) GetShiftSalesByMethod(ctx context.Context, shiftID uuid.UUID) ([]database.GetShiftSalesByMethodRow, error) {
	return m.salesByMethodFn(ctx, shiftID)
}
func (m *mockShiftStore) GetShiftSalesByOrderType(ctx context.Context, shiftID uuid.UUID) ([]database.GetShiftSalesByOrderTypeRow, error) {
	return m.salesByTypeFn(ctx, shiftID)
}
func (m *mockShiftStore) GetShiftCost(ctx context.Context, shiftID uuid.UUID) (pgtype.Numeric, error) {
	return m.costFn(ctx, shiftID)
}
func (m *mockShiftStore) GetShiftProductSales(ctx context.Context, arg database.GetShiftProductSalesParams) ([]database.GetShiftProductSalesRow, error) {
	return m.productSalesFn(ctx, arg)
}
func (m *mockShiftStore) GetShiftCategoryCounts(ctx context.Context, shiftID uuid.UUID) ([]database.GetShiftCategoryCountsRow, error) {
	return m.categoryCountsFn(ctx, shiftID)
}

func newTestShiftService(store *mockShiftStore) *ShiftService {
	return NewShiftService(store, cache.Noop{}, NopNotifier{}, NopAudit{})
}

func TestOpenShift_CreatesWhenNoneOpen(t *testing.T) {
	branchID := uuid.New()
	store := &mockShiftStore{
		getOpenShiftFn: func(ctx context.Context, bid uuid.UUID) (database.Shift, error) {
			return database.Shift{}, pgx.ErrNoRows
		},
		createShiftFn: func(ctx context.Context, arg database.CreateShiftParams) (database.Shift, error) {
			return database.Shift{
				ID:          uuid.New(),
				BranchID:    arg.BranchID,
				OpenedBy:    arg.OpenedBy,
				StartAmount: arg.StartAmount,
				Status:      enum.ShiftStatusOpen,
			}, nil
		},
	}
	svc := newTestShiftService(store)

	shift, opened, err := svc.Open(context.Background(), Tenant{BranchID: branchID, UserID: uuid.New()}, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !opened {
		t.Error("expected a newly opened shift")
	}
	if !numericEquals(shift.StartAmount, "500.00") {
		t.Errorf("start amount = %v, want 500.00", numericToDecimal(shift.StartAmount))
	}
}

func TestOpenShift_IdempotentWhenAlreadyOpen(t *testing.T) {
	branchID := uuid.New()
	existing := database.Shift{ID: uuid.New(), BranchID: branchID, Status: enum.ShiftStatusOpen}
	store := &mockShiftStore{
		getOpenShiftFn: func(ctx context.Context, bid uuid.UUID) (database.Shift, error) {
			return existing, nil
		},
	}
	svc := newTestShiftService(store)

	shift, opened, err := svc.Open(context.Background(), Tenant{BranchID: branchID, UserID: uuid.New()}, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened {
		t.Error("expected the existing shift back, not a new one")
	}
	if shift.ID != existing.ID {
		t.Errorf("shift = %s, want existing %s", shift.ID, existing.ID)
	}
}

func TestOpenShift_ConcurrentOpenLosesRace(t *testing.T) {
	branchID := uuid.New()
	winner := database.Shift{ID: uuid.New(), BranchID: branchID, Status: enum.ShiftStatusOpen}

	calls := 0
	store := &mockShiftStore{
		getOpenShiftFn: func(ctx context.Context, bid uuid.UUID) (database.Shift, error) {
			calls++
			// First check sees no shift; after the conflict the winner exists.
			if calls == 1 {
				return database.Shift{}, pgx.ErrNoRows
			}
			return winner, nil
		},
		createShiftFn: func(ctx context.Context, arg database.CreateShiftParams) (database.Shift, error) {
			return database.Shift{}, &pgconn.PgError{Code: "23505", ConstraintName: "shifts_branch_open_key"}
		},
	}
	svc := newTestShiftService(store)

	shift, opened, err := svc.Open(context.Background(), Tenant{BranchID: branchID, UserID: uuid.New()}, decimal.NewFromInt(500))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened {
		t.Error("loser of the open race must not report a new shift")
	}
	if shift.ID != winner.ID {
		t.Errorf("shift = %s, want winner %s", shift.ID, winner.ID)
	}
}

func TestCloseShift_BlockedByPendingOrders(t *testing.T) {
	branchID := uuid.New()
	openTime := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	var counted database.CountPendingOrdersByTypeParams
	store := &mockShiftStore{
		getOpenShiftFn: func(ctx context.Context, bid uuid.UUID) (database.Shift, error) {
			return database.Shift{ID: uuid.New(), BranchID: branchID, OpenTime: openTime, Status: enum.ShiftStatusOpen}, nil
		},
		countPendingFn: func(ctx context.Context, arg database.CountPendingOrdersByTypeParams) ([]database.CountPendingOrdersByTypeRow, error) {
			counted = arg
			return []database.CountPendingOrdersByTypeRow{
				{OrderType: enum.OrderTypeDineIn, OrderCount: 2},
				{OrderType: enum.OrderTypeTakeAway, OrderCount: 1},
			}, nil
		},
	}
	svc := newTestShiftService(store)

	_, err := svc.Close(context.Background(), Tenant{BranchID: branchID, UserID: uuid.New()}, decimal.NewFromInt(900))
	var pendingErr *PendingOrdersError
	if !errors.As(err, &pendingErr) {
		t.Fatalf("expected PendingOrdersError, got: %v", err)
	}
	// The pending-order window starts at shift open.
	if !counted.Since.Valid || !counted.Since.Time.Equal(openTime) {
		t.Errorf("pending count since = %+v, want %s", counted.Since, openTime)
	}
	if len(pendingErr.Counts) != 2 {
		t.Errorf("counts = %d, want 2", len(pendingErr.Counts))
	}
	if !strings.Contains(pendingErr.Error(), "DineIn: 2") {
		t.Errorf("error message %q missing DineIn count", pendingErr.Error())
	}
}

func TestCloseShift_ComputesExpectedAndDiff(t *testing.T) {
	branchID := uuid.New()
	shiftID := uuid.New()
	var closed database.CloseShiftParams
	store := &mockShiftStore{
		getOpenShiftFn: func(ctx context.Context, bid uuid.UUID) (database.Shift, error) {
			return database.Shift{
				ID:          shiftID,
				BranchID:    branchID,
				StartAmount: makeNumeric("500.00"),
				Status:      enum.ShiftStatusOpen,
			}, nil
		},
		countPendingFn: func(ctx context.Context, arg database.CountPendingOrdersByTypeParams) ([]database.CountPendingOrdersByTypeRow, error) {
			return nil, nil
		},
		sumCashFn: func(ctx context.Context, sid uuid.UUID) (pgtype.Numeric, error) {
			return makeNumeric("1250.00"), nil
		},
		closeShiftFn: func(ctx context.Context, arg database.CloseShiftParams) (database.Shift, error) {
			closed = arg
			return database.Shift{
				ID:             arg.ID,
				BranchID:       branchID,
				EndAmount:      arg.EndAmount,
				ExpectedAmount: arg.ExpectedAmount,
				DiffAmount:     arg.DiffAmount,
				Status:         enum.ShiftStatusClosed,
			}, nil
		},
	}
	svc := newTestShiftService(store)

	end, _ := decimal.NewFromString("1740.00")
	shift, err := svc.Close(context.Background(), Tenant{BranchID: branchID, UserID: uuid.New()}, end)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	// expected = 500 + 1250 = 1750; diff = 1740 - 1750 = -10.
	if !numericEquals(closed.ExpectedAmount, "1750.00") {
		t.Errorf("expected = %v, want 1750.00", numericToDecimal(closed.ExpectedAmount))
	}
	if !numericEquals(closed.DiffAmount, "-10.00") {
		t.Errorf("diff = %v, want -10.00", numericToDecimal(closed.DiffAmount))
	}
	if shift.Status != enum.ShiftStatusClosed {
		t.Errorf("status = %q, want CLOSED", shift.Status)
	}
}

func TestCloseShift_NoOpenShift(t *testing.T) {
	store := &mockShiftStore{
		getOpenShiftFn: func(ctx context.Context, bid uuid.UUID) (database.Shift, error) {
			return database.Shift{}, pgx.ErrNoRows
		},
	}
	svc := newTestShiftService(store)

	_, err := svc.Close(context.Background(), Tenant{BranchID: uuid.New(), UserID: uuid.New()}, decimal.NewFromInt(100))
	if !errors.Is(err, ErrNoActiveShift) {
		t.Fatalf("expected ErrNoActiveShift, got: %v", err)
	}
}

func TestShiftSummary_Computations(t *testing.T) {
	branchID := uuid.New()
	shiftID := uuid.New()
	openTime := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	store := &mockShiftStore{
		getShiftFn: func(ctx context.Context, arg database.GetShiftParams) (database.Shift, error) {
			return database.Shift{
				ID:          shiftID,
				BranchID:    branchID,
				StartAmount: makeNumeric("500.00"),
				OpenTime:    openTime,
				Status:      enum.ShiftStatusOpen,
			}, nil
		},
		salesFn: func(ctx context.Context, sid uuid.UUID) (database.GetShiftSalesRow, error) {
			return database.GetShiftSalesRow{
				TotalSales:   makeNumeric("2000.00"),
				CashSales:    makeNumeric("1200.00"),
				PaymentCount: 18,
			}, nil
		},
		costFn: func(ctx context.Context, sid uuid.UUID) (pgtype.Numeric, error) {
			return makeNumeric("800.00"), nil
		},
		salesByMethodFn: func(ctx context.Context, sid uuid.UUID) ([]database.GetShiftSalesByMethodRow, error) {
			return []database.GetShiftSalesByMethodRow{
				{MethodName: "Cash", TransactionCount: 12, TotalAmount: makeNumeric("1200.00")},
				{MethodName: "QR", TransactionCount: 6, TotalAmount: makeNumeric("800.00")},
			}, nil
		},
		salesByTypeFn: func(ctx context.Context, sid uuid.UUID) ([]database.GetShiftSalesByOrderTypeRow, error) {
			return []database.GetShiftSalesByOrderTypeRow{
				{OrderType: enum.OrderTypeDineIn, OrderCount: 10, TotalAmount: makeNumeric("1500.00")},
			}, nil
		},
		productSalesFn: func(ctx context.Context, arg database.GetShiftProductSalesParams) ([]database.GetShiftProductSalesRow, error) {
			if arg.Limit != topProductLimit {
				t.Errorf("limit = %d, want %d", arg.Limit, topProductLimit)
			}
			return []database.GetShiftProductSalesRow{
				{ProductID: uuid.New(), ProductName: "Pad Thai", QuantitySold: 40, TotalRevenue: makeNumeric("900.00")},
			}, nil
		},
		categoryCountsFn: func(ctx context.Context, sid uuid.UUID) ([]database.GetShiftCategoryCountsRow, error) {
			return []database.GetShiftCategoryCountsRow{
				{CategoryName: "Noodles", ItemCount: 40},
				{CategoryName: "Uncategorized", ItemCount: 3},
			}, nil
		},
	}
	svc := newTestShiftService(store)

	summary, err := svc.Summary(context.Background(), Tenant{BranchID: branchID, UserID: uuid.New()}, shiftID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if !summary.OpenTime.Equal(openTime) {
		t.Errorf("open time = %s, want %s", summary.OpenTime, openTime)
	}
	if !summary.NetProfit.Equal(decimal.RequireFromString("1200.00")) {
		t.Errorf("net profit = %v, want 1200.00", summary.NetProfit)
	}
	// margin = 1200 / 2000 * 100 = 60%
	if !summary.ProfitMargin.Equal(decimal.RequireFromString("60.00")) {
		t.Errorf("margin = %v, want 60.00", summary.ProfitMargin)
	}
	if len(summary.ByMethod) != 2 || summary.ByMethod[0].Method != "Cash" {
		t.Errorf("by method = %+v", summary.ByMethod)
	}
	if len(summary.TopProducts) != 1 || summary.TopProducts[0].Quantity != 40 {
		t.Errorf("top products = %+v", summary.TopProducts)
	}
	if len(summary.ByCategory) != 2 {
		t.Errorf("by category = %+v", summary.ByCategory)
	}
}

func TestShiftSummary_ZeroSalesHasZeroMargin(t *testing.T) {
	branchID := uuid.New()
	shiftID := uuid.New()
	store := &mockShiftStore{
		getShiftFn: func(ctx context.Context, arg database.GetShiftParams) (database.Shift, error) {
			return database.Shift{ID: shiftID, BranchID: branchID, Status: enum.ShiftStatusOpen}, nil
		},
		salesFn: func(ctx context.Context, sid uuid.UUID) (database.GetShiftSalesRow, error) {
			return database.GetShiftSalesRow{}, nil
		},
		costFn: func(ctx context.Context, sid uuid.UUID) (pgtype.Numeric, error) {
			return pgtype.Numeric{}, nil
		},
		salesByMethodFn: func(ctx context.Context, sid uuid.UUID) ([]database.GetShiftSalesByMethodRow, error) {
			return nil, nil
		},
		salesByTypeFn: func(ctx context.Context, sid uuid.UUID) ([]database.GetShiftSalesByOrderTypeRow, error) {
			return nil, nil
		},
		productSalesFn: func(ctx context.Context, arg database.GetShiftProductSalesParams) ([]database.GetShiftProductSalesRow, error) {
			return nil, nil
		},
		categoryCountsFn: func(ctx context.Context, sid uuid.UUID) ([]database.GetShiftCategoryCountsRow, error) {
			return nil, nil
		},
	}
	svc := newTestShiftService(store)

	summary, err := svc.Summary(context.Background(), Tenant{BranchID: branchID, UserID: uuid.New()}, shiftID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !summary.ProfitMargin.IsZero() {
		t.Errorf("margin = %v, want 0 when there are no sales", summary.ProfitMargin)
	}
}
