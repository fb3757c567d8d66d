package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sajian-pos/api/internal/database"
	"github.com/sajian-pos/api/internal/enum"
	"github.com/sajian-pos/api/internal/pricing"
)

// RecalcStore defines the DB methods needed to recompute order totals.
// Satisfied by *database.Queries (and its WithTx variant).
type RecalcStore interface {
	GetOrder(ctx context.Context, arg database.GetOrderParams) (database.Order, error)
	GetDiscount(ctx context.Context, arg database.GetDiscountParams) (database.Discount, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
	UpdateOrderTotals(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error)
}

// recalculateOrderTotals re-reads the order's non-cancelled items and its
// discount, recomputes the four aggregates and writes them back. It is run
// inside the same transaction as every item mutation so totals can never be
// observed out of sync with the item rows. Callers emit realtime events after
// this returns; the recalculation itself has no side effect besides the order
// row update.
func recalculateOrderTotals(ctx context.Context, store RecalcStore, orderID, branchID uuid.UUID, vatInclusive bool) (database.Order, error) {
	order, err := store.GetOrder(ctx, database.GetOrderParams{ID: orderID, BranchID: branchID})
	if err != nil {
		return database.Order{}, fmt.Errorf("get order for recalc: %w", err)
	}

	var discount *pricing.Discount
	if order.DiscountID.Valid {
		d, err := store.GetDiscount(ctx, database.GetDiscountParams{
			ID:       uuid.UUID(order.DiscountID.Bytes),
			BranchID: branchID,
		})
		if err != nil {
			// A dangling discount reference must not block the recalculation.
			if !errors.Is(err, pgx.ErrNoRows) {
				return database.Order{}, fmt.Errorf("get discount for recalc: %w", err)
			}
		} else {
			discount = &pricing.Discount{
				Type:   d.Type,
				Amount: numericToDecimal(d.Amount),
				Active: d.Active,
			}
		}
	}

	items, err := store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return database.Order{}, fmt.Errorf("list items for recalc: %w", err)
	}

	var lineTotals []decimal.Decimal
	for _, item := range items {
		if item.Status == enum.ItemStatusCancelled {
			continue
		}
		lineTotals = append(lineTotals, numericToDecimal(item.TotalPrice))
	}

	totals := pricing.OrderTotal(lineTotals, discount, vatInclusive)

	updated, err := store.UpdateOrderTotals(ctx, database.UpdateOrderTotalsParams{
		ID:             orderID,
		SubTotal:       decimalToNumeric(totals.SubTotal),
		DiscountAmount: decimalToNumeric(totals.DiscountAmount),
		Vat:            decimalToNumeric(totals.VATAmount),
		TotalAmount:    decimalToNumeric(totals.TotalAmount),
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("update order totals: %w", err)
	}
	return updated, nil
}
