package service

import (
	"errors"

	"github.com/sajian-pos/api/internal/enum"
)

// ErrInvalidStatus is returned when a status string is not part of the
// canonical set or the historical aliases still accepted at the edge.
var ErrInvalidStatus = errors.New("invalid status")

// NormalizeOrderStatus maps any accepted order status string onto the
// canonical set. Lowercase values and the deprecated kitchen stages
// (Cooking, Served) are legacy aliases kept for old clients; they are only
// translated here, never produced or consumed inside core logic.
func NormalizeOrderStatus(s string) (string, error) {
	switch s {
	case enum.OrderStatusPending,
		enum.OrderStatusWaitingForPayment,
		enum.OrderStatusPaid,
		enum.OrderStatusCompleted,
		enum.OrderStatusCancelled:
		return s, nil
	case "pending", enum.LegacyStatusCooking, enum.LegacyStatusServed:
		return enum.OrderStatusPending, nil
	case "completed":
		return enum.OrderStatusCompleted, nil
	case "cancelled":
		return enum.OrderStatusCancelled, nil
	}
	return "", ErrInvalidStatus
}

// NormalizeItemStatus is the order-item variant: the canonical item set is
// {Pending, Completed, Cancelled, Paid}, with the same legacy aliases.
func NormalizeItemStatus(s string) (string, error) {
	switch s {
	case enum.ItemStatusPending,
		enum.ItemStatusCompleted,
		enum.ItemStatusCancelled,
		enum.ItemStatusPaid:
		return s, nil
	case "pending", enum.LegacyStatusCooking, enum.LegacyStatusServed:
		return enum.ItemStatusPending, nil
	case "completed":
		return enum.ItemStatusCompleted, nil
	case "cancelled":
		return enum.ItemStatusCancelled, nil
	}
	return "", ErrInvalidStatus
}

// isTerminalOrderStatus reports whether no further transitions are allowed.
func isTerminalOrderStatus(s string) bool {
	return s == enum.OrderStatusCompleted || s == enum.OrderStatusCancelled
}

// queueStatusForOrder maps an order status onto the queue entry status that
// should mirror it.
func queueStatusForOrder(orderStatus string) string {
	switch orderStatus {
	case enum.OrderStatusWaitingForPayment, enum.OrderStatusPaid:
		return enum.QueueStatusProcessing
	case enum.OrderStatusCompleted:
		return enum.QueueStatusCompleted
	case enum.OrderStatusCancelled:
		return enum.QueueStatusCancelled
	}
	return enum.QueueStatusPending
}
