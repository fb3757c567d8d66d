package service

import (
	"errors"
	"testing"

	"github.com/sajian-pos/api/internal/enum"
)

func TestNormalizeOrderStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Pending", enum.OrderStatusPending},
		{"WaitingForPayment", enum.OrderStatusWaitingForPayment},
		{"Paid", enum.OrderStatusPaid},
		{"Completed", enum.OrderStatusCompleted},
		{"Cancelled", enum.OrderStatusCancelled},
		// Legacy aliases from older clients.
		{"pending", enum.OrderStatusPending},
		{"completed", enum.OrderStatusCompleted},
		{"cancelled", enum.OrderStatusCancelled},
		{"Cooking", enum.OrderStatusPending},
		{"Served", enum.OrderStatusPending},
	}
	for _, tc := range cases {
		got, err := NormalizeOrderStatus(tc.in)
		if err != nil {
			t.Errorf("NormalizeOrderStatus(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeOrderStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeOrderStatus_Rejected(t *testing.T) {
	for _, in := range []string{"", "PENDING", "Waiting", "paid ", "Done"} {
		if _, err := NormalizeOrderStatus(in); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("NormalizeOrderStatus(%q): expected ErrInvalidStatus, got %v", in, err)
		}
	}
}

func TestNormalizeItemStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Pending", enum.ItemStatusPending},
		{"Completed", enum.ItemStatusCompleted},
		{"Cancelled", enum.ItemStatusCancelled},
		{"Paid", enum.ItemStatusPaid},
		{"Cooking", enum.ItemStatusPending},
		{"Served", enum.ItemStatusPending},
		{"cancelled", enum.ItemStatusCancelled},
	}
	for _, tc := range cases {
		got, err := NormalizeItemStatus(tc.in)
		if err != nil {
			t.Errorf("NormalizeItemStatus(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeItemStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	// WaitingForPayment is an order status, not an item status.
	if _, err := NormalizeItemStatus("WaitingForPayment"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("expected ErrInvalidStatus for WaitingForPayment, got %v", err)
	}
}

func TestQueueStatusForOrder(t *testing.T) {
	cases := []struct {
		order string
		queue string
	}{
		{enum.OrderStatusPending, enum.QueueStatusPending},
		{enum.OrderStatusWaitingForPayment, enum.QueueStatusProcessing},
		{enum.OrderStatusPaid, enum.QueueStatusProcessing},
		{enum.OrderStatusCompleted, enum.QueueStatusCompleted},
		{enum.OrderStatusCancelled, enum.QueueStatusCancelled},
	}
	for _, tc := range cases {
		if got := queueStatusForOrder(tc.order); got != tc.queue {
			t.Errorf("queueStatusForOrder(%q) = %q, want %q", tc.order, got, tc.queue)
		}
	}
}
