package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sajian-pos/api/internal/enum"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestItemTotal(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		qty      int32
		discount string
		want     string
	}{
		{"no discount", "100", 2, "0", "200"},
		{"with discount", "100", 2, "50", "150"},
		{"discount exceeds line", "10", 1, "25", "0"},
		{"fractional price", "9.99", 3, "0", "29.97"},
		{"rounding", "0.015", 1, "0", "0.02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ItemTotal(dec(tt.price), tt.qty, dec(tt.discount))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("ItemTotal(%s, %d, %s) = %s, want %s", tt.price, tt.qty, tt.discount, got, tt.want)
			}
		})
	}
}

func TestOrderTotal_NoDiscount(t *testing.T) {
	totals := OrderTotal([]decimal.Decimal{dec("200")}, nil, false)

	if !totals.SubTotal.Equal(dec("200")) {
		t.Errorf("SubTotal = %s, want 200", totals.SubTotal)
	}
	if !totals.DiscountAmount.Equal(decimal.Zero) {
		t.Errorf("DiscountAmount = %s, want 0", totals.DiscountAmount)
	}
	if !totals.VATAmount.Equal(dec("14")) {
		t.Errorf("VATAmount = %s, want 14", totals.VATAmount)
	}
	if !totals.TotalAmount.Equal(dec("214")) {
		t.Errorf("TotalAmount = %s, want 214", totals.TotalAmount)
	}
}

func TestOrderTotal_PercentageDiscount(t *testing.T) {
	discount := &Discount{Type: enum.DiscountTypePercentage, Amount: dec("10"), Active: true}
	totals := OrderTotal([]decimal.Decimal{dec("200")}, discount, false)

	if !totals.DiscountAmount.Equal(dec("20")) {
		t.Errorf("DiscountAmount = %s, want 20", totals.DiscountAmount)
	}
	if !totals.VATAmount.Equal(dec("12.60")) {
		t.Errorf("VATAmount = %s, want 12.60", totals.VATAmount)
	}
	if !totals.TotalAmount.Equal(dec("192.60")) {
		t.Errorf("TotalAmount = %s, want 192.60", totals.TotalAmount)
	}
}

func TestOrderTotal_FixedDiscountClampedToSubtotal(t *testing.T) {
	discount := &Discount{Type: enum.DiscountTypeFixed, Amount: dec("500"), Active: true}
	totals := OrderTotal([]decimal.Decimal{dec("120")}, discount, false)

	if !totals.DiscountAmount.Equal(dec("120")) {
		t.Errorf("DiscountAmount = %s, want 120 (clamped)", totals.DiscountAmount)
	}
	if !totals.TotalAmount.Equal(decimal.Zero) {
		t.Errorf("TotalAmount = %s, want 0", totals.TotalAmount)
	}
}

func TestOrderTotal_InactiveDiscountIgnored(t *testing.T) {
	discount := &Discount{Type: enum.DiscountTypeFixed, Amount: dec("50"), Active: false}
	totals := OrderTotal([]decimal.Decimal{dec("100")}, discount, false)

	if !totals.DiscountAmount.Equal(decimal.Zero) {
		t.Errorf("DiscountAmount = %s, want 0 for inactive discount", totals.DiscountAmount)
	}
}

func TestOrderTotal_VATInclusive(t *testing.T) {
	totals := OrderTotal([]decimal.Decimal{dec("107")}, nil, true)

	// 107 * 0.07/1.07 = 7.00; total stays at the gross amount.
	if !totals.VATAmount.Equal(dec("7")) {
		t.Errorf("VATAmount = %s, want 7", totals.VATAmount)
	}
	if !totals.TotalAmount.Equal(dec("107")) {
		t.Errorf("TotalAmount = %s, want 107", totals.TotalAmount)
	}
}

// Total must track (subtotal - discount) + vat at 2dp for exclusive pricing,
// across a spread of subtotal/discount combinations.
func TestOrderTotal_VATRoundTrip(t *testing.T) {
	subtotals := []string{"0", "0.01", "19.99", "100", "333.33", "10000"}
	discounts := []string{"0", "5", "50", "99.99"}

	for _, st := range subtotals {
		for _, dv := range discounts {
			discount := &Discount{Type: enum.DiscountTypeFixed, Amount: dec(dv), Active: true}
			totals := OrderTotal([]decimal.Decimal{dec(st)}, discount, false)

			if totals.DiscountAmount.GreaterThan(totals.SubTotal) {
				t.Errorf("subtotal %s discount %s: discountAmount %s > subTotal %s",
					st, dv, totals.DiscountAmount, totals.SubTotal)
			}
			if totals.DiscountAmount.IsNegative() {
				t.Errorf("subtotal %s discount %s: negative discountAmount %s", st, dv, totals.DiscountAmount)
			}

			after := totals.SubTotal.Sub(totals.DiscountAmount)
			want := after.Add(totals.VATAmount)
			diff := totals.TotalAmount.Sub(want).Abs()
			if diff.GreaterThan(dec("0.01")) {
				t.Errorf("subtotal %s discount %s: total %s, want ~%s", st, dv, totals.TotalAmount, want)
			}
		}
	}
}
