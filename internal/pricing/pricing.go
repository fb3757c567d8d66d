package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/sajian-pos/api/internal/enum"
)

// VATRate is the fixed 7% VAT applied to every order.
var VATRate = decimal.NewFromFloat(0.07)

// Discount is the order-level discount as seen by the calculator.
// Inactive discounts are ignored entirely.
type Discount struct {
	Type   string // enum.DiscountTypePercentage or enum.DiscountTypeFixed
	Amount decimal.Decimal
	Active bool
}

// OrderTotals holds the four order aggregates, each rounded to 2 decimals.
type OrderTotals struct {
	SubTotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	VATAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
}

// ItemTotal computes a single line total:
// max(0, price*quantity - discount), rounded to 2 decimals.
func ItemTotal(price decimal.Decimal, quantity int32, discount decimal.Decimal) decimal.Decimal {
	total := price.Mul(decimal.NewFromInt32(quantity)).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return total.Round(2)
}

// OrderTotal aggregates item line totals into order-level amounts.
// The caller must already have excluded cancelled items from itemTotals.
//
// A Percentage discount is computed against the subtotal; a Fixed discount is
// taken as-is. Either way the discount is clamped to the subtotal so the
// amount after discount can never go negative.
//
// When vatIncluded is true the item prices already contain VAT and the tax
// portion is extracted (amount * rate/(1+rate)); otherwise VAT is added on top.
func OrderTotal(itemTotals []decimal.Decimal, discount *Discount, vatIncluded bool) OrderTotals {
	subTotal := decimal.Zero
	for _, t := range itemTotals {
		subTotal = subTotal.Add(t)
	}

	discountAmount := decimal.Zero
	if discount != nil && discount.Active {
		switch discount.Type {
		case enum.DiscountTypePercentage:
			discountAmount = subTotal.Mul(discount.Amount).Div(decimal.NewFromInt(100))
		case enum.DiscountTypeFixed:
			discountAmount = discount.Amount
		}
		if discountAmount.GreaterThan(subTotal) {
			discountAmount = subTotal
		}
		if discountAmount.IsNegative() {
			discountAmount = decimal.Zero
		}
	}

	afterDiscount := subTotal.Sub(discountAmount)

	var vat, total decimal.Decimal
	if vatIncluded {
		vat = afterDiscount.Mul(VATRate).Div(decimal.NewFromInt(1).Add(VATRate))
		total = afterDiscount
	} else {
		vat = afterDiscount.Mul(VATRate)
		total = afterDiscount.Add(vat)
	}

	return OrderTotals{
		SubTotal:       subTotal.Round(2),
		DiscountAmount: discountAmount.Round(2),
		VATAmount:      vat.Round(2),
		TotalAmount:    total.Round(2),
	}
}
