package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Pricing derivations. All of these are pure and recomputed on every call;
// nothing is cached, so a read after a mutation can never be stale.

// Subtotal is the sum of unit price times quantity over all items.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, li := range c.Items {
		sum = sum.Add(li.LineTotal())
	}
	return sum
}

// DiscountAmount is the monetary value of the active discount against the
// current subtotal. No discount means zero.
func (c *Cart) DiscountAmount() decimal.Decimal {
	if c.Discount == nil {
		return decimal.Zero
	}
	return c.Discount.AmountFor(c.Subtotal())
}

// TaxAmount computes tax for the given rate (percent). The cart-wide
// discount is allocated proportionally across taxable and non-taxable
// items, then only the taxable share is taxed:
//
//	taxableRatio = taxableSubtotal / subtotal   (1 on an empty cart)
//	tax = (subtotal - discount) * taxableRatio * rate / 100
func (c *Cart) TaxAmount(taxRate decimal.Decimal) decimal.Decimal {
	subtotal := c.Subtotal()

	taxableSubtotal := decimal.Zero
	for _, li := range c.Items {
		if li.IsTaxable() {
			taxableSubtotal = taxableSubtotal.Add(li.LineTotal())
		}
	}

	taxableRatio := decimal.NewFromInt(1)
	if subtotal.IsPositive() {
		taxableRatio = taxableSubtotal.Div(subtotal)
	}

	taxableAmount := subtotal.Sub(c.DiscountAmount()).Mul(taxableRatio)
	return taxableAmount.Mul(taxRate).Div(hundred)
}

// Total is subtotal minus discount plus tax.
func (c *Cart) Total(taxRate decimal.Decimal) decimal.Decimal {
	return c.Subtotal().Sub(c.DiscountAmount()).Add(c.TaxAmount(taxRate))
}

// ItemCount is the sum of quantities over all items.
func (c *Cart) ItemCount() int {
	count := 0
	for _, li := range c.Items {
		count += li.Quantity
	}
	return count
}
