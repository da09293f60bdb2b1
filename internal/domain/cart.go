package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Discount kinds supported by the register.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

var ErrUnknownDiscountKind = errors.New("unknown discount kind")

// LineItem is one distinct product entry in the cart, keyed by ProductID.
type LineItem struct {
	ProductID       string            `json:"product_id"`
	Name            string            `json:"name"`
	SKU             string            `json:"sku,omitempty"`
	Quantity        int               `json:"quantity"`
	UnitPrice       decimal.Decimal   `json:"unit_price"`
	OriginalPrice   *decimal.Decimal  `json:"original_price,omitempty"`
	DiscountPerItem *decimal.Decimal  `json:"discount_per_item,omitempty"`
	Attributes      map[string]string `json:"attributes,omitempty"`
	Barcode         string            `json:"barcode,omitempty"`
	Taxable         *bool             `json:"taxable,omitempty"`
}

// IsTaxable reports whether the item contributes to the taxable portion of
// the cart. Items are taxable unless explicitly marked otherwise.
func (li LineItem) IsTaxable() bool {
	return li.Taxable == nil || *li.Taxable
}

// LineTotal is unit price times quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Discount is the single cart-wide discount. A cart holds zero or one.
type Discount struct {
	Kind   string          `json:"kind"`
	Value  decimal.Decimal `json:"value"`
	Code   string          `json:"code,omitempty"`
	Reason string          `json:"reason,omitempty"`
}

// Validate rejects discounts whose kind is not a known constant. Value
// range for percentage discounts is validated upstream by the caller.
func (d Discount) Validate() error {
	switch d.Kind {
	case DiscountPercentage, DiscountFixed:
		return nil
	default:
		return ErrUnknownDiscountKind
	}
}

// AmountFor converts the discount into a monetary amount for the given
// subtotal. A fixed discount is clamped to the subtotal so the pre-tax
// total can never go negative.
func (d Discount) AmountFor(subtotal decimal.Decimal) decimal.Decimal {
	switch d.Kind {
	case DiscountPercentage:
		return subtotal.Mul(d.Value).Div(decimal.NewFromInt(100))
	case DiscountFixed:
		return decimal.Min(d.Value, subtotal)
	default:
		// Unknown kinds are rejected at SetDiscount time and never
		// reach pricing; contribute nothing if one slips through.
		return decimal.Zero
	}
}

// Customer is a denormalized copy of the customer attached to the sale.
// The cart holds the copy, it does not own the customer record.
type Customer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	PricingTier string `json:"pricing_tier,omitempty"`
}

// Cart is the full mutable state of an in-progress sale. It is the unit of
// persistence and of hold/resume. Derived totals (subtotal, tax, total) are
// never stored here; they are recomputed from Items and Discount on demand.
type Cart struct {
	Items    []LineItem `json:"items"`
	Customer *Customer  `json:"customer"`
	Discount *Discount  `json:"discount"`
	Notes    string     `json:"notes"`
	HoldID   *string    `json:"hold_id"`
}

// NewCart returns an empty cart with all fields at their defaults.
func NewCart() *Cart {
	return &Cart{Items: []LineItem{}}
}

// Clone returns a deep copy of the cart, safe to hand to callers or to
// serialize while the original keeps being mutated.
func (c *Cart) Clone() *Cart {
	out := &Cart{
		Items: make([]LineItem, len(c.Items)),
		Notes: c.Notes,
	}
	for i, li := range c.Items {
		cp := li
		if li.OriginalPrice != nil {
			v := *li.OriginalPrice
			cp.OriginalPrice = &v
		}
		if li.DiscountPerItem != nil {
			v := *li.DiscountPerItem
			cp.DiscountPerItem = &v
		}
		if li.Taxable != nil {
			v := *li.Taxable
			cp.Taxable = &v
		}
		if li.Attributes != nil {
			cp.Attributes = make(map[string]string, len(li.Attributes))
			for k, v := range li.Attributes {
				cp.Attributes[k] = v
			}
		}
		out.Items[i] = cp
	}
	if c.Customer != nil {
		cust := *c.Customer
		out.Customer = &cust
	}
	if c.Discount != nil {
		disc := *c.Discount
		out.Discount = &disc
	}
	if c.HoldID != nil {
		id := *c.HoldID
		out.HoldID = &id
	}
	return out
}
