package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aecioaam/sistema-de-pedidos/internal/domain"
)

// Cart is the customer's in-progress order: an ordered list of lines.
// Line identity is the pair (product id, option name); a line without an
// option has its own distinct key. All operations are pure value
// transformations on the slice.
type Cart []domain.CartItem

// Add puts one unit of product into the cart. The effective unit price
// is the option's override when present, else the product's base price.
// A line with the same (product id, option name) is incremented instead
// of duplicated; otherwise a snapshot line with quantity 1 is appended.
// Add always succeeds.
func (c Cart) Add(product *domain.Product, option *domain.ProductOption) Cart {
	for i := range c {
		if c[i].ProductID == product.ID && c[i].OptionName() == optionName(option) {
			out := append(Cart(nil), c...)
			out[i].Quantity++
			return out
		}
	}
	return append(append(Cart(nil), c...), domain.CartItem{
		ProductID:      product.ID,
		Name:           product.Name,
		Price:          product.OptionPrice(option),
		Image:          product.Image,
		Quantity:       1,
		SelectedOption: option,
	})
}

// UpdateQuantity adds delta (signed) to the quantity of the matching
// line, clamped at 0. A line whose quantity reaches 0 is removed. A
// zero delta never changes the cart.
func (c Cart) UpdateQuantity(productID uuid.UUID, optionName string, delta int) Cart {
	out := make(Cart, 0, len(c))
	for _, item := range c {
		if item.ProductID == productID && item.OptionName() == optionName {
			item.Quantity += delta
			if item.Quantity < 0 {
				item.Quantity = 0
			}
		}
		if item.Quantity > 0 {
			out = append(out, item)
		}
	}
	return out
}

// Subtotal is the sum of line totals over all cart lines.
func (c Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for i := range c {
		subtotal = subtotal.Add(c[i].LineTotal())
	}
	return subtotal
}

// Count is the total number of units across all lines.
func (c Cart) Count() int {
	n := 0
	for i := range c {
		n += c[i].Quantity
	}
	return n
}

// Totals holds the computed pricing breakdown of a checkout. It is
// recomputed on every read, never cached.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

// ComputeTotals prices the cart against the order details. The delivery
// fee applies only when the delivery type is entrega and the selected
// neighborhood resolves; a failed lookup contributes 0.
func ComputeTotals(cart Cart, details domain.OrderDetails, neighborhoods []domain.Neighborhood) Totals {
	subtotal := cart.Subtotal()
	fee := decimal.Zero
	if details.Type == domain.DeliveryEntrega && details.NeighborhoodID != nil {
		for i := range neighborhoods {
			if neighborhoods[i].ID == *details.NeighborhoodID {
				fee = neighborhoods[i].Fee
				break
			}
		}
	}
	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal.Add(fee),
	}
}

func optionName(option *domain.ProductOption) string {
	if option == nil {
		return ""
	}
	return option.Name
}
