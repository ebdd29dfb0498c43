package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductOption is a named variant of a product. An option without an
// explicit price inherits the product's base price.
type ProductOption struct {
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

// Product represents an item in the storefront catalog. The category
// relationship is by name, matching the rows already stored by the
// previous system; renaming a category does not cascade to products.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Category    string          `json:"category" db:"category"`
	Image       string          `json:"image" db:"image"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	Options     []ProductOption `json:"options,omitempty" db:"options"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// OptionPrice resolves the effective unit price for a selected option.
func (p *Product) OptionPrice(option *ProductOption) decimal.Decimal {
	if option != nil && option.Price != nil {
		return *option.Price
	}
	return p.Price
}

// Category groups products for display. Order is nullable; absent
// values sort as 0, ties keep insertion order.
type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Order     *int      `json:"order,omitempty" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SortOrder returns the effective ordering value.
func (c *Category) SortOrder() int {
	if c.Order == nil {
		return 0
	}
	return *c.Order
}

// Neighborhood is a delivery area with a flat delivery fee.
type Neighborhood struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Fee       decimal.Decimal `json:"fee" db:"fee"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
