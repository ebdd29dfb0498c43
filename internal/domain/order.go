package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryType distinguishes delivery from pickup orders.
type DeliveryType string

const (
	DeliveryEntrega  DeliveryType = "entrega"
	DeliveryRetirada DeliveryType = "retirada"
)

// PaymentMethod is descriptive metadata only; nothing is charged.
type PaymentMethod string

const (
	PaymentPix      PaymentMethod = "pix"
	PaymentDinheiro PaymentMethod = "dinheiro"
	PaymentCartao   PaymentMethod = "cartao"
)

// OrderStatus is the order lifecycle state.
type OrderStatus string

const (
	StatusPendente  OrderStatus = "pendente"
	StatusProducao  OrderStatus = "producao"
	StatusEntrega   OrderStatus = "entrega"
	StatusConcluido OrderStatus = "concluido"
	StatusCancelado OrderStatus = "cancelado"
)

// IsTerminal reports whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusConcluido || s == StatusCancelado
}

// CanTransitionTo enforces the fixed forward path
// pendente -> producao -> entrega -> concluido, with cancelado
// reachable from any non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusCancelado {
		return true
	}
	switch s {
	case StatusPendente:
		return next == StatusProducao
	case StatusProducao:
		return next == StatusEntrega
	case StatusEntrega:
		return next == StatusConcluido
	}
	return false
}

// CartItem is a product snapshot taken at add time plus a quantity and
// an optionally selected option. Name, price and image are copied, not
// live-linked; later catalog edits do not affect lines already in a cart.
type CartItem struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Image          string          `json:"image,omitempty"`
	Quantity       int             `json:"quantity"`
	SelectedOption *ProductOption  `json:"selected_option,omitempty"`
}

// OptionName returns the merge-identity option component; lines without
// an option share the distinct "no option" key.
func (i *CartItem) OptionName() string {
	if i.SelectedOption == nil {
		return ""
	}
	return i.SelectedOption.Name
}

// LineTotal is price multiplied by quantity.
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderDetails is the ephemeral customer input collected during
// checkout. It is discarded on submission or reset.
type OrderDetails struct {
	CustomerName   string           `json:"customer_name"`
	Type           DeliveryType     `json:"type"`
	NeighborhoodID *uuid.UUID       `json:"neighborhood_id,omitempty"`
	Street         string           `json:"street,omitempty"`
	Number         string           `json:"number,omitempty"`
	Reference      string           `json:"reference,omitempty"`
	PaymentMethod  PaymentMethod    `json:"payment_method"`
	ChangeFor      *decimal.Decimal `json:"change_for,omitempty"`
	CustomMessage  string           `json:"custom_message,omitempty"`
}

// DefaultOrderDetails returns the documented checkout defaults.
func DefaultOrderDetails() OrderDetails {
	return OrderDetails{
		Type:          DeliveryEntrega,
		PaymentMethod: PaymentPix,
	}
}

// Order is the persisted record created once at submission. Customers
// never mutate it afterwards; administrators move it along the status
// path. Neighborhood is the denormalized name, resolved at submission.
type Order struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	CustomerName  string           `json:"customer_name" db:"customer_name"`
	CustomerPhone string           `json:"customer_phone" db:"customer_phone"`
	Neighborhood  string           `json:"neighborhood,omitempty" db:"neighborhood"`
	Street        string           `json:"street,omitempty" db:"street"`
	Number        string           `json:"number,omitempty" db:"number"`
	Reference     string           `json:"reference,omitempty" db:"reference"`
	Items         []CartItem       `json:"items" db:"items"`
	TotalValue    decimal.Decimal  `json:"total_value" db:"total_value"`
	PaymentMethod PaymentMethod    `json:"payment_method" db:"payment_method"`
	ChangeFor     *decimal.Decimal `json:"change_for,omitempty" db:"change_for"`
	DeliveryType  DeliveryType     `json:"delivery_type" db:"delivery_type"`
	Status        OrderStatus      `json:"status" db:"status"`
	CustomMessage string           `json:"custom_message,omitempty" db:"custom_message"`
}
