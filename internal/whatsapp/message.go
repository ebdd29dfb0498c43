// Package whatsapp builds the preformatted order message and the wa.me
// deep link the customer is redirected to after finalizing.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aecioaam/sistema-de-pedidos/internal/checkout"
	"github.com/aecioaam/sistema-de-pedidos/internal/domain"
)

// BuildOrderMessage renders the multi-section plain-text summary sent to
// the store's WhatsApp. neighborhoodName may be empty for pickup orders.
func BuildOrderMessage(cart checkout.Cart, details domain.OrderDetails, totals checkout.Totals, neighborhoodName string) string {
	var b strings.Builder

	b.WriteString("*🍰 NOVO PEDIDO - DOCERIA*\n\n")
	fmt.Fprintf(&b, "*Cliente:* %s\n\n", details.CustomerName)

	b.WriteString("*Itens:*\n")
	for _, item := range cart {
		optionStr := ""
		if item.SelectedOption != nil {
			optionStr = fmt.Sprintf(" (%s)", item.SelectedOption.Name)
		}
		fmt.Fprintf(&b, "• %dx %s%s (R$ %s)\n", item.Quantity, item.Name, optionStr, money(item.LineTotal()))
	}

	fmt.Fprintf(&b, "\n*Subtotal:* R$ %s\n", money(totals.Subtotal))

	if details.Type == domain.DeliveryEntrega {
		if neighborhoodName == "" {
			neighborhoodName = "Não informado"
		}
		fmt.Fprintf(&b, "*Tipo:* Entrega 🛵\n*Bairro:* %s\n*Endereço:* %s, Nº %s\n", neighborhoodName, details.Street, details.Number)
		if details.Reference != "" {
			fmt.Fprintf(&b, "*Referência:* %s\n", details.Reference)
		}
		fmt.Fprintf(&b, "*Taxa de Entrega:* R$ %s\n", money(totals.DeliveryFee))
	} else {
		b.WriteString("*Tipo:* Retirada 🏪\n")
	}

	fmt.Fprintf(&b, "\n*Pagamento:* %s\n", strings.ToUpper(string(details.PaymentMethod)))
	if details.PaymentMethod == domain.PaymentDinheiro && details.ChangeFor != nil {
		fmt.Fprintf(&b, "*Troco para:* R$ %s\n", money(*details.ChangeFor))
	}
	if details.CustomMessage != "" {
		fmt.Fprintf(&b, "\n*Recado:* %s\n", details.CustomMessage)
	}
	fmt.Fprintf(&b, "\n*TOTAL:* R$ %s\n", money(totals.Total))
	b.WriteString("\n*Aguarde confirmação do seu pedido*")

	return b.String()
}

// Link builds the deep link that opens the chat with the message
// prefilled. Opening it is a client-side navigation; no response is read.
func Link(phoneNumber, message string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", phoneNumber, url.QueryEscape(message))
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
