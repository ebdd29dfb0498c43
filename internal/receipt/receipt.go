// Package receipt renders a persisted order as a self-contained
// fixed-width document sized for an 80mm thermal printer. Rendering is a
// pure formatting step with no persisted side effect; the embedded
// script triggers the host print dialog when the page opens.
package receipt

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/aecioaam/sistema-de-pedidos/internal/domain"
)

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Pedido #{{.ShortID}}</title>
<style>
  @media print { @page { margin: 0; } body { margin: 10px; } }
  body { font-family: 'Courier New', monospace; font-size: 12px; width: 280px; }
  .header { text-align: center; font-weight: bold; margin-bottom: 10px; }
  .customer { margin-bottom: 10px; border-bottom: 1px dashed black; padding-bottom: 5px; }
  .section { margin-bottom: 10px; border-bottom: 1px dashed black; padding-bottom: 5px; }
  .message { margin-bottom: 10px; border: 2px dashed #000; background-color: #f0f0f0; padding: 5px; }
  .item { display: flex; justify-content: space-between; }
  .totals { margin-top: 10px; border-top: 1px dashed black; padding-top: 5px; }
  .total-line { display: flex; justify-content: space-between; font-weight: bold; }
</style>
</head>
<body>
<div class="header">DOCERIA<br/>PEDIDO #{{.ShortID}}</div>
<div class="customer">
  Cliente: {{.Order.CustomerName}}<br/>
  Data: {{.CreatedAt}}
</div>
{{if .IsDelivery}}<div class="section">
  <strong>ENTREGA</strong><br/>
  Endere&ccedil;o: {{.Order.Street}}, {{.Order.Number}}<br/>
  Bairro: {{.Order.Neighborhood}}<br/>
  {{if .Order.Reference}}Ref: {{.Order.Reference}}{{end}}
</div>{{else}}<div class="section">
  <strong>RETIRADA NO LOCAL</strong>
</div>{{end}}
{{if .Order.CustomMessage}}<div class="message">
  <strong>RECADO:</strong>
  <div>{{.Order.CustomMessage}}</div>
</div>{{end}}
<div>
{{range .Items}}  <div class="item"><span>{{.Label}}</span><span>R$ {{.Total}}</span></div>
{{end}}</div>
<div class="totals">
  <div class="total-line"><strong>TOTAL:</strong> <strong>R$ {{.Total}}</strong></div>
  Pagamento: {{.Payment}}<br/>
  {{if .ChangeFor}}Troco para: R$ {{.ChangeFor}}{{end}}<br/>
  {{if .IsDelivery}}(Taxa inclusa){{end}}
</div>
<script>window.print();</script>
</body>
</html>`))

type line struct {
	Label string
	Total string
}

type receiptData struct {
	Order      *domain.Order
	ShortID    string
	CreatedAt  string
	IsDelivery bool
	Items      []line
	Total      string
	Payment    string
	ChangeFor  string
}

// Render produces the printable HTML for one order.
func Render(order *domain.Order) (string, error) {
	shortID := order.ID.String()
	if len(shortID) > 4 {
		shortID = shortID[:4]
	}

	data := receiptData{
		Order:      order,
		ShortID:    shortID,
		CreatedAt:  order.CreatedAt.Format("02/01/2006 15:04:05"),
		IsDelivery: order.DeliveryType == domain.DeliveryEntrega,
		Total:      order.TotalValue.StringFixed(2),
		Payment:    strings.ToUpper(string(order.PaymentMethod)),
	}
	if order.ChangeFor != nil {
		data.ChangeFor = order.ChangeFor.StringFixed(2)
	}
	for i := range order.Items {
		item := &order.Items[i]
		label := fmt.Sprintf("%dx %s", item.Quantity, item.Name)
		if item.SelectedOption != nil {
			label += fmt.Sprintf(" (%s)", item.SelectedOption.Name)
		}
		data.Items = append(data.Items, line{Label: label, Total: item.LineTotal().StringFixed(2)})
	}

	var b strings.Builder
	if err := receiptTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render receipt: %w", err)
	}
	return b.String(), nil
}
