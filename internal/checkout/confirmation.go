package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/doneduardo/storefront/pkg/backend"
	"github.com/doneduardo/storefront/pkg/enums"
)

const whatsAppBaseURL = "https://wa.me/"

// Confirmation is what the thank-you view needs.
type Confirmation struct {
	Order       backend.Order       `json:"order"`
	Items       []backend.OrderItem `json:"items"`
	Message     string              `json:"message"`
	WhatsAppURL string              `json:"whatsapp_url"`
}

func newConfirmation(details *backend.OrderDetails, opts Options) *Confirmation {
	order := *details.Order
	method := order.PaymentMethod
	if !method.IsValid() {
		method = opts.PaymentMethod
	}
	message := confirmationMessage(opts.MerchantName, order, details.Items, method)
	return &Confirmation{
		Order:       order,
		Items:       details.Items,
		Message:     message,
		WhatsAppURL: WhatsAppLink(opts.WhatsAppPhone, message),
	}
}

func confirmationMessage(merchant string, order backend.Order, items []backend.OrderItem, method enums.PaymentMethod) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s! Quiero confirmar mi pedido #%d\n", merchant, order.OrderNumber)
	fmt.Fprintf(&b, "Nombre: %s\n", order.CustomerName)
	fmt.Fprintf(&b, "Celular: %s\n", order.CustomerPhone)
	fmt.Fprintf(&b, "Dirección: %s, %s, %s\n", order.Address, order.District, order.City)
	b.WriteString("Productos:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "%s x%d\n", item.ProductNameSnapshot, item.Quantity)
	}
	fmt.Fprintf(&b, "Total a pagar: S/%s\n", order.TotalAmount.StringFixed(2))
	fmt.Fprintf(&b, "Pago por %s\n", method.Label())
	b.WriteString("Adjunto mi comprobante aquí:")
	return b.String()
}

// WhatsAppLink builds a click-to-chat link with text percent-encoded the way
// browsers encode a URI component.
func WhatsAppLink(phone, text string) string {
	link := whatsAppBaseURL + digitsOnly(phone)
	if text == "" {
		return link
	}
	return link + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}
