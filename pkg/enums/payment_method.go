package enums

import "strings"

// PaymentMethod is how a shopper settles an order.
type PaymentMethod string

const PaymentMethodYape PaymentMethod = "YAPE"

var (
	paymentMethods = []PaymentMethod{PaymentMethodYape}
	paymentLabels  = map[PaymentMethod]string{PaymentMethodYape: "Yape"}
)

func (p PaymentMethod) String() string { return string(p) }

// Label is the shopper-facing name, the raw value when none is known.
func (p PaymentMethod) Label() string {
	if label, ok := paymentLabels[p]; ok {
		return label
	}
	return string(p)
}

func (p PaymentMethod) IsValid() bool { return member(paymentMethods, p) }

// ParsePaymentMethod ignores case and surrounding space.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	return parse("payment method", paymentMethods, strings.ToUpper(strings.TrimSpace(value)))
}
