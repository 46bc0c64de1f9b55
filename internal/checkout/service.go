// Package checkout turns the cart into an order on the hosted backend and
// builds the WhatsApp confirmation the shopper sends with the payment proof.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/doneduardo/storefront/pkg/backend"
	"github.com/doneduardo/storefront/pkg/cart"
	"github.com/doneduardo/storefront/pkg/enums"
	pkgerrors "github.com/doneduardo/storefront/pkg/errors"
	"github.com/doneduardo/storefront/pkg/logger"
	"github.com/doneduardo/storefront/pkg/validate"
)

type orderBackend interface {
	CreateOrder(ctx context.Context, params backend.CreateOrderParams) (*backend.CreatedOrder, error)
	GetOrderDetails(ctx context.Context, orderID string) (*backend.OrderDetails, error)
}

type cartStore interface {
	Snapshot() cart.Snapshot
	RemoveOrdered(ctx context.Context, ordered []cart.Line)
}

// CustomerInput is the delivery form.
type CustomerInput struct {
	Name      string `json:"name" validate:"required,max=120"`
	Phone     string `json:"phone" validate:"required,min=6,max=20"`
	Address   string `json:"address" validate:"required,max=255"`
	City      string `json:"city" validate:"required,oneof=Lima Provincia"`
	District  string `json:"district" validate:"required,max=120"`
	Reference string `json:"reference" validate:"max=255"`
}

func (in CustomerInput) normalized() CustomerInput {
	return CustomerInput{
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
		City:      strings.TrimSpace(in.City),
		District:  strings.TrimSpace(in.District),
		Reference: strings.TrimSpace(in.Reference),
	}
}

// Options carries merchant settings.
type Options struct {
	MerchantName  string
	WhatsAppPhone string
	PaymentMethod enums.PaymentMethod
}

// Service places orders and renders confirmations.
type Service interface {
	PlaceOrder(ctx context.Context, input CustomerInput) (*backend.CreatedOrder, error)
	Confirmation(ctx context.Context, orderID string) (*Confirmation, error)
}

type service struct {
	orders orderBackend
	cart   cartStore
	opts   Options
	logg   *logger.Logger
}

// NewService builds a checkout service.
func NewService(orders orderBackend, store cartStore, opts Options, logg *logger.Logger) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order backend required")
	}
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	opts.WhatsAppPhone = digitsOnly(opts.WhatsAppPhone)
	if opts.WhatsAppPhone == "" {
		return nil, fmt.Errorf("whatsapp phone required")
	}
	if !opts.PaymentMethod.IsValid() {
		opts.PaymentMethod = enums.PaymentMethodYape
	}
	if strings.TrimSpace(opts.MerchantName) == "" {
		return nil, fmt.Errorf("merchant name required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{orders: orders, cart: store, opts: opts, logg: logg}, nil
}

// PlaceOrder creates the order from a snapshot of the cart and, once the
// backend has accepted it, removes exactly the ordered quantities. Items
// added while create_order was in flight stay in the cart. On any failure
// the cart is left as it was.
func (s *service) PlaceOrder(ctx context.Context, input CustomerInput) (*backend.CreatedOrder, error) {
	input = input.normalized()
	if err := validate.Struct(input); err != nil {
		return nil, err
	}

	snap := s.cart.Snapshot()
	if len(snap.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	created, err := s.orders.CreateOrder(ctx, buildOrderParams(input, snap, s.opts.PaymentMethod))
	if err != nil {
		return nil, err
	}

	s.cart.RemoveOrdered(ctx, snap.Lines)
	s.logg.Info(s.logg.WithFields(s.logg.WithOrderID(ctx, created.ID), map[string]any{
		"order_number": created.OrderNumber,
		"items":        snap.ItemCount,
		"total":        snap.Total.StringFixed(2),
	}), "checkout.order_created")
	return created, nil
}

func buildOrderParams(input CustomerInput, snap cart.Snapshot, method enums.PaymentMethod) backend.CreateOrderParams {
	items := make([]backend.OrderItemInput, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		items = append(items, backend.OrderItemInput{
			ID:       line.Product.ID,
			Name:     line.Product.Name,
			Price:    backend.DecimalNumber(line.Product.Price),
			Quantity: line.Quantity,
		})
	}
	return backend.CreateOrderParams{
		CustomerName:  input.Name,
		CustomerPhone: input.Phone,
		Address:       input.Address,
		City:          input.City,
		District:      input.District,
		Reference:     input.Reference,
		TotalAmount:   backend.DecimalNumber(snap.Total),
		PaymentMethod: method,
		Items:         items,
	}
}

// Confirmation loads a placed order and renders the pre-filled message.
func (s *service) Confirmation(ctx context.Context, orderID string) (*Confirmation, error) {
	details, err := s.orders.GetOrderDetails(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return newConfirmation(details, s.opts), nil
}

func digitsOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
