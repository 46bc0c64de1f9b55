package cart

import "github.com/shopspring/decimal"

// Product is the catalog snapshot taken when an item is added to the cart.
type Product struct {
	ID       string
	Name     string
	Slug     string
	Price    decimal.Decimal
	Stock    int
	Images   []string
	Category string
}

// PrimaryImage returns the first image reference, or "".
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p Product) clone() Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	return p
}

// Line pairs a product snapshot with a quantity of at least one.
type Line struct {
	Product  Product
	Quantity int
}

// Subtotal is unit price times quantity, unrounded.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
