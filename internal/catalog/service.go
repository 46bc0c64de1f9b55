// Package catalog resolves products from the hosted backend and guards the
// cart against out-of-stock additions.
package catalog

import (
	"context"
	"fmt"

	"github.com/doneduardo/storefront/pkg/backend"
	"github.com/doneduardo/storefront/pkg/cart"
	pkgerrors "github.com/doneduardo/storefront/pkg/errors"
	"github.com/doneduardo/storefront/pkg/logger"
	"github.com/doneduardo/storefront/pkg/pagination"
)

type productSource interface {
	GetProduct(ctx context.Context, id string) (*backend.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*backend.Product, error)
	ListProducts(ctx context.Context, filter backend.ProductFilter) ([]backend.Product, error)
	ListCategories(ctx context.Context) ([]backend.Category, error)
}

type cartAdder interface {
	AddItem(ctx context.Context, product cart.Product)
	Snapshot() cart.Snapshot
}

// Service exposes catalog reads and the stock-checked add to cart.
type Service interface {
	Product(ctx context.Context, id string) (*backend.Product, error)
	ProductBySlug(ctx context.Context, slug string) (*backend.Product, error)
	Products(ctx context.Context, filter backend.ProductFilter, page pagination.Params) (ProductPage, error)
	Categories(ctx context.Context) ([]backend.Category, error)
	AddToCart(ctx context.Context, productID string) (cart.Snapshot, error)
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Items      []backend.Product `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type service struct {
	source productSource
	cart   cartAdder
	logg   *logger.Logger
}

// NewService builds a catalog service.
func NewService(source productSource, store cartAdder, logg *logger.Logger) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("product source required")
	}
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{source: source, cart: store, logg: logg}, nil
}

func (s *service) Product(ctx context.Context, id string) (*backend.Product, error) {
	return s.source.GetProduct(ctx, id)
}

func (s *service) ProductBySlug(ctx context.Context, slug string) (*backend.Product, error) {
	return s.source.GetProductBySlug(ctx, slug)
}

// Products pages through the listing. One extra row is requested to learn
// whether a next page exists.
func (s *service) Products(ctx context.Context, filter backend.ProductFilter, page pagination.Params) (ProductPage, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return ProductPage{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	filter.Limit = pagination.LimitWithBuffer(page.Limit)
	filter.Offset = cursor.Offset

	rows, err := s.source.ListProducts(ctx, filter)
	if err != nil {
		return ProductPage{}, err
	}
	items, next := pagination.Trim(rows, page.Limit, cursor)
	if items == nil {
		items = []backend.Product{}
	}
	return ProductPage{Items: items, NextCursor: next}, nil
}

func (s *service) Categories(ctx context.Context) ([]backend.Category, error) {
	return s.source.ListCategories(ctx)
}

// AddToCart loads a fresh snapshot of the product and adds one unit. Products
// without stock are refused before the cart is touched. The quantity already
// in the cart is not compared with stock.
func (s *service) AddToCart(ctx context.Context, productID string) (cart.Snapshot, error) {
	ctx = s.logg.WithProductID(ctx, productID)

	product, err := s.source.GetProduct(ctx, productID)
	if err != nil {
		return cart.Snapshot{}, err
	}
	if product.Stock < 1 {
		return cart.Snapshot{}, pkgerrors.New(pkgerrors.CodeConflict, "product is out of stock").
			WithDetail("product_id", product.ID).
			WithDetail("stock", product.Stock)
	}
	if product.Price.IsNegative() {
		return cart.Snapshot{}, pkgerrors.New(pkgerrors.CodeDependency, "product has an invalid price").
			WithDetail("product_id", product.ID)
	}

	s.cart.AddItem(ctx, ToCartProduct(*product))
	s.logg.Info(ctx, "cart.item_added")
	return s.cart.Snapshot(), nil
}

// ToCartProduct takes the snapshot of a backend row that a cart line keeps.
func ToCartProduct(p backend.Product) cart.Product {
	return cart.Product{
		ID:       p.ID,
		Name:     p.Name,
		Slug:     p.Slug,
		Price:    p.Price,
		Stock:    p.Stock,
		Images:   p.Images,
		Category: p.Category,
	}
}
