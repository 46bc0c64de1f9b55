package backend

import (
	"context"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/doneduardo/storefront/pkg/errors"
	"github.com/shopspring/decimal"
)

// Product mirrors a row of the products table.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	Ingredients  string          `json:"ingredients"`
	Origin       string          `json:"origin"`
	TastingNotes string          `json:"tasting_notes"`
	Price        decimal.Decimal `json:"price"`
	WeightGrams  int             `json:"weight_grams"`
	Category     string          `json:"category"`
	Stock        int             `json:"stock"`
	IsFeatured   bool            `json:"is_featured"`
	Images       []string        `json:"images"`
	CreatedAt    *time.Time      `json:"created_at,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ProductFilter narrows ListProducts. Zero values mean no constraint.
type ProductFilter struct {
	Category     string
	FeaturedOnly bool
	Limit        int
	Offset       int
}

// GetProduct loads a product by id.
func (c *Client) GetProduct(ctx context.Context, id string) (*Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return c.singleProduct(ctx, "id", id)
}

// GetProductBySlug loads a product by its url slug.
func (c *Client) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product slug is required")
	}
	return c.singleProduct(ctx, "slug", slug)
}

func (c *Client) singleProduct(ctx context.Context, column, value string) (*Product, error) {
	params := url.Values{}
	params.Set(column, eq(value))
	params.Set("select", "*")

	var rows []Product
	if err := c.query(ctx, "products", params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{column: value})
	}
	return &rows[0], nil
}

// ListProducts returns products matching filter, newest first.
func (c *Client) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "created_at.desc,id.asc")
	if category := strings.TrimSpace(filter.Category); category != "" {
		params.Set("category", eq(category))
	}
	if filter.FeaturedOnly {
		params.Set("is_featured", eq("true"))
	}
	if filter.Limit > 0 {
		params.Set("limit", limitParam(filter.Limit))
	}
	if filter.Offset > 0 {
		params.Set("offset", limitParam(filter.Offset))
	}

	rows := []Product{}
	if err := c.query(ctx, "products", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCategories returns categories oldest first.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "created_at.asc")

	rows := []Category{}
	if err := c.query(ctx, "categories", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
