package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doneduardo/storefront/api/responses"
	"github.com/doneduardo/storefront/api/validators"
	"github.com/doneduardo/storefront/internal/catalog"
	"github.com/doneduardo/storefront/pkg/backend"
	pkgerrors "github.com/doneduardo/storefront/pkg/errors"
	"github.com/doneduardo/storefront/pkg/logger"
	"github.com/doneduardo/storefront/pkg/pagination"
)

// ProductsList pages through products, optionally by category or featured only.
func ProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		featured, err := validators.ParseQueryBool(r, "featured")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category := validators.QueryString(r, "category", 64)
		if category == "all" {
			category = ""
		}

		page, err := svc.Products(r.Context(), backend.ProductFilter{
			Category:     category,
			FeaturedOnly: featured,
		}, pagination.Params{
			Limit:  limit,
			Cursor: validators.QueryString(r, "cursor", 128),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func ProductDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		product, err := svc.ProductBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func CategoriesList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}
