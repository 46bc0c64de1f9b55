package cart

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doneduardo/storefront/api/responses"
	"github.com/doneduardo/storefront/api/validators"
	"github.com/doneduardo/storefront/internal/catalog"
	cartstore "github.com/doneduardo/storefront/pkg/cart"
	pkgerrors "github.com/doneduardo/storefront/pkg/errors"
	"github.com/doneduardo/storefront/pkg/logger"
)

// Store is the part of the cart store the handlers drive.
type Store interface {
	Snapshot() cartstore.Snapshot
	RemoveItem(ctx context.Context, productID string)
	SetQuantity(ctx context.Context, productID string, quantity int)
	Clear(ctx context.Context)
	ToggleDrawer(ctx context.Context)
	OpenDrawer(ctx context.Context)
	CloseDrawer(ctx context.Context)
}

// CartFetch returns the cart with derived totals.
func CartFetch(store Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		responses.WriteCart(w, store.Snapshot())
	}
}

// CartAddItem adds one unit of an in-stock product.
func CartAddItem(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.AddToCart(r.Context(), validators.SanitizeString(payload.ProductID, 64))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCart(w, snap)
	}
}

// CartSetQuantity sets a line's quantity. Unknown products leave the cart
// unchanged and still return it.
func CartSetQuantity(store Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		var payload setQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store.SetQuantity(r.Context(), chi.URLParam(r, "productId"), *payload.Quantity)
		responses.WriteCart(w, store.Snapshot())
	}
}

func CartRemoveItem(store Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		store.RemoveItem(r.Context(), chi.URLParam(r, "productId"))
		responses.WriteCart(w, store.Snapshot())
	}
}

func CartClear(store Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}
		store.Clear(r.Context())
		responses.WriteCart(w, store.Snapshot())
	}
}

// CartDrawer applies the {action} path parameter: toggle, open or close.
func CartDrawer(store Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart unavailable"))
			return
		}

		switch action := chi.URLParam(r, "action"); action {
		case "toggle":
			store.ToggleDrawer(r.Context())
		case "open":
			store.OpenDrawer(r.Context())
		case "close":
			store.CloseDrawer(r.Context())
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown drawer action").
				WithDetails(map[string]string{"action": action}))
			return
		}
		responses.WriteCart(w, store.Snapshot())
	}
}
