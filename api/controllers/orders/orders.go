package orders

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/doneduardo/storefront/api/responses"
	checkoutsvc "github.com/doneduardo/storefront/internal/checkout"
	pkgerrors "github.com/doneduardo/storefront/pkg/errors"
	"github.com/doneduardo/storefront/pkg/logger"
)

// Confirmation returns the placed order with its pre-filled WhatsApp link.
func Confirmation(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		orderID := chi.URLParam(r, "orderId")
		ctx := logg.WithOrderID(r.Context(), orderID)

		confirmation, err := svc.Confirmation(ctx, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, confirmation)
	}
}
