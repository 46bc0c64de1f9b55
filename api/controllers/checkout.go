package controllers

import (
	"net/http"

	"github.com/doneduardo/storefront/api/responses"
	"github.com/doneduardo/storefront/api/validators"
	checkoutsvc "github.com/doneduardo/storefront/internal/checkout"
	pkgerrors "github.com/doneduardo/storefront/pkg/errors"
	"github.com/doneduardo/storefront/pkg/logger"
)

type checkoutRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	District  string `json:"district"`
	Reference string `json:"reference"`
}

type checkoutResponse struct {
	OrderID     string `json:"order_id"`
	OrderNumber int64  `json:"order_number"`
}

// Checkout places an order for the current cart. Field rules are enforced by
// the checkout service so the same errors come back for every caller.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.PlaceOrder(r.Context(), checkoutsvc.CustomerInput{
			Name:      payload.Name,
			Phone:     payload.Phone,
			Address:   payload.Address,
			City:      payload.City,
			District:  payload.District,
			Reference: payload.Reference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OrderID:     created.ID,
			OrderNumber: created.OrderNumber,
		})
	}
}
