package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doneduardo/storefront/api/controllers"
	cartcontrollers "github.com/doneduardo/storefront/api/controllers/cart"
	ordercontrollers "github.com/doneduardo/storefront/api/controllers/orders"
	"github.com/doneduardo/storefront/api/middleware"
	"github.com/doneduardo/storefront/internal/catalog"
	checkoutsvc "github.com/doneduardo/storefront/internal/checkout"
	"github.com/doneduardo/storefront/pkg/config"
	"github.com/doneduardo/storefront/pkg/logger"
	"github.com/doneduardo/storefront/pkg/metrics"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store cartcontrollers.Store,
	catalogService catalog.Service,
	checkoutService checkoutsvc.Service,
	idempotencyStore middleware.IdempotencyStore,
	readiness map[string]controllers.Pinger,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Session(logg, cfg.Storage.SessionID),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", controllers.CategoriesList(catalogService, logg))
		r.Get("/products", controllers.ProductsList(catalogService, logg))
		r.Get("/products/{slug}", controllers.ProductDetail(catalogService, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(store, logg))
			r.Delete("/", cartcontrollers.CartClear(store, logg))
			r.Post("/items", cartcontrollers.CartAddItem(catalogService, logg))
			r.Patch("/items/{productId}", cartcontrollers.CartSetQuantity(store, logg))
			r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(store, logg))
			r.Post("/drawer/{action}", cartcontrollers.CartDrawer(store, logg))
		})

		r.With(middleware.Idempotency(idempotencyStore, cfg.Storage.SessionID, logg,
			middleware.WithIdempotencyTTL(cfg.Checkout.IdempotencyTTL))).
			Post("/checkout", controllers.Checkout(checkoutService, logg))
		r.Get("/orders/{orderId}/confirmation", ordercontrollers.Confirmation(checkoutService, logg))
	})

	return r
}
