package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/novamart/storefront-backend/api/controllers"
	cartcontrollers "github.com/novamart/storefront-backend/api/controllers/cart"
	checkoutcontrollers "github.com/novamart/storefront-backend/api/controllers/checkout"
	"github.com/novamart/storefront-backend/api/middleware"
	cartsvc "github.com/novamart/storefront-backend/internal/cart"
	checkoutsvc "github.com/novamart/storefront-backend/internal/checkout"
	couponsvc "github.com/novamart/storefront-backend/internal/coupon"
	"github.com/novamart/storefront-backend/pkg/config"
	"github.com/novamart/storefront-backend/pkg/db"
	"github.com/novamart/storefront-backend/pkg/logger"
	"github.com/novamart/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	cartManager *cartsvc.Manager,
	couponService couponsvc.Service,
	checkoutService checkoutsvc.Service,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	// Cart routes work for guests: the cart key comes from the bearer token
	// when present, otherwise from the client-held X-Cart-Key header.
	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Use(middleware.CartContext(logg))

		r.Get("/", cartcontrollers.Fetch(cartManager, logg))
		r.Delete("/", cartcontrollers.Clear(cartManager, logg))
		r.Post("/items", cartcontrollers.AddItem(cartManager, logg))
		r.Patch("/items/{offerId}", cartcontrollers.UpdateQuantity(cartManager, logg))
		r.Delete("/items/{offerId}", cartcontrollers.RemoveItem(cartManager, logg))
		r.Post("/coupon", cartcontrollers.ApplyCoupon(couponService, logg))
		r.Delete("/coupon", cartcontrollers.RemoveCoupon(cartManager, logg))
	})

	// Checkout requires an account; anonymous requests get 401 before any
	// session state is touched.
	r.Route("/api/v1/checkout", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.CartContext(logg))

		r.Post("/", checkoutcontrollers.Begin(checkoutService, logg))
		r.Get("/", checkoutcontrollers.Current(checkoutService, logg))
		r.Delete("/", checkoutcontrollers.Abandon(checkoutService, logg))
		r.Get("/prefill", checkoutcontrollers.Prefill(checkoutService, logg))
		r.Post("/shipping", checkoutcontrollers.SubmitShipping(checkoutService, logg))
		r.Get("/payment-methods", checkoutcontrollers.PaymentMethods(checkoutService, logg))
		r.Post("/payment", checkoutcontrollers.SubmitPayment(checkoutService, logg))
		r.Post("/back", checkoutcontrollers.Back(checkoutService, logg))
		r.Post("/order", checkoutcontrollers.PlaceOrder(checkoutService, logg))
	})

	return r
}
