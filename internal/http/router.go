package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/monitoring"
)

// Deps are the services the router dispatches to.
type Deps struct {
	Carts         *cart.Storage
	Catalog       Catalog
	Accounts      AccountService
	Checkout      CheckoutService
	Sessions      *Sessions
	HealthChecks  map[string]Pinger
	Log           *zap.Logger
	Timeout       time.Duration
	MaxBodySize   int64
	SecureCookies bool
}

func NewRouter(d Deps) http.Handler {
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}

	cartHandler := NewCartHandler(d.Carts, d.Catalog, d.Timeout, d.Log)
	productHandler := NewProductHandler(d.Catalog, d.Timeout, d.Log)
	authHandler := NewAuthHandler(d.Sessions, d.Accounts, d.Timeout, d.Log)
	accountHandler := NewAccountHandler(d.Sessions, d.Accounts, d.Timeout, d.Log)
	checkoutHandler := NewCheckoutHandler(d.Checkout, d.Carts, d.Sessions, d.Timeout, d.Log)
	healthHandler := NewHealthHandler(d.HealthChecks, 5*time.Second, d.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(monitoring.HTTPMetrics)
	r.Use(middleware.Timeout(d.Timeout))
	r.Use(middleware.Compress(5))
	r.Use(MaxBodySize(d.MaxBodySize))

	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", monitoring.Handler())

	r.Get("/categories", productHandler.GetCategories)
	r.Route("/products", func(r chi.Router) {
		r.Get("/", productHandler.GetProducts)
		r.Get("/{id}", productHandler.GetProduct)
	})

	r.Post("/signin", authHandler.Signin)
	r.Post("/signout", authHandler.Signout)
	r.Post("/signup", authHandler.Signup)
	r.Post("/forgot-password", authHandler.ForgotPassword)
	r.Post("/reset-password", authHandler.ResetPassword)

	r.Get("/account-details", accountHandler.GetDetails)
	r.Put("/admin/products/{id}/stock", accountHandler.UpdateStock)

	r.Group(func(r chi.Router) {
		r.Use(CartIDMiddleware(d.SecureCookies))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{id}", cartHandler.RemoveItem)
		})

		r.Post("/checkout", checkoutHandler.Checkout)
		r.Get("/checkout/success", checkoutHandler.Success)
	})

	return otelhttp.NewHandler(r, "storefront")
}
