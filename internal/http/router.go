package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Tokens             TokenStore
	Cart               *CartHandler
	Checkout           *CheckoutHandler
	Session            *SessionHandler
	Profile            *ProfileHandler
	Product            *ProductHandler
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", cfg.Session.Login)

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(cfg.Tokens))

			// long-lived stream, no timeout or compression
			r.Get("/cart/events", cfg.Cart.Events)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(cfg.RequestTimeout))
				r.Use(middleware.Compress(5))

				r.Delete("/session", cfg.Session.Logout)

				r.Get("/products", cfg.Product.ListProducts)
				r.Get("/products/{product_id}", cfg.Product.GetProduct)

				r.Get("/me", cfg.Profile.Me)
				r.Get("/me/addresses", cfg.Profile.Addresses)

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cfg.Cart.GetCart)
					r.Delete("/", cfg.Cart.ClearCart)
					r.Get("/bill", cfg.Cart.GetBill)
					r.Post("/items", cfg.Cart.AddItem)
					r.Put("/items/{product_id}", cfg.Cart.UpdateQuantity)
					r.Delete("/items/{product_id}", cfg.Cart.RemoveItem)
				})

				r.Route("/checkout", func(r chi.Router) {
					r.Post("/", cfg.Checkout.Start)
					r.Get("/", cfg.Checkout.Get)
					r.Post("/shipping", cfg.Checkout.SubmitShipping)
					r.Post("/summary/confirm", cfg.Checkout.ConfirmSummary)
					r.Post("/payment", cfg.Checkout.SelectPayment)
					r.Post("/payment/bank-transfer/confirm", cfg.Checkout.ConfirmBankTransfer)
					r.Post("/place", cfg.Checkout.PlaceOrder)
					r.Post("/back", cfg.Checkout.Back)
					r.Post("/cancel", cfg.Checkout.Cancel)
				})
			})
		})
	})

	return r
}
