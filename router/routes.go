package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/nopgate/twocheckout/handler"

	// Import for side-effect registration
	_ "github.com/nopgate/twocheckout/provider/twocheckout"
)

// Handlers groups the handlers mounted by Routes
type Handlers struct {
	IPN       *handler.IPNHandler
	Configure *handler.ConfigureHandler
	Orders    *handler.OrderHandler
}

// Routes registers all application routes
func Routes(r chi.Router, h Handlers) {
	// The IPN endpoint mirrors the plugin route the provider is configured
	// with; it accepts both GET (query string) and POST (form body)
	r.Route("/plugins/payments-twocheckout", func(r chi.Router) {
		r.HandleFunc("/ipn", h.IPN.Handle)
		r.Get("/redirect/{orderID}", h.Orders.Redirect)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/install", h.Configure.Install)
			r.Post("/uninstall", h.Configure.Uninstall)
			r.Get("/configure", h.Configure.GetConfiguration)
			r.Post("/configure", h.Configure.SaveConfiguration)
		})
	})

	// Store-side order endpoints
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.Orders.Create)
		r.Get("/{orderID}", h.Orders.Get)
		r.Get("/{orderID}/notes", h.Orders.Notes)
	})
}
