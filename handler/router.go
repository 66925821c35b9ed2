package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouterOptions configures which handlers to mount. Each handler is optional
// and only mounted if provided.
type RouterOptions struct {
	Webhook      http.Handler
	Entitlements http.Handler
}

// Router mounts the billing HTTP surface.
//
// Example:
//
//	r := chi.NewRouter()
//	r.Mount("/billing", handler.Router(handler.RouterOptions{
//	    Webhook:      handler.NewWebhookHandler(provider, store, log),
//	    Entitlements: handler.NewEntitlementsHandler(client, nil, log),
//	}))
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	if opts.Webhook != nil {
		r.Method(http.MethodPost, "/webhooks/stripe", opts.Webhook)
	}
	if opts.Entitlements != nil {
		r.Method(http.MethodGet, "/entitlements", opts.Entitlements)
	}

	return r
}
