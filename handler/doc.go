// Package handler exposes the billing HTTP surface: the Stripe webhook
// ingress that maintains subscription records, and the read-only
// entitlements endpoint that frontends use to render feature availability
// and usage meters.
//
// Handlers are plain http.Handler implementations wired together with
// Router so services can mount the whole surface under one prefix:
//
//	r := chi.NewRouter()
//	r.Mount("/billing", handler.Router(handler.RouterOptions{
//	    Webhook:      handler.NewWebhookHandler(provider, store, log),
//	    Entitlements: handler.NewEntitlementsHandler(client, nil, log),
//	}))
//
// The entitlements endpoint identifies accounts by the X-Account-ID header,
// which the authenticating gateway is expected to set. It never fails open
// on billing outages: when the snapshot fetch fails it serves free tier
// defaults and marks the response with "fallback": true.
package handler
