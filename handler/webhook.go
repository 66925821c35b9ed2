package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/fineprintai/gatekit/pkg/billing"
)

// Webhook payloads above this size are rejected outright; Stripe events are
// far smaller.
const maxWebhookBody = 1 << 20

// WebhookHandler receives billing-provider webhooks and applies them to the
// subscription store. This is the only write path into subscription records.
type WebhookHandler struct {
	provider *billing.StripeProvider
	store    billing.SubscriptionStore
	log      *slog.Logger
}

// NewWebhookHandler creates a webhook ingress handler.
func NewWebhookHandler(provider *billing.StripeProvider, store billing.SubscriptionStore, log *slog.Logger) *WebhookHandler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &WebhookHandler{provider: provider, store: store, log: log}
}

// ServeHTTP handles POST /billing/webhooks/stripe.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("Stripe-Signature")
	if signature == "" {
		http.Error(w, "missing Stripe-Signature header", http.StatusBadRequest)
		return
	}

	event, err := h.provider.ParseWebhook(payload, signature)
	if err != nil {
		h.log.WarnContext(r.Context(), "webhook rejected", "error", err)
		http.Error(w, "invalid webhook", http.StatusBadRequest)
		return
	}

	if err := h.provider.ApplyEvent(r.Context(), h.store, event); err != nil {
		h.log.ErrorContext(r.Context(), "failed to apply webhook event",
			"event", event.ProviderEvent,
			"account_id", event.AccountID,
			"error", err,
		)
		// Non-2xx makes the provider redeliver later.
		http.Error(w, "failed to process webhook", http.StatusInternalServerError)
		return
	}

	if event.Type != billing.EventIgnored {
		h.log.InfoContext(r.Context(), "webhook applied",
			"event", event.ProviderEvent,
			"account_id", event.AccountID,
		)
	}

	w.WriteHeader(http.StatusOK)
}
