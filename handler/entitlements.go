package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/fineprintai/gatekit/pkg/billing"
	"github.com/fineprintai/gatekit/pkg/entitlement"
)

// EntitlementsHandler serves a read-only summary of an account's gating
// state: tier, status, per-metric usage, and per-feature availability.
// Frontends render upgrade prompts and usage meters from this payload.
type EntitlementsHandler struct {
	client billing.Client
	eval   *entitlement.Evaluator
	log    *slog.Logger
}

// NewEntitlementsHandler creates the summary handler. A nil evaluator
// defaults to the production catalog.
func NewEntitlementsHandler(client billing.Client, eval *entitlement.Evaluator, log *slog.Logger) *EntitlementsHandler {
	if eval == nil {
		eval = entitlement.MustEvaluator(entitlement.DefaultCatalog)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &EntitlementsHandler{client: client, eval: eval, log: log}
}

type usageSummary struct {
	Used      int64 `json:"used"`
	Limit     int64 `json:"limit"`
	Remaining int64 `json:"remaining"`
	Unlimited bool  `json:"unlimited"`
}

type featureSummary struct {
	Enabled   bool              `json:"enabled"`
	Available bool              `json:"available"`
	UpgradeTo *entitlement.Tier `json:"upgradeTo,omitempty"`
}

type entitlementsResponse struct {
	Tier     entitlement.Tier                       `json:"tier"`
	Status   entitlement.SubscriptionStatus         `json:"status"`
	Fallback bool                                   `json:"fallback"`
	Usage    map[entitlement.Metric]usageSummary    `json:"usage"`
	Features map[entitlement.Feature]featureSummary `json:"features"`
}

// ServeHTTP handles GET /billing/entitlements. The account comes from the
// X-Account-ID header set by the authenticating gateway.
func (h *EntitlementsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.Header.Get("X-Account-ID"))
	if err != nil {
		http.Error(w, "missing or invalid X-Account-ID header", http.StatusBadRequest)
		return
	}

	fallback := false
	snap, err := h.client.GetSnapshot(r.Context(), accountID)
	if err != nil {
		// Degrade to minimum privilege instead of surfacing an error.
		h.log.WarnContext(r.Context(), "billing snapshot fetch failed, serving free tier defaults",
			"account_id", accountID,
			"error", err,
		)
		snap = entitlement.DefaultSnapshot()
		fallback = true
	}

	resp := entitlementsResponse{
		Fallback: fallback,
		Usage:    make(map[entitlement.Metric]usageSummary, len(entitlement.Metrics)),
		Features: make(map[entitlement.Feature]featureSummary),
	}
	if snap.Subscription != nil {
		resp.Tier = snap.Subscription.Tier
		resp.Status = snap.Subscription.Status
	}

	for _, metric := range entitlement.Metrics {
		counter := snap.Counter(metric)
		remaining := h.eval.RemainingUsage(snap, metric)
		resp.Usage[metric] = usageSummary{
			Used:      counter.Used,
			Limit:     counter.Limit,
			Remaining: max(remaining, 0),
			Unlimited: counter.Limit == entitlement.Unlimited,
		}
	}

	for _, feature := range h.eval.Catalog().Features() {
		summary := featureSummary{
			Enabled:   h.eval.CanUseFeature(snap, feature),
			Available: h.eval.IsFeatureAvailable(snap, feature),
		}
		if tier, ok := h.eval.UpgradeRequired(snap, feature); ok {
			summary.UpgradeTo = &tier
		}
		resp.Features[feature] = summary
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.ErrorContext(r.Context(), "failed to encode entitlements response", "error", err)
	}
}
