package handler_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"github.com/fineprintai/gatekit/handler"
	"github.com/fineprintai/gatekit/pkg/billing"
	"github.com/fineprintai/gatekit/pkg/entitlement"
)

type stubClient struct {
	snap *entitlement.Snapshot
	err  error
}

func (c *stubClient) GetSnapshot(ctx context.Context, accountID uuid.UUID) (*entitlement.Snapshot, error) {
	return c.snap, c.err
}

func (c *stubClient) TrackUsage(ctx context.Context, accountID uuid.UUID, metric entitlement.Metric, quantity int64) error {
	return nil
}

func mountRouter(t *testing.T, opts handler.RouterOptions) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	r.Mount("/billing", handler.Router(opts))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestEntitlementsHandler(t *testing.T) {
	t.Parallel()

	t.Run("summarizes the snapshot", func(t *testing.T) {
		t.Parallel()

		client := &stubClient{
			snap: &entitlement.Snapshot{
				Subscription: &entitlement.Subscription{
					ID:     uuid.New(),
					Tier:   entitlement.TierStarter,
					Status: entitlement.StatusActive,
				},
				Usage: map[entitlement.Metric]entitlement.Counter{
					entitlement.MetricAnalyses:      {Used: 2, Limit: 20},
					entitlement.MetricMonitoredDocs: {Used: 5, Limit: 5},
					entitlement.MetricAPICalls:      {Used: 0, Limit: 0},
					entitlement.MetricTeamMembers:   {Used: 1, Limit: 1},
				},
			},
		}

		srv := mountRouter(t, handler.RouterOptions{
			Entitlements: handler.NewEntitlementsHandler(client, nil, nil),
		})

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/billing/entitlements", nil)
		require.NoError(t, err)
		req.Header.Set("X-Account-ID", uuid.NewString())

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Tier     string `json:"tier"`
			Status   string `json:"status"`
			Fallback bool   `json:"fallback"`
			Usage    map[string]struct {
				Used      int64 `json:"used"`
				Remaining int64 `json:"remaining"`
			} `json:"usage"`
			Features map[string]struct {
				Enabled   bool    `json:"enabled"`
				Available bool    `json:"available"`
				UpgradeTo *string `json:"upgradeTo"`
			} `json:"features"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

		assert.Equal(t, "starter", body.Tier)
		assert.Equal(t, "active", body.Status)
		assert.False(t, body.Fallback)
		assert.EqualValues(t, 18, body.Usage["analyses"].Remaining)
		assert.EqualValues(t, 0, body.Usage["monitoredDocs"].Remaining)

		assert.True(t, body.Features["document_analysis"].Enabled)
		assert.False(t, body.Features["api_access"].Enabled)
		require.NotNil(t, body.Features["api_access"].UpgradeTo)
		assert.Equal(t, "professional", *body.Features["api_access"].UpgradeTo)
	})

	t.Run("degrades to free tier defaults on fetch failure", func(t *testing.T) {
		t.Parallel()

		client := &stubClient{err: errors.New("billing unreachable")}
		srv := mountRouter(t, handler.RouterOptions{
			Entitlements: handler.NewEntitlementsHandler(client, nil, nil),
		})

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/billing/entitlements", nil)
		require.NoError(t, err)
		req.Header.Set("X-Account-ID", uuid.NewString())

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Tier     string `json:"tier"`
			Fallback bool   `json:"fallback"`
			Usage    map[string]struct {
				Remaining int64 `json:"remaining"`
			} `json:"usage"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

		assert.Equal(t, "free", body.Tier)
		assert.True(t, body.Fallback)
		assert.EqualValues(t, 3, body.Usage["analyses"].Remaining)
	})

	t.Run("rejects requests without an account", func(t *testing.T) {
		t.Parallel()

		srv := mountRouter(t, handler.RouterOptions{
			Entitlements: handler.NewEntitlementsHandler(&stubClient{}, nil, nil),
		})

		resp, err := http.Get(srv.URL + "/billing/entitlements")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

const webhookSecret = "whsec_handler_test"

func signedWebhook(t *testing.T, accountID uuid.UUID) (payload []byte, signature string) {
	t.Helper()

	payload = fmt.Appendf(nil, `{
		"id": "evt_1",
		"object": "event",
		"api_version": %q,
		"type": "customer.subscription.created",
		"data": {
			"object": {
				"id": "sub_1",
				"object": "subscription",
				"status": "active",
				"customer": "cus_1",
				"current_period_start": 1754006400,
				"current_period_end": 1756684800,
				"metadata": {"account_id": %q},
				"items": {"object": "list", "data": [{"id": "si_1", "price": {"id": "price_team"}}]}
			}
		}
	}`, stripe.APIVersion, accountID)

	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	signature = fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
	return payload, signature
}

func TestWebhookHandler(t *testing.T) {
	t.Parallel()

	newServer := func(t *testing.T, store billing.SubscriptionStore) *httptest.Server {
		provider, err := billing.NewStripeProvider(
			billing.StripeConfig{WebhookSecret: webhookSecret},
			map[string]entitlement.Tier{"price_team": entitlement.TierTeam},
		)
		require.NoError(t, err)

		return mountRouter(t, handler.RouterOptions{
			Webhook: handler.NewWebhookHandler(provider, store, nil),
		})
	}

	t.Run("applies verified events", func(t *testing.T) {
		t.Parallel()

		store := billing.NewMemoryStore()
		srv := newServer(t, store)
		accountID := uuid.New()

		payload, signature := signedWebhook(t, accountID)
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/billing/webhooks/stripe", strings.NewReader(string(payload)))
		require.NoError(t, err)
		req.Header.Set("Stripe-Signature", signature)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		record, err := store.Get(context.Background(), accountID)
		require.NoError(t, err)
		assert.Equal(t, entitlement.TierTeam, record.Subscription.Tier)
		assert.Equal(t, entitlement.StatusActive, record.Subscription.Status)
	})

	t.Run("rejects unsigned requests", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, billing.NewMemoryStore())

		payload, _ := signedWebhook(t, uuid.New())
		resp, err := http.Post(srv.URL+"/billing/webhooks/stripe", "application/json", strings.NewReader(string(payload)))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects tampered payloads", func(t *testing.T) {
		t.Parallel()

		srv := newServer(t, billing.NewMemoryStore())

		payload, signature := signedWebhook(t, uuid.New())
		tampered := strings.Replace(string(payload), "price_team", "price_enterprise", 1)

		req, err := http.NewRequest(http.MethodPost, srv.URL+"/billing/webhooks/stripe", strings.NewReader(tampered))
		require.NoError(t, err)
		req.Header.Set("Stripe-Signature", signature)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
