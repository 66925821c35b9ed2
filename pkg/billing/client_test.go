package billing_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fineprintai/gatekit/pkg/billing"
	"github.com/fineprintai/gatekit/pkg/entitlement"
)

func TestHTTPClient_GetSnapshot(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()

	t.Run("decodes the collaborator response", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/billing/subscription", r.URL.Path)
			assert.Equal(t, accountID.String(), r.Header.Get("X-Account-ID"))
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"subscription": {
					"id": "` + uuid.NewString() + `",
					"tier": "starter",
					"status": "active",
					"currentPeriodStart": "2026-08-01T00:00:00Z",
					"currentPeriodEnd": "2026-09-01T00:00:00Z",
					"cancelAtPeriodEnd": false
				},
				"usage": {
					"analyses": {"used": 2, "limit": 20},
					"monitoredDocs": {"used": 1, "limit": 5},
					"apiCalls": {"used": 0, "limit": 0},
					"teamMembers": {"used": 1, "limit": 1}
				}
			}`))
		}))
		defer srv.Close()

		client, err := billing.NewHTTPClient(billing.Config{BaseURL: srv.URL, APIKey: "test-key"})
		require.NoError(t, err)

		snap, err := client.GetSnapshot(context.Background(), accountID)
		require.NoError(t, err)
		require.NotNil(t, snap.Subscription)

		assert.Equal(t, entitlement.TierStarter, snap.Subscription.Tier)
		assert.Equal(t, entitlement.StatusActive, snap.Subscription.Status)
		assert.EqualValues(t, 18, snap.Counter(entitlement.MetricAnalyses).Remaining())
		assert.EqualValues(t, 4, snap.Counter(entitlement.MetricMonitoredDocs).Remaining())
	})

	t.Run("fails fast on server error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client, err := billing.NewHTTPClient(billing.Config{BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = client.GetSnapshot(context.Background(), accountID)
		require.Error(t, err)
		assert.ErrorIs(t, err, billing.ErrSnapshotFetch)
		assert.ErrorIs(t, err, billing.ErrUnexpectedStatus)
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"subscription": [`))
		}))
		defer srv.Close()

		client, err := billing.NewHTTPClient(billing.Config{BaseURL: srv.URL})
		require.NoError(t, err)

		_, err = client.GetSnapshot(context.Background(), accountID)
		assert.ErrorIs(t, err, billing.ErrMalformedResponse)
	})
}

func TestHTTPClient_TrackUsage(t *testing.T) {
	t.Parallel()

	accountID := uuid.New()

	t.Run("posts the increment", func(t *testing.T) {
		t.Parallel()

		var got struct {
			Metric   string `json:"metric"`
			Quantity int64  `json:"quantity"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/billing/usage/track", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusAccepted)
		}))
		defer srv.Close()

		client, err := billing.NewHTTPClient(billing.Config{BaseURL: srv.URL})
		require.NoError(t, err)

		err = client.TrackUsage(context.Background(), accountID, entitlement.MetricAnalyses, 1)
		require.NoError(t, err)
		assert.Equal(t, "analyses", got.Metric)
		assert.EqualValues(t, 1, got.Quantity)
	})

	t.Run("propagates server failures", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client, err := billing.NewHTTPClient(billing.Config{BaseURL: srv.URL})
		require.NoError(t, err)

		err = client.TrackUsage(context.Background(), accountID, entitlement.MetricAPICalls, 2)
		assert.ErrorIs(t, err, billing.ErrUsageTracking)
	})

	t.Run("rejects non positive quantities", func(t *testing.T) {
		t.Parallel()

		client, err := billing.NewHTTPClient(billing.Config{BaseURL: "http://localhost:0"})
		require.NoError(t, err)

		assert.ErrorIs(t, client.TrackUsage(context.Background(), accountID, entitlement.MetricAnalyses, 0), billing.ErrInvalidQuantity)
		assert.ErrorIs(t, client.TrackUsage(context.Background(), accountID, entitlement.MetricAnalyses, -3), billing.ErrInvalidQuantity)
	})
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	_, err := billing.NewHTTPClient(billing.Config{})
	assert.ErrorIs(t, err, billing.ErrMissingBaseURL)
}
