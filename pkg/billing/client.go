package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fineprintai/gatekit/pkg/entitlement"
)

// Client defines the billing collaborator's surface as seen by the gating
// core: one snapshot read and one usage write.
type Client interface {
	// GetSnapshot fetches the account's subscription and usage counters.
	GetSnapshot(ctx context.Context, accountID uuid.UUID) (*entitlement.Snapshot, error)

	// TrackUsage reports a usage increment. Fire-and-forget from the
	// evaluator's viewpoint; errors propagate to the caller with no retry.
	TrackUsage(ctx context.Context, accountID uuid.UUID, metric entitlement.Metric, quantity int64) error
}

// HTTPClient implements Client over the collaborator's REST API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client, e.g. for custom
// transports or testing.
func WithHTTPClient(c *http.Client) HTTPClientOption {
	return func(h *HTTPClient) {
		if c != nil {
			h.client = c
		}
	}
}

// NewHTTPClient creates an HTTP billing client from config.
func NewHTTPClient(cfg Config, opts ...HTTPClientOption) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	h := &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// snapshotResponse mirrors GET /billing/subscription.
type snapshotResponse struct {
	Subscription *entitlement.Subscription                  `json:"subscription"`
	Usage        map[entitlement.Metric]entitlement.Counter `json:"usage"`
}

// trackRequest mirrors POST /billing/usage/track.
type trackRequest struct {
	Metric   entitlement.Metric `json:"metric"`
	Quantity int64              `json:"quantity"`
}

// GetSnapshot fetches the account's subscription and usage counters.
func (h *HTTPClient) GetSnapshot(ctx context.Context, accountID uuid.UUID) (*entitlement.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/billing/subscription", nil)
	if err != nil {
		return nil, errors.Join(ErrSnapshotFetch, err)
	}
	h.setHeaders(req, accountID)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, errors.Join(ErrSnapshotFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Join(ErrSnapshotFetch, ErrUnexpectedStatus,
			fmt.Errorf("GET /billing/subscription returned %d", resp.StatusCode))
	}

	var body snapshotResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Join(ErrSnapshotFetch, ErrMalformedResponse, err)
	}

	return &entitlement.Snapshot{
		Subscription: body.Subscription,
		Usage:        body.Usage,
	}, nil
}

// TrackUsage reports a usage increment to the billing collaborator.
func (h *HTTPClient) TrackUsage(ctx context.Context, accountID uuid.UUID, metric entitlement.Metric, quantity int64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	payload, err := json.Marshal(trackRequest{Metric: metric, Quantity: quantity})
	if err != nil {
		return errors.Join(ErrUsageTracking, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/billing/usage/track", bytes.NewReader(payload))
	if err != nil {
		return errors.Join(ErrUsageTracking, err)
	}
	req.Header.Set("Content-Type", "application/json")
	h.setHeaders(req, accountID)

	resp, err := h.client.Do(req)
	if err != nil {
		return errors.Join(ErrUsageTracking, err)
	}
	defer resp.Body.Close()

	// Drain the body so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Join(ErrUsageTracking, ErrUnexpectedStatus,
			fmt.Errorf("POST /billing/usage/track returned %d", resp.StatusCode))
	}

	return nil
}

func (h *HTTPClient) setHeaders(req *http.Request, accountID uuid.UUID) {
	req.Header.Set("X-Account-ID", accountID.String())
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}
}
