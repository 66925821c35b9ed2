package billing

import "errors"

var (
	ErrInvalidConfig       = errors.New("invalid billing configuration")
	ErrMissingBaseURL      = errors.New("billing base URL is required")
	ErrSnapshotFetch       = errors.New("failed to fetch billing snapshot")
	ErrUsageTracking       = errors.New("failed to track usage")
	ErrUnexpectedStatus    = errors.New("unexpected billing response status")
	ErrMalformedResponse   = errors.New("malformed billing response")
	ErrInvalidQuantity     = errors.New("usage quantity must be positive")
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// Stripe provider errors
	ErrMissingWebhookSecret      = errors.New("stripe webhook secret is required")
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrUnhandledEvent            = errors.New("unhandled webhook event type")
	ErrMissingAccountID          = errors.New("account ID missing from webhook metadata")
	ErrUnknownPrice              = errors.New("no tier mapping for stripe price")

	ErrFailedToApplyMigrations = errors.New("failed to apply billing migrations")
)
