package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fineprintai/gatekit/pkg/entitlement"
)

// Record is a stored subscription for one account, keyed by account ID.
// Each account holds exactly one record at a time.
type Record struct {
	AccountID          uuid.UUID                 `json:"accountId"`
	Subscription       entitlement.Subscription  `json:"subscription"`
	ProviderSubID      string                    `json:"providerSubId"`      // empty for free plans
	ProviderCustomerID string                    `json:"providerCustomerId"` // empty for free plans
	CreatedAt          time.Time                 `json:"createdAt"`
	UpdatedAt          time.Time                 `json:"updatedAt"`
}

// SubscriptionStore defines subscription persistence. AccountID serves as the
// primary key; Save performs an upsert.
type SubscriptionStore interface {
	// Get retrieves a subscription record by account ID.
	// Returns ErrSubscriptionNotFound if no record exists.
	Get(ctx context.Context, accountID uuid.UUID) (*Record, error)

	// Save creates or updates a subscription record.
	Save(ctx context.Context, record *Record) error
}
