package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fineprintai/gatekit/pkg/entitlement"
)

// postgresStore is a Postgres-backed SubscriptionStore using pgx.
// Schema is managed by the embedded goose migrations (see Migrate).
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Postgres-backed SubscriptionStore.
// The pool must outlive the store; the caller owns its lifecycle.
func NewPostgresStore(pool *pgxpool.Pool) SubscriptionStore {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Get(ctx context.Context, accountID uuid.UUID) (*Record, error) {
	const query = `
		SELECT account_id, subscription_id, tier, status,
		       current_period_start, current_period_end, cancel_at_period_end,
		       trial_end, provider_sub_id, provider_customer_id,
		       created_at, updated_at
		FROM billing_subscriptions
		WHERE account_id = $1`

	var (
		record entitlement.Subscription
		out    Record
	)
	err := s.pool.QueryRow(ctx, query, accountID).Scan(
		&out.AccountID,
		&record.ID,
		&record.Tier,
		&record.Status,
		&record.CurrentPeriodStart,
		&record.CurrentPeriodEnd,
		&record.CancelAtPeriodEnd,
		&record.TrialEnd,
		&out.ProviderSubID,
		&out.ProviderCustomerID,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	out.Subscription = record
	return &out, nil
}

func (s *postgresStore) Save(ctx context.Context, record *Record) error {
	const query = `
		INSERT INTO billing_subscriptions (
			account_id, subscription_id, tier, status,
			current_period_start, current_period_end, cancel_at_period_end,
			trial_end, provider_sub_id, provider_customer_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (account_id) DO UPDATE SET
			subscription_id      = EXCLUDED.subscription_id,
			tier                 = EXCLUDED.tier,
			status               = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end   = EXCLUDED.current_period_end,
			cancel_at_period_end = EXCLUDED.cancel_at_period_end,
			trial_end            = EXCLUDED.trial_end,
			provider_sub_id      = EXCLUDED.provider_sub_id,
			provider_customer_id = EXCLUDED.provider_customer_id,
			updated_at           = EXCLUDED.updated_at`

	_, err := s.pool.Exec(ctx, query,
		record.AccountID,
		record.Subscription.ID,
		record.Subscription.Tier,
		record.Subscription.Status,
		record.Subscription.CurrentPeriodStart,
		record.Subscription.CurrentPeriodEnd,
		record.Subscription.CancelAtPeriodEnd,
		record.Subscription.TrialEnd,
		record.ProviderSubID,
		record.ProviderCustomerID,
		record.CreatedAt,
		record.UpdatedAt,
	)
	return err
}
