package gate

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/fineprintai/gatekit/pkg/billing"
	"github.com/fineprintai/gatekit/pkg/entitlement"
)

// Service manages the entitlement snapshot lifecycle for one account: it
// fetches snapshots from the billing collaborator, serializes concurrent
// refreshes, reports usage increments, and answers gating queries against
// the most recent consistent snapshot.
//
// A fetch failure never surfaces to evaluation paths. The service installs
// the fail-safe free-tier snapshot instead, so the account silently degrades
// to minimum privilege rather than erroring.
type Service struct {
	client    billing.Client
	accountID uuid.UUID
	eval      *entitlement.Evaluator
	fallback  func() *entitlement.Snapshot
	log       *slog.Logger

	current atomic.Pointer[entitlement.Snapshot]
	group   singleflight.Group
}

// NewService creates a gate service for one account.
// Panics if client is nil to fail fast during initialization.
func NewService(client billing.Client, accountID uuid.UUID, opts ...Option) *Service {
	if client == nil {
		panic("gate: billing client is required")
	}

	s := &Service{
		client:    client,
		accountID: accountID,
		eval:      entitlement.MustEvaluator(entitlement.DefaultCatalog),
		fallback:  entitlement.DefaultSnapshot,
		log:       slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Snapshot returns the current snapshot without touching the network.
// Before the first successful refresh it returns the fail-safe default.
func (s *Service) Snapshot() *entitlement.Snapshot {
	if snap := s.current.Load(); snap != nil {
		return snap
	}
	return s.fallback()
}

// Refresh fetches a fresh snapshot from the billing collaborator and
// installs it. Concurrent calls for the same account collapse into a single
// fetch; every waiter observes the same result, so overlapping
// track-then-refresh sequences cannot race stale snapshots past fresh ones.
//
// On fetch failure the fallback snapshot is installed and returned together
// with the error; callers that only need a usable snapshot may ignore it.
func (s *Service) Refresh(ctx context.Context) (*entitlement.Snapshot, error) {
	result, err, _ := s.group.Do(s.accountID.String(), func() (any, error) {
		snap, err := s.client.GetSnapshot(ctx, s.accountID)
		if err != nil {
			return nil, err
		}
		s.current.Store(snap)
		return snap, nil
	})
	if err != nil {
		fallback := s.fallback()
		s.current.Store(fallback)
		s.log.WarnContext(ctx, "billing snapshot fetch failed, degrading to free tier",
			"account_id", s.accountID,
			"error", err,
		)
		return fallback, errors.Join(billing.ErrSnapshotFetch, err)
	}

	return result.(*entitlement.Snapshot), nil
}

// TrackUsage reports a usage increment to the billing collaborator. The
// increment is a billable side effect, so errors always propagate and no
// retry happens here; the caller decides whether to re-invoke.
//
// Tracking does not refresh the snapshot. Call Refresh afterwards (or use
// TrackAndRefresh) to observe the new counters.
func (s *Service) TrackUsage(ctx context.Context, metric entitlement.Metric, quantity int64) error {
	return s.client.TrackUsage(ctx, s.accountID, metric, quantity)
}

// TrackAndRefresh reports a usage increment and then refreshes the snapshot.
// Returns the tracking error unchanged when reporting fails; a refresh
// failure after a successful track degrades to the fallback snapshot and is
// only logged, since the billable side effect already happened.
func (s *Service) TrackAndRefresh(ctx context.Context, metric entitlement.Metric, quantity int64) error {
	if err := s.TrackUsage(ctx, metric, quantity); err != nil {
		return err
	}
	_, _ = s.Refresh(ctx)
	return nil
}

// CanUseFeature reports whether the subscription tier and status unlock a
// feature. Evaluates one consistent snapshot.
func (s *Service) CanUseFeature(f entitlement.Feature) bool {
	return s.eval.CanUseFeature(s.Snapshot(), f)
}

// IsFeatureAvailable reports whether a feature is usable right now,
// including remaining quota for usage-bound features.
func (s *Service) IsFeatureAvailable(f entitlement.Feature) bool {
	return s.eval.IsFeatureAvailable(s.Snapshot(), f)
}

// RemainingUsage returns the quota left for a metric, or
// entitlement.Unlimited.
func (s *Service) RemainingUsage(m entitlement.Metric) int64 {
	return s.eval.RemainingUsage(s.Snapshot(), m)
}

// HasReachedLimit reports whether a metric's quota is exhausted.
func (s *Service) HasReachedLimit(m entitlement.Metric) bool {
	return s.eval.HasReachedLimit(s.Snapshot(), m)
}

// UpgradeRequired suggests the cheapest tier upgrade unlocking a feature.
func (s *Service) UpgradeRequired(f entitlement.Feature) (entitlement.Tier, bool) {
	return s.eval.UpgradeRequired(s.Snapshot(), f)
}
