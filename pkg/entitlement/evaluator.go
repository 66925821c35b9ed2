package entitlement

// Evaluator answers feature-gating questions over a snapshot. It holds only
// the immutable catalog; all account state arrives through the Snapshot
// argument, so a single Evaluator is safe for concurrent use across requests.
//
// Every query degrades to the most conservative (denying) answer when data is
// missing. None of the methods perform I/O or panic.
type Evaluator struct {
	catalog Catalog
}

// NewEvaluator creates an Evaluator for the given catalog.
// Returns ErrInvalidCatalog if the catalog violates its invariants.
func NewEvaluator(catalog Catalog) (*Evaluator, error) {
	if catalog == nil {
		catalog = DefaultCatalog
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{catalog: catalog}, nil
}

// MustEvaluator is like NewEvaluator but panics on an invalid catalog.
// Intended for package-level initialization with compile-time catalogs.
func MustEvaluator(catalog Catalog) *Evaluator {
	e, err := NewEvaluator(catalog)
	if err != nil {
		panic(err)
	}
	return e
}

// Catalog returns the evaluator's feature availability table.
func (e *Evaluator) Catalog() Catalog {
	return e.catalog
}

// CanUseFeature reports whether the account's subscription unlocks a feature.
// False when no subscription is loaded, when the subscription status is not
// active or trialing, or when the tier is outside the feature's tier set.
func (e *Evaluator) CanUseFeature(snap *Snapshot, f Feature) bool {
	if snap == nil || snap.Subscription == nil {
		return false
	}
	if !snap.Subscription.IsEligible() {
		return false
	}
	return e.catalog.Includes(f, snap.Subscription.Tier)
}

// IsFeatureAvailable reports whether a feature is usable right now. For
// usage-bound features the governing counter must have quota remaining (or be
// unlimited) on top of tier membership; other features need tier membership
// alone.
//
// Unlike CanUseFeature this check deliberately skips the subscription status
// gate, matching the production behavior of the billing UI. A past_due
// account can therefore still draw down quota-limited features until its
// counters run out. Flagged with product; do not fold the status check in
// here without their sign-off.
func (e *Evaluator) IsFeatureAvailable(snap *Snapshot, f Feature) bool {
	if snap == nil || snap.Subscription == nil {
		return false
	}
	if !e.catalog.Includes(f, snap.Subscription.Tier) {
		return false
	}

	metric, bound := usageBound[f]
	if !bound {
		return true
	}

	remaining := snap.Counter(metric).Remaining()
	return remaining == Unlimited || remaining > 0
}

// RemainingUsage returns the quota left for a metric in the current billing
// period, or Unlimited. Returns 0 when no usage snapshot is loaded.
func (e *Evaluator) RemainingUsage(snap *Snapshot, m Metric) int64 {
	if !snap.HasUsage() {
		return 0
	}
	return snap.Counter(m).Remaining()
}

// HasReachedLimit reports whether the metric's quota is exhausted.
// False for unlimited counters; true at the used == limit boundary. A missing
// counter reads as 0/0 and therefore as reached.
func (e *Evaluator) HasReachedLimit(snap *Snapshot, m Metric) bool {
	return snap.Counter(m).Exhausted()
}

// UpgradeRequired suggests the cheapest tier upgrade that would unlock a
// feature. Returns ok=false when the feature is already usable or when no
// higher tier carries it. With no subscription loaded it suggests the lowest
// paid tier as a default.
func (e *Evaluator) UpgradeRequired(snap *Snapshot, f Feature) (Tier, bool) {
	if snap == nil || snap.Subscription == nil {
		return TierStarter, true
	}
	if e.CanUseFeature(snap, f) {
		return "", false
	}

	current := snap.Subscription.Tier.Rank()
	for rank := current + 1; rank < len(TierOrder); rank++ {
		if e.catalog.Includes(f, TierOrder[rank]) {
			return TierOrder[rank], true
		}
	}
	return "", false
}
