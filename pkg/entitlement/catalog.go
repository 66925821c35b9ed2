package entitlement

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Catalog maps each feature to the set of tiers for which it is unlocked.
// Catalogs are built at startup and treated as immutable afterwards; the
// evaluator performs lookups only.
type Catalog map[Feature][]Tier

// DefaultCatalog is the production feature availability table. Every feature
// set is upward-closed: a feature unlocked at tier T is unlocked at every
// higher tier.
var DefaultCatalog = Catalog{
	FeatureDocumentAnalysis:   {TierFree, TierStarter, TierProfessional, TierTeam, TierEnterprise},
	FeatureDocumentMonitoring: {TierStarter, TierProfessional, TierTeam, TierEnterprise},
	FeatureDataExport:         {TierStarter, TierProfessional, TierTeam, TierEnterprise},
	FeatureAPIAccess:          {TierProfessional, TierTeam, TierEnterprise},
	FeatureAdvancedAnalytics:  {TierProfessional, TierTeam, TierEnterprise},
	FeaturePrioritySupport:    {TierProfessional, TierTeam, TierEnterprise},
	FeatureTeamCollaboration:  {TierTeam, TierEnterprise},
	FeatureSSO:                {TierEnterprise},
	FeatureCustomIntegrations: {TierEnterprise},
}

// usageBound maps features whose availability also depends on remaining quota
// to the metric that governs them. Features absent from this map are gated on
// tier membership alone.
var usageBound = map[Feature]Metric{
	FeatureDocumentAnalysis:   MetricAnalyses,
	FeatureDocumentMonitoring: MetricMonitoredDocs,
	FeatureAPIAccess:          MetricAPICalls,
}

// UsageMetricFor returns the metric governing a usage-bound feature,
// or false if the feature is gated on tier membership alone.
func UsageMetricFor(f Feature) (Metric, bool) {
	m, ok := usageBound[f]
	return m, ok
}

// Includes reports whether the feature is unlocked for the given tier.
func (c Catalog) Includes(f Feature, t Tier) bool {
	return slices.Contains(c[f], t)
}

// Features returns all features in the catalog in unspecified order.
func (c Catalog) Features() []Feature {
	return slices.Collect(maps.Keys(c))
}

// Validate checks catalog invariants: every feature maps to a non-empty set
// of known tiers, and each set is upward-closed in the tier hierarchy.
func (c Catalog) Validate() error {
	for f, tiers := range c {
		if len(tiers) == 0 {
			return errors.Join(ErrInvalidCatalog,
				fmt.Errorf("feature %s maps to an empty tier set", f))
		}

		lowest := -1
		for _, t := range tiers {
			rank := t.Rank()
			if rank < 0 {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("feature %s references unknown tier %q", f, t))
			}
			if lowest < 0 || rank < lowest {
				lowest = rank
			}
		}

		// Upward closure: everything at or above the lowest unlocked tier
		// must also be in the set, otherwise upgrade suggestions break.
		for rank := lowest; rank < len(TierOrder); rank++ {
			if !slices.Contains(tiers, TierOrder[rank]) {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("feature %s is not upward-closed: missing tier %s", f, TierOrder[rank]))
			}
		}
	}
	return nil
}
