package entitlement

import "slices"

// Tier represents a subscription plan level.
type Tier string

const (
	TierFree         Tier = "free"
	TierStarter      Tier = "starter"
	TierProfessional Tier = "professional"
	TierTeam         Tier = "team"
	TierEnterprise   Tier = "enterprise"
)

// TierOrder lists all tiers from lowest to highest. Upgrade suggestions and
// upward-closure checks iterate this slice, so order matters.
var TierOrder = []Tier{TierFree, TierStarter, TierProfessional, TierTeam, TierEnterprise}

// Rank returns the tier's position in the hierarchy, or -1 for unknown tiers.
func (t Tier) Rank() int {
	return slices.Index(TierOrder, t)
}

// Above reports whether t is strictly higher than other in the hierarchy.
// Unknown tiers rank below every known tier.
func (t Tier) Above(other Tier) bool {
	return t.Rank() > other.Rank()
}

// IsValid reports whether the tier is part of the hierarchy.
func (t Tier) IsValid() bool {
	return t.Rank() >= 0
}

// Feature represents a named capability that may be unlocked for a tier.
type Feature string

const (
	FeatureDocumentAnalysis   Feature = "document_analysis"
	FeatureDocumentMonitoring Feature = "document_monitoring"
	FeatureAPIAccess          Feature = "api_access"
	FeatureAdvancedAnalytics  Feature = "advanced_analytics"
	FeatureTeamCollaboration  Feature = "team_collaboration"
	FeaturePrioritySupport    Feature = "priority_support"
	FeatureDataExport         Feature = "data_export"
	FeatureSSO                Feature = "sso"
	FeatureCustomIntegrations Feature = "custom_integrations"
)

// Metric represents a countable quota dimension. The string values match the
// billing collaborator's JSON keys.
type Metric string

const (
	MetricAnalyses      Metric = "analyses"
	MetricMonitoredDocs Metric = "monitoredDocs"
	MetricAPICalls      Metric = "apiCalls"
	MetricTeamMembers   Metric = "teamMembers"
)

// Metrics lists every quota dimension in the catalog.
var Metrics = []Metric{MetricAnalyses, MetricMonitoredDocs, MetricAPICalls, MetricTeamMembers}

const (
	// Unlimited indicates no limit for a metric (-1 chosen for SQL compatibility).
	Unlimited int64 = -1
)

// Counter holds the current usage and limit for one metric within a billing
// period. The zero value (0/0) denies further use, which keeps missing usage
// data on the conservative side.
type Counter struct {
	Used  int64 `json:"used"`
	Limit int64 `json:"limit"`
}

// Remaining returns the quota left in the period, clamped to >= 0, or
// Unlimited when the limit is unlimited.
func (c Counter) Remaining() int64 {
	if c.Limit == Unlimited {
		return Unlimited
	}
	return max(0, c.Limit-c.Used)
}

// Exhausted reports whether the counter has reached its limit.
// Always false for unlimited counters; boundary Used == Limit counts as reached.
func (c Counter) Exhausted() bool {
	if c.Limit == Unlimited {
		return false
	}
	return c.Used >= c.Limit
}
