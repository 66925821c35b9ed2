package entitlement

import "maps"

// Snapshot is a point-in-time view of an account's subscription and usage
// counters. Evaluator queries are pure functions over one snapshot, so
// repeated calls within a request see consistent data as long as the caller
// holds on to a single snapshot value rather than re-fetching between calls.
type Snapshot struct {
	Subscription *Subscription
	Usage        map[Metric]Counter
}

// Counter returns the usage counter for a metric. A missing counter comes
// back as the zero value, which denies further use.
func (s *Snapshot) Counter(m Metric) Counter {
	if s == nil || s.Usage == nil {
		return Counter{}
	}
	return s.Usage[m]
}

// HasUsage reports whether usage data was loaded into the snapshot.
func (s *Snapshot) HasUsage() bool {
	return s != nil && s.Usage != nil
}

// Clone returns a deep copy of the snapshot. Useful when callers need to
// hold a snapshot across a refresh boundary.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	clone := &Snapshot{Usage: maps.Clone(s.Usage)}
	if s.Subscription != nil {
		sub := *s.Subscription
		clone.Subscription = &sub
	}
	return clone
}

// DefaultSnapshot returns the fail-safe snapshot substituted when the billing
// collaborator cannot be reached: a free-tier subscription with the minimal
// free quota. Degrading to minimum privilege beats surfacing an error dialog.
func DefaultSnapshot() *Snapshot {
	return &Snapshot{
		Subscription: &Subscription{
			Tier:   TierFree,
			Status: StatusActive,
		},
		Usage: map[Metric]Counter{
			MetricAnalyses:      {Used: 0, Limit: 3},
			MetricMonitoredDocs: {Used: 0, Limit: 0},
			MetricAPICalls:      {Used: 0, Limit: 0},
			MetricTeamMembers:   {Used: 0, Limit: 0},
		},
	}
}
