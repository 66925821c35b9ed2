// Package gate combines the pure entitlement evaluator with the billing
// client into a per-account service that owns the snapshot lifecycle.
//
// The service holds one snapshot at a time. Refresh fetches a new one from
// the billing collaborator, collapsing concurrent refreshes for the account
// into a single in-flight fetch. When the collaborator is unreachable the
// service degrades to the free-tier fallback snapshot instead of failing, so
// gating queries always have something consistent to evaluate against.
//
// Usage tracking and snapshot refresh are deliberately separate calls:
//
//	if err := svc.TrackUsage(ctx, entitlement.MetricAnalyses, 1); err != nil {
//	    return err // billable side effect failed; caller decides on retry
//	}
//	snap, _ := svc.Refresh(ctx) // observe the new counters
//
// TrackAndRefresh composes the two for callers that do not need to handle
// them independently.
package gate
