// Package entitlement implements the subscription feature-gating core: a
// pure, table-driven evaluator mapping subscription tier to feature
// availability and remaining quota.
//
// The package has no I/O. All account state arrives as a Snapshot value
// (subscription record plus per-metric usage counters) fetched elsewhere,
// typically through the billing package. Queries never fail: absent or
// partial data degrades to the most conservative answer, so a snapshot that
// could not be loaded evaluates as a free plan with near-zero quota.
//
// Key concepts:
//
//   - Tier: totally ordered plan level (free < starter < professional <
//     team < enterprise)
//   - Feature: a named capability unlocked per tier via the Catalog
//   - Metric: a countable quota dimension (analyses, monitoredDocs,
//     apiCalls, teamMembers)
//   - Snapshot: one consistent view of subscription + usage for an account
//
// Basic usage:
//
//	eval := entitlement.MustEvaluator(entitlement.DefaultCatalog)
//
//	if eval.CanUseFeature(snap, entitlement.FeatureAPIAccess) {
//	    // tier and status allow API access
//	}
//
//	if tier, ok := eval.UpgradeRequired(snap, entitlement.FeatureSSO); ok {
//	    // prompt an upgrade to tier
//	}
//
// For request-scoped plumbing, SetSnapshotToContext attaches one snapshot per
// request so every check in the handler chain sees the same data.
package entitlement
