// Package billing integrates with the billing collaborator that owns
// subscription and usage records.
//
// The package covers three concerns:
//
//   - Client: the two REST calls the gating core consumes, fetching a
//     subscription/usage snapshot and reporting usage increments.
//   - SubscriptionStore: persistence for subscription records, with memory,
//     Redis, and Postgres implementations. Records are mutated only through
//     billing-provider webhooks, never by the evaluator.
//   - StripeProvider: verifies and normalizes Stripe webhook events and
//     applies them to a SubscriptionStore.
//
// Snapshot fetches fail fast with no retry; callers decide how to degrade
// (the gate package substitutes the free-tier default). Usage tracking errors
// always propagate because the increment is a billable side effect the caller
// must know about.
package billing
