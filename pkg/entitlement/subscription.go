package entitlement

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the current state of a subscription.
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusTrialing SubscriptionStatus = "trialing"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusInactive SubscriptionStatus = "inactive"
)

// Subscription is a read-only snapshot of an account's subscription record.
// It is owned by the billing collaborator and mutated only through its
// webhooks; the evaluator just computes derived booleans from it.
type Subscription struct {
	ID                 uuid.UUID          `json:"id"`
	Tier               Tier               `json:"tier"`
	Status             SubscriptionStatus `json:"status"`
	CurrentPeriodStart time.Time          `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time          `json:"currentPeriodEnd"`
	CancelAtPeriodEnd  bool               `json:"cancelAtPeriodEnd"`
	TrialEnd           *time.Time         `json:"trialEnd,omitempty"`
}

// IsActive returns true if the subscription is active (paid).
func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive
}

// IsTrialing returns true if the subscription is in trial status.
func (s *Subscription) IsTrialing() bool {
	return s.Status == StatusTrialing
}

// IsEligible reports whether the subscription status permits feature use.
// Only active and trialing subscriptions qualify.
func (s *Subscription) IsEligible() bool {
	return s.Status == StatusActive || s.Status == StatusTrialing
}

// TrialDaysRemainingAt returns the number of days remaining in the trial at a
// given time. Returns 0 if not in trial or the trial has expired.
// Useful for testing with fixed time values.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if !s.IsTrialing() || s.TrialEnd == nil {
		return 0
	}

	remaining := s.TrialEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}

	// Round up partial days to be user-friendly
	days := remaining.Hours() / 24
	return int(days + 0.5)
}

// TrialDaysRemaining returns the number of days remaining in the trial.
func (s *Subscription) TrialDaysRemaining() int {
	return s.TrialDaysRemainingAt(time.Now().UTC())
}
