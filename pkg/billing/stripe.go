package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/fineprintai/gatekit/pkg/entitlement"
)

// EventType represents a normalized billing event type. Provider-specific
// event names are mapped into these before any state changes happen.
type EventType string

const (
	EventSubscriptionCreated  EventType = "subscription_created"
	EventSubscriptionUpdated  EventType = "subscription_updated"
	EventSubscriptionCanceled EventType = "subscription_canceled"
	EventPaymentFailed        EventType = "payment_failed"
	EventIgnored              EventType = "ignored"
)

// WebhookEvent is a normalized webhook event from the billing provider.
type WebhookEvent struct {
	Type               EventType
	ProviderEvent      string
	AccountID          uuid.UUID
	SubscriptionID     string // provider's subscription ID
	CustomerID         string // provider's customer ID
	Tier               entitlement.Tier
	Status             entitlement.SubscriptionStatus
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	TrialEnd           *time.Time
}

// StripeProvider verifies Stripe webhook signatures, normalizes subscription
// events, and applies them to a SubscriptionStore. Subscription records are
// mutated exclusively through this path; the gating core only reads them.
type StripeProvider struct {
	secret     string
	tolerance  time.Duration
	priceTiers map[string]entitlement.Tier
}

// NewStripeProvider creates a Stripe webhook provider. priceTiers maps
// Stripe price IDs to subscription tiers and must cover every paid price.
func NewStripeProvider(cfg StripeConfig, priceTiers map[string]entitlement.Tier) (*StripeProvider, error) {
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = 5 * time.Minute // recommended allowance for clock drift
	}

	return &StripeProvider{
		secret:     cfg.WebhookSecret,
		tolerance:  tolerance,
		priceTiers: priceTiers,
	}, nil
}

// ParseWebhook verifies the signature and normalizes the event.
// Events this package does not act on come back with Type == EventIgnored.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithTolerance(payload, signature, p.secret, p.tolerance)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}

	switch string(event.Type) {
	case "customer.subscription.created":
		return p.normalizeSubscription(&event, EventSubscriptionCreated)
	case "customer.subscription.updated":
		return p.normalizeSubscription(&event, EventSubscriptionUpdated)
	case "customer.subscription.deleted":
		return p.normalizeSubscription(&event, EventSubscriptionCanceled)
	case "invoice.payment_failed":
		return p.normalizeInvoice(&event)
	default:
		return &WebhookEvent{Type: EventIgnored, ProviderEvent: string(event.Type)}, nil
	}
}

// ApplyEvent updates the subscription store from a normalized event.
// Idempotent for repeated deliveries of the same event payload.
func (p *StripeProvider) ApplyEvent(ctx context.Context, store SubscriptionStore, event *WebhookEvent) error {
	switch event.Type {
	case EventIgnored:
		return nil

	case EventSubscriptionCreated:
		now := time.Now().UTC()
		record := &Record{
			AccountID: event.AccountID,
			Subscription: entitlement.Subscription{
				ID:                 uuid.New(),
				Tier:               event.Tier,
				Status:             event.Status,
				CurrentPeriodStart: event.CurrentPeriodStart,
				CurrentPeriodEnd:   event.CurrentPeriodEnd,
				CancelAtPeriodEnd:  event.CancelAtPeriodEnd,
				TrialEnd:           event.TrialEnd,
			},
			ProviderSubID:      event.SubscriptionID,
			ProviderCustomerID: event.CustomerID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := store.Save(ctx, record); err != nil {
			return fmt.Errorf("failed to save subscription: %w", err)
		}
		return nil

	case EventSubscriptionUpdated:
		record, err := p.getOrInit(ctx, store, event)
		if err != nil {
			return err
		}
		record.Subscription.Tier = event.Tier
		record.Subscription.Status = event.Status
		record.Subscription.CurrentPeriodStart = event.CurrentPeriodStart
		record.Subscription.CurrentPeriodEnd = event.CurrentPeriodEnd
		record.Subscription.CancelAtPeriodEnd = event.CancelAtPeriodEnd
		record.Subscription.TrialEnd = event.TrialEnd
		record.ProviderSubID = event.SubscriptionID
		record.ProviderCustomerID = event.CustomerID
		record.UpdatedAt = time.Now().UTC()
		if err := store.Save(ctx, record); err != nil {
			return fmt.Errorf("failed to update subscription: %w", err)
		}
		return nil

	case EventSubscriptionCanceled:
		record, err := store.Get(ctx, event.AccountID)
		if err != nil {
			return fmt.Errorf("subscription not found for account %s: %w", event.AccountID, err)
		}
		record.Subscription.Status = entitlement.StatusCanceled
		record.UpdatedAt = time.Now().UTC()
		if err := store.Save(ctx, record); err != nil {
			return fmt.Errorf("failed to cancel subscription: %w", err)
		}
		return nil

	case EventPaymentFailed:
		record, err := store.Get(ctx, event.AccountID)
		if err != nil {
			if errors.Is(err, ErrSubscriptionNotFound) {
				// Payment failures for unknown accounts are not actionable.
				return nil
			}
			return fmt.Errorf("failed to get subscription: %w", err)
		}
		record.Subscription.Status = entitlement.StatusPastDue
		record.UpdatedAt = time.Now().UTC()
		if err := store.Save(ctx, record); err != nil {
			return fmt.Errorf("failed to mark subscription past due: %w", err)
		}
		return nil
	}

	return errors.Join(ErrUnhandledEvent, fmt.Errorf("event type %q", event.Type))
}

// HandleWebhook is the one-call path used by HTTP handlers: verify, parse,
// and apply in sequence.
func (p *StripeProvider) HandleWebhook(ctx context.Context, store SubscriptionStore, payload []byte, signature string) error {
	event, err := p.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	return p.ApplyEvent(ctx, store, event)
}

func (p *StripeProvider) normalizeSubscription(event *stripe.Event, typ EventType) (*WebhookEvent, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse subscription payload: %w", err)
	}

	accountID, err := accountIDFromMetadata(sub.Metadata)
	if err != nil {
		return nil, err
	}

	tier, err := p.tierFromItems(sub.Items)
	if err != nil {
		return nil, err
	}

	out := &WebhookEvent{
		Type:               typ,
		ProviderEvent:      string(event.Type),
		AccountID:          accountID,
		SubscriptionID:     sub.ID,
		Tier:               tier,
		Status:             mapStripeStatus(sub.Status),
		CurrentPeriodStart: time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.TrialEnd > 0 {
		trialEnd := time.Unix(sub.TrialEnd, 0).UTC()
		out.TrialEnd = &trialEnd
	}
	return out, nil
}

func (p *StripeProvider) normalizeInvoice(event *stripe.Event) (*WebhookEvent, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return nil, fmt.Errorf("failed to parse invoice payload: %w", err)
	}

	// Subscription metadata carries our account ID; invoices without it
	// (one-off charges) are not subscription events.
	if inv.SubscriptionDetails == nil {
		return &WebhookEvent{Type: EventIgnored, ProviderEvent: string(event.Type)}, nil
	}

	accountID, err := accountIDFromMetadata(inv.SubscriptionDetails.Metadata)
	if err != nil {
		return nil, err
	}

	out := &WebhookEvent{
		Type:          EventPaymentFailed,
		ProviderEvent: string(event.Type),
		AccountID:     accountID,
		Status:        entitlement.StatusPastDue,
	}
	if inv.Subscription != nil {
		out.SubscriptionID = inv.Subscription.ID
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	return out, nil
}

func (p *StripeProvider) getOrInit(ctx context.Context, store SubscriptionStore, event *WebhookEvent) (*Record, error) {
	record, err := store.Get(ctx, event.AccountID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	// Stripe does not guarantee event ordering: an update can arrive before
	// the create it follows. Initialize the record instead of dropping it.
	now := time.Now().UTC()
	return &Record{
		AccountID:    event.AccountID,
		Subscription: entitlement.Subscription{ID: uuid.New()},
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (p *StripeProvider) tierFromItems(items *stripe.SubscriptionItemList) (entitlement.Tier, error) {
	if items == nil || len(items.Data) == 0 || items.Data[0].Price == nil {
		return "", errors.Join(ErrUnknownPrice, errors.New("subscription has no price items"))
	}

	priceID := items.Data[0].Price.ID
	tier, ok := p.priceTiers[priceID]
	if !ok {
		return "", errors.Join(ErrUnknownPrice, fmt.Errorf("price %s", priceID))
	}
	return tier, nil
}

func accountIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	raw, ok := metadata["account_id"]
	if !ok || raw == "" {
		return uuid.Nil, ErrMissingAccountID
	}

	accountID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid account ID in webhook metadata: %w", err)
	}
	return accountID, nil
}

// mapStripeStatus maps Stripe subscription statuses to the internal set.
func mapStripeStatus(status stripe.SubscriptionStatus) entitlement.SubscriptionStatus {
	switch status {
	case stripe.SubscriptionStatusActive:
		return entitlement.StatusActive
	case stripe.SubscriptionStatusTrialing:
		return entitlement.StatusTrialing
	case stripe.SubscriptionStatusPastDue, stripe.SubscriptionStatusUnpaid:
		return entitlement.StatusPastDue
	case stripe.SubscriptionStatusCanceled:
		return entitlement.StatusCanceled
	default:
		return entitlement.StatusInactive
	}
}
