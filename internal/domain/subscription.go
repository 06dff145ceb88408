package domain

import "time"

// Stripe-derived subscription statuses stored on the row.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription maps a guild to its Stripe subscription lifecycle.
type Subscription struct {
	ID                   int64
	GuildID              int64
	Tier                 string
	StripeSubscriptionID string
	StripeCustomerID     string
	Status               string
	CurrentPeriodStart   time.Time
	CurrentPeriodEnd     time.Time
	CancelAtPeriodEnd    bool
	CancelAt             *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsActive reports whether the subscription currently grants its tier.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}
