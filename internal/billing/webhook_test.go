package billing

import (
	"testing"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acosmic/acosmibot-api/internal/domain"
	apperrors "github.com/acosmic/acosmibot-api/internal/errors"
)

func TestMapStripeStatus(t *testing.T) {
	tests := []struct {
		status   stripe.SubscriptionStatus
		expected string
	}{
		{stripe.SubscriptionStatusActive, domain.SubscriptionStatusActive},
		{stripe.SubscriptionStatusTrialing, domain.SubscriptionStatusActive},
		{stripe.SubscriptionStatusPastDue, domain.SubscriptionStatusPastDue},
		{stripe.SubscriptionStatusUnpaid, domain.SubscriptionStatusPastDue},
		{stripe.SubscriptionStatusIncomplete, domain.SubscriptionStatusPastDue},
		{stripe.SubscriptionStatusCanceled, domain.SubscriptionStatusCanceled},
		{stripe.SubscriptionStatusIncompleteExpired, domain.SubscriptionStatusCanceled},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, mapStripeStatus(tt.status))
		})
	}
}

func TestMetadataGuildAndTier(t *testing.T) {
	t.Run("full metadata", func(t *testing.T) {
		guildID, tier, err := metadataGuildAndTier(map[string]string{
			"guild_id": "123456789012345678",
			"tier":     domain.TierPremiumPlus,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(123456789012345678), guildID)
		assert.Equal(t, domain.TierPremiumPlus, tier)
	})

	t.Run("tier defaults to premium", func(t *testing.T) {
		_, tier, err := metadataGuildAndTier(map[string]string{"guild_id": "42"})
		require.NoError(t, err)
		assert.Equal(t, domain.TierPremium, tier)
	})

	t.Run("missing guild id", func(t *testing.T) {
		_, _, err := metadataGuildAndTier(map[string]string{"tier": domain.TierPremium})
		assert.Error(t, err)
	})

	t.Run("malformed guild id", func(t *testing.T) {
		_, _, err := metadataGuildAndTier(map[string]string{"guild_id": "not-a-number"})
		assert.Error(t, err)
	})
}

func TestUnixTime(t *testing.T) {
	ts := unixTime(1748808000)
	assert.Equal(t, time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC), ts)
	assert.Equal(t, time.UTC, ts.Location())
}

func TestPriceForTier(t *testing.T) {
	s := &Service{cfg: Config{
		PremiumPriceID:     "price_premium",
		PremiumPlusPriceID: "price_premium_plus",
	}}

	price, err := s.priceForTier(domain.TierPremium)
	require.NoError(t, err)
	assert.Equal(t, "price_premium", price)

	price, err = s.priceForTier(domain.TierPremiumPlus)
	require.NoError(t, err)
	assert.Equal(t, "price_premium_plus", price)

	_, err = s.priceForTier("platinum")
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.TypeValidation, appErr.Type)
}
