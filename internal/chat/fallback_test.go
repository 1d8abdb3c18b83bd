package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/brand"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/intent"
)

func TestFallbackReplyPricingListsEveryTier(t *testing.T) {
	b := brand.Default()
	reply := FallbackReply(b, intent.IntentPricing)

	for _, tier := range b.PricingTiers {
		assert.Contains(t, reply, tier.Name)
		assert.Contains(t, reply, tier.Price)
	}
}

func TestFallbackReplyGreetingNamesTheBrand(t *testing.T) {
	b := brand.Default()
	reply := FallbackReply(b, intent.IntentGreeting)
	assert.Contains(t, reply, b.Name)
	assert.Contains(t, reply, b.CoverageArea)
}

func TestFallbackReplyCoversEveryIntent(t *testing.T) {
	b := brand.Default()
	for _, it := range []intent.Intent{
		intent.IntentOwnerProspect, intent.IntentTenantProspect, intent.IntentCompany,
		intent.IntentPricing, intent.IntentProcess, intent.IntentLegal,
		intent.IntentCoverage, intent.IntentSupport, intent.IntentGreeting, intent.IntentOther,
	} {
		reply := FallbackReply(b, it)
		assert.NotEmpty(t, reply, "intent %s", it)
	}
}

func TestGenericFallbackReplyOffersCallback(t *testing.T) {
	b := brand.Default()
	reply := GenericFallbackReply(b)
	assert.Contains(t, reply, b.ContactPhone)
	assert.True(t, strings.Contains(reply, "teléfono") || strings.Contains(reply, "email"))
}
