package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/brand"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/intent"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/leadextract"
)

func TestBuildSystemPromptIncludesBrandFacts(t *testing.T) {
	b := brand.Default()
	prompt := BuildSystemPrompt(b, leadextract.Context{}, intent.IntentOther, false)

	assert.Contains(t, prompt, b.Name)
	assert.Contains(t, prompt, b.CoverageArea)
	for _, tier := range b.PricingTiers {
		assert.Contains(t, prompt, tier.Name)
		assert.Contains(t, prompt, tier.Price)
	}
	assert.Contains(t, prompt, b.ValuationURL)
	assert.Contains(t, prompt, b.SimulatorURL)
	assert.Contains(t, prompt, "CONSENTIMIENTO")
}

func TestBuildSystemPromptCaptureFlowFollowsIntent(t *testing.T) {
	b := brand.Default()

	owner := BuildSystemPrompt(b, leadextract.Context{}, intent.IntentOwnerProspect, false)
	assert.Contains(t, owner, "FLUJO PROPIETARIO")

	tenant := BuildSystemPrompt(b, leadextract.Context{}, intent.IntentTenantProspect, false)
	assert.Contains(t, tenant, "FLUJO INQUILINO")

	company := BuildSystemPrompt(b, leadextract.Context{}, intent.IntentCompany, false)
	assert.Contains(t, company, "FLUJO EMPRESA")

	pricing := BuildSystemPrompt(b, leadextract.Context{}, intent.IntentPricing, false)
	assert.NotContains(t, pricing, "FLUJO PROPIETARIO")
}

func TestBuildSystemPromptOutOfHoursAddendum(t *testing.T) {
	b := brand.Default()

	inHours := BuildSystemPrompt(b, leadextract.Context{}, intent.IntentGreeting, false)
	assert.NotContains(t, inHours, "FUERA DE HORARIO")

	outHours := BuildSystemPrompt(b, leadextract.Context{}, intent.IntentGreeting, true)
	assert.Contains(t, outHours, "FUERA DE HORARIO")
}

func TestBuildSystemPromptSummarizesKnownContext(t *testing.T) {
	b := brand.Default()
	convCtx := leadextract.Context{
		Lead: leadextract.LeadInfo{
			PersonaTipo:  leadextract.PersonaOwner,
			Nombre:       "Ana García",
			Municipio:    "Bilbao",
			M2:           80,
			Habitaciones: 3,
			Consent:      true,
		},
	}
	prompt := BuildSystemPrompt(b, convCtx, intent.IntentOwnerProspect, false)

	assert.Contains(t, prompt, "LO QUE YA SABEMOS")
	assert.Contains(t, prompt, "Ana García")
	assert.Contains(t, prompt, "Bilbao")
	assert.Contains(t, prompt, "80 m2")
	assert.Contains(t, prompt, "Consentimiento de datos: concedido")
}

func TestBuildSystemPromptEmptyContextHasNoSummary(t *testing.T) {
	prompt := BuildSystemPrompt(brand.Default(), leadextract.Context{}, intent.IntentGreeting, false)
	assert.NotContains(t, prompt, "LO QUE YA SABEMOS")
}
