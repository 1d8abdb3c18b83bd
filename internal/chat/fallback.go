package chat

import (
	"fmt"
	"strings"

	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/brand"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/intent"
)

// FallbackReply produces a canned answer for a visitor intent when no language
// model is available. Every reply is self-contained and ends handing the
// conversation to a person.
func FallbackReply(b brand.Config, it intent.Intent) string {
	switch it {
	case intent.IntentGreeting:
		return fmt.Sprintf("¡Hola! Soy el asistente de %s. Puedo ayudarte con el alquiler y la gestión de tu vivienda en %s. ¿Eres propietario, inquilino o nos escribes en nombre de una empresa?", b.Name, b.CoverageArea)
	case intent.IntentPricing:
		var sb strings.Builder
		sb.WriteString("Estas son nuestras tarifas:\n")
		for _, tier := range b.PricingTiers {
			fmt.Fprintf(&sb, "- %s — %s: %s\n", tier.Name, tier.Price, tier.Description)
		}
		fmt.Fprintf(&sb, "Si me dejas un teléfono o email, un asesor te explica cuál encaja mejor con tu caso en menos de %d horas.", b.CallbackWindowHours)
		return sb.String()
	case intent.IntentOwnerProspect:
		return fmt.Sprintf("Gestionamos el alquiler de viviendas en %s de principio a fin: valoración, búsqueda de inquilino, contratos y cobros. Cuéntame en qué zona está tu vivienda y déjame un teléfono o email y un asesor te llama en menos de %d horas.", b.CoverageArea, b.CallbackWindowHours)
	case intent.IntentTenantProspect:
		return fmt.Sprintf("Publicamos todas nuestras viviendas disponibles en %s. Dime qué zona y presupuesto buscas y, si me dejas un contacto, te avisamos cuando haya algo que encaje.", b.Website)
	case intent.IntentCompany:
		return fmt.Sprintf("Trabajamos con empresas que necesitan alojamiento para empleados o gestionar carteras de viviendas en %s. Déjame el nombre de la empresa y un contacto y nuestro equipo comercial te escribe en menos de %d horas.", b.CoverageArea, b.CallbackWindowHours)
	case intent.IntentProcess:
		return fmt.Sprintf("Nuestro proceso es sencillo: valoración gratuita de la vivienda, plan de alquiler, búsqueda y selección de inquilino, firma del contrato y gestión mensual. Puedes empezar con una valoración en %s o dejarme un contacto para que te llamemos.", b.ValuationURL)
	case intent.IntentLegal:
		return fmt.Sprintf("Las dudas legales sobre contratos, fianzas o impagos las resuelve mejor nuestro equipo jurídico. Déjame un teléfono o email y te contactan en menos de %d horas, sin compromiso.", b.CallbackWindowHours)
	case intent.IntentCoverage:
		return fmt.Sprintf("Trabajamos en %s. Si tu vivienda está en otra zona, dímelo igualmente y vemos si podemos ayudarte o recomendarte una alternativa.", b.CoverageArea)
	case intent.IntentSupport:
		return fmt.Sprintf("Para incidencias de viviendas ya gestionadas, llámanos al %s o escríbenos desde tu área de cliente en %s y el equipo de soporte se encarga.", b.ContactPhone, b.Website)
	default:
		return GenericFallbackReply(b)
	}
}

// GenericFallbackReply is the last-resort answer for unclassified messages and
// panics in the pipeline.
func GenericFallbackReply(b brand.Config) string {
	return fmt.Sprintf("Ahora mismo no puedo responderte con detalle, pero no quiero dejarte sin ayuda: déjame tu teléfono o email y un asesor de %s te contacta en menos de %d horas. También puedes llamarnos al %s.", b.Name, b.CallbackWindowHours, b.ContactPhone)
}
