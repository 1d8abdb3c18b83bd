package chat

import (
	"fmt"
	"strings"

	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/brand"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/intent"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/leadextract"
)

// BuildSystemPrompt assembles the full system instruction for one turn:
// persona and tone, the brand fact sheet, the capture flow for the detected
// intent, the consent rule and a summary of what is already known so the model
// never asks for data the visitor has given.
func BuildSystemPrompt(b brand.Config, convCtx leadextract.Context, it intent.Intent, outsideHours bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Eres el asistente virtual de %s, una gestora de alquileres que opera en %s (%s).\n", b.Name, b.CoverageArea, b.Website)
	sb.WriteString("Hablas siempre en español, en tono cercano y profesional, con respuestas breves (2-4 frases).\n")
	sb.WriteString("Nunca inventes datos: si no sabes algo, ofrece que un asesor contacte al visitante.\n")
	fmt.Fprintf(&sb, "Teléfono de contacto: %s. Compromiso de respuesta: menos de %d horas.\n\n", b.ContactPhone, b.CallbackWindowHours)

	sb.WriteString("TARIFAS (cítalas tal cual, sin modificar precios):\n")
	for _, tier := range b.PricingTiers {
		fmt.Fprintf(&sb, "- %s — %s: %s\n", tier.Name, tier.Price, tier.Description)
	}
	fmt.Fprintf(&sb, "\nHERRAMIENTAS WEB: valoración gratuita en %s, simulador de renta en %s. Recomiéndalas cuando pregunten por el valor de su vivienda o la renta esperable.\n\n", b.ValuationURL, b.SimulatorURL)

	sb.WriteString(captureFlow(it))

	sb.WriteString("\nCONSENTIMIENTO: antes de registrar los datos del visitante debe aceptar expresamente el tratamiento de sus datos. ")
	sb.WriteString("Cuando tengas un contacto (teléfono o email) y aún no haya aceptado, pídele confirmación explícita (por ejemplo: \"¿Me das tu consentimiento para tratar estos datos y que un asesor te contacte?\"). No registres nada sin ese sí.\n")

	if outsideHours {
		sb.WriteString("\nAHORA MISMO ES FUERA DE HORARIO DE OFICINA (lunes a viernes). Indícalo con naturalidad y ofrece recoger los datos para que un asesor llame al siguiente día laborable.\n")
	}

	if known := knownContext(convCtx); known != "" {
		sb.WriteString("\nLO QUE YA SABEMOS DEL VISITANTE (no vuelvas a preguntarlo):\n")
		sb.WriteString(known)
	}

	return sb.String()
}

// captureFlow returns the ordered data-capture guidance for the three
// prospect flows. Informational intents get a lighter instruction.
func captureFlow(it intent.Intent) string {
	switch it {
	case intent.IntentOwnerProspect:
		return "FLUJO PROPIETARIO: el visitante tiene una vivienda para alquilar. Recoge, en este orden y de forma conversacional (una o dos preguntas por mensaje): municipio y barrio, metros cuadrados y habitaciones, estado de la vivienda, fecha en que estará disponible, servicio que le interesa, y por último nombre y un teléfono o email.\n"
	case intent.IntentTenantProspect:
		return "FLUJO INQUILINO: el visitante busca piso. Recoge: zona deseada, presupuesto mensual, fecha de entrada, y nombre con teléfono o email para avisarle de viviendas disponibles.\n"
	case intent.IntentCompany:
		return "FLUJO EMPRESA: el visitante representa a una empresa. Recoge: nombre de la empresa, necesidad (alojamiento de empleados, gestión de cartera), zona, volumen aproximado, y persona de contacto con teléfono o email.\n"
	default:
		return "CAPTACIÓN: responde primero a su pregunta con los datos de arriba. Después, si encaja, pregunta si es propietario, inquilino o empresa y ofrece que un asesor le contacte.\n"
	}
}

func knownContext(convCtx leadextract.Context) string {
	lead := convCtx.Lead
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", label, value))
		}
	}
	add("Tipo de visitante", lead.PersonaTipo)
	add("Nombre", lead.Nombre)
	add("Teléfono", lead.Telefono)
	add("Email", lead.Email)
	add("Municipio", lead.Municipio)
	add("Barrio", lead.Barrio)
	if lead.M2 > 0 {
		add("Superficie", fmt.Sprintf("%d m2", lead.M2))
	}
	if lead.Habitaciones > 0 {
		add("Habitaciones", fmt.Sprintf("%d", lead.Habitaciones))
	}
	add("Estado de la vivienda", lead.EstadoVivienda)
	add("Fecha disponible", lead.FechaDisponible)
	if lead.PresupuestoRenta > 0 {
		add("Presupuesto", fmt.Sprintf("%d €/mes", lead.PresupuestoRenta))
	}
	add("Urgencia", lead.Urgencia)
	add("Servicio de interés", lead.ServicioInteres)
	add("Canal preferido", lead.CanalPreferido)
	add("Franja horaria", lead.FranjaHoraria)
	if lead.Consent {
		lines = append(lines, "- Consentimiento de datos: concedido")
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
