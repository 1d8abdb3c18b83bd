// Package intent classifies visitor messages into a closed category set using
// deterministic keyword matching. No I/O, no statistics.
package intent

import "strings"

// Intent is a closed-set category describing what a visitor message is about.
type Intent string

const (
	IntentOwnerProspect  Intent = "owner-prospect"
	IntentTenantProspect Intent = "tenant-prospect"
	IntentCompany        Intent = "company"
	IntentPricing        Intent = "pricing"
	IntentProcess        Intent = "process"
	IntentLegal          Intent = "legal-faq"
	IntentCoverage       Intent = "coverage"
	IntentSupport        Intent = "support"
	IntentGreeting       Intent = "greeting"
	IntentOther          Intent = "other"
)

// Valid reports whether s names a known intent category.
func Valid(s string) bool {
	switch Intent(s) {
	case IntentOwnerProspect, IntentTenantProspect, IntentCompany, IntentPricing,
		IntentProcess, IntentLegal, IntentCoverage, IntentSupport, IntentGreeting, IntentOther:
		return true
	}
	return false
}

// rule pairs a keyword group with its category. Rules are evaluated in order
// and the first match wins: owner-prospect outranks tenant-prospect so that
// phrases like "tengo un piso para alquilar" resolve to the owner side.
type rule struct {
	category Intent
	keywords []string
}

var rules = []rule{
	{IntentOwnerProspect, []string{
		"propietario", "propietaria", "tengo un piso", "tengo una vivienda",
		"tengo una casa", "tengo un local", "mi piso", "mi vivienda", "mi casa",
		"alquilar mi", "poner en alquiler", "rentabilizar", "dueño", "dueña",
	}},
	{IntentTenantProspect, []string{
		"inquilino", "inquilina", "busco piso", "busco vivienda", "busco casa",
		"busco habitación", "busco habitacion", "quiero alquilar un",
		"quiero alquilar una", "estoy buscando piso", "estoy buscando vivienda",
		"piso en alquiler", "vivienda en alquiler",
	}},
	{IntentCompany, []string{
		"empresa", "sociedad", "relocation", "empleados", "corporativo",
		"corporativa", "traslado de personal",
	}},
	{IntentPricing, []string{
		"precio", "precios", "cuesta", "cuánto", "cuanto", "tarifa", "tarifas",
		"coste", "costes", "comisión", "comision", "honorarios",
	}},
	{IntentProcess, []string{
		"cómo funciona", "como funciona", "proceso", "pasos", "qué incluye",
		"que incluye", "cómo trabajáis", "como trabajais",
	}},
	{IntentLegal, []string{
		"contrato", "fianza", "aval", "ley", "legal", "impago", "desahucio",
		"lau", "burofax",
	}},
	{IntentCoverage, []string{
		"zona", "zonas", "cobertura", "dónde trabajáis", "donde trabajais",
		"municipio", "municipios", "bilbao", "bizkaia", "getxo",
	}},
	{IntentSupport, []string{
		"ayuda", "problema", "incidencia", "avería", "averia", "no funciona",
		"reclamación", "reclamacion",
	}},
	{IntentGreeting, []string{
		"hola", "buenos días", "buenos dias", "buenas tardes", "buenas noches",
		"buenas", "hey", "saludos",
	}},
}

// Classify returns exactly one category for the given message text.
// An empty message is a greeting; unmatched text falls through to other.
func Classify(text string) Intent {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return IntentGreeting
	}
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	return IntentOther
}
