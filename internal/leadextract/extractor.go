// Package leadextract pulls structured lead data out of free-text chat
// messages using pattern matching. Extraction is pure (no I/O), additive and
// idempotent: fields once set are only overwritten by a newer non-empty
// extraction, never cleared.
package leadextract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Persona types a visitor can declare.
const (
	PersonaOwner   = "propietario"
	PersonaTenant  = "inquilino"
	PersonaCompany = "empresa"
)

// Service interest values.
const (
	ServiceValuation      = "valoracion"
	ServiceFullManagement = "gestion-integral"
	ServiceTenantSearch   = "busqueda-inquilino"
)

// LeadInfo is the sparse structure of optional fields extracted from chat.
type LeadInfo struct {
	PersonaTipo      string `json:"persona_tipo,omitempty"`
	Nombre           string `json:"nombre,omitempty"`
	Telefono         string `json:"telefono,omitempty"`
	Email            string `json:"email,omitempty"`
	Municipio        string `json:"municipio,omitempty"`
	Barrio           string `json:"barrio,omitempty"`
	ZonaCobertura    bool   `json:"zona_cobertura,omitempty"`
	M2               int    `json:"m2,omitempty"`
	Habitaciones     int    `json:"habitaciones,omitempty"`
	EstadoVivienda   string `json:"estado_vivienda,omitempty"`
	FechaDisponible  string `json:"fecha_disponible,omitempty"`
	PresupuestoRenta int    `json:"presupuesto_renta,omitempty"`
	Urgencia         string `json:"urgencia,omitempty"`
	ServicioInteres  string `json:"servicio_interes,omitempty"`
	CanalPreferido   string `json:"canal_preferido,omitempty"`
	FranjaHoraria    string `json:"franja_horaria,omitempty"`
	Consent          bool   `json:"consent"`
	IsQualified      bool   `json:"is_qualified"`
}

// Context is the per-conversation state merged across turns. LeadRecordID is
// set once a lead row has been written so the same conversation does not
// produce duplicates.
type Context struct {
	Lead         LeadInfo `json:"lead"`
	MessageCount int      `json:"message_count"`
	LastIntent   string   `json:"last_intent,omitempty"`
	Score        int      `json:"score"`
	LeadRecordID string   `json:"lead_record_id,omitempty"`
}

// ---------- package-level compiled regexes ----------

var (
	emailRE = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Spanish mobile: optional +34/0034/34 prefix, first digit 6-9, nine digits,
	// separators allowed between digit groups.
	phoneRE = regexp.MustCompile(`(?:\+34|0034|34)?[\s.\-]?[6-9](?:[\s.\-]?\d){8}\b`)

	areaRE  = regexp.MustCompile(`(\d{2,4})\s*(?:m2|m²|metros(?:\s+cuadrados)?)`)
	roomsRE = regexp.MustCompile(`(\d{1,2})\s*(?:habitaciones|habitación|habitacion|dormitorios|dormitorio|hab\b)`)

	// budgetRE needs a strong anchor (the word "presupuesto" or a currency
	// mark). budgetCapRE covers weaker phrasings like "hasta 950", which are
	// only trusted when the number cannot be a year.
	budgetRE    = regexp.MustCompile(`presupuesto\s+(?:de\s+)?(\d{3,5})|(\d{3,5})\s*(?:€|euros)`)
	budgetCapRE = regexp.MustCompile(`(?:hasta|m[aá]ximo)\s*(\d{3,5})\b`)

	dateRE = regexp.MustCompile(`\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}|\d{4}-\d{2}-\d{2}`)

	nonDigitRE = regexp.MustCompile(`\D`)
)

// ---------- name extraction ----------

const nameWordPattern = `[\p{L}][\p{L}\p{M}'\-]*`

var namePhrasePattern = nameWordPattern + `(?:\s+` + nameWordPattern + `){0,2}`

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)me llamo\s+(` + namePhrasePattern + `)`),
	regexp.MustCompile(`(?i)mi nombre es\s+(` + namePhrasePattern + `)`),
	regexp.MustCompile(`(?i)\bsoy\s+(` + namePhrasePattern + `)(?:\s|,|\.|!|$)`),
}

// stopWords are common Spanish words that must not be mistaken for names when
// they follow a self-introduction ("soy propietario", "soy de Bilbao").
var stopWords = map[string]bool{
	"propietario": true, "propietaria": true, "inquilino": true, "inquilina": true,
	"dueño": true, "dueña": true, "empresa": true, "particular": true,
	"de": true, "del": true, "la": true, "el": true, "un": true, "una": true,
	"y": true, "en": true, "mi": true, "su": true, "tu": true, "yo": true,
	"nuevo": true, "nueva": true, "cliente": true, "interesado": true,
	"interesada": true, "autónomo": true, "autonomo": true,
}

// ---------- persona keyword tables ----------

// personaRules are evaluated in order; the first matching group wins. They
// overlap with the intent classifier's keywords but are deliberately separate:
// a pricing-intent message can still set persona=propietario.
var personaRules = []struct {
	persona  string
	keywords []string
}{
	{PersonaOwner, []string{
		"propietario", "propietaria", "dueño", "dueña", "mi piso", "mi vivienda",
		"mi casa", "tengo un piso", "tengo una vivienda", "tengo una casa",
		"tengo un local", "alquilar mi", "poner en alquiler",
	}},
	{PersonaCompany, []string{
		"empresa", "sociedad", "relocation", "empleados", "corporativo", "corporativa",
	}},
	{PersonaTenant, []string{
		"inquilino", "inquilina", "busco piso", "busco vivienda", "busco casa",
		"busco habitación", "busco habitacion", "quiero alquilar un", "quiero alquilar una",
	}},
}

// ---------- location gazetteer ----------

// gazetteer lists the municipalities the assistant recognizes. covered marks
// the primary coverage area (greater Bilbao / Bizkaia).
var gazetteer = []struct {
	name    string
	covered bool
}{
	{"Bilbao", true},
	{"Getxo", true},
	{"Leioa", true},
	{"Barakaldo", true},
	{"Basauri", true},
	{"Portugalete", true},
	{"Santurtzi", true},
	{"Sestao", true},
	{"Erandio", true},
	{"Galdakao", true},
	{"Sopela", true},
	{"Berango", true},
	{"Mungia", true},
	{"Durango", true},
	{"Amorebieta", true},
	{"Vitoria", false},
	{"Donostia", false},
	{"San Sebastián", false},
	{"Santander", false},
	{"Madrid", false},
	{"Barcelona", false},
}

// barrios are Bilbao districts tagged when mentioned.
var barrios = []string{
	"Abando", "Deusto", "Indautxu", "Casco Viejo", "Begoña", "Rekalde",
	"Uribarri", "Basurto", "Santutxu", "San Ignacio", "Otxarkoaga",
	"Zorroza", "Miribilla",
}

// ---------- enumerated-value tables ----------

var conditionPatterns = []struct {
	pattern string
	value   string
}{
	{"a estrenar", "a estrenar"},
	{"recién reformado", "reformado"},
	{"recien reformado", "reformado"},
	{"reformado", "reformado"},
	{"para reformar", "a reformar"},
	{"a reformar", "a reformar"},
	{"necesita reforma", "a reformar"},
	{"buen estado", "buen estado"},
	{"nuevo", "a estrenar"},
}

var urgencyPatterns = []struct {
	pattern string
	value   string
}{
	{"cuanto antes", "inmediata"},
	{"lo antes posible", "inmediata"},
	{"urgente", "inmediata"},
	{"ya mismo", "inmediata"},
	{"inmediata", "inmediata"},
	{"este mes", "1-3 meses"},
	{"próximo mes", "1-3 meses"},
	{"proximo mes", "1-3 meses"},
	{"en unos meses", "3-6 meses"},
	{"sin prisa", "sin prisa"},
	{"más adelante", "sin prisa"},
	{"mas adelante", "sin prisa"},
}

var servicePatterns = []struct {
	pattern string
	value   string
}{
	{"valoración", ServiceValuation},
	{"valoracion", ServiceValuation},
	{"valorar", ServiceValuation},
	{"tasación", ServiceValuation},
	{"tasacion", ServiceValuation},
	{"cuánto vale", ServiceValuation},
	{"cuanto vale", ServiceValuation},
	{"gestión integral", ServiceFullManagement},
	{"gestion integral", ServiceFullManagement},
	{"gestión completa", ServiceFullManagement},
	{"gestion completa", ServiceFullManagement},
	{"todo incluido", ServiceFullManagement},
	{"que os encarguéis de todo", ServiceFullManagement},
	{"que os encargueis de todo", ServiceFullManagement},
	{"buscar inquilino", ServiceTenantSearch},
	{"busqueda de inquilino", ServiceTenantSearch},
	{"búsqueda de inquilino", ServiceTenantSearch},
}

var channelPatterns = []struct {
	pattern string
	value   string
}{
	{"whatsapp", "whatsapp"},
	{"llamadme", "telefono"},
	{"llámame", "telefono"},
	{"llamame", "telefono"},
	{"por teléfono", "telefono"},
	{"por telefono", "telefono"},
	{"por correo", "email"},
	{"por email", "email"},
	{"por e-mail", "email"},
}

var timeSlotPatterns = []struct {
	pattern string
	value   string
}{
	{"por la mañana", "mañana"},
	{"por las mañanas", "mañana"},
	{"a mediodía", "mediodia"},
	{"a mediodia", "mediodia"},
	{"por la tarde", "tarde"},
	{"por las tardes", "tarde"},
	{"al final del día", "tarde"},
}

// consentPatterns set the consent signal only on explicit affirmative phrases.
var consentPatterns = []string{
	"acepto",
	"de acuerdo",
	"conforme",
	"doy mi consentimiento",
	"sí, autorizo",
	"si, autorizo",
	"autorizo el tratamiento",
}

// Extract runs every pattern over the raw user message, merges the result into
// prior and returns the updated LeadInfo. Running it twice with the same
// message and prior yields the same result.
func Extract(message string, prior LeadInfo) LeadInfo {
	fresh := extractFields(message)
	merged := Merge(prior, fresh)
	merged.IsQualified = qualify(merged)
	return merged
}

// Merge applies the additive update rule: a non-empty newer field overwrites,
// an empty one never clears. Booleans only latch to true.
func Merge(prior, newer LeadInfo) LeadInfo {
	out := prior
	if newer.PersonaTipo != "" {
		out.PersonaTipo = newer.PersonaTipo
	}
	if newer.Nombre != "" {
		out.Nombre = newer.Nombre
	}
	if newer.Telefono != "" {
		out.Telefono = newer.Telefono
	}
	if newer.Email != "" {
		out.Email = newer.Email
	}
	if newer.Municipio != "" {
		out.Municipio = newer.Municipio
		out.ZonaCobertura = newer.ZonaCobertura
	}
	if newer.Barrio != "" {
		out.Barrio = newer.Barrio
	}
	if newer.M2 > 0 {
		out.M2 = newer.M2
	}
	if newer.Habitaciones > 0 {
		out.Habitaciones = newer.Habitaciones
	}
	if newer.EstadoVivienda != "" {
		out.EstadoVivienda = newer.EstadoVivienda
	}
	if newer.FechaDisponible != "" {
		out.FechaDisponible = newer.FechaDisponible
	}
	if newer.PresupuestoRenta > 0 {
		out.PresupuestoRenta = newer.PresupuestoRenta
	}
	if newer.Urgencia != "" {
		out.Urgencia = newer.Urgencia
	}
	if newer.ServicioInteres != "" {
		out.ServicioInteres = newer.ServicioInteres
	}
	if newer.CanalPreferido != "" {
		out.CanalPreferido = newer.CanalPreferido
	}
	if newer.FranjaHoraria != "" {
		out.FranjaHoraria = newer.FranjaHoraria
	}
	if newer.Consent {
		out.Consent = true
	}
	if newer.IsQualified {
		out.IsQualified = true
	}
	return out
}

// qualify implements the OR of three independent triggers: high-value persona,
// high-value service interest, or contact + location + persona accumulated.
func qualify(info LeadInfo) bool {
	if info.PersonaTipo == PersonaOwner || info.PersonaTipo == PersonaCompany {
		return true
	}
	if info.ServicioInteres == ServiceValuation || info.ServicioInteres == ServiceFullManagement {
		return true
	}
	hasContact := info.Email != "" || info.Telefono != ""
	hasLocation := info.Municipio != "" || info.Barrio != ""
	return hasContact && hasLocation && info.PersonaTipo != ""
}

// ResolveCoverage reports whether a municipality sits inside the primary
// coverage area. Unknown municipalities count as out of coverage.
func ResolveCoverage(municipio string) bool {
	lower := strings.ToLower(strings.TrimSpace(municipio))
	for _, g := range gazetteer {
		if strings.ToLower(g.name) == lower {
			return g.covered
		}
	}
	return false
}

func extractFields(message string) LeadInfo {
	var info LeadInfo
	lower := strings.ToLower(message)

	if m := emailRE.FindString(message); m != "" {
		info.Email = m
	}
	if m := phoneRE.FindString(message); m != "" {
		info.Telefono = normalizePhone(m)
	}
	info.Nombre = findName(message)

	for _, r := range personaRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				info.PersonaTipo = r.persona
				break
			}
		}
		if info.PersonaTipo != "" {
			break
		}
	}

	for _, g := range gazetteer {
		if strings.Contains(lower, strings.ToLower(g.name)) {
			info.Municipio = g.name
			info.ZonaCobertura = g.covered
			break
		}
	}
	for _, b := range barrios {
		if strings.Contains(lower, strings.ToLower(b)) {
			info.Barrio = b
			break
		}
	}

	if m := areaRE.FindStringSubmatch(lower); len(m) > 1 {
		info.M2, _ = strconv.Atoi(m[1])
	}
	if m := roomsRE.FindStringSubmatch(lower); len(m) > 1 {
		info.Habitaciones, _ = strconv.Atoi(m[1])
	}
	if m := budgetRE.FindStringSubmatch(lower); m != nil {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		info.PresupuestoRenta, _ = strconv.Atoi(raw)
	} else if m := budgetCapRE.FindStringSubmatch(lower); len(m) > 1 {
		if v, _ := strconv.Atoi(m[1]); !looksLikeYear(v) {
			info.PresupuestoRenta = v
		}
	}

	for _, c := range conditionPatterns {
		if strings.Contains(lower, c.pattern) {
			info.EstadoVivienda = c.value
			break
		}
	}
	for _, u := range urgencyPatterns {
		if strings.Contains(lower, u.pattern) {
			info.Urgencia = u.value
			break
		}
	}
	for _, s := range servicePatterns {
		if strings.Contains(lower, s.pattern) {
			info.ServicioInteres = s.value
			break
		}
	}
	for _, c := range channelPatterns {
		if strings.Contains(lower, c.pattern) {
			info.CanalPreferido = c.value
			break
		}
	}
	for _, ts := range timeSlotPatterns {
		if strings.Contains(lower, ts.pattern) {
			info.FranjaHoraria = ts.value
			break
		}
	}

	if strings.Contains(lower, "disponible") {
		if d := dateRE.FindString(lower); d != "" {
			info.FechaDisponible = d
		}
	}

	for _, p := range consentPatterns {
		if strings.Contains(lower, p) {
			info.Consent = true
			break
		}
	}

	return info
}

// looksLikeYear guards the weak budget capture against phrases such as
// "disponible hasta 2026", where the number is a date rather than a rent.
func looksLikeYear(v int) bool {
	return v >= 1900 && v <= 2099
}

// normalizePhone strips separators and a leading country code.
func normalizePhone(raw string) string {
	digits := nonDigitRE.ReplaceAllString(raw, "")
	if len(digits) == 11 && strings.HasPrefix(digits, "34") {
		digits = digits[2:]
	}
	if len(digits) == 13 && strings.HasPrefix(digits, "0034") {
		digits = digits[4:]
	}
	return digits
}

func findName(message string) string {
	for _, pattern := range namePatterns {
		m := pattern.FindStringSubmatch(message)
		if len(m) < 2 {
			continue
		}
		if name := cleanName(m[1]); name != "" {
			return name
		}
	}
	return ""
}

func cleanName(raw string) string {
	words := strings.Fields(strings.TrimSpace(raw))
	nameWords := make([]string, 0, 2)
	for _, word := range words {
		word = strings.Trim(word, ".,!?\"()")
		if word == "" || stopWords[strings.ToLower(word)] {
			break
		}
		if !looksLikeNameWord(word) {
			break
		}
		nameWords = append(nameWords, capitalize(word))
		if len(nameWords) == 2 {
			break
		}
	}
	return strings.Join(nameWords, " ")
}

func looksLikeNameWord(word string) bool {
	count := utf8.RuneCountInString(word)
	if count < 2 || count > 30 {
		return false
	}
	first, _ := utf8.DecodeRuneInString(word)
	return unicode.IsLetter(first)
}

func capitalize(word string) string {
	first, size := utf8.DecodeRuneInString(word)
	if first == utf8.RuneError || size == 0 {
		return word
	}
	return strings.ToUpper(string(first)) + strings.ToLower(word[size:])
}
