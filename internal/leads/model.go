package leads

import "time"

// StatusNew is the workflow status every chatbot lead starts in.
const StatusNew = "new"

// SourceChatbot tags leads produced by the chat pipeline.
const SourceChatbot = "chatbot"

// Lead is the persisted sales-qualified visitor record. Field order follows
// the write schema consumed downstream; don't reorder casually.
type Lead struct {
	ID               string    `json:"id"`
	Source           string    `json:"source"`
	Page             string    `json:"page"`
	PersonaTipo      string    `json:"persona_tipo"`
	Nombre           string    `json:"nombre"`
	Telefono         string    `json:"telefono"`
	Email            string    `json:"email"`
	Municipio        string    `json:"municipio"`
	Barrio           string    `json:"barrio"`
	M2               int       `json:"m2"`
	Habitaciones     int       `json:"habitaciones"`
	EstadoVivienda   string    `json:"estado_vivienda"`
	FechaDisponible  string    `json:"fecha_disponible"`
	PresupuestoRenta int       `json:"presupuesto_renta"`
	CanalPreferido   string    `json:"canal_preferido"`
	FranjaHoraria    string    `json:"franja_horaria"`
	Comentarios      string    `json:"comentarios"`
	UTMSource        string    `json:"utm_source"`
	UTMMedium        string    `json:"utm_medium"`
	UTMCampaign      string    `json:"utm_campaign"`
	Consent          bool      `json:"consent"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

// CreateLeadRequest carries everything needed to write a lead record.
type CreateLeadRequest struct {
	Page             string
	PersonaTipo      string
	Nombre           string
	Telefono         string
	Email            string
	Municipio        string
	Barrio           string
	M2               int
	Habitaciones     int
	EstadoVivienda   string
	FechaDisponible  string
	PresupuestoRenta int
	CanalPreferido   string
	FranjaHoraria    string
	Comentarios      string
	UTMSource        string
	UTMMedium        string
	UTMCampaign      string
	Consent          bool
}

// Validate enforces the one invariant a lead row must satisfy before insert:
// a record without consent=true is never written, period. Contact fields stay
// optional — a qualified owner who has not yet left a phone or email is still
// a lead worth following up on the conversation transcript.
func (r *CreateLeadRequest) Validate() error {
	if !r.Consent {
		return ErrConsentRequired
	}
	return nil
}
