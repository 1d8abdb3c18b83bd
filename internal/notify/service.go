package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/leads"
	"github.com/LiventyGestion/Liventy-gestion-sub000/pkg/logging"
)

// Service fans a new lead out to the operations team. Channels run
// sequentially (email first, then webhook), are independent of each other's
// success, and never surface failures to the chat caller.
type Service struct {
	email        EmailSender
	webhook      *WebhookSender
	recipients   []string
	adminBaseURL string
	brandName    string
	logger       *logging.Logger
}

// Config holds dispatcher configuration.
type Config struct {
	Recipients   []string
	AdminBaseURL string
	BrandName    string
}

// NewService creates a notification service. email may be nil (channel
// disabled), webhook may be nil (channel disabled).
func NewService(email EmailSender, webhook *WebhookSender, cfg Config, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BrandName == "" {
		cfg.BrandName = "Liventy Gestión"
	}
	return &Service{
		email:        email,
		webhook:      webhook,
		recipients:   cfg.Recipients,
		adminBaseURL: strings.TrimRight(cfg.AdminBaseURL, "/"),
		brandName:    cfg.BrandName,
		logger:       logger,
	}
}

// NotifyNewLead sends the email and webhook notifications for a freshly
// written lead. Always best-effort: every failure is logged and swallowed.
// The returned count of failed deliveries exists only for instrumentation.
func (s *Service) NotifyNewLead(ctx context.Context, lead *leads.Lead, score int) int {
	if s == nil || lead == nil {
		return 0
	}
	failures := 0

	if s.email != nil && len(s.recipients) > 0 {
		subject := fmt.Sprintf("Nuevo lead del chatbot - %s", displayName(lead))
		body := s.renderBody(lead, score)
		html := s.renderHTML(lead, score)

		for _, recipient := range s.recipients {
			msg := EmailMessage{
				To:      recipient,
				Subject: subject,
				Body:    body,
				HTML:    html,
			}
			if err := s.email.Send(ctx, msg); err != nil {
				failures++
				s.logger.Error("notify: failed to send lead email", "error", err, "to", recipient, "lead_id", lead.ID)
			} else {
				s.logger.Info("notify: lead email sent", "to", recipient, "lead_id", lead.ID)
			}
		}
	}

	if s.webhook != nil {
		payload := struct {
			*leads.Lead
			Score int `json:"lead_score"`
		}{lead, score}
		if err := s.webhook.Post(ctx, payload); err != nil {
			failures++
			s.logger.Error("notify: lead webhook failed", "error", err, "lead_id", lead.ID)
		} else {
			s.logger.Info("notify: lead webhook sent", "lead_id", lead.ID)
		}
	}
	return failures
}

func (s *Service) renderBody(lead *leads.Lead, score int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ha entrado un nuevo lead desde el chat.\n\n")
	fmt.Fprintf(&b, "Nombre: %s\n", displayName(lead))
	if lead.Telefono != "" {
		fmt.Fprintf(&b, "Teléfono: %s\n", lead.Telefono)
	}
	if lead.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	}
	if lead.PersonaTipo != "" {
		fmt.Fprintf(&b, "Perfil: %s\n", lead.PersonaTipo)
	}
	if lead.Municipio != "" {
		location := lead.Municipio
		if lead.Barrio != "" {
			location += " (" + lead.Barrio + ")"
		}
		fmt.Fprintf(&b, "Zona: %s\n", location)
	}
	if lead.M2 > 0 {
		fmt.Fprintf(&b, "Superficie: %d m2\n", lead.M2)
	}
	if lead.Habitaciones > 0 {
		fmt.Fprintf(&b, "Habitaciones: %d\n", lead.Habitaciones)
	}
	if lead.PresupuestoRenta > 0 {
		fmt.Fprintf(&b, "Presupuesto: %d EUR\n", lead.PresupuestoRenta)
	}
	fmt.Fprintf(&b, "Puntuación: %d/10\n", score)
	if lead.Comentarios != "" {
		fmt.Fprintf(&b, "\nComentarios: %s\n", lead.Comentarios)
	}
	if link := s.adminLink(lead); link != "" {
		fmt.Fprintf(&b, "\nVer en el panel: %s\n", link)
	}
	fmt.Fprintf(&b, "\n— %s\n", s.brandName)
	return b.String()
}

func (s *Service) renderHTML(lead *leads.Lead, score int) string {
	var rows strings.Builder
	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&rows, `<tr><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;"><strong>%s:</strong></td><td style="padding: 8px; border-bottom: 1px solid #e5e7eb;">%s</td></tr>`, label, value)
	}
	row("Nombre", displayName(lead))
	row("Teléfono", lead.Telefono)
	row("Email", lead.Email)
	row("Perfil", lead.PersonaTipo)
	row("Municipio", lead.Municipio)
	row("Barrio", lead.Barrio)
	if lead.M2 > 0 {
		row("Superficie", fmt.Sprintf("%d m2", lead.M2))
	}
	if lead.Habitaciones > 0 {
		row("Habitaciones", fmt.Sprintf("%d", lead.Habitaciones))
	}
	row("Puntuación", fmt.Sprintf("%d/10", score))

	link := ""
	if l := s.adminLink(lead); l != "" {
		link = fmt.Sprintf(`<p><a href="%s">Ver lead en el panel de administración</a></p>`, l)
	}

	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px;">
<h2 style="color: #10b981;">Nuevo lead del chatbot</h2>
<table style="border-collapse: collapse; margin: 20px 0;">%s</table>
%s
<p style="color: #6b7280; font-size: 12px; margin-top: 20px;">— %s</p>
</div>`, rows.String(), link, s.brandName)
}

func (s *Service) adminLink(lead *leads.Lead) string {
	if s.adminBaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/admin/leads/%s", s.adminBaseURL, lead.ID)
}

func displayName(lead *leads.Lead) string {
	if lead.Nombre != "" {
		return lead.Nombre
	}
	return "Visitante del chat"
}
