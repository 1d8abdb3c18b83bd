// Package chat implements the conversational pipeline behind the public chat
// endpoint: intent classification, conversation state, prompt building, model
// completion with fallback, lead extraction and the consent-gated lead write.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/brand"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/intent"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/leadextract"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/leads"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/notify"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/observability/metrics"
	"github.com/LiventyGestion/Liventy-gestion-sub000/pkg/logging"
)

const (
	historyLimit  = 10
	ctaMinScore   = 4
	notifyTimeout = 10 * time.Second
)

// UserContext carries the hints the web widget already knows about the
// visitor. Consent here means the visitor ticked the data-consent box on this
// request. IsOutsideHours, when set, overrides the server-side clock check.
type UserContext struct {
	UserType         string `json:"userType,omitempty"`
	Name             string `json:"name,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Email            string `json:"email,omitempty"`
	Municipio        string `json:"municipio,omitempty"`
	Barrio           string `json:"barrio,omitempty"`
	M2               int    `json:"m2,omitempty"`
	Habitaciones     int    `json:"habitaciones,omitempty"`
	EstadoVivienda   string `json:"estado_vivienda,omitempty"`
	FechaDisponible  string `json:"fecha_disponible,omitempty"`
	PresupuestoRenta int    `json:"presupuesto_renta,omitempty"`
	Urgencia         string `json:"urgencia,omitempty"`
	ServicioInteres  string `json:"servicio_interes,omitempty"`
	CanalPreferido   string `json:"canal_preferido,omitempty"`
	FranjaHoraria    string `json:"franja_horaria,omitempty"`
	Page             string `json:"page,omitempty"`
	Consent          bool   `json:"consent,omitempty"`
	IsOutsideHours   *bool  `json:"isOutsideHours,omitempty"`
	UTMSource        string `json:"utm_source,omitempty"`
	UTMMedium        string `json:"utm_medium,omitempty"`
	UTMCampaign      string `json:"utm_campaign,omitempty"`
}

// TurnRequest is one visitor message plus its conversation coordinates.
type TurnRequest struct {
	Message        string      `json:"message"`
	SessionID      string      `json:"sessionId,omitempty"`
	ConversationID string      `json:"conversationId,omitempty"`
	Intent         string      `json:"intent,omitempty"`
	UserContext    UserContext `json:"userContext"`
}

// TurnResponse is everything the widget needs to render the assistant's turn.
type TurnResponse struct {
	Message         string               `json:"message"`
	ConversationID  string               `json:"conversationId"`
	Intent          intent.Intent        `json:"intent"`
	LeadInfo        leadextract.LeadInfo `json:"leadInfo"`
	LeadScore       int                  `json:"leadScore"`
	RequiresConsent bool                 `json:"requiresConsent"`
	ShowCTAs        bool                 `json:"showCTAs"`
	Redirection     *Redirection         `json:"redirection,omitempty"`
	Fallback        bool                 `json:"fallback"`
}

// ServiceConfig tunes the language model call and the attention window.
type ServiceConfig struct {
	Brand       brand.Config
	Hours       BusinessHours
	Model       string
	LLMTimeout  time.Duration
	MaxTokens   int32
	Temperature float32
}

// Service orchestrates a chat turn end to end. Every collaborator except the
// store is optional: a nil LLM client answers from the fallback responder, a
// nil lead repository disables the consent gate, a nil notifier skips fan-out.
type Service struct {
	store    Store
	llm      LLMClient
	leads    leads.Repository
	notifier *notify.Service
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger

	brand       brand.Config
	hours       BusinessHours
	model       string
	llmTimeout  time.Duration
	maxTokens   int32
	temperature float32

	now func() time.Time
}

func NewService(store Store, llm LLMClient, repo leads.Repository, notifier *notify.Service, m *metrics.ChatMetrics, cfg ServiceConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 30 * time.Second
	}
	return &Service{
		store:       store,
		llm:         llm,
		leads:       repo,
		notifier:    notifier,
		metrics:     m,
		logger:      logger,
		brand:       cfg.Brand,
		hours:       cfg.Hours,
		model:       cfg.Model,
		llmTimeout:  cfg.LLMTimeout,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		now:         time.Now,
	}
}

// ProcessTurn runs the full pipeline for one visitor message. The only error
// it returns is ErrUnauthorizedSession; every infrastructure failure degrades
// to a best-effort answer instead.
func (s *Service) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	turnIntent := intent.Classify(req.Message)
	if intent.Valid(req.Intent) {
		turnIntent = intent.Intent(req.Intent)
	}

	conv, persisted, err := s.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	// Hints from the widget merge first, then whatever this message adds.
	prior := leadextract.Merge(conv.Context.Lead, hintsFromContext(req.UserContext))
	merged := leadextract.Extract(req.Message, prior)

	messageConsent := leadextract.Extract(req.Message, leadextract.LeadInfo{}).Consent
	turnConsent := req.UserContext.Consent || messageConsent

	convCtx := conv.Context
	convCtx.Lead = merged
	convCtx.MessageCount++
	convCtx.LastIntent = string(turnIntent)

	score := leadextract.ScoreAt(convCtx, s.now())
	convCtx.Score = score

	if merged.IsQualified && turnConsent && convCtx.LeadRecordID == "" {
		if id := s.writeLead(ctx, conv.ID, merged, req.UserContext, score); id != "" {
			convCtx.LeadRecordID = id
		}
	}

	reply, fallbackUsed := s.generateReply(ctx, conv, convCtx, turnIntent, req)

	if persisted {
		s.persistTurn(ctx, conv.ID, req.Message, reply, turnIntent, fallbackUsed, convCtx)
	}

	s.metrics.TurnProcessed(string(turnIntent), fallbackUsed)

	return &TurnResponse{
		Message:         reply,
		ConversationID:  conv.ID,
		Intent:          turnIntent,
		LeadInfo:        merged,
		LeadScore:       score,
		RequiresConsent: merged.IsQualified && !turnConsent && convCtx.LeadRecordID == "",
		ShowCTAs:        turnIntent == intent.IntentOwnerProspect || turnIntent == intent.IntentCompany || score >= ctaMinScore,
		Redirection:     DetectRedirection(req.Message, s.brand),
		Fallback:        fallbackUsed,
	}, nil
}

// History returns the stored messages of a conversation after checking that
// the caller owns it.
func (s *Service) History(ctx context.Context, conversationID, sessionToken string) ([]StoredMessage, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.Authorized(sessionToken, nil) {
		return nil, ErrUnauthorizedSession
	}
	return s.store.RecentMessages(ctx, conversationID, 0)
}

// GenericReply is the answer of last resort, used by the transport layer when
// the pipeline itself panics.
func (s *Service) GenericReply() string {
	return GenericFallbackReply(s.brand)
}

// resolveConversation loads or creates the conversation for this turn. A
// store failure degrades to an unpersisted shell so the visitor still gets an
// answer; only an ownership mismatch is a hard error.
func (s *Service) resolveConversation(ctx context.Context, req TurnRequest) (*Conversation, bool, error) {
	if req.ConversationID != "" {
		conv, err := s.store.GetConversation(ctx, req.ConversationID)
		switch {
		case err == nil:
			if !conv.Authorized(req.SessionID, nil) {
				return nil, false, ErrUnauthorizedSession
			}
			return conv, true, nil
		case errors.Is(err, ErrConversationNotFound):
			// Stale id from the widget; start over.
		default:
			s.logger.Error("chat: loading conversation failed, continuing without state", "error", err, "conversation_id", req.ConversationID)
			return &Conversation{ID: req.ConversationID, SessionToken: req.SessionID}, false, nil
		}
	}

	token := req.SessionID
	if token == "" {
		token = uuid.NewString()
	}
	conv := &Conversation{ID: uuid.NewString(), SessionToken: token}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		s.logger.Error("chat: creating conversation failed, continuing without state", "error", err)
		return conv, false, nil
	}
	return conv, true, nil
}

func (s *Service) generateReply(ctx context.Context, conv *Conversation, convCtx leadextract.Context, turnIntent intent.Intent, req TurnRequest) (string, bool) {
	if s.llm == nil {
		return FallbackReply(s.brand, turnIntent), true
	}

	outside := s.hours.Outside(s.now())
	if req.UserContext.IsOutsideHours != nil {
		outside = *req.UserContext.IsOutsideHours
	}
	system := BuildSystemPrompt(s.brand, convCtx, turnIntent, outside)

	history, err := s.store.RecentMessages(ctx, conv.ID, historyLimit)
	if err != nil {
		s.logger.Error("chat: loading history failed, answering without it", "error", err, "conversation_id", conv.ID)
		history = nil
	}
	msgs := make([]ChatMessage, 0, len(history)+1)
	for _, m := range history {
		msgs = append(msgs, ChatMessage{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, ChatMessage{Role: ChatRoleUser, Content: req.Message})

	llmCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	start := s.now()
	resp, err := s.llm.Complete(llmCtx, LLMRequest{
		Model:       s.model,
		System:      []string{system},
		Messages:    msgs,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	s.metrics.ObserveLLMLatency(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("chat: completion failed, using fallback", "error", err, "intent", string(turnIntent))
		return FallbackReply(s.brand, turnIntent), true
	}
	return resp.Text, false
}

// writeLead runs the consent gate's write. Failures are logged and reported
// as "no lead written"; the turn still answers.
func (s *Service) writeLead(ctx context.Context, conversationID string, info leadextract.LeadInfo, uc UserContext, score int) string {
	if s.leads == nil {
		return ""
	}
	req := &leads.CreateLeadRequest{
		Page:             uc.Page,
		PersonaTipo:      info.PersonaTipo,
		Nombre:           info.Nombre,
		Telefono:         info.Telefono,
		Email:            info.Email,
		Municipio:        info.Municipio,
		Barrio:           info.Barrio,
		M2:               info.M2,
		Habitaciones:     info.Habitaciones,
		EstadoVivienda:   info.EstadoVivienda,
		FechaDisponible:  info.FechaDisponible,
		PresupuestoRenta: info.PresupuestoRenta,
		CanalPreferido:   info.CanalPreferido,
		FranjaHoraria:    info.FranjaHoraria,
		Comentarios:      fmt.Sprintf("Lead generado por el chat. Conversación %s. Puntuación %d/%d.", conversationID, score, leadextract.MaxScore),
		UTMSource:        uc.UTMSource,
		UTMMedium:        uc.UTMMedium,
		UTMCampaign:      uc.UTMCampaign,
		Consent:          true,
	}
	lead, err := s.leads.Create(ctx, req)
	if err != nil {
		s.logger.Error("chat: lead write failed", "error", err, "conversation_id", conversationID)
		return ""
	}
	s.metrics.LeadCreated()
	s.logger.Info("chat: lead created", "lead_id", lead.ID, "score", score, "conversation_id", conversationID)

	if s.notifier != nil {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		if failures := s.notifier.NotifyNewLead(nctx, lead, score); failures > 0 {
			for i := 0; i < failures; i++ {
				s.metrics.NotifyFailed()
			}
		}
	}
	return lead.ID
}

func (s *Service) persistTurn(ctx context.Context, conversationID, userMsg, reply string, turnIntent intent.Intent, fallbackUsed bool, convCtx leadextract.Context) {
	userStored := &StoredMessage{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           ChatRoleUser,
		Content:        userMsg,
		Metadata:       map[string]any{"intent": string(turnIntent)},
	}
	if err := s.store.AppendMessage(ctx, userStored); err != nil {
		s.logger.Error("chat: storing user message failed", "error", err, "conversation_id", conversationID)
	}
	assistantStored := &StoredMessage{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           ChatRoleAssistant,
		Content:        reply,
		Metadata:       map[string]any{"fallback": fallbackUsed},
	}
	if err := s.store.AppendMessage(ctx, assistantStored); err != nil {
		s.logger.Error("chat: storing assistant message failed", "error", err, "conversation_id", conversationID)
	}
	if err := s.store.UpdateContext(ctx, conversationID, convCtx); err != nil {
		s.logger.Error("chat: updating conversation context failed", "error", err, "conversation_id", conversationID)
	}
}

// hintsFromContext maps widget-supplied hints into extraction fields. A
// hinted municipality gets its coverage flag resolved against the gazetteer.
func hintsFromContext(uc UserContext) leadextract.LeadInfo {
	var info leadextract.LeadInfo
	switch uc.UserType {
	case leadextract.PersonaOwner, leadextract.PersonaTenant, leadextract.PersonaCompany:
		info.PersonaTipo = uc.UserType
	}
	info.Nombre = uc.Name
	info.Telefono = uc.Phone
	info.Email = uc.Email
	if uc.Municipio != "" {
		info.Municipio = uc.Municipio
		info.ZonaCobertura = leadextract.ResolveCoverage(uc.Municipio)
	}
	info.Barrio = uc.Barrio
	info.M2 = uc.M2
	info.Habitaciones = uc.Habitaciones
	info.EstadoVivienda = uc.EstadoVivienda
	info.FechaDisponible = uc.FechaDisponible
	info.PresupuestoRenta = uc.PresupuestoRenta
	info.Urgencia = uc.Urgencia
	info.ServicioInteres = uc.ServicioInteres
	info.CanalPreferido = uc.CanalPreferido
	info.FranjaHoraria = uc.FranjaHoraria
	return info
}
