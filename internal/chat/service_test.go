package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/brand"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/intent"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/leadextract"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/leads"
	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/notify"
)

type stubLLM struct {
	reply   string
	err     error
	calls   int
	lastReq LLMRequest
}

func (s *stubLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	return LLMResponse{Text: s.reply}, nil
}

type failingStore struct{}

func (failingStore) GetConversation(context.Context, string) (*Conversation, error) {
	return nil, errors.New("db down")
}
func (failingStore) CreateConversation(context.Context, *Conversation) error {
	return errors.New("db down")
}
func (failingStore) UpdateContext(context.Context, string, leadextract.Context) error {
	return errors.New("db down")
}
func (failingStore) AppendMessage(context.Context, *StoredMessage) error {
	return errors.New("db down")
}
func (failingStore) RecentMessages(context.Context, string, int) ([]StoredMessage, error) {
	return nil, errors.New("db down")
}

func newTestService(store Store, llm LLMClient, repo leads.Repository, notifier *notify.Service) *Service {
	return NewService(store, llm, repo, notifier, nil, ServiceConfig{
		Brand:      brand.Default(),
		Hours:      NewBusinessHours(9, 19),
		Model:      "test-model",
		LLMTimeout: time.Second,
	}, nil)
}

func TestProcessTurnQualifiedOwnerRequiresConsentBeforeLeadWrite(t *testing.T) {
	store := NewInMemoryStore()
	llm := &stubLLM{reply: "Perfecto, cuéntame más."}
	repo := leads.NewInMemoryRepository()
	svc := newTestService(store, llm, repo, nil)
	ctx := context.Background()

	resp, err := svc.ProcessTurn(ctx, TurnRequest{
		Message:   "Hola, soy propietario de un piso en Bilbao de 80 m2 y 3 habitaciones, mi email es ana@test.com",
		SessionID: "s1",
	})
	require.NoError(t, err)

	assert.Equal(t, intent.IntentOwnerProspect, resp.Intent)
	assert.True(t, resp.LeadInfo.IsQualified)
	assert.Equal(t, "propietario", resp.LeadInfo.PersonaTipo)
	assert.Equal(t, "Bilbao", resp.LeadInfo.Municipio)
	assert.Equal(t, 80, resp.LeadInfo.M2)
	assert.True(t, resp.RequiresConsent, "qualified without consent must ask for it")
	assert.True(t, resp.ShowCTAs)
	assert.False(t, resp.Fallback)
	assert.NotEmpty(t, resp.ConversationID)

	// No consent yet: nothing may be persisted as a lead.
	all, err := repo.List(ctx, leads.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	// Second turn gives explicit consent; now exactly one lead is written.
	resp2, err := svc.ProcessTurn(ctx, TurnRequest{
		Message:        "De acuerdo, acepto el tratamiento de mis datos",
		SessionID:      "s1",
		ConversationID: resp.ConversationID,
	})
	require.NoError(t, err)
	assert.False(t, resp2.RequiresConsent)

	all, err = repo.List(ctx, leads.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	lead := all[0]
	assert.Equal(t, "propietario", lead.PersonaTipo)
	assert.Equal(t, "ana@test.com", lead.Email)
	assert.Equal(t, "Bilbao", lead.Municipio)
	assert.True(t, lead.Consent)
	assert.Equal(t, leads.SourceChatbot, lead.Source)
	assert.Equal(t, leads.StatusNew, lead.Status)
	assert.Contains(t, lead.Comentarios, resp.ConversationID)

	// Third turn: the conversation already produced its lead, no duplicate.
	_, err = svc.ProcessTurn(ctx, TurnRequest{
		Message:        "Gracias, acepto",
		SessionID:      "s1",
		ConversationID: resp.ConversationID,
	})
	require.NoError(t, err)
	all, err = repo.List(ctx, leads.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProcessTurnConsentViaUserContextWritesLeadImmediately(t *testing.T) {
	store := NewInMemoryStore()
	repo := leads.NewInMemoryRepository()
	svc := newTestService(store, &stubLLM{reply: "ok"}, repo, nil)
	ctx := context.Background()

	resp, err := svc.ProcessTurn(ctx, TurnRequest{
		Message:   "Tengo un piso en Getxo para alquilar, mi teléfono es 612 345 678",
		SessionID: "s1",
		UserContext: UserContext{
			Consent:     true,
			Page:        "/propietarios",
			UTMSource:   "google",
			UTMCampaign: "brand",
		},
	})
	require.NoError(t, err)
	assert.False(t, resp.RequiresConsent)

	all, err := repo.List(ctx, leads.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "612345678", all[0].Telefono)
	assert.Equal(t, "/propietarios", all[0].Page)
	assert.Equal(t, "google", all[0].UTMSource)
}

// A qualified persona plus consent is sufficient on its own: the lead is
// written even before any phone or email has been captured.
func TestProcessTurnQualifiedConsentedLeadWithoutContactIsWritten(t *testing.T) {
	store := NewInMemoryStore()
	repo := leads.NewInMemoryRepository()
	svc := newTestService(store, &stubLLM{reply: "ok"}, repo, nil)
	ctx := context.Background()

	resp, err := svc.ProcessTurn(ctx, TurnRequest{
		Message:   "Soy propietario de un piso en Bilbao y acepto el tratamiento de mis datos",
		SessionID: "s1",
	})
	require.NoError(t, err)
	require.True(t, resp.LeadInfo.IsQualified)
	assert.False(t, resp.RequiresConsent)

	all, err := repo.List(ctx, leads.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "propietario", all[0].PersonaTipo)
	assert.Empty(t, all[0].Email)
	assert.Empty(t, all[0].Telefono)
}

func TestProcessTurnLLMFailureFallsBackWithUsableAnswer(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(store, &stubLLM{err: errors.New("upstream 500")}, nil, nil)

	resp, err := svc.ProcessTurn(context.Background(), TurnRequest{
		Message:   "¿Cuánto cuesta vuestra gestión?",
		SessionID: "s1",
	})
	require.NoError(t, err)
	assert.True(t, resp.Fallback)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, intent.IntentPricing, resp.Intent)
	// The canned pricing answer carries the real tariffs.
	for _, tier := range brand.Default().PricingTiers {
		assert.Contains(t, resp.Message, tier.Name)
	}
}

func TestProcessTurnNilLLMAlwaysFallsBack(t *testing.T) {
	svc := newTestService(NewInMemoryStore(), nil, nil, nil)
	resp, err := svc.ProcessTurn(context.Background(), TurnRequest{Message: "hola", SessionID: "s1"})
	require.NoError(t, err)
	assert.True(t, resp.Fallback)
	assert.NotEmpty(t, resp.Message)
}

func TestProcessTurnRejectsForeignSession(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(store, &stubLLM{reply: "hola"}, nil, nil)
	ctx := context.Background()

	resp, err := svc.ProcessTurn(ctx, TurnRequest{Message: "hola", SessionID: "s1"})
	require.NoError(t, err)

	_, err = svc.ProcessTurn(ctx, TurnRequest{
		Message:        "sigo yo",
		SessionID:      "s2",
		ConversationID: resp.ConversationID,
	})
	assert.ErrorIs(t, err, ErrUnauthorizedSession)
}

func TestProcessTurnStoreFailureStillAnswers(t *testing.T) {
	svc := newTestService(failingStore{}, &stubLLM{reply: "respuesta"}, nil, nil)

	resp, err := svc.ProcessTurn(context.Background(), TurnRequest{Message: "hola", SessionID: "s1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Message)
	assert.NotEmpty(t, resp.ConversationID)
}

func TestProcessTurnContextAccumulatesAcrossTurns(t *testing.T) {
	store := NewInMemoryStore()
	llm := &stubLLM{reply: "ok"}
	svc := newTestService(store, llm, nil, nil)
	ctx := context.Background()

	resp, err := svc.ProcessTurn(ctx, TurnRequest{Message: "Soy propietario de un piso en Bilbao", SessionID: "s1"})
	require.NoError(t, err)

	_, err = svc.ProcessTurn(ctx, TurnRequest{
		Message:        "Tiene 80 m2 y está recién reformado",
		SessionID:      "s1",
		ConversationID: resp.ConversationID,
	})
	require.NoError(t, err)

	conv, err := store.GetConversation(ctx, resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, 2, conv.Context.MessageCount)
	assert.Equal(t, "propietario", conv.Context.Lead.PersonaTipo)
	assert.Equal(t, "Bilbao", conv.Context.Lead.Municipio)
	assert.Equal(t, 80, conv.Context.Lead.M2)
	assert.Equal(t, "reformado", conv.Context.Lead.EstadoVivienda)

	// The second turn's system prompt already knew the first turn's facts.
	assert.Contains(t, llm.lastReq.System[0], "Bilbao")
}

// The widget knows the visitor's local context better than the server clock;
// an explicit isOutsideHours flag wins in both directions.
func TestProcessTurnWidgetOutsideHoursFlagOverridesClock(t *testing.T) {
	llm := &stubLLM{reply: "ok"}
	svc := newTestService(NewInMemoryStore(), llm, nil, nil)
	ctx := context.Background()

	outside := true
	_, err := svc.ProcessTurn(ctx, TurnRequest{
		Message:     "hola",
		SessionID:   "s1",
		UserContext: UserContext{IsOutsideHours: &outside},
	})
	require.NoError(t, err)
	assert.Contains(t, llm.lastReq.System[0], "FUERA DE HORARIO")

	inside := false
	_, err = svc.ProcessTurn(ctx, TurnRequest{
		Message:     "hola",
		SessionID:   "s2",
		UserContext: UserContext{IsOutsideHours: &inside},
	})
	require.NoError(t, err)
	assert.NotContains(t, llm.lastReq.System[0], "FUERA DE HORARIO")
}

func TestProcessTurnWidgetHintsSeedExtraction(t *testing.T) {
	svc := newTestService(NewInMemoryStore(), &stubLLM{reply: "ok"}, nil, nil)

	resp, err := svc.ProcessTurn(context.Background(), TurnRequest{
		Message:   "hola",
		SessionID: "s1",
		UserContext: UserContext{
			Municipio:       "Getxo",
			M2:              75,
			Habitaciones:    2,
			ServicioInteres: "gestion-integral",
			FranjaHoraria:   "tarde",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Getxo", resp.LeadInfo.Municipio)
	assert.True(t, resp.LeadInfo.ZonaCobertura)
	assert.Equal(t, 75, resp.LeadInfo.M2)
	assert.Equal(t, 2, resp.LeadInfo.Habitaciones)
	assert.Equal(t, "gestion-integral", resp.LeadInfo.ServicioInteres)
	assert.Equal(t, "tarde", resp.LeadInfo.FranjaHoraria)

	// Hinted municipalities outside Bizkaia resolve as uncovered.
	resp, err = svc.ProcessTurn(context.Background(), TurnRequest{
		Message:     "hola",
		SessionID:   "s3",
		UserContext: UserContext{Municipio: "Madrid"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Madrid", resp.LeadInfo.Municipio)
	assert.False(t, resp.LeadInfo.ZonaCobertura)
}

func TestProcessTurnIntentOverrideFromWidget(t *testing.T) {
	svc := newTestService(NewInMemoryStore(), &stubLLM{reply: "ok"}, nil, nil)
	resp, err := svc.ProcessTurn(context.Background(), TurnRequest{
		Message:   "hola",
		SessionID: "s1",
		Intent:    "pricing",
	})
	require.NoError(t, err)
	assert.Equal(t, intent.IntentPricing, resp.Intent)
}

func TestProcessTurnRedirectsValuationAsks(t *testing.T) {
	svc := newTestService(NewInMemoryStore(), &stubLLM{reply: "ok"}, nil, nil)
	resp, err := svc.ProcessTurn(context.Background(), TurnRequest{
		Message:   "¿Cuánto vale mi piso de Deusto?",
		SessionID: "s1",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Redirection)
	assert.Equal(t, brand.Default().ValuationURL, resp.Redirection.URL)
}

type recordingEmail struct {
	sent []notify.EmailMessage
}

func (r *recordingEmail) Send(_ context.Context, msg notify.EmailMessage) error {
	r.sent = append(r.sent, msg)
	return nil
}

func TestProcessTurnNotifiesAfterLeadWrite(t *testing.T) {
	store := NewInMemoryStore()
	repo := leads.NewInMemoryRepository()
	email := &recordingEmail{}
	notifier := notify.NewService(email, nil, notify.Config{Recipients: []string{"leads@liventygestion.com"}}, nil)
	svc := newTestService(store, &stubLLM{reply: "ok"}, repo, notifier)

	_, err := svc.ProcessTurn(context.Background(), TurnRequest{
		Message:     "Soy propietaria de una vivienda en Barakaldo, mi email es eva@test.com y acepto el tratamiento de mis datos",
		SessionID:   "s1",
		UserContext: UserContext{Name: "Eva"},
	})
	require.NoError(t, err)

	require.Len(t, email.sent, 1)
	assert.Equal(t, "leads@liventygestion.com", email.sent[0].To)
	assert.Contains(t, email.sent[0].Subject, "Nuevo lead")
}

func TestHistoryEnforcesOwnership(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(store, &stubLLM{reply: "respuesta"}, nil, nil)
	ctx := context.Background()

	resp, err := svc.ProcessTurn(ctx, TurnRequest{Message: "hola", SessionID: "s1"})
	require.NoError(t, err)

	msgs, err := svc.History(ctx, resp.ConversationID, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, ChatRoleUser, msgs[0].Role)
	assert.Equal(t, ChatRoleAssistant, msgs[1].Role)

	_, err = svc.History(ctx, resp.ConversationID, "s2")
	assert.ErrorIs(t, err, ErrUnauthorizedSession)

	_, err = svc.History(ctx, "missing", "s1")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
