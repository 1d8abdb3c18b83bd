package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/LiventyGestion/Liventy-gestion-sub000/pkg/logging"
)

// Handler exposes the chat pipeline over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Message handles POST /api/chat. Whatever goes wrong inside the pipeline,
// the widget gets HTTP 200 with a usable answer; the only non-200 outcomes
// are a malformed request and a session that does not own the conversation.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("chat: panic during turn processing", "panic", rec)
			writeJSON(w, http.StatusOK, &TurnResponse{
				Message:        h.service.GenericReply(),
				ConversationID: req.ConversationID,
				Fallback:       true,
			})
		}
	}()

	resp, err := h.service.ProcessTurn(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrUnauthorizedSession) {
			writeError(w, http.StatusForbidden, "conversation does not belong to this session")
			return
		}
		h.logger.Error("chat: turn processing failed", "error", err)
		writeJSON(w, http.StatusOK, &TurnResponse{
			Message:        h.service.GenericReply(),
			ConversationID: req.ConversationID,
			Fallback:       true,
		})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type historyMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type historyResponse struct {
	ConversationID string           `json:"conversationId"`
	Messages       []historyMessage `json:"messages"`
}

// History handles GET /api/chat/history?conversationId=...&sessionId=...
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	conversationID := r.URL.Query().Get("conversationId")
	sessionID := r.URL.Query().Get("sessionId")
	if conversationID == "" {
		writeError(w, http.StatusBadRequest, "conversationId is required")
		return
	}

	msgs, err := h.service.History(r.Context(), conversationID, sessionID)
	switch {
	case errors.Is(err, ErrUnauthorizedSession):
		writeError(w, http.StatusForbidden, "conversation does not belong to this session")
		return
	case errors.Is(err, ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	case err != nil:
		h.logger.Error("chat: history lookup failed", "error", err, "conversation_id", conversationID)
		writeError(w, http.StatusInternalServerError, "could not load history")
		return
	}

	out := historyResponse{ConversationID: conversationID, Messages: make([]historyMessage, 0, len(msgs))}
	for _, m := range msgs {
		out.Messages = append(out.Messages, historyMessage{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
