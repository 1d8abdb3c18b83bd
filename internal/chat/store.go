package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/leadextract"
)

var (
	ErrConversationNotFound = errors.New("chat: conversation not found")
	ErrUnauthorizedSession  = errors.New("chat: session token does not match conversation")
)

// Conversation is one visitor dialogue. Anonymous conversations are owned by
// their session token; authenticated ones by UserID.
type Conversation struct {
	ID           string
	SessionToken string
	UserID       *string
	Context      leadextract.Context
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Authorized reports whether the given session token may read or extend this
// conversation. Authenticated conversations are matched by user id instead.
func (c *Conversation) Authorized(sessionToken string, userID *string) bool {
	if c.UserID != nil {
		return userID != nil && *userID == *c.UserID
	}
	return c.SessionToken != "" && c.SessionToken == sessionToken
}

type StoredMessage struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	Metadata       map[string]any
	CreatedAt      time.Time
}

// Store persists conversations and their message history.
type Store interface {
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	CreateConversation(ctx context.Context, conv *Conversation) error
	UpdateContext(ctx context.Context, id string, convCtx leadextract.Context) error
	AppendMessage(ctx context.Context, msg *StoredMessage) error
	// RecentMessages returns up to limit messages, oldest first.
	RecentMessages(ctx context.Context, conversationID string, limit int) ([]StoredMessage, error)
}

// InMemoryStore keeps conversations in process memory. Used in tests and when
// no database is configured.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	messages      map[string][]StoredMessage
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		conversations: make(map[string]*Conversation),
		messages:      make(map[string][]StoredMessage),
	}
}

func (s *InMemoryStore) GetConversation(_ context.Context, id string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	clone := *conv
	return &clone, nil
}

func (s *InMemoryStore) CreateConversation(_ context.Context, conv *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	conv.UpdatedAt = now
	clone := *conv
	s.conversations[conv.ID] = &clone
	return nil
}

func (s *InMemoryStore) UpdateContext(_ context.Context, id string, convCtx leadextract.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return ErrConversationNotFound
	}
	conv.Context = convCtx
	conv.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) AppendMessage(_ context.Context, msg *StoredMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[msg.ConversationID]; !ok {
		return ErrConversationNotFound
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], *msg)
	return nil
}

func (s *InMemoryStore) RecentMessages(_ context.Context, conversationID string, limit int) ([]StoredMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[conversationID]
	out := make([]StoredMessage, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
