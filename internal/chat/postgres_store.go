package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LiventyGestion/Liventy-gestion-sub000/internal/leadextract"
)

// PgxPool is the pool surface the store needs; pgxmock satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists conversations and messages in Postgres, with the
// merged extraction context held as jsonb on the conversation row.
type PostgresStore struct {
	pool PgxPool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("chat: nil pgx pool")
	}
	return &PostgresStore{pool: pool}
}

func NewPostgresStoreWithPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	const query = `
		SELECT id, session_token, user_id, context, created_at, updated_at
		FROM conversations
		WHERE id = $1`

	var (
		conv   Conversation
		rawCtx []byte
		userID *string
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&conv.ID, &conv.SessionToken, &userID, &rawCtx, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chat: get conversation: %w", err)
	}
	conv.UserID = userID
	if len(rawCtx) > 0 {
		if err := json.Unmarshal(rawCtx, &conv.Context); err != nil {
			return nil, fmt.Errorf("chat: decode conversation context: %w", err)
		}
	}
	return &conv, nil
}

func (s *PostgresStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	const query = `
		INSERT INTO conversations (id, session_token, user_id, context)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	rawCtx, err := json.Marshal(conv.Context)
	if err != nil {
		return fmt.Errorf("chat: encode conversation context: %w", err)
	}
	err = s.pool.QueryRow(ctx, query, conv.ID, conv.SessionToken, conv.UserID, rawCtx).
		Scan(&conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("chat: create conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateContext(ctx context.Context, id string, convCtx leadextract.Context) error {
	const query = `
		UPDATE conversations
		SET context = $2, updated_at = now()
		WHERE id = $1`

	rawCtx, err := json.Marshal(convCtx)
	if err != nil {
		return fmt.Errorf("chat: encode conversation context: %w", err)
	}
	tag, err := s.pool.Exec(ctx, query, id, rawCtx)
	if err != nil {
		return fmt.Errorf("chat: update conversation context: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, msg *StoredMessage) error {
	const query = `
		INSERT INTO messages (id, conversation_id, role, content, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	metadata := msg.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	rawMeta, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("chat: encode message metadata: %w", err)
	}
	err = s.pool.QueryRow(ctx, query, msg.ID, msg.ConversationID, msg.Role, msg.Content, rawMeta).
		Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("chat: append message: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentMessages(ctx context.Context, conversationID string, limit int) ([]StoredMessage, error) {
	// limit <= 0 means the whole transcript. NULLIF keeps that from turning
	// into a literal LIMIT 0, which would return nothing.
	const query = `
		SELECT id, conversation_id, role, content, metadata, created_at
		FROM (
			SELECT id, conversation_id, role, content, metadata, created_at
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC
			LIMIT NULLIF($2, 0)
		) recent
		ORDER BY created_at ASC`

	if limit < 0 {
		limit = 0
	}
	rows, err := s.pool.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("chat: list messages: %w", err)
	}
	defer rows.Close()

	var out []StoredMessage
	for rows.Next() {
		var (
			msg     StoredMessage
			rawMeta []byte
			created time.Time
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &rawMeta, &created); err != nil {
			return nil, fmt.Errorf("chat: scan message: %w", err)
		}
		msg.CreatedAt = created
		if len(rawMeta) > 0 {
			if err := json.Unmarshal(rawMeta, &msg.Metadata); err != nil {
				return nil, fmt.Errorf("chat: decode message metadata: %w", err)
			}
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chat: iterate messages: %w", err)
	}
	return out, nil
}
