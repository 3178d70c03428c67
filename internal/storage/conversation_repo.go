package storage

import (
	"context"
	"fmt"

	"researchhub/internal/models"
)

type ConversationRepo struct {
	db *DB
}

func NewConversationRepo(db *DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) Insert(ctx context.Context, m models.ChatMessage) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO chat_messages (message_id, workspace_id, owner_id, role, content)
VALUES ($1, $2, $3, $4, $5)`, m.MessageID, m.WorkspaceID, m.OwnerID, m.Role, m.Content)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// ListRecent returns the last limit messages in chronological order.
func (r *ConversationRepo) ListRecent(ctx context.Context, ownerID, workspaceID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT message_id::text, workspace_id::text, owner_id::text, role, content, created_at
FROM (
  SELECT * FROM chat_messages
  WHERE owner_id=$1 AND workspace_id=$2
  ORDER BY created_at DESC
  LIMIT $3
) recent
ORDER BY created_at ASC`, ownerID, workspaceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat history: %w", err)
	}
	defer rows.Close()

	out := make([]models.ChatMessage, 0, limit)
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.MessageID, &m.WorkspaceID, &m.OwnerID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat history: %w", err)
	}
	return out, nil
}

func (r *ConversationRepo) DeleteByWorkspace(ctx context.Context, ownerID, workspaceID string) error {
	_, err := r.db.Pool.Exec(ctx, `
DELETE FROM chat_messages WHERE owner_id=$1 AND workspace_id=$2`, ownerID, workspaceID)
	if err != nil {
		return fmt.Errorf("delete chat history: %w", err)
	}
	return nil
}
