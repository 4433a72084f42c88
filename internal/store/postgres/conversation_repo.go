package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"groweasy-agent/internal/common/logger"
	"groweasy-agent/internal/models"
)

var (
	ErrTurnReadFailed  = errors.New("CONVERSATION_READ_FAILED")
	ErrTurnWriteFailed = errors.New("CONVERSATION_WRITE_FAILED")
)

type ConversationRepo struct {
	db     *sql.DB
	logger logger.Logger
}

func NewConversationRepo(db *sql.DB, log logger.Logger) *ConversationRepo {
	return &ConversationRepo{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "conversation_repo"}),
	}
}

// Append persists one turn. Content longer than the column limit is
// truncated, never rejected.
func (r *ConversationRepo) Append(ctx context.Context, leadID string, role models.Role, content string) error {
	if len(content) > models.MaxTurnContentLength {
		content = content[:models.MaxTurnContentLength]
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversations (lead_id, role, content, created_at)
		VALUES ($1, $2, $3, $4)`,
		leadID,
		string(role),
		content,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: insert failed: %v", ErrTurnWriteFailed, err)
	}
	return nil
}

// History returns the full conversation in creation order.
func (r *ConversationRepo) History(ctx context.Context, leadID string) ([]models.Turn, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, lead_id, role, content, created_at FROM conversations WHERE lead_id = $1 ORDER BY created_at ASC`,
		leadID,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query failed: %v", ErrTurnReadFailed, err)
	}
	defer rows.Close()

	turns := []models.Turn{}
	for rows.Next() {
		var (
			turn models.Turn
			role string
		)
		if err := rows.Scan(&turn.ID, &turn.LeadID, &role, &turn.Content, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan failed: %v", ErrTurnReadFailed, err)
		}
		turn.Role = models.Role(role)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %v", ErrTurnReadFailed, err)
	}

	return turns, nil
}
