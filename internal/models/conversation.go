package models

import (
	"context"
	"time"
)

// Role of a conversation turn author.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// MaxTurnContentLength caps stored message text.
const MaxTurnContentLength = 1000

// Turn is one message of a qualification conversation. Turns are append-only
// and immutable once written.
type Turn struct {
	ID        int64     `json:"id" db:"id"`
	LeadID    string    `json:"leadId" db:"lead_id"`
	Role      Role      `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ConversationRepository defines turn data access. History returns turns in
// creation order so the engine can rebuild context deterministically.
type ConversationRepository interface {
	Append(ctx context.Context, leadID string, role Role, content string) error
	History(ctx context.Context, leadID string) ([]Turn, error)
}
