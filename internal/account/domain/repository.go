package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, account *Account) error
	FindOne(ctx context.Context, account Account) (*Account, error)
	FindBySubject(ctx context.Context, provider, externalID string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id snowflake.ID) (*Account, error)
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]Account, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*Session, error)
	UpdateLastSeen(ctx context.Context, sessionID snowflake.ID, lastSeen time.Time) error
	RevokeSession(ctx context.Context, sessionID snowflake.ID, revokedAt time.Time) error
}
