package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invitation *Invitation) error
	FindByID(ctx context.Context, id snowflake.ID) (*Invitation, error)
	FindByToken(ctx context.Context, token string) (*Invitation, error)
	FindPending(ctx context.Context, tenantID snowflake.ID, email string) (*Invitation, error)
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]Invitation, error)
	// UpdateFieldsWhereStatus applies fields only while the invitation
	// still has the expected status, reporting whether a row changed.
	UpdateFieldsWhereStatus(ctx context.Context, id snowflake.ID, expectedStatus string, fields map[string]any) (bool, error)
}
