package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTenant(ctx context.Context, tenant *Tenant) error
	FindByID(ctx context.Context, id snowflake.ID) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
	List(ctx context.Context, status string) ([]Tenant, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
}
