package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/steeplehq/steeple/internal/tenant/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) WithTx(tx *gorm.DB) domain.Repository {
	return &repo{db: tx}
}

func (r *repo) CreateTenant(ctx context.Context, tenant *domain.Tenant) error {
	return r.db.WithContext(ctx).Create(tenant).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *repo) FindBySlug(ctx context.Context, slug string) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *repo) List(ctx context.Context, status string) ([]domain.Tenant, error) {
	query := r.db.WithContext(ctx).Model(&domain.Tenant{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var tenants []domain.Tenant
	if err := query.Order("created_at ASC").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (r *repo) UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.Tenant{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrTenantNotFound
	}
	return nil
}
