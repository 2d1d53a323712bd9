package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/steeplehq/steeple/internal/invitation/domain"
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

func (r *repo) Create(ctx context.Context, invitation *domain.Invitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repo) FindByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repo) FindPending(ctx context.Context, tenantID snowflake.ID, email string) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ? AND status = ?", tenantID, email, domain.StatusPending).
		First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repo) ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.Invitation, error) {
	var invitations []domain.Invitation
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *repo) UpdateFieldsWhereStatus(ctx context.Context, id snowflake.ID, expectedStatus string, fields map[string]any) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Invitation{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(fields)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}
