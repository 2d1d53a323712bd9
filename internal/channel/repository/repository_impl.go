package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/steeplehq/steeple/internal/channel/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) CreateChannel(ctx context.Context, channel *domain.Channel) error {
	return r.db.WithContext(ctx).Create(channel).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.Channel, error) {
	var channel domain.Channel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&channel).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrChannelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *repo) ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.Channel, error) {
	var channels []domain.Channel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&channels).Error
	if err != nil {
		return nil, err
	}
	return channels, nil
}

func (r *repo) UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.Channel{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrChannelNotFound
	}
	return nil
}

func (r *repo) DeleteChannel(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", id).Delete(&domain.Message{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&domain.Channel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrChannelNotFound
		}
		return nil
	})
}

func (r *repo) CreateMessage(ctx context.Context, message *domain.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListMessages returns the latest page of a channel's history in
// creation order.
func (r *repo) ListMessages(ctx context.Context, channelID snowflake.ID, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
