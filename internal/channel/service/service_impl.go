package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/steeplehq/steeple/internal/channel/domain"
	"github.com/steeplehq/steeple/internal/clock"
	pkgdb "github.com/steeplehq/steeple/pkg/db"
	"go.uber.org/zap"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

type service struct {
	log         *zap.Logger
	repo        domain.Repository
	broadcaster domain.Broadcaster
	genID       *snowflake.Node
	clock       clock.Clock
}

func NewService(log *zap.Logger, repo domain.Repository, broadcaster domain.Broadcaster, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &service{
		log:         log.Named("channel.service"),
		repo:        repo,
		broadcaster: broadcaster,
		genID:       genID,
		clock:       clk,
	}
}

func (s *service) CreateChannel(ctx context.Context, tenantID, creatorID snowflake.ID, req domain.CreateChannelRequest) (*domain.Channel, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now()
	channel := &domain.Channel{
		ID:          s.genID.Generate(),
		TenantID:    tenantID,
		Name:        name,
		Slug:        slug.Make(name),
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateChannel(ctx, channel); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}
	return channel, nil
}

// GetChannel resolves a channel within the calling tenant. Channels of
// other tenants are refused outright, never reported as absent.
func (s *service) GetChannel(ctx context.Context, tenantID, channelID snowflake.ID) (*domain.Channel, error) {
	channel, err := s.repo.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel.TenantID != tenantID {
		return nil, domain.ErrTenantMismatch
	}
	return channel, nil
}

func (s *service) FindChannel(ctx context.Context, channelID snowflake.ID) (*domain.Channel, error) {
	return s.repo.FindByID(ctx, channelID)
}

func (s *service) ListChannels(ctx context.Context, tenantID snowflake.ID) ([]domain.Channel, error) {
	return s.repo.ListByTenant(ctx, tenantID)
}

func (s *service) UpdateChannel(ctx context.Context, tenantID, channelID snowflake.ID, req domain.UpdateChannelRequest) (*domain.Channel, error) {
	channel, err := s.GetChannel(ctx, tenantID, channelID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": s.clock.Now()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
		fields["slug"] = slug.Make(name)
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}

	if err := s.repo.UpdateFields(ctx, channel.ID, fields); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}
	return s.repo.FindByID(ctx, channel.ID)
}

func (s *service) DeleteChannel(ctx context.Context, tenantID, channelID snowflake.ID) error {
	channel, err := s.GetChannel(ctx, tenantID, channelID)
	if err != nil {
		return err
	}
	return s.repo.DeleteChannel(ctx, channel.ID)
}

func (s *service) PostMessage(ctx context.Context, tenantID, authorID, channelID snowflake.ID, body string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, domain.ErrEmptyMessage
	}

	channel, err := s.GetChannel(ctx, tenantID, channelID)
	if err != nil {
		return nil, err
	}

	message := &domain.Message{
		ID:        s.genID.Generate(),
		ChannelID: channel.ID,
		TenantID:  channel.TenantID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	// Fanout happens after the message is durable.
	s.broadcaster.BroadcastMessage(message)
	return message, nil
}

func (s *service) ListMessages(ctx context.Context, tenantID, channelID snowflake.ID, limit int) ([]domain.Message, error) {
	channel, err := s.GetChannel(ctx, tenantID, channelID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}
	return s.repo.ListMessages(ctx, channel.ID, limit)
}
