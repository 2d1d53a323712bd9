package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service exposes tenant-scoped channel and message operations. Every
// lookup verifies the channel belongs to the calling tenant; channels
// of other tenants are refused with ErrTenantMismatch.
type Service interface {
	CreateChannel(ctx context.Context, tenantID, creatorID snowflake.ID, req CreateChannelRequest) (*Channel, error)
	GetChannel(ctx context.Context, tenantID, channelID snowflake.ID) (*Channel, error)
	// FindChannel resolves a channel without tenant scoping. Reserved
	// for platform operators.
	FindChannel(ctx context.Context, channelID snowflake.ID) (*Channel, error)
	ListChannels(ctx context.Context, tenantID snowflake.ID) ([]Channel, error)
	UpdateChannel(ctx context.Context, tenantID, channelID snowflake.ID, req UpdateChannelRequest) (*Channel, error)
	DeleteChannel(ctx context.Context, tenantID, channelID snowflake.ID) error
	PostMessage(ctx context.Context, tenantID, authorID, channelID snowflake.ID, body string) (*Message, error)
	ListMessages(ctx context.Context, tenantID, channelID snowflake.ID, limit int) ([]Message, error)
}

type CreateChannelRequest struct {
	Name        string
	Description string
}

type UpdateChannelRequest struct {
	Name        *string
	Description *string
}
