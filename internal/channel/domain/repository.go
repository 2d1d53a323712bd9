package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	CreateChannel(ctx context.Context, channel *Channel) error
	FindByID(ctx context.Context, id snowflake.ID) (*Channel, error)
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]Channel, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	DeleteChannel(ctx context.Context, id snowflake.ID) error
	CreateMessage(ctx context.Context, message *Message) error
	ListMessages(ctx context.Context, channelID snowflake.ID, limit int) ([]Message, error)
}
