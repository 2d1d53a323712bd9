// Package domain contains core types for the channel service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Channel is a named message stream scoped to a tenant.
type Channel struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID `gorm:"column:tenant_id;not null;index;uniqueIndex:ux_channels_tenant_slug,priority:1" json:"tenant_id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Slug        string       `gorm:"type:text;not null;uniqueIndex:ux_channels_tenant_slug,priority:2" json:"slug"`
	Description string       `gorm:"type:text" json:"description"`
	CreatedBy   snowflake.ID `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Channel) TableName() string { return "channels" }

// Message is a single post in a channel.
type Message struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ChannelID snowflake.ID `gorm:"column:channel_id;not null;index" json:"channel_id"`
	TenantID  snowflake.ID `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	AuthorID  snowflake.ID `gorm:"column:author_id;not null" json:"author_id"`
	Body      string       `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Message) TableName() string { return "messages" }

// Broadcaster pushes a stored message to live subscribers of its
// channel. Implementations must not block.
type Broadcaster interface {
	BroadcastMessage(message *Message)
}

// NoOpBroadcaster drops messages. Used where no live fanout exists.
type NoOpBroadcaster struct{}

func (NoOpBroadcaster) BroadcastMessage(*Message) {}
