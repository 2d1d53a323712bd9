// Package domain contains core types for the account service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role values ordered by privilege. An account holds exactly one role.
const (
	RolePlatformAdmin = "platform_admin"
	RoleTenantAdmin   = "tenant_admin"
	RoleMember        = "member"
)

// ValidRole reports whether role is one of the known role values.
func ValidRole(role string) bool {
	switch role {
	case RolePlatformAdmin, RoleTenantAdmin, RoleMember:
		return true
	}
	return false
}

// Account represents a person known to the platform. Accounts are
// provisioned on first sign-in through the identity provider.
type Account struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	ExternalID string        `gorm:"column:external_id;type:text;not null;index:uq_accounts_subject,unique" json:"-"`
	Provider   string        `gorm:"type:text;not null;default:oidc;index:uq_accounts_subject,unique" json:"-"`
	FirstName  string        `gorm:"column:first_name;type:text" json:"first_name"`
	LastName   string        `gorm:"column:last_name;type:text" json:"last_name"`
	Email      string        `gorm:"type:text;not null;uniqueIndex" json:"email"`
	AvatarURL  string        `gorm:"column:avatar_url;type:text" json:"avatar_url"`
	Role       string        `gorm:"type:text;not null;default:member" json:"role"`
	TenantID   *snowflake.ID `gorm:"column:tenant_id;index" json:"tenant_id,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	AccountID        snowflake.ID `gorm:"column:account_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:text"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
