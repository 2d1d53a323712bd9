// Package domain contains core types for the invitation service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Invitation lifecycle states. Accepted, declined, and expired are all
// terminal. A revoked invitation is recorded as expired.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
	StatusExpired  = "expired"
)

// InvitationTTL is how long an invitation stays redeemable.
const InvitationTTL = 7 * 24 * time.Hour

// Invitation is a single-use, email-bound offer to join a tenant.
type Invitation struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID  `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	Email      string        `gorm:"type:text;not null" json:"email"`
	Role       string        `gorm:"type:text;not null;default:member" json:"role"`
	Token      string        `gorm:"type:text;not null;uniqueIndex" json:"-"`
	Status     string        `gorm:"type:text;not null;default:pending" json:"status"`
	InvitedBy  snowflake.ID  `gorm:"column:invited_by;not null" json:"invited_by"`
	AcceptedBy *snowflake.ID `gorm:"column:accepted_by" json:"accepted_by,omitempty"`
	ExpiresAt  time.Time     `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invitation) TableName() string { return "invitations" }
