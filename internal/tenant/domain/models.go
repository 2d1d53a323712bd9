// Package domain contains persistence models for the tenant service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Tenant lifecycle states. Rejection is terminal.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Tenant represents a community organization on the platform.
type Tenant struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Name           string       `gorm:"type:text;not null" json:"name"`
	Slug           string       `gorm:"type:text;not null;uniqueIndex:ux_tenants_slug" json:"slug"`
	Description    string       `gorm:"type:text" json:"description"`
	ContactEmail   string       `gorm:"column:contact_email;type:text" json:"contact_email"`
	ContactPhone   string       `gorm:"column:contact_phone;type:text" json:"contact_phone"`
	Status         string       `gorm:"type:text;not null;default:pending" json:"status"`
	OwnerAccountID snowflake.ID `gorm:"column:owner_account_id;not null;index" json:"owner_account_id"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }
