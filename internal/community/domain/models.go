// Package domain contains core types for the community content service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RSVP statuses.
const (
	RSVPGoing    = "going"
	RSVPMaybe    = "maybe"
	RSVPDeclined = "declined"
)

// ValidRSVPStatus reports whether status is a known RSVP value.
func ValidRSVPStatus(status string) bool {
	switch status {
	case RSVPGoing, RSVPMaybe, RSVPDeclined:
		return true
	}
	return false
}

// Team member roles.
const (
	TeamRoleLeader = "leader"
	TeamRoleMember = "member"
)

// Post is a tenant announcement or article.
type Post struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"column:tenant_id;not null;index;uniqueIndex:ux_posts_tenant_slug,priority:1" json:"tenant_id"`
	AuthorID  snowflake.ID `gorm:"column:author_id;not null" json:"author_id"`
	Title     string       `gorm:"type:text;not null" json:"title"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex:ux_posts_tenant_slug,priority:2" json:"slug"`
	Body      string       `gorm:"type:text" json:"body"`
	Published bool         `gorm:"not null;default:false" json:"published"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Post) TableName() string { return "posts" }

// Event is a scheduled gathering.
type Event struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID `gorm:"column:tenant_id;not null;index;uniqueIndex:ux_events_tenant_slug,priority:1" json:"tenant_id"`
	Title       string       `gorm:"type:text;not null" json:"title"`
	Slug        string       `gorm:"type:text;not null;uniqueIndex:ux_events_tenant_slug,priority:2" json:"slug"`
	Description string       `gorm:"type:text" json:"description"`
	Location    string       `gorm:"type:text" json:"location"`
	StartsAt    time.Time    `gorm:"column:starts_at;not null" json:"starts_at"`
	EndsAt      *time.Time   `gorm:"column:ends_at" json:"ends_at,omitempty"`
	CreatedBy   snowflake.ID `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Event) TableName() string { return "events" }

// EventRSVP records one account's standing reply to an event.
type EventRSVP struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	EventID   snowflake.ID `gorm:"column:event_id;not null;index;uniqueIndex:ux_rsvps_event_account,priority:1" json:"event_id"`
	AccountID snowflake.ID `gorm:"column:account_id;not null;uniqueIndex:ux_rsvps_event_account,priority:2" json:"account_id"`
	Status    string       `gorm:"type:text;not null;default:going" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (EventRSVP) TableName() string { return "event_rsvps" }

// CheckIn records attendance, optionally against an event.
type CheckIn struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID  `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	EventID   *snowflake.ID `gorm:"column:event_id;index" json:"event_id,omitempty"`
	AccountID snowflake.ID  `gorm:"column:account_id;not null" json:"account_id"`
	Note      string        `gorm:"type:text" json:"note"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CheckIn) TableName() string { return "check_ins" }

// MinistryTeam groups members serving together.
type MinistryTeam struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID  `gorm:"column:tenant_id;not null;index;uniqueIndex:ux_teams_tenant_slug,priority:1" json:"tenant_id"`
	Name        string        `gorm:"type:text;not null" json:"name"`
	Slug        string        `gorm:"type:text;not null;uniqueIndex:ux_teams_tenant_slug,priority:2" json:"slug"`
	Description string        `gorm:"type:text" json:"description"`
	LeaderID    *snowflake.ID `gorm:"column:leader_id" json:"leader_id,omitempty"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (MinistryTeam) TableName() string { return "ministry_teams" }

// TeamMember is membership of an account in a ministry team.
type TeamMember struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TeamID    snowflake.ID `gorm:"column:team_id;not null;index;uniqueIndex:ux_team_members,priority:1" json:"team_id"`
	AccountID snowflake.ID `gorm:"column:account_id;not null;uniqueIndex:ux_team_members,priority:2" json:"account_id"`
	Role      string       `gorm:"type:text;not null;default:member" json:"role"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TeamMember) TableName() string { return "team_members" }

// MediaFile is stored binary content owned by a tenant.
type MediaFile struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID `gorm:"column:tenant_id;not null;index" json:"tenant_id"`
	UploaderID  snowflake.ID `gorm:"column:uploader_id;not null" json:"uploader_id"`
	FileName    string       `gorm:"column:file_name;type:text;not null" json:"file_name"`
	ContentType string       `gorm:"column:content_type;type:text;not null" json:"content_type"`
	SizeBytes   int64        `gorm:"column:size_bytes;not null" json:"size_bytes"`
	StorageKey  string       `gorm:"column:storage_key;type:text;not null;uniqueIndex" json:"-"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (MediaFile) TableName() string { return "media_files" }
