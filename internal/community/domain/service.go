package domain

import (
	"context"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Service exposes tenant-scoped community content. Content belonging
// to other tenants is refused with ErrTenantMismatch.
type Service interface {
	CreatePost(ctx context.Context, tenantID, authorID snowflake.ID, req PostRequest) (*Post, error)
	GetPost(ctx context.Context, tenantID, postID snowflake.ID) (*Post, error)
	ListPosts(ctx context.Context, tenantID snowflake.ID, publishedOnly bool) ([]Post, error)
	UpdatePost(ctx context.Context, tenantID, postID snowflake.ID, req PostUpdateRequest) (*Post, error)
	DeletePost(ctx context.Context, tenantID, postID snowflake.ID) error

	CreateEvent(ctx context.Context, tenantID, creatorID snowflake.ID, req EventRequest) (*Event, error)
	GetEvent(ctx context.Context, tenantID, eventID snowflake.ID) (*Event, error)
	ListEvents(ctx context.Context, tenantID snowflake.ID) ([]Event, error)
	UpdateEvent(ctx context.Context, tenantID, eventID snowflake.ID, req EventUpdateRequest) (*Event, error)
	DeleteEvent(ctx context.Context, tenantID, eventID snowflake.ID) error
	RSVP(ctx context.Context, tenantID, eventID, accountID snowflake.ID, status string) (*EventRSVP, error)
	ListRSVPs(ctx context.Context, tenantID, eventID snowflake.ID) ([]EventRSVP, error)

	CheckIn(ctx context.Context, tenantID, accountID snowflake.ID, req CheckInRequest) (*CheckIn, error)
	ListCheckIns(ctx context.Context, tenantID snowflake.ID, eventID *snowflake.ID) ([]CheckIn, error)

	CreateTeam(ctx context.Context, tenantID snowflake.ID, req TeamRequest) (*MinistryTeam, error)
	GetTeam(ctx context.Context, tenantID, teamID snowflake.ID) (*MinistryTeam, error)
	ListTeams(ctx context.Context, tenantID snowflake.ID) ([]MinistryTeam, error)
	DeleteTeam(ctx context.Context, tenantID, teamID snowflake.ID) error
	AddTeamMember(ctx context.Context, tenantID, teamID, accountID snowflake.ID, role string) (*TeamMember, error)
	RemoveTeamMember(ctx context.Context, tenantID, teamID, accountID snowflake.ID) error
	ListTeamMembers(ctx context.Context, tenantID, teamID snowflake.ID) ([]TeamMember, error)

	SaveMedia(ctx context.Context, tenantID, uploaderID snowflake.ID, fileName, contentType string, content io.Reader) (*MediaFile, error)
	GetMedia(ctx context.Context, tenantID, mediaID snowflake.ID) (*MediaFile, error)
	OpenMedia(ctx context.Context, tenantID, mediaID snowflake.ID) (*MediaFile, io.ReadCloser, error)
	ListMedia(ctx context.Context, tenantID snowflake.ID) ([]MediaFile, error)
	DeleteMedia(ctx context.Context, tenantID, mediaID snowflake.ID) error
}

// Storage is the sink for media payloads.
type Storage interface {
	Put(ctx context.Context, key, contentType string, content io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

type PostRequest struct {
	Title     string
	Body      string
	Published bool
}

type PostUpdateRequest struct {
	Title     *string
	Body      *string
	Published *bool
}

type EventRequest struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      *time.Time
}

type EventUpdateRequest struct {
	Title       *string
	Description *string
	Location    *string
	StartsAt    *time.Time
	EndsAt      *time.Time
}

type CheckInRequest struct {
	EventID *snowflake.ID
	Note    string
}

type TeamRequest struct {
	Name        string
	Description string
	LeaderID    *snowflake.ID
}
