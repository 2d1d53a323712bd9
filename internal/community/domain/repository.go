package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	// Posts.
	CreatePost(ctx context.Context, post *Post) error
	FindPost(ctx context.Context, id snowflake.ID) (*Post, error)
	ListPosts(ctx context.Context, tenantID snowflake.ID, publishedOnly bool) ([]Post, error)
	UpdatePostFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	DeletePost(ctx context.Context, id snowflake.ID) error

	// Events and RSVPs.
	CreateEvent(ctx context.Context, event *Event) error
	FindEvent(ctx context.Context, id snowflake.ID) (*Event, error)
	ListEvents(ctx context.Context, tenantID snowflake.ID) ([]Event, error)
	UpdateEventFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	DeleteEvent(ctx context.Context, id snowflake.ID) error
	UpsertRSVP(ctx context.Context, rsvp *EventRSVP) error
	ListRSVPs(ctx context.Context, eventID snowflake.ID) ([]EventRSVP, error)

	// Check-ins.
	CreateCheckIn(ctx context.Context, checkIn *CheckIn) error
	ListCheckIns(ctx context.Context, tenantID snowflake.ID, eventID *snowflake.ID) ([]CheckIn, error)

	// Ministry teams.
	CreateTeam(ctx context.Context, team *MinistryTeam) error
	FindTeam(ctx context.Context, id snowflake.ID) (*MinistryTeam, error)
	ListTeams(ctx context.Context, tenantID snowflake.ID) ([]MinistryTeam, error)
	UpdateTeamFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	DeleteTeam(ctx context.Context, id snowflake.ID) error
	AddTeamMember(ctx context.Context, member *TeamMember) error
	RemoveTeamMember(ctx context.Context, teamID, accountID snowflake.ID) error
	ListTeamMembers(ctx context.Context, teamID snowflake.ID) ([]TeamMember, error)

	// Media.
	CreateMedia(ctx context.Context, media *MediaFile) error
	FindMedia(ctx context.Context, id snowflake.ID) (*MediaFile, error)
	ListMedia(ctx context.Context, tenantID snowflake.ID) ([]MediaFile, error)
	DeleteMedia(ctx context.Context, id snowflake.ID) error
}
