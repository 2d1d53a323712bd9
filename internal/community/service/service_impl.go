package service

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/steeplehq/steeple/internal/clock"
	"github.com/steeplehq/steeple/internal/community/domain"
	pkgdb "github.com/steeplehq/steeple/pkg/db"
	"go.uber.org/zap"
)

type service struct {
	log     *zap.Logger
	repo    domain.Repository
	storage domain.Storage
	genID   *snowflake.Node
	clock   clock.Clock
}

func NewService(log *zap.Logger, repo domain.Repository, storage domain.Storage, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &service{
		log:     log.Named("community.service"),
		repo:    repo,
		storage: storage,
		genID:   genID,
		clock:   clk,
	}
}

func (s *service) CreatePost(ctx context.Context, tenantID, authorID snowflake.ID, req domain.PostRequest) (*domain.Post, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	now := s.clock.Now()
	post := &domain.Post{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		AuthorID:  authorID,
		Title:     title,
		Slug:      slug.Make(title),
		Body:      req.Body,
		Published: req.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}
	return post, nil
}

func (s *service) GetPost(ctx context.Context, tenantID, postID snowflake.ID) (*domain.Post, error) {
	post, err := s.repo.FindPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.TenantID != tenantID {
		return nil, domain.ErrTenantMismatch
	}
	return post, nil
}

func (s *service) ListPosts(ctx context.Context, tenantID snowflake.ID, publishedOnly bool) ([]domain.Post, error) {
	return s.repo.ListPosts(ctx, tenantID, publishedOnly)
}

func (s *service) UpdatePost(ctx context.Context, tenantID, postID snowflake.ID, req domain.PostUpdateRequest) (*domain.Post, error) {
	post, err := s.GetPost(ctx, tenantID, postID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": s.clock.Now()}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		fields["title"] = title
		fields["slug"] = slug.Make(title)
	}
	if req.Body != nil {
		fields["body"] = *req.Body
	}
	if req.Published != nil {
		fields["published"] = *req.Published
	}

	if err := s.repo.UpdatePostFields(ctx, post.ID, fields); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}
	return s.repo.FindPost(ctx, post.ID)
}

func (s *service) DeletePost(ctx context.Context, tenantID, postID snowflake.ID) error {
	post, err := s.GetPost(ctx, tenantID, postID)
	if err != nil {
		return err
	}
	return s.repo.DeletePost(ctx, post.ID)
}

func (s *service) CreateEvent(ctx context.Context, tenantID, creatorID snowflake.ID, req domain.EventRequest) (*domain.Event, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if req.StartsAt.IsZero() {
		return nil, domain.ErrInvalidSchedule
	}

	now := s.clock.Now()
	event := &domain.Event{
		ID:          s.genID.Generate(),
		TenantID:    tenantID,
		Title:       title,
		Slug:        slug.Make(title),
		Description: strings.TrimSpace(req.Description),
		Location:    strings.TrimSpace(req.Location),
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateEvent(ctx, event); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}
	return event, nil
}

func (s *service) GetEvent(ctx context.Context, tenantID, eventID snowflake.ID) (*domain.Event, error) {
	event, err := s.repo.FindEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.TenantID != tenantID {
		return nil, domain.ErrTenantMismatch
	}
	return event, nil
}

func (s *service) ListEvents(ctx context.Context, tenantID snowflake.ID) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx, tenantID)
}

func (s *service) UpdateEvent(ctx context.Context, tenantID, eventID snowflake.ID, req domain.EventUpdateRequest) (*domain.Event, error) {
	event, err := s.GetEvent(ctx, tenantID, eventID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": s.clock.Now()}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		fields["title"] = title
		fields["slug"] = slug.Make(title)
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Location != nil {
		fields["location"] = strings.TrimSpace(*req.Location)
	}
	if req.StartsAt != nil {
		if req.StartsAt.IsZero() {
			return nil, domain.ErrInvalidSchedule
		}
		fields["starts_at"] = *req.StartsAt
	}
	if req.EndsAt != nil {
		fields["ends_at"] = *req.EndsAt
	}

	if err := s.repo.UpdateEventFields(ctx, event.ID, fields); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}
	return s.repo.FindEvent(ctx, event.ID)
}

func (s *service) DeleteEvent(ctx context.Context, tenantID, eventID snowflake.ID) error {
	event, err := s.GetEvent(ctx, tenantID, eventID)
	if err != nil {
		return err
	}
	return s.repo.DeleteEvent(ctx, event.ID)
}

func (s *service) RSVP(ctx context.Context, tenantID, eventID, accountID snowflake.ID, status string) (*domain.EventRSVP, error) {
	if !domain.ValidRSVPStatus(status) {
		return nil, domain.ErrInvalidRSVPStatus
	}

	event, err := s.GetEvent(ctx, tenantID, eventID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	rsvp := &domain.EventRSVP{
		ID:        s.genID.Generate(),
		EventID:   event.ID,
		AccountID: accountID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.UpsertRSVP(ctx, rsvp); err != nil {
		return nil, err
	}
	return rsvp, nil
}

func (s *service) ListRSVPs(ctx context.Context, tenantID, eventID snowflake.ID) ([]domain.EventRSVP, error) {
	event, err := s.GetEvent(ctx, tenantID, eventID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListRSVPs(ctx, event.ID)
}

func (s *service) CheckIn(ctx context.Context, tenantID, accountID snowflake.ID, req domain.CheckInRequest) (*domain.CheckIn, error) {
	if req.EventID != nil {
		if _, err := s.GetEvent(ctx, tenantID, *req.EventID); err != nil {
			return nil, err
		}
	}

	checkIn := &domain.CheckIn{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		EventID:   req.EventID,
		AccountID: accountID,
		Note:      strings.TrimSpace(req.Note),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateCheckIn(ctx, checkIn); err != nil {
		return nil, err
	}
	return checkIn, nil
}

func (s *service) ListCheckIns(ctx context.Context, tenantID snowflake.ID, eventID *snowflake.ID) ([]domain.CheckIn, error) {
	return s.repo.ListCheckIns(ctx, tenantID, eventID)
}

func (s *service) CreateTeam(ctx context.Context, tenantID snowflake.ID, req domain.TeamRequest) (*domain.MinistryTeam, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now()
	team := &domain.MinistryTeam{
		ID:          s.genID.Generate(),
		TenantID:    tenantID,
		Name:        name,
		Slug:        slug.Make(name),
		Description: strings.TrimSpace(req.Description),
		LeaderID:    req.LeaderID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateTeam(ctx, team); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	if req.LeaderID != nil {
		member := &domain.TeamMember{
			ID:        s.genID.Generate(),
			TeamID:    team.ID,
			AccountID: *req.LeaderID,
			Role:      domain.TeamRoleLeader,
			CreatedAt: now,
		}
		if err := s.repo.AddTeamMember(ctx, member); err != nil && !pkgdb.IsDuplicateKeyErr(err) {
			return nil, err
		}
	}
	return team, nil
}

func (s *service) GetTeam(ctx context.Context, tenantID, teamID snowflake.ID) (*domain.MinistryTeam, error) {
	team, err := s.repo.FindTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.TenantID != tenantID {
		return nil, domain.ErrTenantMismatch
	}
	return team, nil
}

func (s *service) ListTeams(ctx context.Context, tenantID snowflake.ID) ([]domain.MinistryTeam, error) {
	return s.repo.ListTeams(ctx, tenantID)
}

func (s *service) DeleteTeam(ctx context.Context, tenantID, teamID snowflake.ID) error {
	team, err := s.GetTeam(ctx, tenantID, teamID)
	if err != nil {
		return err
	}
	return s.repo.DeleteTeam(ctx, team.ID)
}

func (s *service) AddTeamMember(ctx context.Context, tenantID, teamID, accountID snowflake.ID, role string) (*domain.TeamMember, error) {
	team, err := s.GetTeam(ctx, tenantID, teamID)
	if err != nil {
		return nil, err
	}

	if role != domain.TeamRoleLeader {
		role = domain.TeamRoleMember
	}
	member := &domain.TeamMember{
		ID:        s.genID.Generate(),
		TeamID:    team.ID,
		AccountID: accountID,
		Role:      role,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.AddTeamMember(ctx, member); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyTeamMember
		}
		return nil, err
	}
	return member, nil
}

func (s *service) RemoveTeamMember(ctx context.Context, tenantID, teamID, accountID snowflake.ID) error {
	team, err := s.GetTeam(ctx, tenantID, teamID)
	if err != nil {
		return err
	}
	return s.repo.RemoveTeamMember(ctx, team.ID, accountID)
}

func (s *service) ListTeamMembers(ctx context.Context, tenantID, teamID snowflake.ID) ([]domain.TeamMember, error) {
	team, err := s.GetTeam(ctx, tenantID, teamID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTeamMembers(ctx, team.ID)
}

func (s *service) SaveMedia(ctx context.Context, tenantID, uploaderID snowflake.ID, fileName, contentType string, content io.Reader) (*domain.MediaFile, error) {
	fileName = strings.TrimSpace(path.Base(fileName))
	if fileName == "" || fileName == "." {
		return nil, domain.ErrEmptyMedia
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id := s.genID.Generate()
	key := tenantID.String() + "/" + id.String() + path.Ext(fileName)

	size, err := s.storage.Put(ctx, key, contentType, content)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		_ = s.storage.Remove(ctx, key)
		return nil, domain.ErrEmptyMedia
	}

	media := &domain.MediaFile{
		ID:          id,
		TenantID:    tenantID,
		UploaderID:  uploaderID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   size,
		StorageKey:  key,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.CreateMedia(ctx, media); err != nil {
		_ = s.storage.Remove(ctx, key)
		return nil, err
	}
	return media, nil
}

func (s *service) GetMedia(ctx context.Context, tenantID, mediaID snowflake.ID) (*domain.MediaFile, error) {
	media, err := s.repo.FindMedia(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if media.TenantID != tenantID {
		return nil, domain.ErrTenantMismatch
	}
	return media, nil
}

func (s *service) OpenMedia(ctx context.Context, tenantID, mediaID snowflake.ID) (*domain.MediaFile, io.ReadCloser, error) {
	media, err := s.GetMedia(ctx, tenantID, mediaID)
	if err != nil {
		return nil, nil, err
	}
	reader, err := s.storage.Open(ctx, media.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return media, reader, nil
}

func (s *service) ListMedia(ctx context.Context, tenantID snowflake.ID) ([]domain.MediaFile, error) {
	return s.repo.ListMedia(ctx, tenantID)
}

func (s *service) DeleteMedia(ctx context.Context, tenantID, mediaID snowflake.ID) error {
	media, err := s.GetMedia(ctx, tenantID, mediaID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteMedia(ctx, media.ID); err != nil {
		return err
	}
	if err := s.storage.Remove(ctx, media.StorageKey); err != nil {
		s.log.Warn("failed to remove media payload",
			zap.String("media_id", media.ID.String()),
			zap.Error(err),
		)
	}
	return nil
}
