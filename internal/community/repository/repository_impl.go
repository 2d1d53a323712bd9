package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/steeplehq/steeple/internal/community/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) CreatePost(ctx context.Context, post *domain.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *repo) FindPost(ctx context.Context, id snowflake.ID) (*domain.Post, error) {
	var post domain.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *repo) ListPosts(ctx context.Context, tenantID snowflake.ID, publishedOnly bool) ([]domain.Post, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if publishedOnly {
		query = query.Where("published = ?", true)
	}

	var posts []domain.Post
	if err := query.Order("created_at DESC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *repo) UpdatePostFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.Post{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *repo) DeletePost(ctx context.Context, id snowflake.ID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Post{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *repo) CreateEvent(ctx context.Context, event *domain.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repo) FindEvent(ctx context.Context, id snowflake.ID) (*domain.Event, error) {
	var event domain.Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repo) ListEvents(ctx context.Context, tenantID snowflake.ID) ([]domain.Event, error) {
	var events []domain.Event
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("starts_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) UpdateEventFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.Event{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *repo) DeleteEvent(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&domain.EventRSVP{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&domain.Event{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrEventNotFound
		}
		return nil
	})
}

func (r *repo) UpsertRSVP(ctx context.Context, rsvp *domain.EventRSVP) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(rsvp).Error
}

func (r *repo) ListRSVPs(ctx context.Context, eventID snowflake.ID) ([]domain.EventRSVP, error) {
	var rsvps []domain.EventRSVP
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&rsvps).Error
	if err != nil {
		return nil, err
	}
	return rsvps, nil
}

func (r *repo) CreateCheckIn(ctx context.Context, checkIn *domain.CheckIn) error {
	return r.db.WithContext(ctx).Create(checkIn).Error
}

func (r *repo) ListCheckIns(ctx context.Context, tenantID snowflake.ID, eventID *snowflake.ID) ([]domain.CheckIn, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if eventID != nil {
		query = query.Where("event_id = ?", *eventID)
	}

	var checkIns []domain.CheckIn
	if err := query.Order("created_at DESC").Find(&checkIns).Error; err != nil {
		return nil, err
	}
	return checkIns, nil
}

func (r *repo) CreateTeam(ctx context.Context, team *domain.MinistryTeam) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *repo) FindTeam(ctx context.Context, id snowflake.ID) (*domain.MinistryTeam, error) {
	var team domain.MinistryTeam
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *repo) ListTeams(ctx context.Context, tenantID snowflake.ID) ([]domain.MinistryTeam, error) {
	var teams []domain.MinistryTeam
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *repo) UpdateTeamFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.MinistryTeam{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

func (r *repo) DeleteTeam(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&domain.TeamMember{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&domain.MinistryTeam{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrTeamNotFound
		}
		return nil
	})
}

func (r *repo) AddTeamMember(ctx context.Context, member *domain.TeamMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *repo) RemoveTeamMember(ctx context.Context, teamID, accountID snowflake.ID) error {
	result := r.db.WithContext(ctx).
		Where("team_id = ? AND account_id = ?", teamID, accountID).
		Delete(&domain.TeamMember{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotTeamMember
	}
	return nil
}

func (r *repo) ListTeamMembers(ctx context.Context, teamID snowflake.ID) ([]domain.TeamMember, error) {
	var members []domain.TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repo) CreateMedia(ctx context.Context, media *domain.MediaFile) error {
	return r.db.WithContext(ctx).Create(media).Error
}

func (r *repo) FindMedia(ctx context.Context, id snowflake.ID) (*domain.MediaFile, error) {
	var media domain.MediaFile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&media).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrMediaNotFound
	}
	if err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *repo) ListMedia(ctx context.Context, tenantID snowflake.ID) ([]domain.MediaFile, error) {
	var media []domain.MediaFile
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&media).Error
	if err != nil {
		return nil, err
	}
	return media, nil
}

func (r *repo) DeleteMedia(ctx context.Context, id snowflake.ID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.MediaFile{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrMediaNotFound
	}
	return nil
}
