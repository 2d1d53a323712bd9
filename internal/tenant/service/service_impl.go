package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	accountdomain "github.com/steeplehq/steeple/internal/account/domain"
	"github.com/steeplehq/steeple/internal/clock"
	"github.com/steeplehq/steeple/internal/tenant/domain"
	pkgdb "github.com/steeplehq/steeple/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	log         *zap.Logger
	db          *gorm.DB
	repo        domain.Repository
	accountRepo accountdomain.Repository
	genID       *snowflake.Node
	clock       clock.Clock
}

func NewService(log *zap.Logger, db *gorm.DB, repo domain.Repository, accountRepo accountdomain.Repository, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return &service{
		log:         log.Named("tenant.service"),
		db:          db,
		repo:        repo,
		accountRepo: accountRepo,
		genID:       genID,
		clock:       clk,
	}
}

func (s *service) Register(ctx context.Context, ownerID snowflake.ID, req domain.RegisterTenantRequest) (*domain.Tenant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	owner, err := s.accountRepo.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.TenantID != nil {
		return nil, domain.ErrAlreadyInTenant
	}

	now := s.clock.Now()
	tenant := &domain.Tenant{
		ID:             s.genID.Generate(),
		Name:           name,
		Slug:           slug.Make(name),
		Description:    strings.TrimSpace(req.Description),
		ContactEmail:   strings.TrimSpace(req.ContactEmail),
		ContactPhone:   strings.TrimSpace(req.ContactPhone),
		Status:         domain.StatusPending,
		OwnerAccountID: owner.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateTenant(ctx, tenant); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrSlugTaken
		}
		return nil, err
	}

	s.log.Info("tenant registered",
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("slug", tenant.Slug),
	)
	return tenant, nil
}

func (s *service) Approve(ctx context.Context, tenantID snowflake.ID) (*domain.Tenant, error) {
	tenant, err := s.repo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Status != domain.StatusPending {
		return nil, domain.ErrNotPending
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateFields(ctx, tenant.ID, map[string]any{
			"status":     domain.StatusApproved,
			"updated_at": now,
		}); err != nil {
			return err
		}

		// The owner becomes tenant admin the moment approval lands;
		// platform admins keep their platform role.
		fields := map[string]any{
			"tenant_id":  tenant.ID,
			"updated_at": now,
		}
		owner, err := s.accountRepo.FindByID(ctx, tenant.OwnerAccountID)
		if err != nil {
			return err
		}
		if owner.Role != accountdomain.RolePlatformAdmin {
			fields["role"] = accountdomain.RoleTenantAdmin
		}

		return tx.Model(&accountdomain.Account{}).
			Where("id = ?", tenant.OwnerAccountID).
			Updates(fields).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("tenant approved", zap.String("tenant_id", tenant.ID.String()))
	return s.repo.FindByID(ctx, tenant.ID)
}

func (s *service) Reject(ctx context.Context, tenantID snowflake.ID) (*domain.Tenant, error) {
	tenant, err := s.repo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Status != domain.StatusPending {
		return nil, domain.ErrNotPending
	}

	if err := s.repo.UpdateFields(ctx, tenant.ID, map[string]any{
		"status":     domain.StatusRejected,
		"updated_at": s.clock.Now(),
	}); err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, tenant.ID)
}

func (s *service) Get(ctx context.Context, tenantID snowflake.ID) (*domain.Tenant, error) {
	return s.repo.FindByID(ctx, tenantID)
}

func (s *service) List(ctx context.Context, status string) ([]domain.Tenant, error) {
	return s.repo.List(ctx, status)
}
