package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/steeplehq/steeple/internal/account/domain"
	"github.com/steeplehq/steeple/internal/clock"
	"github.com/steeplehq/steeple/internal/config"
	"github.com/steeplehq/steeple/internal/invitation/domain"
	"github.com/steeplehq/steeple/internal/providers/email"
	tenantdomain "github.com/steeplehq/steeple/internal/tenant/domain"
	pkgdb "github.com/steeplehq/steeple/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const inviteTokenBytes = 32

type service struct {
	log         *zap.Logger
	db          *gorm.DB
	repo        domain.Repository
	accountRepo accountdomain.Repository
	tenantRepo  tenantdomain.Repository
	limiter     *Limiter
	mailer      email.Provider
	genID       *snowflake.Node
	clock       clock.Clock
	baseURL     string
}

func NewService(
	log *zap.Logger,
	db *gorm.DB,
	cfg config.Config,
	repo domain.Repository,
	accountRepo accountdomain.Repository,
	tenantRepo tenantdomain.Repository,
	limiter *Limiter,
	mailer email.Provider,
	genID *snowflake.Node,
	clk clock.Clock,
) domain.Service {
	return &service{
		log:         log.Named("invitation.service"),
		db:          db,
		repo:        repo,
		accountRepo: accountRepo,
		tenantRepo:  tenantRepo,
		limiter:     limiter,
		mailer:      mailer,
		genID:       genID,
		clock:       clk,
		baseURL:     cfg.PublicBaseURL,
	}
}

func (s *service) Issue(ctx context.Context, req domain.IssueRequest) (*domain.Invitation, error) {
	address, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	inviteeEmail := address.Address

	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = accountdomain.RoleMember
	}
	if role != accountdomain.RoleMember && role != accountdomain.RoleTenantAdmin {
		return nil, domain.ErrInvalidRole
	}

	tenant, err := s.tenantRepo.FindByID(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Status != tenantdomain.StatusApproved {
		return nil, domain.ErrTenantNotApproved
	}

	if existing, err := s.accountRepo.FindByEmail(ctx, inviteeEmail); err == nil {
		if existing.TenantID != nil && *existing.TenantID == tenant.ID {
			return nil, domain.ErrAlreadyMember
		}
	} else if !errors.Is(err, accountdomain.ErrAccountNotFound) {
		return nil, err
	}

	if pending, err := s.repo.FindPending(ctx, tenant.ID, inviteeEmail); err == nil {
		if s.clock.Now().Before(pending.ExpiresAt) {
			return nil, domain.ErrDuplicateInvitation
		}
		// The earlier invite lapsed unredeemed. Expire it so the email
		// can be invited again.
		if _, err := s.repo.UpdateFieldsWhereStatus(ctx, pending.ID, domain.StatusPending, map[string]any{
			"status":     domain.StatusExpired,
			"updated_at": s.clock.Now(),
		}); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, domain.ErrInvitationNotFound) {
		return nil, err
	}

	if !s.limiter.Allow(req.InvitedBy) {
		return nil, domain.ErrRateLimited
	}

	token, err := newInviteToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	invitation := &domain.Invitation{
		ID:        s.genID.Generate(),
		TenantID:  tenant.ID,
		Email:     inviteeEmail,
		Role:      role,
		Token:     token,
		Status:    domain.StatusPending,
		InvitedBy: req.InvitedBy,
		ExpiresAt: now.Add(domain.InvitationTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, invitation); err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateInvitation
		}
		return nil, err
	}

	s.limiter.Record(req.InvitedBy)
	s.sendInviteMail(invitation, tenant)

	s.log.Info("invitation issued",
		zap.String("invitation_id", invitation.ID.String()),
		zap.String("tenant_id", tenant.ID.String()),
	)
	return invitation, nil
}

func (s *service) Accept(ctx context.Context, token string, accountID snowflake.ID) (*domain.Invitation, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	invitation, err := s.redeemable(ctx, token)
	if err != nil {
		return nil, err
	}

	// The invitation is bound to the exact invitee email.
	if account.Email != invitation.Email {
		return nil, domain.ErrEmailMismatch
	}

	if account.TenantID != nil {
		if *account.TenantID == invitation.TenantID {
			return nil, domain.ErrAlreadyMember
		}
		return nil, domain.ErrAlreadyInTenant
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		changed, err := s.repo.WithTx(tx).UpdateFieldsWhereStatus(ctx, invitation.ID, domain.StatusPending, map[string]any{
			"status":      domain.StatusAccepted,
			"accepted_by": accountID,
			"updated_at":  now,
		})
		if err != nil {
			return err
		}
		if !changed {
			// Another redemption won the race.
			return domain.ErrAlreadyUsed
		}

		fields := map[string]any{
			"tenant_id":  invitation.TenantID,
			"updated_at": now,
		}
		if account.Role != accountdomain.RolePlatformAdmin {
			fields["role"] = invitation.Role
		}
		return tx.Model(&accountdomain.Account{}).
			Where("id = ?", accountID).
			Updates(fields).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invitation accepted",
		zap.String("invitation_id", invitation.ID.String()),
		zap.String("account_id", accountID.String()),
	)
	return s.repo.FindByID(ctx, invitation.ID)
}

func (s *service) Decline(ctx context.Context, token string, accountID snowflake.ID) (*domain.Invitation, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	invitation, err := s.redeemable(ctx, token)
	if err != nil {
		return nil, err
	}

	if account.Email != invitation.Email {
		return nil, domain.ErrEmailMismatch
	}

	changed, err := s.repo.UpdateFieldsWhereStatus(ctx, invitation.ID, domain.StatusPending, map[string]any{
		"status":     domain.StatusDeclined,
		"updated_at": s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, domain.ErrAlreadyUsed
	}

	return s.repo.FindByID(ctx, invitation.ID)
}

func (s *service) Revoke(ctx context.Context, tenantID, invitationID snowflake.ID) (*domain.Invitation, error) {
	invitation, err := s.repo.FindByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if invitation.TenantID != tenantID {
		return nil, domain.ErrInvitationNotFound
	}
	if invitation.Status != domain.StatusPending {
		return nil, domain.ErrNotPending
	}

	changed, err := s.repo.UpdateFieldsWhereStatus(ctx, invitation.ID, domain.StatusPending, map[string]any{
		"status":     domain.StatusExpired,
		"updated_at": s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, domain.ErrNotPending
	}

	return s.repo.FindByID(ctx, invitation.ID)
}

func (s *service) Lookup(ctx context.Context, token string) (*domain.Invitation, error) {
	invitation, err := s.repo.FindByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	if invitation.Status == domain.StatusPending && s.clock.Now().After(invitation.ExpiresAt) {
		invitation.Status = domain.StatusExpired
	}
	return invitation, nil
}

func (s *service) ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]domain.Invitation, error) {
	invitations, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	for i := range invitations {
		if invitations[i].Status == domain.StatusPending && now.After(invitations[i].ExpiresAt) {
			invitations[i].Status = domain.StatusExpired
		}
	}
	return invitations, nil
}

// redeemable loads an invitation by token and verifies it is still
// open. Expiry is persisted lazily at redemption time.
func (s *service) redeemable(ctx context.Context, token string) (*domain.Invitation, error) {
	invitation, err := s.repo.FindByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}

	switch invitation.Status {
	case domain.StatusPending:
	case domain.StatusExpired:
		return nil, domain.ErrExpired
	default:
		return nil, domain.ErrAlreadyUsed
	}

	if s.clock.Now().After(invitation.ExpiresAt) {
		if _, err := s.repo.UpdateFieldsWhereStatus(ctx, invitation.ID, domain.StatusPending, map[string]any{
			"status":     domain.StatusExpired,
			"updated_at": s.clock.Now(),
		}); err != nil {
			return nil, err
		}
		return nil, domain.ErrExpired
	}

	return invitation, nil
}

func (s *service) sendInviteMail(invitation *domain.Invitation, tenant *tenantdomain.Tenant) {
	inviter, err := s.accountRepo.FindByID(context.Background(), invitation.InvitedBy)
	inviterName := ""
	if err == nil {
		inviterName = strings.TrimSpace(inviter.FirstName + " " + inviter.LastName)
	}
	if inviterName == "" {
		inviterName = "A community admin"
	}

	acceptURL := fmt.Sprintf("%s/invitations/accept/%s", s.baseURL, invitation.Token)
	data := map[string]interface{}{
		"tenant_name":  tenant.Name,
		"inviter_name": inviterName,
		"accept_url":   acceptURL,
		"expires_at":   invitation.ExpiresAt.Format("January 2, 2006"),
	}

	// Delivery must not block or fail the issuing request.
	go func() {
		if err := s.mailer.SendTemplate(context.Background(), []string{invitation.Email}, "invite_member", data); err != nil {
			s.log.Warn("failed to send invitation email",
				zap.String("invitation_id", invitation.ID.String()),
				zap.Error(err),
			)
		}
	}()
}

func newInviteToken() (string, error) {
	buf := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
