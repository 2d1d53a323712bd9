package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/steeplehq/steeple/internal/account/domain"
	accountrepo "github.com/steeplehq/steeple/internal/account/repository"
	"github.com/steeplehq/steeple/internal/clock"
	"github.com/steeplehq/steeple/internal/config"
	invitationdomain "github.com/steeplehq/steeple/internal/invitation/domain"
	"github.com/steeplehq/steeple/internal/invitation/repository"
	"github.com/steeplehq/steeple/internal/providers/email"
	tenantdomain "github.com/steeplehq/steeple/internal/tenant/domain"
	tenantrepo "github.com/steeplehq/steeple/internal/tenant/repository"
	"github.com/steeplehq/steeple/pkg/db"
	"go.uber.org/zap"
)

type testEnv struct {
	svc         invitationdomain.Service
	repo        invitationdomain.Repository
	accountRepo accountdomain.Repository
	clk         *clock.FakeClock
	node        *snowflake.Node
	tenant      *tenantdomain.Tenant
	admin       *accountdomain.Account
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(
		&accountdomain.Account{},
		&tenantdomain.Tenant{},
		&invitationdomain.Invitation{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))

	accRepo, _ := accountrepo.New(dbConn)
	tenRepo := tenantrepo.NewRepository(dbConn)
	invRepo := repository.NewRepository(dbConn)

	env := &testEnv{
		repo:        invRepo,
		accountRepo: accRepo,
		clk:         clk,
		node:        node,
	}

	tenantID := node.Generate()
	env.admin = env.seedAccount(t, "admin@gracechapel.org", accountdomain.RoleTenantAdmin, &tenantID)
	env.tenant = &tenantdomain.Tenant{
		ID:             tenantID,
		Name:           "Grace Chapel",
		Slug:           "grace-chapel",
		Status:         tenantdomain.StatusApproved,
		OwnerAccountID: env.admin.ID,
	}
	if err := tenRepo.CreateTenant(context.Background(), env.tenant); err != nil {
		t.Fatalf("failed to seed tenant: %v", err)
	}

	env.svc = NewService(
		zap.NewNop(),
		dbConn,
		config.Config{PublicBaseURL: "http://localhost:8080"},
		invRepo,
		accRepo,
		tenRepo,
		NewLimiter(clk),
		&email.NoOpProvider{},
		node,
		clk,
	)
	return env
}

func (e *testEnv) seedAccount(t *testing.T, emailAddr, role string, tenantID *snowflake.ID) *accountdomain.Account {
	t.Helper()
	account := &accountdomain.Account{
		ID:         e.node.Generate(),
		ExternalID: "sub-" + emailAddr,
		Provider:   "oidc",
		Email:      emailAddr,
		Role:       role,
		TenantID:   tenantID,
	}
	if err := e.accountRepo.Create(context.Background(), account); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	return account
}

func (e *testEnv) issue(t *testing.T, emailAddr string) *invitationdomain.Invitation {
	t.Helper()
	invitation, err := e.svc.Issue(context.Background(), invitationdomain.IssueRequest{
		TenantID:  e.tenant.ID,
		InvitedBy: e.admin.ID,
		Email:     emailAddr,
	})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	return invitation
}

func TestIssueAndAccept(t *testing.T) {
	env := newTestEnv(t)
	invitee := env.seedAccount(t, "newcomer@example.com", accountdomain.RoleMember, nil)

	invitation := env.issue(t, "newcomer@example.com")
	if invitation.Status != invitationdomain.StatusPending {
		t.Fatalf("expected pending invitation, got %s", invitation.Status)
	}

	accepted, err := env.svc.Accept(context.Background(), invitation.Token, invitee.ID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != invitationdomain.StatusAccepted {
		t.Fatalf("expected accepted status, got %s", accepted.Status)
	}
	if accepted.AcceptedBy == nil || *accepted.AcceptedBy != invitee.ID {
		t.Fatalf("expected accepted_by to record the invitee")
	}

	refreshed, err := env.accountRepo.FindByID(context.Background(), invitee.ID)
	if err != nil {
		t.Fatalf("failed to reload invitee: %v", err)
	}
	if refreshed.TenantID == nil || *refreshed.TenantID != env.tenant.ID {
		t.Fatalf("expected invitee attached to tenant")
	}
	if refreshed.Role != accountdomain.RoleMember {
		t.Fatalf("unexpected role %s", refreshed.Role)
	}
}

func TestAcceptIsSingleUse(t *testing.T) {
	env := newTestEnv(t)
	invitee := env.seedAccount(t, "newcomer@example.com", accountdomain.RoleMember, nil)

	invitation := env.issue(t, "newcomer@example.com")
	if _, err := env.svc.Accept(context.Background(), invitation.Token, invitee.ID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err := env.svc.Accept(context.Background(), invitation.Token, invitee.ID)
	if err != invitationdomain.ErrAlreadyUsed {
		t.Fatalf("expected ErrAlreadyUsed, got %v", err)
	}
}

func TestAcceptBindsToExactEmail(t *testing.T) {
	env := newTestEnv(t)
	imposter := env.seedAccount(t, "Newcomer@example.com", accountdomain.RoleMember, nil)

	invitation := env.issue(t, "newcomer@example.com")

	// Email binding is case-sensitive byte equality.
	_, err := env.svc.Accept(context.Background(), invitation.Token, imposter.ID)
	if err != invitationdomain.ErrEmailMismatch {
		t.Fatalf("expected ErrEmailMismatch, got %v", err)
	}
}

func TestAcceptExpiredInvitation(t *testing.T) {
	env := newTestEnv(t)
	invitee := env.seedAccount(t, "newcomer@example.com", accountdomain.RoleMember, nil)

	invitation := env.issue(t, "newcomer@example.com")
	env.clk.Advance(8 * 24 * time.Hour)

	_, err := env.svc.Accept(context.Background(), invitation.Token, invitee.ID)
	if err != invitationdomain.ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	// Expiry is persisted when redemption first observes it.
	stored, err := env.repo.FindByID(context.Background(), invitation.ID)
	if err != nil {
		t.Fatalf("failed to reload invitation: %v", err)
	}
	if stored.Status != invitationdomain.StatusExpired {
		t.Fatalf("expected persisted expired status, got %s", stored.Status)
	}
}

func TestAcceptWhileInAnotherTenant(t *testing.T) {
	env := newTestEnv(t)
	otherTenant := env.node.Generate()
	invitee := env.seedAccount(t, "newcomer@example.com", accountdomain.RoleMember, &otherTenant)

	invitation := env.issue(t, "newcomer@example.com")

	_, err := env.svc.Accept(context.Background(), invitation.Token, invitee.ID)
	if err != invitationdomain.ErrAlreadyInTenant {
		t.Fatalf("expected ErrAlreadyInTenant, got %v", err)
	}
}

func TestIssueRejectsExistingMember(t *testing.T) {
	env := newTestEnv(t)
	env.seedAccount(t, "member@example.com", accountdomain.RoleMember, &env.tenant.ID)

	_, err := env.svc.Issue(context.Background(), invitationdomain.IssueRequest{
		TenantID:  env.tenant.ID,
		InvitedBy: env.admin.ID,
		Email:     "member@example.com",
	})
	if err != invitationdomain.ErrAlreadyMember {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestIssueRejectsDuplicatePending(t *testing.T) {
	env := newTestEnv(t)
	env.issue(t, "newcomer@example.com")

	_, err := env.svc.Issue(context.Background(), invitationdomain.IssueRequest{
		TenantID:  env.tenant.ID,
		InvitedBy: env.admin.ID,
		Email:     "newcomer@example.com",
	})
	if err != invitationdomain.ErrDuplicateInvitation {
		t.Fatalf("expected ErrDuplicateInvitation, got %v", err)
	}
}

func TestIssueSlidingWindowRateLimit(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 10; i++ {
		env.issue(t, fmt.Sprintf("guest%d@example.com", i))
	}

	_, err := env.svc.Issue(context.Background(), invitationdomain.IssueRequest{
		TenantID:  env.tenant.ID,
		InvitedBy: env.admin.ID,
		Email:     "overflow@example.com",
	})
	if err != invitationdomain.ErrRateLimited {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// Quota frees up as issuance timestamps slide out of the window.
	env.clk.Advance(61 * time.Minute)
	env.issue(t, "overflow@example.com")
}

func TestRateLimitIsPerInviter(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 10; i++ {
		env.issue(t, fmt.Sprintf("guest%d@example.com", i))
	}
	_, err := env.svc.Issue(context.Background(), invitationdomain.IssueRequest{
		TenantID:  env.tenant.ID,
		InvitedBy: env.admin.ID,
		Email:     "overflow@example.com",
	})
	if err != invitationdomain.ErrRateLimited {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// A colleague exhausting their own window must not spend anyone
	// else's quota.
	second := env.seedAccount(t, "second-admin@gracechapel.org", accountdomain.RoleTenantAdmin, &env.tenant.ID)
	if _, err := env.svc.Issue(context.Background(), invitationdomain.IssueRequest{
		TenantID:  env.tenant.ID,
		InvitedBy: second.ID,
		Email:     "overflow@example.com",
	}); err != nil {
		t.Fatalf("second admin's first issue failed: %v", err)
	}
}

func TestReissueAfterPendingInviteLapses(t *testing.T) {
	env := newTestEnv(t)
	first := env.issue(t, "newcomer@example.com")

	// Nobody redeemed the invite and it aged past its TTL.
	env.clk.Advance(8 * 24 * time.Hour)

	second, err := env.svc.Issue(context.Background(), invitationdomain.IssueRequest{
		TenantID:  env.tenant.ID,
		InvitedBy: env.admin.ID,
		Email:     "newcomer@example.com",
	})
	if err != nil {
		t.Fatalf("reissue after lapse failed: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh invitation, not the lapsed one")
	}

	refreshed, err := env.repo.FindByID(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("load lapsed invitation: %v", err)
	}
	if refreshed.Status != invitationdomain.StatusExpired {
		t.Fatalf("expected lapsed invitation to be expired, got %s", refreshed.Status)
	}
}

func TestFailedIssueDoesNotConsumeQuota(t *testing.T) {
	env := newTestEnv(t)
	env.issue(t, "first@example.com")

	for i := 0; i < 15; i++ {
		_, err := env.svc.Issue(context.Background(), invitationdomain.IssueRequest{
			TenantID:  env.tenant.ID,
			InvitedBy: env.admin.ID,
			Email:     "first@example.com",
		})
		if err != invitationdomain.ErrDuplicateInvitation {
			t.Fatalf("expected ErrDuplicateInvitation, got %v", err)
		}
	}

	for i := 0; i < 9; i++ {
		env.issue(t, fmt.Sprintf("guest%d@example.com", i))
	}
}

func TestDeclineIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	invitee := env.seedAccount(t, "newcomer@example.com", accountdomain.RoleMember, nil)

	invitation := env.issue(t, "newcomer@example.com")

	declined, err := env.svc.Decline(context.Background(), invitation.Token, invitee.ID)
	if err != nil {
		t.Fatalf("decline failed: %v", err)
	}
	if declined.Status != invitationdomain.StatusDeclined {
		t.Fatalf("expected declined status, got %s", declined.Status)
	}

	_, err = env.svc.Accept(context.Background(), invitation.Token, invitee.ID)
	if err != invitationdomain.ErrAlreadyUsed {
		t.Fatalf("expected ErrAlreadyUsed, got %v", err)
	}
}

func TestRevokeWithdrawsInvitation(t *testing.T) {
	env := newTestEnv(t)
	invitee := env.seedAccount(t, "newcomer@example.com", accountdomain.RoleMember, nil)

	invitation := env.issue(t, "newcomer@example.com")

	revoked, err := env.svc.Revoke(context.Background(), env.tenant.ID, invitation.ID)
	if err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if revoked.Status != invitationdomain.StatusExpired {
		t.Fatalf("expected revoked invitation to read expired, got %s", revoked.Status)
	}

	if _, err := env.svc.Accept(context.Background(), invitation.Token, invitee.ID); err != invitationdomain.ErrExpired {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestRevokeScopedToTenant(t *testing.T) {
	env := newTestEnv(t)
	invitation := env.issue(t, "newcomer@example.com")

	_, err := env.svc.Revoke(context.Background(), env.node.Generate(), invitation.ID)
	if err != invitationdomain.ErrInvitationNotFound {
		t.Fatalf("expected ErrInvitationNotFound, got %v", err)
	}
}

func TestListComputesExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.issue(t, "newcomer@example.com")
	env.clk.Advance(8 * 24 * time.Hour)

	invitations, err := env.svc.ListByTenant(context.Background(), env.tenant.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(invitations) != 1 {
		t.Fatalf("expected 1 invitation, got %d", len(invitations))
	}
	if invitations[0].Status != invitationdomain.StatusExpired {
		t.Fatalf("expected computed expired status, got %s", invitations[0].Status)
	}
}
