package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/steeplehq/steeple/internal/account/domain"
	accountrepo "github.com/steeplehq/steeple/internal/account/repository"
	"github.com/steeplehq/steeple/internal/clock"
	tenantdomain "github.com/steeplehq/steeple/internal/tenant/domain"
	"github.com/steeplehq/steeple/internal/tenant/repository"
	"github.com/steeplehq/steeple/pkg/db"
	"go.uber.org/zap"
)

type testEnv struct {
	svc         tenantdomain.Service
	accountRepo accountdomain.Repository
	node        *snowflake.Node
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&accountdomain.Account{}, &tenantdomain.Tenant{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo := repository.NewRepository(dbConn)
	accRepo, _ := accountrepo.New(dbConn)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	return &testEnv{
		svc:         NewService(zap.NewNop(), dbConn, repo, accRepo, node, clk),
		accountRepo: accRepo,
		node:        node,
	}
}

func (e *testEnv) seedAccount(t *testing.T, email, role string) *accountdomain.Account {
	t.Helper()
	account := &accountdomain.Account{
		ID:         e.node.Generate(),
		ExternalID: "sub-" + email,
		Provider:   "oidc",
		Email:      email,
		Role:       role,
	}
	if err := e.accountRepo.Create(context.Background(), account); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	return account
}

func TestRegisterLeavesRegistrantRoleUnchanged(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedAccount(t, "pastor@gracechapel.org", accountdomain.RoleMember)

	tenant, err := env.svc.Register(context.Background(), owner.ID, tenantdomain.RegisterTenantRequest{
		Name: "Grace Chapel",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if tenant.Status != tenantdomain.StatusPending {
		t.Fatalf("expected pending status, got %s", tenant.Status)
	}
	if tenant.Slug != "grace-chapel" {
		t.Fatalf("unexpected slug %s", tenant.Slug)
	}

	refreshed, err := env.accountRepo.FindByID(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("failed to reload owner: %v", err)
	}
	if refreshed.Role != accountdomain.RoleMember {
		t.Fatalf("registration must not change the registrant role, got %s", refreshed.Role)
	}
	if refreshed.TenantID != nil {
		t.Fatalf("registrant must not be attached before approval")
	}
}

func TestApprovePromotesOwnerAtomically(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedAccount(t, "pastor@gracechapel.org", accountdomain.RoleMember)

	tenant, err := env.svc.Register(context.Background(), owner.ID, tenantdomain.RegisterTenantRequest{Name: "Grace Chapel"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	approved, err := env.svc.Approve(context.Background(), tenant.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != tenantdomain.StatusApproved {
		t.Fatalf("expected approved status, got %s", approved.Status)
	}

	refreshed, err := env.accountRepo.FindByID(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("failed to reload owner: %v", err)
	}
	if refreshed.Role != accountdomain.RoleTenantAdmin {
		t.Fatalf("expected tenant_admin after approval, got %s", refreshed.Role)
	}
	if refreshed.TenantID == nil || *refreshed.TenantID != tenant.ID {
		t.Fatalf("expected owner attached to tenant")
	}
}

func TestApproveRequiresPendingStatus(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedAccount(t, "pastor@gracechapel.org", accountdomain.RoleMember)

	tenant, err := env.svc.Register(context.Background(), owner.ID, tenantdomain.RegisterTenantRequest{Name: "Grace Chapel"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := env.svc.Approve(context.Background(), tenant.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	_, err = env.svc.Approve(context.Background(), tenant.ID)
	if err != tenantdomain.ErrNotPending {
		t.Fatalf("expected ErrNotPending, got %v", err)
	}
}

func TestRejectIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedAccount(t, "pastor@gracechapel.org", accountdomain.RoleMember)

	tenant, err := env.svc.Register(context.Background(), owner.ID, tenantdomain.RegisterTenantRequest{Name: "Grace Chapel"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	rejected, err := env.svc.Reject(context.Background(), tenant.ID)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != tenantdomain.StatusRejected {
		t.Fatalf("expected rejected status, got %s", rejected.Status)
	}

	if _, err := env.svc.Approve(context.Background(), tenant.ID); err != tenantdomain.ErrNotPending {
		t.Fatalf("expected ErrNotPending after rejection, got %v", err)
	}

	refreshed, err := env.accountRepo.FindByID(context.Background(), owner.ID)
	if err != nil {
		t.Fatalf("failed to reload owner: %v", err)
	}
	if refreshed.Role != accountdomain.RoleMember {
		t.Fatalf("rejection must not grant any role, got %s", refreshed.Role)
	}
}

func TestRegisterRejectsSecondTenant(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedAccount(t, "pastor@gracechapel.org", accountdomain.RoleMember)

	tenant, err := env.svc.Register(context.Background(), owner.ID, tenantdomain.RegisterTenantRequest{Name: "Grace Chapel"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := env.svc.Approve(context.Background(), tenant.ID); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	_, err = env.svc.Register(context.Background(), owner.ID, tenantdomain.RegisterTenantRequest{Name: "Second Chapel"})
	if err != tenantdomain.ErrAlreadyInTenant {
		t.Fatalf("expected ErrAlreadyInTenant, got %v", err)
	}
}

func TestRegisterRequiresName(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedAccount(t, "pastor@gracechapel.org", accountdomain.RoleMember)

	_, err := env.svc.Register(context.Background(), owner.ID, tenantdomain.RegisterTenantRequest{Name: "   "})
	if err != tenantdomain.ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}
