package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/steeplehq/steeple/internal/account/domain"
	"github.com/steeplehq/steeple/internal/account/repository"
	"github.com/steeplehq/steeple/internal/clock"
	"github.com/steeplehq/steeple/internal/identity"
	"github.com/steeplehq/steeple/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, clk clock.Clock) (accountdomain.Service, *identity.Verifier, accountdomain.Repository) {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&accountdomain.Account{}, &accountdomain.Session{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo, sessionRepo := repository.New(dbConn)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	verifier := identity.NewVerifier("test-secret", "https://id.test")
	if clk == nil {
		clk = clock.SystemClock{}
	}

	return New(zap.NewNop(), verifier, repo, sessionRepo, node, clk), verifier, repo
}

func signAssertion(t *testing.T, verifier *identity.Verifier, id identity.Identity) string {
	t.Helper()
	assertion, err := verifier.Sign(id, time.Hour)
	if err != nil {
		t.Fatalf("failed to sign assertion: %v", err)
	}
	return assertion
}

func TestExchangeProvisionsAccount(t *testing.T) {
	svc, verifier, _ := newTestService(t, nil)

	assertion := signAssertion(t, verifier, identity.Identity{
		Subject:    "sub-1",
		Email:      "alice@example.com",
		GivenName:  "Alice",
		FamilyName: "Smith",
	})

	result, err := svc.ExchangeAssertion(context.Background(), accountdomain.ExchangeRequest{Assertion: assertion})
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if result.Account.Role != accountdomain.RoleMember {
		t.Fatalf("expected member role, got %s", result.Account.Role)
	}
	if result.Account.TenantID != nil {
		t.Fatalf("expected no tenant on a fresh account")
	}
	if result.RawToken == "" {
		t.Fatal("expected a session token")
	}

	session, err := svc.Authenticate(context.Background(), result.RawToken)
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if session.AccountID != result.Account.ID {
		t.Fatalf("session bound to wrong account")
	}
}

func TestExchangeMatchesBySubject(t *testing.T) {
	svc, verifier, _ := newTestService(t, nil)

	first, err := svc.ExchangeAssertion(context.Background(), accountdomain.ExchangeRequest{
		Assertion: signAssertion(t, verifier, identity.Identity{Subject: "sub-1", Email: "alice@example.com", GivenName: "Alice"}),
	})
	if err != nil {
		t.Fatalf("first exchange failed: %v", err)
	}

	second, err := svc.ExchangeAssertion(context.Background(), accountdomain.ExchangeRequest{
		Assertion: signAssertion(t, verifier, identity.Identity{Subject: "sub-1", Email: "alice@example.com", GivenName: "Alicia"}),
	})
	if err != nil {
		t.Fatalf("second exchange failed: %v", err)
	}

	if first.Account.ID != second.Account.ID {
		t.Fatalf("expected the same account across sign-ins")
	}
	if second.Account.FirstName != "Alicia" {
		t.Fatalf("expected refreshed profile, got %s", second.Account.FirstName)
	}
}

func TestExchangeLinksByEmail(t *testing.T) {
	svc, verifier, repo := newTestService(t, nil)

	node, _ := snowflake.NewNode(2)
	existing := &accountdomain.Account{
		ID:         node.Generate(),
		ExternalID: "pre-provisioned",
		Provider:   "import",
		Email:      "bob@example.com",
		Role:       accountdomain.RoleMember,
	}
	if err := repo.Create(context.Background(), existing); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	result, err := svc.ExchangeAssertion(context.Background(), accountdomain.ExchangeRequest{
		Assertion: signAssertion(t, verifier, identity.Identity{Subject: "sub-2", Email: "bob@example.com"}),
	})
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if result.Account.ID != existing.ID {
		t.Fatalf("expected the pre-provisioned account to be linked")
	}
	if result.Account.ExternalID != "sub-2" {
		t.Fatalf("expected subject to be bound, got %s", result.Account.ExternalID)
	}
}

func TestExchangeRejectsInvalidAssertion(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	_, err := svc.ExchangeAssertion(context.Background(), accountdomain.ExchangeRequest{Assertion: "garbage"})
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, verifier, _ := newTestService(t, nil)

	result, err := svc.ExchangeAssertion(context.Background(), accountdomain.ExchangeRequest{
		Assertion: signAssertion(t, verifier, identity.Identity{Subject: "sub-3", Email: "carol@example.com"}),
	})
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	if err := svc.Logout(context.Background(), result.RawToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	_, err = svc.Authenticate(context.Background(), result.RawToken)
	if err != accountdomain.ErrSessionRevoked {
		t.Fatalf("expected ErrSessionRevoked, got %v", err)
	}
}

func TestAuthenticateExpiredSession(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc, verifier, _ := newTestService(t, clk)

	result, err := svc.ExchangeAssertion(context.Background(), accountdomain.ExchangeRequest{
		Assertion: signAssertion(t, verifier, identity.Identity{Subject: "sub-4", Email: "dave@example.com"}),
	})
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	clk.Advance(8 * 24 * time.Hour)

	_, err = svc.Authenticate(context.Background(), result.RawToken)
	if err != accountdomain.ErrSessionExpired {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}
