package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// ExchangeAssertion verifies an identity-provider assertion and
	// returns a logged-in session, provisioning the account on first
	// sign-in.
	ExchangeAssertion(ctx context.Context, req ExchangeRequest) (*LoginResult, error)
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	Logout(ctx context.Context, rawToken string) error
	FindByID(ctx context.Context, id snowflake.ID) (*Account, error)
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]Account, error)
}

type ExchangeRequest struct {
	// Provider names the external identity provider the assertion came
	// from. Defaults to "oidc".
	Provider  string
	Assertion string
	UserAgent string
	IPAddress string
}

type LoginResult struct {
	Account   *Account
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}
