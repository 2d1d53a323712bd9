package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Issue creates a pending invitation and emails the invitee. The
	// tenant's rate-limit quota is only consumed when issuing succeeds.
	Issue(ctx context.Context, req IssueRequest) (*Invitation, error)
	// Accept redeems an invitation for the signed-in account. The
	// invitation must be pending, unexpired, and bound to the exact
	// email of the account.
	Accept(ctx context.Context, token string, accountID snowflake.ID) (*Invitation, error)
	// Decline marks a pending invitation declined without joining.
	Decline(ctx context.Context, token string, accountID snowflake.ID) (*Invitation, error)
	// Revoke withdraws a pending invitation on behalf of the tenant.
	Revoke(ctx context.Context, tenantID, invitationID snowflake.ID) (*Invitation, error)
	Lookup(ctx context.Context, token string) (*Invitation, error)
	ListByTenant(ctx context.Context, tenantID snowflake.ID) ([]Invitation, error)
}

type IssueRequest struct {
	TenantID  snowflake.ID
	InvitedBy snowflake.ID
	Email     string
	Role      string
}
