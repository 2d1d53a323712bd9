package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// Register files a new tenant for platform review. The registrant
	// keeps their current role until the tenant is approved.
	Register(ctx context.Context, ownerID snowflake.ID, req RegisterTenantRequest) (*Tenant, error)
	// Approve marks a pending tenant approved and promotes its owner
	// to tenant administrator in the same transaction.
	Approve(ctx context.Context, tenantID snowflake.ID) (*Tenant, error)
	// Reject marks a pending tenant rejected. Rejection is terminal.
	Reject(ctx context.Context, tenantID snowflake.ID) (*Tenant, error)
	Get(ctx context.Context, tenantID snowflake.ID) (*Tenant, error)
	List(ctx context.Context, status string) ([]Tenant, error)
}

type RegisterTenantRequest struct {
	Name         string
	Description  string
	ContactEmail string
	ContactPhone string
}
