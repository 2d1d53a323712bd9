package domain

import "errors"

var (
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrInvalidName     = errors.New("tenant name is required")
	ErrSlugTaken       = errors.New("tenant slug already in use")
	ErrAlreadyInTenant = errors.New("account already belongs to a tenant")
	ErrNotPending      = errors.New("tenant is not pending review")
)
