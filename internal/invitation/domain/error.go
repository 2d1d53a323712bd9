package domain

import "errors"

var (
	ErrInvitationNotFound  = errors.New("invitation not found")
	ErrInvalidEmail        = errors.New("a valid invitee email is required")
	ErrInvalidRole         = errors.New("invitation role must be member or tenant_admin")
	ErrAlreadyMember       = errors.New("invitee already belongs to the tenant")
	ErrAlreadyInTenant     = errors.New("account already belongs to another tenant")
	ErrDuplicateInvitation = errors.New("a pending invitation already exists for this email")
	ErrRateLimited         = errors.New("invitation rate limit reached")
	ErrTenantNotApproved   = errors.New("tenant is not approved")
	ErrAlreadyUsed         = errors.New("invitation has already been used")
	ErrExpired             = errors.New("invitation has expired")
	ErrEmailMismatch       = errors.New("invitation is bound to a different email")
	ErrNotPending          = errors.New("invitation is no longer pending")
)
