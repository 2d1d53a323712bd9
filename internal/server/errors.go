package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/steeplehq/steeple/internal/account/domain"
	channeldomain "github.com/steeplehq/steeple/internal/channel/domain"
	communitydomain "github.com/steeplehq/steeple/internal/community/domain"
	"github.com/steeplehq/steeple/internal/identity"
	invitationdomain "github.com/steeplehq/steeple/internal/invitation/domain"
	tenantdomain "github.com/steeplehq/steeple/internal/tenant/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not_found")
	ErrNoTenant       = errors.New("no_tenant_assigned")
	ErrInvalidRequest = errors.New("invalid_request")
)

// ErrorHandlingMiddleware renders the last error recorded on the gin
// context once the handler chain has finished, unless a handler has
// written a response already.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}

	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, identity.ErrInvalidAssertion),
		errors.Is(err, accountdomain.ErrInvalidSession),
		errors.Is(err, accountdomain.ErrSessionNotFound),
		errors.Is(err, accountdomain.ErrSessionExpired),
		errors.Is(err, accountdomain.ErrSessionRevoked):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Code:    errorCode(err),
			Message: "unauthorized",
		}

	case errors.Is(err, ErrForbidden),
		errors.Is(err, invitationdomain.ErrEmailMismatch),
		errors.Is(err, channeldomain.ErrTenantMismatch),
		errors.Is(err, communitydomain.ErrTenantMismatch):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Code:    errorCode(err),
			Message: "forbidden",
		}

	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}

	case isInvitationStateError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "invitation_state",
			Code:    errorCode(err),
			Message: err.Error(),
		}

	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Code:    errorCode(err),
			Message: err.Error(),
		}

	case errors.Is(err, invitationdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: err.Error(),
		}

	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Code:    errorCode(err),
			Message: err.Error(),
		}

	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, accountdomain.ErrAccountNotFound),
		errors.Is(err, tenantdomain.ErrTenantNotFound),
		errors.Is(err, invitationdomain.ErrInvitationNotFound),
		errors.Is(err, channeldomain.ErrChannelNotFound),
		errors.Is(err, communitydomain.ErrPostNotFound),
		errors.Is(err, communitydomain.ErrEventNotFound),
		errors.Is(err, communitydomain.ErrTeamNotFound),
		errors.Is(err, communitydomain.ErrMediaNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// isInvitationStateError covers the invitation lifecycle violations
// that render as 400 rather than 409: duplicate or already-member at
// issue time, consumed or lapsed tokens at redemption time.
func isInvitationStateError(err error) bool {
	switch {
	case errors.Is(err, invitationdomain.ErrAlreadyMember),
		errors.Is(err, invitationdomain.ErrAlreadyInTenant),
		errors.Is(err, invitationdomain.ErrDuplicateInvitation),
		errors.Is(err, invitationdomain.ErrAlreadyUsed),
		errors.Is(err, invitationdomain.ErrNotPending),
		errors.Is(err, invitationdomain.ErrExpired):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, tenantdomain.ErrSlugTaken),
		errors.Is(err, tenantdomain.ErrAlreadyInTenant),
		errors.Is(err, tenantdomain.ErrNotPending),
		errors.Is(err, channeldomain.ErrSlugTaken),
		errors.Is(err, communitydomain.ErrSlugTaken),
		errors.Is(err, communitydomain.ErrAlreadyTeamMember):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrNoTenant),
		errors.Is(err, tenantdomain.ErrInvalidName),
		errors.Is(err, invitationdomain.ErrInvalidEmail),
		errors.Is(err, invitationdomain.ErrInvalidRole),
		errors.Is(err, invitationdomain.ErrTenantNotApproved),
		errors.Is(err, channeldomain.ErrInvalidName),
		errors.Is(err, channeldomain.ErrEmptyMessage),
		errors.Is(err, communitydomain.ErrInvalidTitle),
		errors.Is(err, communitydomain.ErrInvalidName),
		errors.Is(err, communitydomain.ErrInvalidRSVPStatus),
		errors.Is(err, communitydomain.ErrInvalidSchedule),
		errors.Is(err, communitydomain.ErrNotTeamMember),
		errors.Is(err, communitydomain.ErrEmptyMedia):
		return true
	default:
		return false
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, identity.ErrInvalidAssertion):
		return "invalid_assertion"
	case errors.Is(err, accountdomain.ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, accountdomain.ErrSessionRevoked):
		return "session_revoked"
	case errors.Is(err, invitationdomain.ErrEmailMismatch):
		return "email_mismatch"
	case errors.Is(err, channeldomain.ErrTenantMismatch),
		errors.Is(err, communitydomain.ErrTenantMismatch):
		return "tenant_mismatch"
	case errors.Is(err, invitationdomain.ErrAlreadyUsed):
		return "already_used"
	case errors.Is(err, invitationdomain.ErrExpired):
		return "expired"
	case errors.Is(err, invitationdomain.ErrDuplicateInvitation):
		return "duplicate_invitation"
	case errors.Is(err, invitationdomain.ErrAlreadyMember),
		errors.Is(err, tenantdomain.ErrAlreadyInTenant),
		errors.Is(err, invitationdomain.ErrAlreadyInTenant):
		return "already_member"
	case errors.Is(err, invitationdomain.ErrNotPending),
		errors.Is(err, tenantdomain.ErrNotPending):
		return "not_pending"
	case errors.Is(err, tenantdomain.ErrSlugTaken),
		errors.Is(err, channeldomain.ErrSlugTaken),
		errors.Is(err, communitydomain.ErrSlugTaken):
		return "slug_taken"
	case errors.Is(err, ErrNoTenant):
		return "no_tenant_assigned"
	default:
		return ""
	}
}

// classifyErrorForLog labels handler errors for the request log.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	return payload.Type, payload.Code
}
