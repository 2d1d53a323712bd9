package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/steeplehq/steeple/internal/account/domain"
	obscontext "github.com/steeplehq/steeple/internal/observability/context"
)

const contextAccountKey = "account"

// AuthRequired resolves the session cookie into an account and stores
// it on the request. Requests without a valid session are rejected.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sess, err := s.accountSvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.sessions.Clear(c)
			AbortWithError(c, err)
			return
		}

		account, err := s.accountSvc.FindByID(c.Request.Context(), sess.AccountID)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := obscontext.WithActor(c.Request.Context(), account.ID.String(), account.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextAccountKey, account)
		c.Next()
	}
}

// RequireRole allows the request through only when the signed-in
// account holds one of the given roles.
func (s *Server) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := s.currentAccount(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		for _, role := range roles {
			if account.Role == role {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}

// TenantScoped requires the signed-in account to belong to a tenant
// and records that tenant on the request context.
func (s *Server) TenantScoped() gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := s.currentAccount(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if account.TenantID == nil {
			AbortWithError(c, ErrNoTenant)
			return
		}

		ctx := obscontext.WithTenantID(c.Request.Context(), account.TenantID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) currentAccount(c *gin.Context) (*accountdomain.Account, bool) {
	value, exists := c.Get(contextAccountKey)
	if !exists {
		return nil, false
	}
	account, ok := value.(*accountdomain.Account)
	return account, ok
}

func (s *Server) currentTenantID(c *gin.Context) (snowflake.ID, bool) {
	account, ok := s.currentAccount(c)
	if !ok || account.TenantID == nil {
		return 0, false
	}
	return *account.TenantID, true
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, ErrNotFound
	}
	return id, nil
}
