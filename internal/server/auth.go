package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/steeplehq/steeple/internal/account/domain"
)

// ExchangeAssertion trades an identity-provider assertion, carried as
// a bearer token, for a first-party session cookie.
func (s *Server) ExchangeAssertion(c *gin.Context) {
	assertion := bearerToken(c)
	if assertion == "" {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	result, err := s.accountSvc.ExchangeAssertion(c.Request.Context(), accountdomain.ExchangeRequest{
		Provider:  strings.TrimSpace(c.Param("provider")),
		Assertion: assertion,
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.RawToken, result.ExpiresAt)
	c.JSON(http.StatusOK, result.Account)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func (s *Server) Logout(c *gin.Context) {
	if token, ok := s.sessions.ReadToken(c); ok {
		if err := s.accountSvc.Logout(c.Request.Context(), token); err != nil {
			AbortWithError(c, err)
			return
		}
	}
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) Me(c *gin.Context) {
	account, ok := s.currentAccount(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, account)
}
