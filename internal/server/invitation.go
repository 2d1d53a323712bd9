package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invitationdomain "github.com/steeplehq/steeple/internal/invitation/domain"
)

type IssueInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *Server) IssueInvitation(c *gin.Context) {
	account, ok := s.currentAccount(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	var req IssueInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	invitation, err := s.invitationSvc.Issue(c.Request.Context(), invitationdomain.IssueRequest{
		TenantID:  tenantID,
		InvitedBy: account.ID,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invitation)
}

func (s *Server) ListInvitations(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	invitations, err := s.invitationSvc.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invitations})
}

func (s *Server) RevokeInvitation(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	invitationID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	invitation, err := s.invitationSvc.Revoke(c.Request.Context(), tenantID, invitationID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}

func (s *Server) LookupInvitation(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, invitationdomain.ErrInvitationNotFound)
		return
	}

	invitation, err := s.invitationSvc.Lookup(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}

func (s *Server) AcceptInvitation(c *gin.Context) {
	account, ok := s.currentAccount(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	invitation, err := s.invitationSvc.Accept(c.Request.Context(), strings.TrimSpace(c.Param("token")), account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}

func (s *Server) DeclineInvitation(c *gin.Context) {
	account, ok := s.currentAccount(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	invitation, err := s.invitationSvc.Decline(c.Request.Context(), strings.TrimSpace(c.Param("token")), account.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}
