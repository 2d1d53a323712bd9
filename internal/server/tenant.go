package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/steeplehq/steeple/internal/account/domain"
	tenantdomain "github.com/steeplehq/steeple/internal/tenant/domain"
)

type RegisterTenantRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

func (s *Server) RegisterTenant(c *gin.Context) {
	account, ok := s.currentAccount(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req RegisterTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tenant, err := s.tenantSvc.Register(c.Request.Context(), account.ID, tenantdomain.RegisterTenantRequest{
		Name:         req.Name,
		Description:  req.Description,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

func (s *Server) ListTenants(c *gin.Context) {
	tenants, err := s.tenantSvc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}

func (s *Server) GetTenant(c *gin.Context) {
	account, ok := s.currentAccount(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	tenantID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tenant, err := s.tenantSvc.Get(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if !s.canSeeTenant(account, tenant) {
		AbortWithError(c, tenantdomain.ErrTenantNotFound)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (s *Server) ApproveTenant(c *gin.Context) {
	tenantID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tenant, err := s.tenantSvc.Approve(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (s *Server) RejectTenant(c *gin.Context) {
	tenantID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tenant, err := s.tenantSvc.Reject(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// CurrentTenant returns the signed-in account's own tenant.
func (s *Server) CurrentTenant(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	tenant, err := s.tenantSvc.Get(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// ListMembers is the tenant-scoped member directory.
func (s *Server) ListMembers(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	members, err := s.accountSvc.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (s *Server) ListTenantMembers(c *gin.Context) {
	account, ok := s.currentAccount(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	tenantID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	tenant, err := s.tenantSvc.Get(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !s.canSeeTenant(account, tenant) {
		AbortWithError(c, tenantdomain.ErrTenantNotFound)
		return
	}

	members, err := s.accountSvc.ListByTenant(c.Request.Context(), tenant.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// canSeeTenant restricts tenant reads to platform admins, the tenant's
// own members, and the registrant awaiting review.
func (s *Server) canSeeTenant(account *accountdomain.Account, tenant *tenantdomain.Tenant) bool {
	if account.Role == accountdomain.RolePlatformAdmin {
		return true
	}
	if account.TenantID != nil && *account.TenantID == tenant.ID {
		return true
	}
	return tenant.OwnerAccountID == account.ID
}
