package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	channeldomain "github.com/steeplehq/steeple/internal/channel/domain"
)

type CreateChannelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateChannelRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type PostMessageRequest struct {
	Body string `json:"body"`
}

func (s *Server) CreateChannel(c *gin.Context) {
	account, _ := s.currentAccount(c)
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	channel, err := s.channelSvc.CreateChannel(c.Request.Context(), tenantID, account.ID, channeldomain.CreateChannelRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, channel)
}

func (s *Server) ListChannels(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	channels, err := s.channelSvc.ListChannels(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

func (s *Server) GetChannel(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	channelID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	channel, err := s.channelSvc.GetChannel(c.Request.Context(), tenantID, channelID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, channel)
}

func (s *Server) UpdateChannel(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	channelID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req UpdateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	channel, err := s.channelSvc.UpdateChannel(c.Request.Context(), tenantID, channelID, channeldomain.UpdateChannelRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, channel)
}

func (s *Server) DeleteChannel(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	channelID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.channelSvc.DeleteChannel(c.Request.Context(), tenantID, channelID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) PostMessage(c *gin.Context) {
	account, _ := s.currentAccount(c)
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	channelID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	message, err := s.channelSvc.PostMessage(c.Request.Context(), tenantID, account.ID, channelID, req.Body)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (s *Server) ListMessages(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	channelID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		limit = parsed
	}

	messages, err := s.channelSvc.ListMessages(c.Request.Context(), tenantID, channelID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
