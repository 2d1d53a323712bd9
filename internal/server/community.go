package server

import (
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/steeplehq/steeple/internal/account/domain"
	communitydomain "github.com/steeplehq/steeple/internal/community/domain"
)

type PostRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

type PostUpdateRequest struct {
	Title     *string `json:"title"`
	Body      *string `json:"body"`
	Published *bool   `json:"published"`
}

type EventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

type EventUpdateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

type RSVPRequest struct {
	Status string `json:"status"`
}

type CheckInRequest struct {
	EventID *string `json:"event_id"`
	Note    string  `json:"note"`
}

type TeamRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	LeaderID    *string `json:"leader_id"`
}

type TeamMemberRequest struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
}

func (s *Server) CreatePost(c *gin.Context) {
	account, _ := s.currentAccount(c)
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	post, err := s.communitySvc.CreatePost(c.Request.Context(), tenantID, account.ID, communitydomain.PostRequest{
		Title:     req.Title,
		Body:      req.Body,
		Published: req.Published,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) ListPosts(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	publishedOnly := c.Query("published") == "true"
	posts, err := s.communitySvc.ListPosts(c.Request.Context(), tenantID, publishedOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (s *Server) GetPost(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	postID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	post, err := s.communitySvc.GetPost(c.Request.Context(), tenantID, postID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) UpdatePost(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	postID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req PostUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	post, err := s.communitySvc.UpdatePost(c.Request.Context(), tenantID, postID, communitydomain.PostUpdateRequest{
		Title:     req.Title,
		Body:      req.Body,
		Published: req.Published,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost removes a post. Tenant admins may delete any post in
// their tenant; members may only delete their own.
func (s *Server) DeletePost(c *gin.Context) {
	account, _ := s.currentAccount(c)
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	postID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if account.Role != accountdomain.RoleTenantAdmin && account.Role != accountdomain.RolePlatformAdmin {
		post, err := s.communitySvc.GetPost(c.Request.Context(), tenantID, postID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if post.AuthorID != account.ID {
			AbortWithError(c, ErrForbidden)
			return
		}
	}

	if err := s.communitySvc.DeletePost(c.Request.Context(), tenantID, postID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) CreateEvent(c *gin.Context) {
	account, _ := s.currentAccount(c)
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	event, err := s.communitySvc.CreateEvent(c.Request.Context(), tenantID, account.ID, communitydomain.EventRequest{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (s *Server) ListEvents(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	events, err := s.communitySvc.ListEvents(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) GetEvent(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	eventID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	event, err := s.communitySvc.GetEvent(c.Request.Context(), tenantID, eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (s *Server) UpdateEvent(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	eventID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req EventUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	event, err := s.communitySvc.UpdateEvent(c.Request.Context(), tenantID, eventID, communitydomain.EventUpdateRequest{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (s *Server) DeleteEvent(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	eventID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.communitySvc.DeleteEvent(c.Request.Context(), tenantID, eventID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) RSVP(c *gin.Context) {
	account, _ := s.currentAccount(c)
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	eventID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req RSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	rsvp, err := s.communitySvc.RSVP(c.Request.Context(), tenantID, eventID, account.ID, req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rsvp)
}

func (s *Server) ListRSVPs(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	eventID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rsvps, err := s.communitySvc.ListRSVPs(c.Request.Context(), tenantID, eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rsvps": rsvps})
}

func (s *Server) CheckIn(c *gin.Context) {
	account, _ := s.currentAccount(c)
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var eventID *snowflake.ID
	if req.EventID != nil {
		parsed, err := parseID(*req.EventID)
		if err != nil {
			AbortWithError(c, communitydomain.ErrEventNotFound)
			return
		}
		eventID = &parsed
	}

	checkIn, err := s.communitySvc.CheckIn(c.Request.Context(), tenantID, account.ID, communitydomain.CheckInRequest{
		EventID: eventID,
		Note:    req.Note,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, checkIn)
}

func (s *Server) ListCheckIns(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	var eventID *snowflake.ID
	if raw := c.Query("event_id"); raw != "" {
		parsed, err := parseID(raw)
		if err != nil {
			AbortWithError(c, communitydomain.ErrEventNotFound)
			return
		}
		eventID = &parsed
	}

	checkIns, err := s.communitySvc.ListCheckIns(c.Request.Context(), tenantID, eventID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"check_ins": checkIns})
}

func (s *Server) CreateTeam(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	var req TeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var leaderID *snowflake.ID
	if req.LeaderID != nil {
		parsed, err := parseID(*req.LeaderID)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		leaderID = &parsed
	}

	team, err := s.communitySvc.CreateTeam(c.Request.Context(), tenantID, communitydomain.TeamRequest{
		Name:        req.Name,
		Description: req.Description,
		LeaderID:    leaderID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

func (s *Server) ListTeams(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	teams, err := s.communitySvc.ListTeams(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

func (s *Server) GetTeam(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	teamID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	team, err := s.communitySvc.GetTeam(c.Request.Context(), tenantID, teamID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

func (s *Server) DeleteTeam(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	teamID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.communitySvc.DeleteTeam(c.Request.Context(), tenantID, teamID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) AddTeamMember(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	teamID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req TeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	accountID, err := parseID(req.AccountID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	member, err := s.communitySvc.AddTeamMember(c.Request.Context(), tenantID, teamID, accountID, req.Role)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (s *Server) RemoveTeamMember(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	teamID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	accountID, err := parseID(c.Param("accountId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.communitySvc.RemoveTeamMember(c.Request.Context(), tenantID, teamID, accountID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (s *Server) ListTeamMembers(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	teamID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	members, err := s.communitySvc.ListTeamMembers(c.Request.Context(), tenantID, teamID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (s *Server) UploadMedia(c *gin.Context) {
	account, _ := s.currentAccount(c)
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	defer file.Close()

	media, err := s.communitySvc.SaveMedia(
		c.Request.Context(),
		tenantID,
		account.ID,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, media)
}

func (s *Server) ListMedia(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}

	media, err := s.communitySvc.ListMedia(c.Request.Context(), tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"media": media})
}

func (s *Server) GetMedia(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	mediaID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	media, err := s.communitySvc.GetMedia(c.Request.Context(), tenantID, mediaID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, media)
}

func (s *Server) DownloadMedia(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	mediaID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	media, reader, err := s.communitySvc.OpenMedia(c.Request.Context(), tenantID, mediaID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", `attachment; filename="`+media.FileName+`"`)
	c.DataFromReader(http.StatusOK, media.SizeBytes, media.ContentType, reader, nil)
}

func (s *Server) DeleteMedia(c *gin.Context) {
	tenantID, ok := s.currentTenantID(c)
	if !ok {
		AbortWithError(c, ErrNoTenant)
		return
	}
	mediaID, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.communitySvc.DeleteMedia(c.Request.Context(), tenantID, mediaID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
