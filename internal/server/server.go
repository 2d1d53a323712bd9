package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	accountdomain "github.com/steeplehq/steeple/internal/account/domain"
	"github.com/steeplehq/steeple/internal/auth/session"
	channeldomain "github.com/steeplehq/steeple/internal/channel/domain"
	communitydomain "github.com/steeplehq/steeple/internal/community/domain"
	"github.com/steeplehq/steeple/internal/config"
	invitationdomain "github.com/steeplehq/steeple/internal/invitation/domain"
	obslogger "github.com/steeplehq/steeple/internal/observability/logger"
	obsmetrics "github.com/steeplehq/steeple/internal/observability/metrics"
	"github.com/steeplehq/steeple/internal/realtime"
	tenantdomain "github.com/steeplehq/steeple/internal/tenant/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(session.NewManager),
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, metrics *obsmetrics.Metrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           cfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(metrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(cfg config.Config, metrics *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(cfg, metrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	sessions      *session.Manager
	genID         *snowflake.Node
	accountSvc    accountdomain.Service
	tenantSvc     tenantdomain.Service
	invitationSvc invitationdomain.Service
	channelSvc    channeldomain.Service
	communitySvc  communitydomain.Service
	registry      *realtime.Registry
	metrics       *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Sessions      *session.Manager
	GenID         *snowflake.Node
	AccountSvc    accountdomain.Service
	TenantSvc     tenantdomain.Service
	InvitationSvc invitationdomain.Service
	ChannelSvc    channeldomain.Service
	CommunitySvc  communitydomain.Service
	Registry      *realtime.Registry
	Metrics       *obsmetrics.Metrics
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		sessions:      p.Sessions,
		genID:         p.GenID,
		accountSvc:    p.AccountSvc,
		tenantSvc:     p.TenantSvc,
		invitationSvc: p.InvitationSvc,
		channelSvc:    p.ChannelSvc,
		communitySvc:  p.CommunitySvc,
		registry:      p.Registry,
		metrics:       p.Metrics,
	}

	svc.registerAuthRoutes()
	svc.registerTenantRoutes()
	svc.registerInvitationRoutes()
	svc.registerChannelRoutes()
	svc.registerCommunityRoutes()
	svc.registerRealtimeRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/api/auth")

	auth.POST("/logout", s.AuthRequired(), s.Logout)
	auth.GET("/user", s.AuthRequired(), s.Me)
	auth.POST("/:provider", s.ExchangeAssertion)
}

func (s *Server) registerTenantRoutes() {
	orgs := s.engine.Group("/api/organizations", s.AuthRequired())
	orgs.POST("/register", s.RegisterTenant)
	orgs.GET("/current", s.TenantScoped(), s.CurrentTenant)
	orgs.GET("/:id", s.GetTenant)
	orgs.GET("/:id/members", s.ListTenantMembers)

	s.engine.GET("/api/members", s.AuthRequired(), s.TenantScoped(), s.ListMembers)

	admin := s.engine.Group("/api/admin/organizations", s.AuthRequired(), s.RequireRole(accountdomain.RolePlatformAdmin))
	admin.GET("", s.ListTenants)
	admin.POST("/:id/approve", s.ApproveTenant)
	admin.POST("/:id/reject", s.RejectTenant)
}

func (s *Server) registerInvitationRoutes() {
	invites := s.engine.Group("/api/invitations", s.AuthRequired())

	invites.POST("", s.TenantScoped(), s.RequireRole(accountdomain.RoleTenantAdmin, accountdomain.RolePlatformAdmin), s.IssueInvitation)
	invites.GET("", s.TenantScoped(), s.RequireRole(accountdomain.RoleTenantAdmin, accountdomain.RolePlatformAdmin), s.ListInvitations)
	invites.POST("/revoke/:id", s.TenantScoped(), s.RequireRole(accountdomain.RoleTenantAdmin, accountdomain.RolePlatformAdmin), s.RevokeInvitation)

	// Token-addressed routes are used by the invitee, who may not
	// belong to any tenant yet.
	invites.GET("/token/:token", s.LookupInvitation)
	invites.POST("/accept/:token", s.AcceptInvitation)
	invites.POST("/decline/:token", s.DeclineInvitation)
}

func (s *Server) registerChannelRoutes() {
	channels := s.engine.Group("/api/channels", s.AuthRequired(), s.TenantScoped())

	channels.POST("", s.RequireRole(accountdomain.RoleTenantAdmin, accountdomain.RolePlatformAdmin), s.CreateChannel)
	channels.GET("", s.ListChannels)
	channels.GET("/:id", s.GetChannel)
	channels.PATCH("/:id", s.RequireRole(accountdomain.RoleTenantAdmin, accountdomain.RolePlatformAdmin), s.UpdateChannel)
	channels.DELETE("/:id", s.RequireRole(accountdomain.RoleTenantAdmin, accountdomain.RolePlatformAdmin), s.DeleteChannel)
	channels.GET("/:id/messages", s.ListMessages)
	channels.POST("/:id/messages", s.PostMessage)
}

func (s *Server) registerCommunityRoutes() {
	community := s.engine.Group("/api", s.AuthRequired(), s.TenantScoped())

	admin := s.RequireRole(accountdomain.RoleTenantAdmin, accountdomain.RolePlatformAdmin)

	community.POST("/posts", admin, s.CreatePost)
	community.GET("/posts", s.ListPosts)
	community.GET("/posts/:id", s.GetPost)
	community.PATCH("/posts/:id", admin, s.UpdatePost)
	community.DELETE("/posts/:id", s.DeletePost)

	community.POST("/events", admin, s.CreateEvent)
	community.GET("/events", s.ListEvents)
	community.GET("/events/:id", s.GetEvent)
	community.PATCH("/events/:id", admin, s.UpdateEvent)
	community.DELETE("/events/:id", admin, s.DeleteEvent)
	community.POST("/events/:id/rsvp", s.RSVP)
	community.GET("/events/:id/rsvps", s.ListRSVPs)

	community.POST("/checkins", s.CheckIn)
	community.GET("/checkins", s.ListCheckIns)

	community.POST("/teams", admin, s.CreateTeam)
	community.GET("/teams", s.ListTeams)
	community.GET("/teams/:id", s.GetTeam)
	community.DELETE("/teams/:id", admin, s.DeleteTeam)
	community.GET("/teams/:id/members", s.ListTeamMembers)
	community.POST("/teams/:id/members", admin, s.AddTeamMember)
	community.DELETE("/teams/:id/members/:accountId", admin, s.RemoveTeamMember)

	community.POST("/media", s.UploadMedia)
	community.GET("/media", s.ListMedia)
	community.GET("/media/:id", s.GetMedia)
	community.GET("/media/:id/content", s.DownloadMedia)
	community.DELETE("/media/:id", admin, s.DeleteMedia)
}

func (s *Server) registerRealtimeRoutes() {
	s.engine.GET("/ws", s.ServeWS)
}
