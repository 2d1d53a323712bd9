package server

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	accountdomain "github.com/steeplehq/steeple/internal/account/domain"
	obslogger "github.com/steeplehq/steeple/internal/observability/logger"
	"github.com/steeplehq/steeple/internal/realtime"
	"go.uber.org/zap"
)

// upgrader is built per-request so origin checks use live config.
func (s *Server) wsUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients send no origin.
				return true
			}
			for _, allowed := range s.cfg.WSAllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
}

// ServeWS upgrades the request to a WebSocket and services subscribe
// and unsubscribe commands until the client goes away. Authentication
// happens before the upgrade so rejected clients get a plain 401.
func (s *Server) ServeWS(c *gin.Context) {
	log := obslogger.FromContext(c.Request.Context()).Named("realtime.ws")

	token, ok := s.sessions.ReadToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	sess, err := s.accountSvc.Authenticate(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	account, err := s.accountSvc.FindByID(c.Request.Context(), sess.AccountID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if account.Role == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	upgrader := s.wsUpgrader()
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// The connection caches its identity for its whole lifetime; later
	// role or tenant changes do not affect an open socket.
	var tenantID snowflake.ID
	if account.TenantID != nil {
		tenantID = *account.TenantID
	}
	conn := realtime.NewConn(ws, log, account.ID, tenantID, account.Role)
	s.registry.Attach(conn, account.ID)
	s.metrics.ConnectionOpened()
	go conn.WritePump()

	defer func() {
		s.registry.Remove(conn)
		conn.Close()
		s.metrics.ConnectionClosed()
		log.Debug("websocket closed",
			zap.Int64("account_id", int64(account.ID)),
			zap.Int("remaining_connections", s.registry.ConnectionsForAccount(account.ID)))
	}()

	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
		s.handleClientFrame(c, conn, frame)
	}
}

func (s *Server) handleClientFrame(c *gin.Context, conn *realtime.Conn, frame *realtime.ClientFrame) {
	switch frame.Type {
	case realtime.FrameSubscribe:
		channelID, err := parseID(frame.ChannelID)
		if err != nil {
			conn.SendFrame(realtime.ServerFrame{
				Type:      realtime.FrameError,
				ChannelID: frame.ChannelID,
				Code:      "access_denied",
				Message:   "access denied",
			})
			return
		}

		if err := s.authorizeSubscribe(c, conn, channelID); err != nil {
			conn.SendFrame(realtime.ServerFrame{
				Type:      realtime.FrameError,
				ChannelID: frame.ChannelID,
				Code:      "access_denied",
				Message:   err.Error(),
			})
			return
		}

		if err := s.registry.Subscribe(conn, channelID); err != nil {
			conn.SendFrame(realtime.ServerFrame{
				Type:      realtime.FrameError,
				ChannelID: frame.ChannelID,
				Code:      "subscription_limit",
				Message:   err.Error(),
			})
			return
		}
		conn.SendFrame(realtime.ServerFrame{
			Type:      realtime.FrameSubscribed,
			ChannelID: frame.ChannelID,
		})

	case realtime.FrameUnsubscribe:
		channelID, err := parseID(frame.ChannelID)
		if err != nil {
			return
		}
		s.registry.Unsubscribe(conn, channelID)
		conn.SendFrame(realtime.ServerFrame{
			Type:      realtime.FrameUnsubscribed,
			ChannelID: frame.ChannelID,
		})

	default:
		conn.SendFrame(realtime.ServerFrame{
			Type:    realtime.FrameError,
			Code:    "unknown_type",
			Message: "unknown message type",
		})
	}
}

// authorizeSubscribe decides channel access against the identity the
// connection was opened with. Platform admins may watch any channel;
// everyone else needs a tenant and a channel inside it. Channels of
// other tenants read as access denied either way.
func (s *Server) authorizeSubscribe(c *gin.Context, conn *realtime.Conn, channelID snowflake.ID) error {
	if conn.Role == accountdomain.RolePlatformAdmin {
		if _, err := s.channelSvc.FindChannel(c.Request.Context(), channelID); err != nil {
			return errors.New("access denied")
		}
		return nil
	}
	if conn.TenantID == 0 {
		return errors.New("no tenant")
	}
	if _, err := s.channelSvc.GetChannel(c.Request.Context(), conn.TenantID, channelID); err != nil {
		return errors.New("access denied")
	}
	return nil
}
