package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/steeplehq/steeple/internal/config"
)

const DefaultCookieName = "_sid"

// Manager reads and writes the first-party session cookie. The cookie
// is HttpOnly and SameSite=Lax, so it survives top-level redirects from
// the identity provider but is withheld from cross-site subrequests.
type Manager struct {
	cookieName string
	domain     string
	secure     bool
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{
		cookieName: DefaultCookieName,
		domain:     cfg.AuthCookieDomain,
		secure:     cfg.AuthCookieSecure,
	}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// ReadToken extracts the raw session token from the request, if any.
func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	token, err := c.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	if strings.TrimSpace(token) == "" {
		return "", false
	}
	return token, true
}

// Set writes the session cookie with a max-age matching the session's
// remaining lifetime.
func (m *Manager) Set(c *gin.Context, value string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, value, maxAge, "/", m.domain, m.secure, true)
}

// Clear expires the session cookie immediately.
func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", m.domain, m.secure, true)
}
