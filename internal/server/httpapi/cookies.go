package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/gin-gonic/gin"
)

func (h *Handler) setTokenCookie(c *gin.Context, name string, token auth.Token) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token.Value, int(token.TTL.Seconds()), "/", "", h.cookieSecure, true)
}

func (h *Handler) clearTokenCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.AccessTokenCookieName, "", -1, "/", "", h.cookieSecure, true)
	c.SetCookie(common.RefreshTokenCookieName, "", -1, "/", "", h.cookieSecure, true)
}

// tokenFromRequest reads the named cookie and falls back to a bearer
// Authorization header for non-browser clients.
func tokenFromRequest(c *gin.Context, cookie string) string {
	if v, err := c.Cookie(cookie); err == nil && v != "" {
		return v
	}
	const prefix = "Bearer "
	if hdr := c.GetHeader("Authorization"); len(hdr) > len(prefix) && hdr[:len(prefix)] == prefix {
		return hdr[len(prefix):]
	}
	return ""
}
