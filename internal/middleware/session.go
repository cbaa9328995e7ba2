package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/warr-app/warr/internal/tokenstore"
)

// ContextKeyUser holds the *identity.Snapshot of a guarded request
const ContextKeyUser = "user"

var publicPaths = map[string]bool{
	"/":        true,
	"/login":   true,
	"/entry":   true,
	"/healthz": true,
	"/metrics": true,
}

// /api answers with the envelope and carries its own refresh handling, so
// the guard's redirect would only get in the way.
var publicPrefixes = []string{"/signup", "/api"}

// IsPublicPath reports whether path is reachable without a session
func IsPublicPath(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// RequireSession redirects to "/" unless the store holds an identity
// snapshot and at least one of the two tokens. An expired access token with a
// live refresh token still passes; the pipeline refreshes on first use.
func RequireSession(tokens *tokenstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		user, ok := tokens.UserInfo(ctx)
		if !ok {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}

		_, hasAccess := tokens.AccessToken(ctx)
		if !hasAccess {
			if _, hasRefresh := tokens.RefreshToken(ctx); !hasRefresh {
				c.Redirect(http.StatusFound, "/")
				c.Abort()
				return
			}
		}

		c.Set(ContextKeyUser, user)
		c.Next()
	}
}
