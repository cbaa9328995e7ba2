package bootstrap

import (
	"github.com/warr-app/warr/internal/config"
	"github.com/warr-app/warr/internal/handlers"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	session *handlers.SessionHandler
	proxy   *handlers.ProxyHandler
	upload  *handlers.UploadHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(cfg *config.Config, c *Clients) handlerSet {
	return handlerSet{
		session: handlers.NewSessionHandler(c.Auth),
		proxy:   handlers.NewProxyHandler(c.API, cfg.LoginURL),
		upload:  handlers.NewUploadHandler(c.Uploader),
	}
}
