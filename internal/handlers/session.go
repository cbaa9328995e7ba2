package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warr-app/warr/internal/apiclient"
	"github.com/warr-app/warr/internal/auth"
	"github.com/warr-app/warr/internal/identity"
)

// isRedirectSafe accepts only same-origin relative paths.
func isRedirectSafe(redirectURL string) bool {
	if redirectURL == "" {
		return false
	}
	// header injection
	if strings.ContainsAny(redirectURL, "\r\n") {
		return false
	}
	if !strings.HasPrefix(redirectURL, "/") {
		return false
	}
	// protocol-relative ("//evil.com") and backslash variants ("/\evil.com")
	if strings.HasPrefix(redirectURL, "//") || strings.Contains(redirectURL, "\\") {
		return false
	}
	return true
}

type loginRequest struct {
	MemberID string `json:"memberId" form:"memberId"`
	Password string `json:"password" form:"password"`
	Redirect string `json:"redirect" form:"redirect"`
}

type loginResponse struct {
	User     *identity.Snapshot `json:"user"`
	Redirect string             `json:"redirect"`
}

type SessionHandler struct {
	auth   *auth.Service
	logger zerolog.Logger
}

func NewSessionHandler(svc *auth.Service) *SessionHandler {
	return &SessionHandler{
		auth:   svc,
		logger: log.Logger.With().Str("component", "handlers").Logger(),
	}
}

// Login signs the member in and tells the page where to go next
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid login request.")
		return
	}

	user, err := h.auth.Login(c.Request.Context(), auth.Credentials{
		MemberID: req.MemberID,
		Password: req.Password,
	})
	switch {
	case errors.Is(err, auth.ErrMissingCredentials):
		respondError(c, http.StatusBadRequest, "Member ID and password are required.")
		return
	case err != nil:
		respondAPIError(c, err)
		return
	}

	redirect := identity.PathHome
	if user != nil {
		redirect = user.Role.EntryPath()
		// members still onboarding always go to their sign-up step
		if isRedirectSafe(req.Redirect) && !user.Role.Onboarding() {
			redirect = req.Redirect
		}
	}
	respondData(c, http.StatusOK, loginResponse{User: user, Redirect: redirect})
}

// Logout ends the session. Logging out twice is not an error.
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("logout left credentials behind")
	}
	respondData(c, http.StatusOK, nil)
}

// Me returns the member's profile straight from the API
func (h *SessionHandler) Me(c *gin.Context) {
	user, err := h.auth.CurrentUser(c.Request.Context())
	if err != nil {
		respondAPIError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

// Entry redirects to the landing page for the stored session
func (h *SessionHandler) Entry(c *gin.Context) {
	path, err := h.auth.Entry(c.Request.Context())
	if err != nil && !errors.Is(err, apiclient.ErrAuthRequired) {
		h.logger.Warn().Err(err).Msg("entry resolution failed")
	}
	c.Redirect(http.StatusFound, path)
}

// Home reports whether a session is stored
func (h *SessionHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	data := gin.H{"authenticated": h.auth.IsAuthenticated(ctx)}
	if role, ok := h.auth.UserRole(ctx); ok {
		data["role"] = role
		data["entry"] = role.EntryPath()
	}
	respondData(c, http.StatusOK, data)
}
