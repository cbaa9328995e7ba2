package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/warr-app/warr/internal/apiclient"
)

// maxProxyBody bounds a proxied JSON request body
const maxProxyBody = 10 << 20

// ProxyHandler forwards /api/* calls through the authenticated pipeline
type ProxyHandler struct {
	api      *apiclient.Client
	loginURL string
}

func NewProxyHandler(api *apiclient.Client, loginURL string) *ProxyHandler {
	return &ProxyHandler{api: api, loginURL: loginURL}
}

// Forward relays the request and wraps the outcome in the envelope. When the
// call ended the session the answer is 401 with a Location of the login page.
func (h *ProxyHandler) Forward(c *gin.Context) {
	endpoint := "/api" + c.Param("path")
	if c.Request.URL.RawQuery != "" {
		endpoint += "?" + c.Request.URL.RawQuery
	}

	var body any
	if c.Request.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxProxyBody))
		if err != nil {
			respondError(c, http.StatusBadRequest, "Failed to read the request body.")
			return
		}
		if len(raw) > 0 {
			body = json.RawMessage(raw)
		}
	}

	var opts []apiclient.RequestOption
	if id := c.GetHeader(apiclient.HeaderRequestID); id != "" {
		opts = append(opts, apiclient.WithHeader(apiclient.HeaderRequestID, id))
	}

	ctx := c.Request.Context()
	resp, err := h.api.Do(ctx, c.Request.Method, endpoint, body, opts...)
	if err != nil {
		if apiErr, ok := apiclient.AsError(err); ok &&
			errors.Is(apiErr, apiclient.ErrAuthRequired) && h.sessionEnded(c) {
			c.Header("Location", h.loginURL)
			respondError(c, http.StatusUnauthorized, apiErr.Message)
			return
		}
		respondAPIError(c, err)
		return
	}
	respondData(c, resp.StatusCode, rawData(resp.Data))
}

// sessionEnded reports whether no refresh token is left to continue with.
func (h *ProxyHandler) sessionEnded(c *gin.Context) bool {
	_, ok := h.api.Tokens().RefreshToken(c.Request.Context())
	return !ok
}
