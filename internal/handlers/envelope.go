package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/warr-app/warr/internal/apiclient"
)

// Envelope is the body of every JSON answer the shell gives.
type Envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"statusCode"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data, StatusCode: status})
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: message, StatusCode: status})
}

// respondAPIError answers with the status the API gave, or the closest
// gateway status when no response was received.
func respondAPIError(c *gin.Context, err error) {
	apiErr, ok := apiclient.AsError(err)
	if !ok {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondError(c, statusFor(apiErr), apiErr.Message)
}

func statusFor(apiErr *apiclient.Error) int {
	if apiErr.StatusCode > 0 {
		return apiErr.StatusCode
	}
	switch {
	case errors.Is(apiErr, apiclient.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(apiErr, apiclient.ErrEncode):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// rawData keeps an upstream JSON body as-is inside the envelope.
func rawData(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
