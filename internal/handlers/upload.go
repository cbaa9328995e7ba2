package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/warr-app/warr/internal/apiclient"
	"github.com/warr-app/warr/internal/upload"
)

type UploadHandler struct {
	uploader *upload.Uploader
}

func NewUploadHandler(u *upload.Uploader) *UploadHandler {
	return &UploadHandler{uploader: u}
}

// Upload relays a multipart "file" field to the storage endpoint
func (h *UploadHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile(upload.FormField)
	if err != nil {
		respondError(c, http.StatusBadRequest, "A file is required.")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "Failed to read the uploaded file.")
		return
	}
	defer f.Close()

	result, err := h.uploader.Upload(c.Request.Context(), fh.Filename, f)
	switch {
	case err == nil:
		respondData(c, http.StatusOK, result)
	case errors.Is(err, apiclient.ErrAuthRequired):
		respondError(c, http.StatusUnauthorized, "Your session has expired. Please sign in again.")
	case errors.Is(err, upload.ErrUploadRejected), errors.Is(err, upload.ErrUploadFailed):
		respondError(c, http.StatusBadGateway, err.Error())
	default:
		respondError(c, http.StatusBadGateway, "Upload failed.")
	}
}
