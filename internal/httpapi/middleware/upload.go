package middleware

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"filmvault/internal/httpapi/response"
	"filmvault/internal/storage"

	"github.com/gin-gonic/gin"
)

// uploadsKey is where the stored-file descriptors live in the gin context.
const uploadsKey = "uploads"

// Uploads receives the multipart "images" files: it validates the declared
// MIME type and per-file size before anything touches disk, then stores each
// accepted file under an opaque name and hands the descriptors to the
// handler. Rejected requests never reach the service layer.
func Uploads(files *storage.Manager, maxSizeMB int64) gin.HandlerFunc {
	maxBytes := maxSizeMB << 20

	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil && err != http.ErrNotMultipart {
			response.AbortError(c, http.StatusBadRequest, "invalid multipart form: "+err.Error())
			return
		}

		var headers []*multipart.FileHeader
		if form != nil {
			headers = form.File["images"]
		}

		for _, h := range headers {
			if h.Size > maxBytes {
				response.AbortError(c, http.StatusBadRequest,
					fmt.Sprintf("file %q exceeds the %dMB limit", h.Filename, maxSizeMB))
				return
			}
			if mime := h.Header.Get("Content-Type"); !storage.AllowedMIME(mime) {
				response.AbortError(c, http.StatusBadRequest,
					fmt.Sprintf("unsupported file type %q, accepted: jpeg, png, webp", mime))
				return
			}
		}

		stored := make([]storage.StoredFile, 0, len(headers))
		for _, h := range headers {
			sf, err := files.Store(h)
			if err != nil {
				// drop whatever this request already stored
				rels := make([]string, 0, len(stored))
				for _, s := range stored {
					rels = append(rels, s.RelPath)
				}
				files.DeleteMany(rels)
				response.AbortError(c, http.StatusInternalServerError, "failed to store uploaded file")
				return
			}
			stored = append(stored, sf)
		}

		c.Set(uploadsKey, stored)
		c.Next()
	}
}

// UploadedFiles returns the stored-file descriptors set by Uploads.
func UploadedFiles(c *gin.Context) []storage.StoredFile {
	v, exists := c.Get(uploadsKey)
	if !exists {
		return nil
	}
	stored, ok := v.([]storage.StoredFile)
	if !ok {
		return nil
	}
	return stored
}
