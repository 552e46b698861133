// Package response renders the API's uniform envelope:
//
//	{ success, message, data?, pagination?, error?, timestamp }
package response

import (
	"net/http"
	"time"

	"filmvault/internal/httpapi/apperr"
	"filmvault/internal/httpapi/dto"

	"github.com/gin-gonic/gin"
)

type Envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       any             `json:"data,omitempty"`
	Pagination *dto.Pagination `json:"pagination,omitempty"`
	Error      string          `json:"error,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func Paginated(c *gin.Context, message string, data any, p dto.Pagination) {
	c.JSON(http.StatusOK, Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: &p,
		Timestamp:  time.Now().UTC(),
	})
}

// Error maps an apperr kind to its HTTP status. Internal errors hide their
// cause unless exposeDetail is set (development mode).
func Error(c *gin.Context, err error, exposeDetail bool) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
		msg = err.Error()
	case apperr.KindNotFound:
		status = http.StatusNotFound
		msg = err.Error()
	case apperr.KindConflict:
		status = http.StatusConflict
		msg = err.Error()
	case apperr.KindForbidden:
		status = http.StatusForbidden
		msg = err.Error()
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
		msg = err.Error()
	default:
		if exposeDetail {
			msg = err.Error()
		}
	}

	AbortError(c, status, msg)
}

// AbortError writes a failure envelope and stops the handler chain.
func AbortError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success:   false,
		Message:   http.StatusText(status),
		Error:     message,
		Timestamp: time.Now().UTC(),
	})
}
