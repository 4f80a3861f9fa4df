// internal/utils/response.go
package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON body the admin HTTP surface emits for its one
// error path: a recovered panic. It carries the correlation id
// RequestIDMiddleware already set on the response header, so a caller can
// tie the JSON body back to the X-Request-ID it received.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// WriteError sends an ErrorResponse for the given HTTP status.
func WriteError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:     message,
		Code:      errorCode(statusCode),
		Timestamp: time.Now(),
		RequestID: requestID(c),
	})
}

func requestID(c *gin.Context) string {
	if v, exists := c.Get("request_id"); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func errorCode(statusCode int) string {
	switch statusCode {
	case http.StatusInternalServerError:
		return "INTERNAL_SERVER_ERROR"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "UNKNOWN_ERROR"
	}
}
