package server

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/prosodify/prosodify/internal/azure"
)

// Errors handlers report through c.Error.
var (
	// ErrInvalidInput is a bad request parameter.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream wraps failures talking to Azure.
	ErrUpstream = errors.New("upstream service failed")

	// ErrNotConfigured means the server has no Azure credentials.
	ErrNotConfigured = azure.ErrNotConfigured
)

// ErrorHandler turns the last error a handler recorded into a JSON response.
func ErrorHandler(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		logger.Error("Request failed",
			"request_id", c.GetString(requestIDKey),
			"path", c.Request.URL.Path,
			"err", err)

		if c.Writer.Written() {
			return
		}

		var ue *azure.UpstreamError
		switch {
		case errors.As(err, &ue):
			c.AbortWithStatusJSON(ue.StatusCode, gin.H{
				"error":   "Failed to fetch voices from Azure",
				"details": ue.Body,
				"status":  ue.StatusCode,
			})
		case errors.Is(err, ErrNotConfigured):
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Azure Speech credentials not configured",
			})
		case errors.Is(err, ErrInvalidInput):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
		case errors.Is(err, ErrUpstream):
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
				"error":   "Failed to fetch voices from Azure",
				"details": err.Error(),
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"details": err.Error(),
			})
		}
	}
}
