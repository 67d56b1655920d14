package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hallelx2/legal-ai-backend/internal/api/middleware"
	"github.com/hallelx2/legal-ai-backend/internal/services"
	"go.uber.org/zap"
)

// respondError maps the service error taxonomy onto HTTP statuses.
// Unclassified errors are logged and hidden behind a 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	requestID := middleware.RequestID(c.Request.Context())

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrUpstream):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("request_id", requestID),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "Internal server error", "requestId": requestID})
		return
	}
	c.JSON(status, gin.H{"error": message(err), "requestId": requestID})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     msg,
		"requestId": middleware.RequestID(c.Request.Context()),
	})
}

// message drops the leading sentinel text so callers see only the detail.
func message(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{services.ErrInvalidInput, services.ErrNotFound, services.ErrUpstream, services.ErrConflict, services.ErrUnauthorized} {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

func currentUserID(c *gin.Context) string {
	return c.GetString("userID")
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, key+" must be an integer")
		return 0, false
	}
	return n, true
}
