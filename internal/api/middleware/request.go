package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID returns the id ProcessRequest attached to ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type RequestMiddleware struct {
	logger   *zap.Logger
	limiter  AttemptLimiter
	loginURI string
}

func NewRequestMiddleware(logger *zap.Logger, limiter AttemptLimiter) *RequestMiddleware {
	return &RequestMiddleware{
		logger:   logger.With(zap.String("middleware", "request")),
		limiter:  limiter,
		loginURI: "/auth/login",
	}
}

// ProcessRequest tags every request with an id, honouring one sent by the
// caller in X-Request-ID.
func (rm *RequestMiddleware) ProcessRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.New().String()
		}
		ctx := context.WithValue(c.Request.Context(), requestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Set("requestID", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// LoginAttemptMiddleware throttles failed logins per client IP. A 401 from
// the login handler counts as a failure and a 200 clears the record.
func (rm *RequestMiddleware) LoginAttemptMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rm.limiter == nil || c.Request.Method != http.MethodPost || c.FullPath() != rm.loginURI {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		ctx := c.Request.Context()

		blocked, err := rm.limiter.Blocked(ctx, clientIP)
		if err != nil {
			rm.logger.Warn("Login limiter unavailable", zap.String("client_ip", clientIP), zap.Error(err))
		}
		if blocked {
			rm.logger.Warn("Login blocked after repeated failures",
				zap.String("client_ip", clientIP),
				zap.String("request_id", RequestID(ctx)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "Too many failed login attempts, try again later",
				"requestId": RequestID(ctx),
			})
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			err = rm.limiter.Fail(ctx, clientIP)
		case http.StatusOK:
			err = rm.limiter.Reset(ctx, clientIP)
		default:
			return
		}
		if err != nil {
			rm.logger.Warn("Login limiter update failed", zap.String("client_ip", clientIP), zap.Error(err))
		}
	}
}

func (rm *RequestMiddleware) RecoverPanic() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID := RequestID(c.Request.Context())
				rm.logger.Error("Panic recovered",
					zap.String("request_id", requestID),
					zap.Any("error", err),
					zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":     "Internal server error",
					"requestId": requestID,
				})
			}
		}()
		c.Next()
	}
}

// Timeout bounds the request context. Handlers see ctx.Done when it fires.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
