package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hallelx2/legal-ai-backend/internal/db/models"
	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

type AuthMiddleware struct {
	auth   Authenticator
	logger *zap.Logger
}

func NewAuthMiddleware(auth Authenticator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		auth:   auth,
		logger: logger.With(zap.String("middleware", "auth")),
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			am.reject(c, "Missing bearer token")
			return
		}

		user, err := am.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			am.logger.Debug("Bearer token rejected",
				zap.String("request_id", RequestID(c.Request.Context())),
				zap.Error(err))
			am.reject(c, "Invalid or expired token")
			return
		}

		c.Set("userID", user.ID)
		c.Set("email", user.Email)
		c.Next()
	}
}

func (am *AuthMiddleware) reject(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":     message,
		"requestId": RequestID(c.Request.Context()),
	})
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
