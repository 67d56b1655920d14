package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hallelx2/legal-ai-backend/internal/services"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth   *services.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger.With(zap.String("handler", "auth")),
	}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "email, password and confirmPassword are required")
		return
	}

	user, err := ah.auth.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, ah.logger, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var in services.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	pair, err := ah.auth.Login(c.Request.Context(), in)
	if err != nil {
		ah.logger.Info("Login failed", zap.String("client_ip", c.ClientIP()))
		respondError(c, ah.logger, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	var in struct {
		RefreshToken string `json:"refreshToken" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "refreshToken is required")
		return
	}

	pair, err := ah.auth.Refresh(c.Request.Context(), in.RefreshToken)
	if err != nil {
		respondError(c, ah.logger, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.auth.RevokeAll(c.Request.Context(), currentUserID(c)); err != nil {
		respondError(c, ah.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
