package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hallelx2/legal-ai-backend/internal/api/middleware"
	"github.com/hallelx2/legal-ai-backend/internal/services"
	"go.uber.org/zap"
)

type DocuSignHandler struct {
	tokens *services.DocuSignTokenService
	logger *zap.Logger
}

func NewDocuSignHandler(tokens *services.DocuSignTokenService, logger *zap.Logger) *DocuSignHandler {
	return &DocuSignHandler{
		tokens: tokens,
		logger: logger.With(zap.String("handler", "docusign")),
	}
}

func (dh *DocuSignHandler) ConsentURL(c *gin.Context) {
	state := uuid.NewString()
	c.JSON(http.StatusOK, gin.H{"url": dh.tokens.ConsentURL(state), "state": state})
}

func (dh *DocuSignHandler) CreateToken(c *gin.Context) {
	var in struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "code is required")
		return
	}

	status, err := dh.tokens.Connect(c.Request.Context(), currentUserID(c), in.Code)
	if err != nil {
		respondError(c, dh.logger, err)
		return
	}
	c.JSON(http.StatusCreated, status)
}

func (dh *DocuSignHandler) RefreshToken(c *gin.Context) {
	status, err := dh.tokens.Refresh(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, dh.logger, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetToken reports grant metadata. Callers only see their own grant.
func (dh *DocuSignHandler) GetToken(c *gin.Context) {
	userID := c.Param("id")
	if userID != currentUserID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "requestId": middleware.RequestID(c.Request.Context())})
		return
	}

	status, err := dh.tokens.Status(c.Request.Context(), userID)
	if err != nil {
		respondError(c, dh.logger, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
