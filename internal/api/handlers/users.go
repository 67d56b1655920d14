package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hallelx2/legal-ai-backend/internal/services"
	"go.uber.org/zap"
)

type UserHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

func NewUserHandler(users *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.With(zap.String("handler", "user")),
	}
}

func (uh *UserHandler) ListUsers(c *gin.Context) {
	users, err := uh.users.List(c.Request.Context())
	if err != nil {
		respondError(c, uh.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (uh *UserHandler) GetUser(c *gin.Context) {
	user, err := uh.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, uh.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (uh *UserHandler) UpdateUser(c *gin.Context) {
	var in services.UpdateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid user payload")
		return
	}

	user, err := uh.users.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, uh.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (uh *UserHandler) DeleteUser(c *gin.Context) {
	if err := uh.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, uh.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
