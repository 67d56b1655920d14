package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hallelx2/legal-ai-backend/internal/services"
	"go.uber.org/zap"
)

type TemplateHandler struct {
	templates *services.TemplateService
	logger    *zap.Logger
}

func NewTemplateHandler(templates *services.TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{
		templates: templates,
		logger:    logger.With(zap.String("handler", "template")),
	}
}

func (th *TemplateHandler) ListTemplates(c *gin.Context) {
	list, err := th.templates.VisibleTo(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, th.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (th *TemplateHandler) GetTemplate(c *gin.Context) {
	t, err := th.templates.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, th.logger, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (th *TemplateHandler) TemplateHistory(c *gin.Context) {
	records, err := th.templates.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, th.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (th *TemplateHandler) ByCategory(c *gin.Context) {
	list, err := th.templates.ByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, th.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (th *TemplateHandler) Predefined(c *gin.Context) {
	list, err := th.templates.Predefined(c.Request.Context())
	if err != nil {
		respondError(c, th.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (th *TemplateHandler) UserTemplates(c *gin.Context) {
	list, err := th.templates.UserTemplates(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, th.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (th *TemplateHandler) AllForUser(c *gin.Context) {
	list, err := th.templates.AllForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, th.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (th *TemplateHandler) Search(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}

	q := services.TemplateSearch{
		Category:   c.Query("category"),
		Status:     c.Query("status"),
		SearchText: c.Query("searchText"),
		Limit:      limit,
		Offset:     offset,
	}
	if tags := c.Query("tags"); tags != "" {
		q.Tags = strings.Split(tags, ",")
	}

	list, err := th.templates.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, th.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (th *TemplateHandler) CreateCustom(c *gin.Context) {
	var in services.CreateCustomTemplateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid template payload: "+err.Error())
		return
	}

	t, err := th.templates.CreateCustomTemplate(c.Request.Context(), in, currentUserID(c))
	if err != nil {
		respondError(c, th.logger, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (th *TemplateHandler) Version(c *gin.Context) {
	var in services.VersionTemplateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid version payload: "+err.Error())
		return
	}

	t, err := th.templates.VersionTemplate(c.Request.Context(), c.Param("id"), in, currentUserID(c))
	if err != nil {
		respondError(c, th.logger, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}
