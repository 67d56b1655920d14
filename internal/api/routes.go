package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hallelx2/legal-ai-backend/internal/api/handlers"
	"github.com/hallelx2/legal-ai-backend/internal/api/middleware"
	"github.com/hallelx2/legal-ai-backend/internal/db"
	"github.com/hallelx2/legal-ai-backend/internal/services"
	"github.com/hallelx2/legal-ai-backend/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies is everything the HTTP layer needs from the process.
type Dependencies struct {
	DB      *gorm.DB
	Metrics *metrics.MetricsCollector
	Limiter middleware.AttemptLimiter

	Auth       *services.AuthService
	Users      *services.UserService
	Templates  *services.TemplateService
	Agreements *services.AgreementService
	Signatures *services.SignatureService
	Tokens     *services.DocuSignTokenService

	// RequestTimeout bounds each request context; zero means no bound.
	RequestTimeout time.Duration
}

type Router struct {
	engine  *gin.Engine
	logger  *zap.Logger
	db      *gorm.DB
	metrics *metrics.MetricsCollector

	authHandler      *handlers.AuthHandler
	userHandler      *handlers.UserHandler
	templateHandler  *handlers.TemplateHandler
	agreementHandler *handlers.AgreementHandler
	docusignHandler  *handlers.DocuSignHandler

	authMiddleware *middleware.AuthMiddleware
	reqMiddleware  *middleware.RequestMiddleware
	logMiddleware  *middleware.LoggingMiddleware
}

func NewRouter(logger *zap.Logger, deps Dependencies) *Router {
	engine := gin.New()

	reqMiddleware := middleware.NewRequestMiddleware(logger, deps.Limiter)
	logMiddleware := middleware.NewLoggingMiddleware(logger, deps.Metrics)
	authMiddleware := middleware.NewAuthMiddleware(deps.Auth, logger)

	engine.Use(reqMiddleware.ProcessRequest())
	engine.Use(logMiddleware.LogRequest())
	engine.Use(reqMiddleware.RecoverPanic())
	engine.Use(middleware.Timeout(deps.RequestTimeout))
	engine.Use(reqMiddleware.LoginAttemptMiddleware())

	return &Router{
		engine:  engine,
		logger:  logger,
		db:      deps.DB,
		metrics: deps.Metrics,

		authHandler:      handlers.NewAuthHandler(deps.Auth, logger),
		userHandler:      handlers.NewUserHandler(deps.Users, logger),
		templateHandler:  handlers.NewTemplateHandler(deps.Templates, logger),
		agreementHandler: handlers.NewAgreementHandler(deps.Agreements, deps.Signatures, logger),
		docusignHandler:  handlers.NewDocuSignHandler(deps.Tokens, logger),

		authMiddleware: authMiddleware,
		reqMiddleware:  reqMiddleware,
		logMiddleware:  logMiddleware,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", r.health)
	if r.metrics != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	auth := r.engine.Group("/auth")
	{
		auth.POST("/register", r.authHandler.Register)
		auth.POST("/login", r.authHandler.Login)
		auth.POST("/refresh", r.authHandler.Refresh)
		auth.POST("/logout", r.authMiddleware.RequireAuth(), r.authHandler.Logout)
	}

	authorized := r.engine.Group("/")
	authorized.Use(r.authMiddleware.RequireAuth())
	{
		templates := authorized.Group("/templates")
		templates.GET("", r.templateHandler.ListTemplates)
		templates.GET("/predefined", r.templateHandler.Predefined)
		templates.GET("/search", r.templateHandler.Search)
		templates.GET("/user", r.templateHandler.UserTemplates)
		templates.GET("/user/all", r.templateHandler.AllForUser)
		templates.GET("/categories/:category", r.templateHandler.ByCategory)
		templates.POST("/custom", r.templateHandler.CreateCustom)
		templates.GET("/:id", r.templateHandler.GetTemplate)
		templates.GET("/:id/history", r.templateHandler.TemplateHistory)
		templates.POST("/:id/version", r.templateHandler.Version)

		agreements := authorized.Group("/agreements")
		agreements.POST("/generate", r.agreementHandler.Generate)
		agreements.GET("", r.agreementHandler.ListAgreements)
		agreements.GET("/user/:userId", r.agreementHandler.ListUserAgreements)
		agreements.GET("/:id", r.agreementHandler.GetAgreement)
		agreements.GET("/:id/html", r.agreementHandler.AgreementHTML)
		agreements.PUT("/:id/status", r.agreementHandler.UpdateStatus)
		agreements.DELETE("/:id", r.agreementHandler.DeleteAgreement)
		agreements.POST("/:id/sign", r.agreementHandler.SendForSignature)

		docusign := authorized.Group("/docusign")
		docusign.GET("/connect", r.docusignHandler.ConsentURL)
		docusign.POST("/create", r.docusignHandler.CreateToken)
		docusign.POST("/refresh", r.docusignHandler.RefreshToken)
		docusign.GET("/token/:id", r.docusignHandler.GetToken)

		users := authorized.Group("/users")
		users.GET("", r.userHandler.ListUsers)
		users.GET("/:id", r.userHandler.GetUser)
		users.PUT("/:id", r.userHandler.UpdateUser)
		users.DELETE("/:id", r.userHandler.DeleteUser)
	}
}

func (r *Router) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := db.Ping(ctx, r.db); err != nil {
		r.logger.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "name": "legal-ai-backend"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "up", "name": "legal-ai-backend"})
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
