package http

import (
	"github.com/gin-gonic/gin"
	"github.com/richardliu001/bloglite/internal/config"
	"github.com/richardliu001/bloglite/internal/service"
	"go.uber.org/zap"
)

// NewRouter wires the public and admin route groups.
func NewRouter(h *Handler, cfg *config.Config, log *zap.SugaredLogger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware(log))
	r.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	r.Use(BodyLimitMiddleware(cfg.Server.MaxBodyBytes))

	api := r.Group("/v1/api")
	{
		api.GET("/articles", h.search(service.Public))
		api.GET("/articles/:slug", h.getArticle)
		api.GET("/tags", h.tags(service.Public))
		api.GET("/categories", h.categories)
	}

	admin := r.Group("/v1/admin", AuthMiddleware([]byte(cfg.Auth.JWTSecret), log))
	{
		admin.POST("/articles", h.createArticle)
		admin.GET("/articles", h.search(service.Admin))
		admin.POST("/articles/:id", h.updateContent)
		admin.DELETE("/articles/:id", h.deleteArticle)
		admin.PATCH("/articles/:id/version", h.revertContent)
		admin.PATCH("/articles/:id/category", h.changeCategory)
		admin.PATCH("/articles/:id/state", h.setState)
		admin.GET("/articles/:id/versions", h.versions)
		admin.GET("/articles/:id/versions/:version", h.version)
		admin.GET("/tags", h.tags(service.Admin))
		admin.GET("/outbox", h.outbox)
	}
	return r
}
