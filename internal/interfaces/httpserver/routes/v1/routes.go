package v1

import (
	"github.com/gin-gonic/gin"

	"prompthub/services/library-api/internal/infrastructure/auth"
	"prompthub/services/library-api/internal/interfaces/httpserver/handlers"
	"prompthub/services/library-api/internal/interfaces/httpserver/middlewares"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
	auth     *auth.Validator
}

func NewRoutes(provider *handlers.Provider, authValidator *auth.Validator) *Routes {
	return &Routes{handlers: provider, auth: authValidator}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	// Catalog
	group.GET("/prompts", r.handlers.Prompt.List)
	group.POST("/prompts", r.handlers.Prompt.Create)
	group.GET("/prompts/:id", r.handlers.Prompt.Get)
	group.DELETE("/prompts/:id", r.auth.Middleware(), r.auth.RequireAdmin(), r.handlers.Prompt.Delete)
	group.POST("/prompts/:id/rating", r.handlers.Prompt.Rate)
	group.POST("/prompts/:id/comments", r.handlers.Prompt.Comment)
	group.POST("/prompts/:id/photos", r.handlers.Prompt.AttachPhoto)

	// Moderation
	group.POST("/reports", r.handlers.Prompt.Report)
	group.POST("/reports/:id/resolve", r.auth.Middleware(), r.auth.RequireAdmin(), r.handlers.Prompt.ResolveReport)

	// Assistant
	group.POST("/assistant/search", r.handlers.Assistant.Search)

	// Collaborative sessions. Every route needs the caller's client id so
	// its store instance can be resolved.
	sessions := group.Group("/sessions", middlewares.ClientID(), r.auth.OptionalMiddleware())
	sessions.POST("", r.handlers.Session.Create)
	sessions.GET("", r.handlers.Session.List)
	sessions.GET("/:id", r.handlers.Session.Get)
	sessions.POST("/:id/attach", r.handlers.Session.Attach)
	sessions.POST("/:id/resync", r.handlers.Session.Resync)
	sessions.POST("/:id/join", r.handlers.Session.Join)
	sessions.GET("/:id/participant", r.handlers.Session.Participant)
	sessions.POST("/:id/feed", r.handlers.Session.AddFeedItem)
	sessions.POST("/:id/feed/:itemId/like", r.handlers.Session.Like)
	sessions.POST("/:id/feed/:itemId/comments", r.handlers.Session.Comment)
	sessions.POST("/:id/feed/:itemId/rating", r.handlers.Session.Rate)
}
