package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"prompthub/services/library-api/internal/config"
	"prompthub/services/library-api/internal/domain/prompt"
	"prompthub/services/library-api/internal/domain/session"
	"prompthub/services/library-api/internal/infrastructure/auth"
	"prompthub/services/library-api/internal/infrastructure/storage"
	"prompthub/services/library-api/internal/interfaces/httpserver/handlers"
	"prompthub/services/library-api/internal/interfaces/httpserver/middlewares"
	v1 "prompthub/services/library-api/internal/interfaces/httpserver/routes/v1"
)

// HttpServer wraps the gin engine with graceful shutdown helpers.
type HttpServer struct {
	cfg     *config.Config
	engine  *gin.Engine
	log     zerolog.Logger
	storage storage.Backend
}

// New constructs the HTTP server with default middleware and routes.
func New(
	cfg *config.Config,
	log zerolog.Logger,
	promptService *prompt.Service,
	sessionManager *session.Manager,
	authValidator *auth.Validator,
	photoStorage storage.Backend,
) *HttpServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middlewares.RequestID(),
		middlewares.LoggingMiddleware(log),
		middlewares.CORSMiddleware(),
		middlewares.MetricsMiddleware(),
	)

	handlerProvider := handlers.NewProvider(promptService, sessionManager, log)
	routeProvider := v1.NewRoutes(handlerProvider, authValidator)

	server := &HttpServer{
		cfg:     cfg,
		engine:  engine,
		log:     log,
		storage: photoStorage,
	}
	server.registerCoreRoutes(routeProvider)
	return server
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *HttpServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("library-api HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *HttpServer) registerCoreRoutes(routes *v1.Routes) {
	s.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": s.cfg.ServiceName, "status": "ok"})
	})
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	s.engine.GET("/readyz", func(c *gin.Context) {
		if s.storage != nil {
			if err := s.storage.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "storage unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.Register(s.engine.Group("/"))
}
