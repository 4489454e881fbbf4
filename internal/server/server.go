package server

import (
	"context"
	"net/http"

	"kb-service/internal/service"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	entityService service.EntityServiceInterface
	db            Pinger
	metrics       http.Handler
	jwtSecret     []byte
	logger        log.FieldLogger
}

type Options struct {
	Metrics   http.Handler
	JWTSecret string
	Logger    log.FieldLogger
}

func NewServer(entityService service.EntityServiceInterface, db Pinger, opts Options) *Server {
	s := &Server{
		entityService: entityService,
		db:            db,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
	}
	if opts.JWTSecret != "" {
		s.jwtSecret = []byte(opts.JWTSecret)
	}
	if s.logger == nil {
		s.logger = log.StandardLogger()
	}
	return s
}

// Register mounts every route on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", s.HealthCheck)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	api := e.Group("/api", s.Actor)

	patterns := api.Group("/attack-patterns")
	patterns.POST("", s.CreateAttackPattern)
	patterns.GET("", s.ListAttackPatterns)
	patterns.GET("/:id", s.GetEntity)
	patterns.DELETE("/:id", s.DeleteEntity)

	api.POST("/kill-chain-phases", s.CreateKillChainPhase)
	api.POST("/marking-definitions", s.CreateMarkingDefinition)
	api.POST("/identities", s.CreateIdentity)

	api.GET("/entities/:id", s.GetEntity)
	api.GET("/entities/:id/relations", s.ListRelations)

	api.GET("/campaigns/:id/knowledge-bar", s.KnowledgeBar)
}

func (s *Server) HealthCheck(c echo.Context) error {
	if err := s.db.Ping(c.Request().Context()); err != nil {
		s.logger.WithField("error", err).Error("Health check failed: database is down")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "database connection error",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
