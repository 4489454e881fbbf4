package server

import (
	"errors"
	"net/http"

	"kb-service/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type entityRequest interface {
	EntityRequest() domain.CreateEntityRequest
}

func handleEntityError(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, domain.ErrEntityNotFound):
		return http.StatusNotFound, "entity not found"
	case errors.Is(err, domain.ErrStixIDExists):
		return http.StatusConflict, "entity with this stix id already exists"
	case errors.Is(err, domain.ErrDanglingReference):
		return http.StatusUnprocessableEntity, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *Server) entityError(c echo.Context, err error, msg string, fields log.Fields) error {
	statusCode, errorMsg := handleEntityError(err)
	entry := s.logger.WithError(err).WithFields(fields)
	if statusCode >= http.StatusInternalServerError {
		entry.Error(msg)
	} else {
		entry.Debug(msg)
	}
	return c.JSON(statusCode, map[string]string{
		"error": errorMsg,
	})
}

func (s *Server) create(c echo.Context, payload entityRequest) error {
	if err := c.Bind(payload); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid request body",
		})
	}

	req := payload.EntityRequest()
	entity, err := s.entityService.Create(c.Request().Context(), actorFrom(c), req)
	if err != nil {
		return s.entityError(c, err, "Failed to create entity", log.Fields{"entity_type": req.Type})
	}

	return c.JSON(http.StatusCreated, entity)
}

func (s *Server) CreateAttackPattern(c echo.Context) error {
	return s.create(c, &domain.CreateAttackPatternRequest{})
}

func (s *Server) CreateKillChainPhase(c echo.Context) error {
	return s.create(c, &domain.CreateKillChainPhaseRequest{})
}

func (s *Server) CreateMarkingDefinition(c echo.Context) error {
	return s.create(c, &domain.CreateMarkingDefinitionRequest{})
}

func (s *Server) CreateIdentity(c echo.Context) error {
	return s.create(c, &domain.CreateIdentityRequest{})
}

func (s *Server) GetEntity(c echo.Context) error {
	id := c.Param("id")

	entity, err := s.entityService.FindByID(c.Request().Context(), id)
	if err != nil {
		return s.entityError(c, err, "Failed to get entity", log.Fields{"id": id})
	}

	return c.JSON(http.StatusOK, entity)
}

func (s *Server) ListAttackPatterns(c echo.Context) error {
	var args domain.ListArgs
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &args); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid query parameters",
		})
	}

	conn, err := s.entityService.FindAll(c.Request().Context(), domain.TypeAttackPattern, args)
	if err != nil {
		return s.entityError(c, err, "Failed to list attack patterns", log.Fields{"order_by": args.OrderBy})
	}

	return c.JSON(http.StatusOK, conn)
}

func (s *Server) ListRelations(c echo.Context) error {
	id := c.Param("id")

	var relType *domain.RelationType
	if t := c.QueryParam("type"); t != "" {
		rt := domain.RelationType(t)
		relType = &rt
	}

	relations, err := s.entityService.Relations(c.Request().Context(), id, relType)
	if err != nil {
		return s.entityError(c, err, "Failed to list relations", log.Fields{"id": id})
	}

	return c.JSON(http.StatusOK, relations)
}

func (s *Server) DeleteEntity(c echo.Context) error {
	id := c.Param("id")

	if err := s.entityService.Delete(c.Request().Context(), actorFrom(c), id); err != nil {
		return s.entityError(c, err, "Failed to delete entity", log.Fields{"id": id})
	}

	return c.NoContent(http.StatusNoContent)
}
