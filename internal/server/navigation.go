package server

import (
	"net/http"

	"kb-service/internal/navigation"

	"github.com/labstack/echo/v4"
)

func (s *Server) KnowledgeBar(c echo.Context) error {
	return c.JSON(http.StatusOK, navigation.KnowledgeBar(c.Param("id"), c.QueryParam("path")))
}
