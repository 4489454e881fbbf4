package server

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	actorKey       = "actor"
	actorHeader    = "X-Actor"
	anonymousActor = "anonymous"
)

// Actor resolves who is acting on the request. With a JWT secret configured
// every request needs an HS256 bearer token and the actor is its subject;
// otherwise the X-Actor header is trusted.
func (s *Server) Actor(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.jwtSecret == nil {
			actor := strings.TrimSpace(c.Request().Header.Get(actorHeader))
			if actor == "" {
				actor = anonymousActor
			}
			c.Set(actorKey, actor)
			return next(c)
		}

		raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
		if !ok || raw == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "missing bearer token",
			})
		}

		token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
			return s.jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			s.logger.WithError(err).Warn("Rejected bearer token")
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "invalid token",
			})
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "token has no subject",
			})
		}

		c.Set(actorKey, subject)
		return next(c)
	}
}

func actorFrom(c echo.Context) string {
	if actor, ok := c.Get(actorKey).(string); ok && actor != "" {
		return actor
	}
	return anonymousActor
}
