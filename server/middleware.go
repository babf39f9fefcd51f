package server

import (
	"net/http"
	"strings"

	"github.com/existflow/wbsync/internal/api"
	"github.com/labstack/echo/v4"
)

// adminMiddleware requires a live admin session token
func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if header == "" {
			return fail(c, http.StatusUnauthorized, api.CodeUnauthorized, "authorization required")
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header {
			return fail(c, http.StatusUnauthorized, api.CodeUnauthorized, "invalid authorization format")
		}

		session, ok := s.sessions.Get(token)
		if !ok {
			return fail(c, http.StatusUnauthorized, api.CodeUnauthorized, "invalid or expired token")
		}

		c.Set("token", token)
		c.Set("role", session.Role)
		return next(c)
	}
}
