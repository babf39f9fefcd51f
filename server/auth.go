package server

import (
	"net/http"
	"time"

	"github.com/existflow/wbsync/internal/api"
	"github.com/existflow/wbsync/internal/auth"
	"github.com/existflow/wbsync/internal/logger"
	"github.com/existflow/wbsync/internal/model"
	"github.com/labstack/echo/v4"
)

// handleAuth checks the admin secret and issues a session token
func (s *Server) handleAuth(c echo.Context) error {
	var req api.AuthRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid request")
	}

	ctx := c.Request().Context()
	// Never check the secret against the seeded fallback
	doc, version, err := s.store.Current(ctx)
	if err != nil {
		return commitFailed(c, err)
	}
	hash := doc.Config.AdminPasswordHash
	if err := auth.CheckSecret(hash, req.Value()); err != nil {
		logger.Warn("Admin authentication failed", logger.F("remote", c.RealIP()))
		return fail(c, http.StatusUnauthorized, api.CodeUnauthorized, "invalid secret")
	}

	if auth.IsLegacyHash(hash) {
		s.upgradeHash(c, doc.Config, req.Value(), version)
	}

	session, err := s.sessions.Create(model.RoleAdmin)
	if err != nil {
		logger.Error("Failed to create session", logger.F("error", err.Error()))
		return fail(c, http.StatusInternalServerError, "", "internal error")
	}

	logger.Info("Admin authenticated", logger.F("remote", c.RealIP()))
	return c.JSON(http.StatusOK, api.AuthResponse{
		Success:   true,
		Role:      session.Role,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	})
}

// upgradeHash replaces an unsalted legacy hash with bcrypt. A conflict just
// means the upgrade is retried on the next login.
func (s *Server) upgradeHash(c echo.Context, settings model.Settings, secret, version string) {
	hash, err := auth.HashSecret(secret)
	if err != nil {
		return
	}
	settings.AdminPasswordHash = hash
	if _, err := s.store.SaveSettings(c.Request().Context(), settings, version, "system"); err != nil {
		logger.Warn("Failed to upgrade legacy admin hash", logger.F("error", err.Error()))
		return
	}
	logger.Info("Upgraded legacy admin hash to bcrypt")
}

func (s *Server) handleLogout(c echo.Context) error {
	s.sessions.Revoke(c.Get("token").(string))
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
