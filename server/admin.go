package server

import (
	"net/http"

	"github.com/existflow/wbsync/internal/api"
	"github.com/existflow/wbsync/internal/auth"
	"github.com/existflow/wbsync/internal/edit"
	"github.com/existflow/wbsync/internal/logger"
	"github.com/labstack/echo/v4"
)

func actor(name string) string {
	if name == "" {
		return "admin"
	}
	return name
}

// handleSettings changes the admin secret and/or the polling interval
func (s *Server) handleSettings(c echo.Context) error {
	var req api.SettingsRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid request")
	}
	if req.AdminSecret == "" && req.PollingInterval == nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "nothing to change")
	}

	ctx := c.Request().Context()
	doc, _, err := s.store.Current(ctx)
	if err != nil {
		return commitFailed(c, err)
	}
	settings := doc.Config
	if req.AdminSecret != "" {
		hash, err := auth.HashSecret(req.AdminSecret)
		if err != nil {
			return fail(c, http.StatusBadRequest, api.CodeBadRequest, err.Error())
		}
		settings.AdminPasswordHash = hash
	}
	if req.PollingInterval != nil {
		settings.PollingInterval = *req.PollingInterval
	}

	res, err := s.store.SaveSettings(ctx, settings, req.ExpectedVersion, actor(req.UpdatedBy))
	if err != nil {
		return commitFailed(c, err)
	}

	logger.Info("Settings saved",
		logger.F("secret_changed", req.AdminSecret != ""),
		logger.F("polling_interval", settings.PollingInterval))
	return c.JSON(http.StatusOK, api.CommitResponse{Success: true, NewVersion: res.Version, Meta: &res.Meta})
}

// handleAddUser appends a member with the next free id
func (s *Server) handleAddUser(c echo.Context) error {
	var req api.AddUserRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid request")
	}

	ctx := c.Request().Context()
	doc, _, err := s.store.Current(ctx)
	if err != nil {
		return commitFailed(c, err)
	}
	next, user, err := edit.AddUser(doc, req.Name)
	if err != nil {
		return commitFailed(c, err)
	}

	res, err := s.store.Write(ctx, next, req.ExpectedVersion, actor(req.UpdatedBy))
	if err != nil {
		return commitFailed(c, err)
	}

	logger.Info("User added", logger.F("user_id", user.ID), logger.F("name", user.Name))
	return c.JSON(http.StatusOK, api.UserResponse{Success: true, User: &user, NewVersion: res.Version})
}

// handleDeleteUser removes a member and unassigns their tasks in one commit
func (s *Server) handleDeleteUser(c echo.Context) error {
	id := c.Param("id")
	baseline := c.QueryParam("expected_version")

	ctx := c.Request().Context()
	doc, _, err := s.store.Current(ctx)
	if err != nil {
		return commitFailed(c, err)
	}
	next, err := edit.DeleteUser(doc, id)
	if err != nil {
		return commitFailed(c, err)
	}

	res, err := s.store.Write(ctx, next, baseline, actor(c.QueryParam("updated_by")))
	if err != nil {
		return commitFailed(c, err)
	}

	logger.Info("User removed", logger.F("user_id", id))
	return c.JSON(http.StatusOK, api.UserResponse{Success: true, NewVersion: res.Version})
}

// handleBackup writes a timestamped copy of the document
func (s *Server) handleBackup(c echo.Context) error {
	path, err := s.store.Backup(c.Request().Context())
	if err != nil {
		return commitFailed(c, err)
	}
	return c.JSON(http.StatusOK, api.BackupResponse{Success: true, Path: path})
}
