package server

import (
	"net/http"

	"github.com/existflow/wbsync/internal/api"
	"github.com/labstack/echo/v4"
)

// handleGetDocument returns the committed document. It never fails; storage
// errors are absorbed by the store's fallback.
func (s *Server) handleGetDocument(c echo.Context) error {
	doc, _ := s.store.Read(c.Request().Context())
	return c.JSON(http.StatusOK, doc)
}

// handlePostDocument commits a whole proposed document
func (s *Server) handlePostDocument(c echo.Context) error {
	var req api.CommitRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "invalid request")
	}
	if req.Data == nil {
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, "data is required")
	}

	res, err := s.store.Write(c.Request().Context(), req.Data, req.ExpectedVersion, req.UpdatedBy)
	if err != nil {
		return commitFailed(c, err)
	}

	return c.JSON(http.StatusOK, api.CommitResponse{
		Success:    true,
		NewVersion: res.Version,
		Meta:       &res.Meta,
	})
}
