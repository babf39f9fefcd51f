package server

import (
	"errors"
	"net/http"

	"github.com/existflow/wbsync/internal/api"
	"github.com/existflow/wbsync/internal/edit"
	"github.com/existflow/wbsync/internal/hierarchy"
	"github.com/existflow/wbsync/internal/logger"
	"github.com/existflow/wbsync/internal/store"
	"github.com/labstack/echo/v4"
)

func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, api.ErrorResponse{Code: code, Error: msg})
}

// commitFailed maps a store or edit error onto a status and error code
func commitFailed(c echo.Context, err error) error {
	var (
		conflict  *store.ConflictError
		violation *hierarchy.ViolationError
	)
	switch {
	case errors.As(err, &conflict):
		return c.JSON(http.StatusConflict, api.ErrorResponse{
			Code:    api.CodeConflict,
			Error:   "the document was changed by someone else; reload and try again",
			Current: conflict.Current,
		})
	case errors.Is(err, store.ErrConflict):
		return fail(c, http.StatusConflict, api.CodeConflict, "the document was changed by someone else; reload and try again")
	case errors.As(err, &violation):
		return c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{
			Code:   api.CodeInvalid,
			Error:  violation.Error(),
			Detail: violation,
		})
	case errors.Is(err, store.ErrInvalidData):
		return fail(c, http.StatusUnprocessableEntity, api.CodeInvalid, err.Error())
	case errors.Is(err, edit.ErrUserNotFound), errors.Is(err, edit.ErrTaskNotFound):
		return fail(c, http.StatusNotFound, api.CodeNotFound, err.Error())
	case errors.Is(err, edit.ErrNameRequired), errors.Is(err, edit.ErrProtectedUser):
		return fail(c, http.StatusBadRequest, api.CodeBadRequest, err.Error())
	case errors.Is(err, store.ErrBackupDisabled):
		return fail(c, http.StatusBadRequest, api.CodeDisabled, err.Error())
	default:
		logger.Error("Storage failure", logger.F("uri", c.Request().RequestURI), logger.F("error", err.Error()))
		return fail(c, http.StatusServiceUnavailable, api.CodeStorageUnavailable, "storage is unavailable; the change was not saved")
	}
}
