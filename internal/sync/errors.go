package sync

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/existflow/wbsync/internal/api"
	"github.com/existflow/wbsync/internal/hierarchy"
	"github.com/existflow/wbsync/internal/store"
)

// ErrUnauthorized means the server rejected the secret or session token
var ErrUnauthorized = errors.New("unauthorized")

// RemoteError is a non-2xx response from the server. It matches the store's
// sentinels through errors.Is, so callers handle local and remote stores alike.
type RemoteError struct {
	Status  int
	Code    string
	Message string
	Current string
	Detail  *hierarchy.ViolationError
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Unwrap exposes the matching sentinel and, for invalid data, the violation
func (e *RemoteError) Unwrap() []error {
	var errs []error
	switch e.Code {
	case api.CodeConflict:
		errs = append(errs, store.ErrConflict)
	case api.CodeInvalid:
		errs = append(errs, store.ErrInvalidData)
	case api.CodeStorageUnavailable:
		errs = append(errs, store.ErrStorageUnavailable)
	case api.CodeDisabled:
		errs = append(errs, store.ErrBackupDisabled)
	}
	if e.Status == http.StatusUnauthorized {
		errs = append(errs, ErrUnauthorized)
	}
	if e.Detail != nil {
		errs = append(errs, e.Detail)
	}
	return errs
}

func decodeError(resp *http.Response) error {
	remote := &RemoteError{Status: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var body api.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil {
		remote.Code = body.Code
		remote.Message = body.Error
		remote.Current = body.Current
		remote.Detail = body.Detail
	} else {
		remote.Message = string(data)
	}
	return remote
}
