// Package api holds the JSON bodies exchanged between the server and its
// clients.
package api

import (
	"github.com/existflow/wbsync/internal/hierarchy"
	"github.com/existflow/wbsync/internal/model"
)

// Prefix is the path every versioned route lives under
const Prefix = "/api/v1"

// Error codes carried in ErrorResponse.Code
const (
	CodeConflict           = "CONFLICT"
	CodeInvalid            = "INVALID"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeDisabled           = "DISABLED"
)

// ErrorResponse is returned with every non-2xx status
type ErrorResponse struct {
	Success bool                      `json:"success"`
	Code    string                    `json:"code,omitempty"`
	Error   string                    `json:"error"`
	Detail  *hierarchy.ViolationError `json:"detail,omitempty"`
	Current string                    `json:"current_version,omitempty"`
}

// CommitRequest proposes a whole new document
type CommitRequest struct {
	Data            *model.Document `json:"data"`
	ExpectedVersion string          `json:"expected_version"`
	UpdatedBy       string          `json:"updated_by"`
}

// CommitResponse reports a successful commit
type CommitResponse struct {
	Success    bool        `json:"success"`
	NewVersion string      `json:"new_version"`
	Meta       *model.Meta `json:"meta,omitempty"`
}

// AuthRequest carries the admin secret. Password is accepted for older
// clients that still send it under that name.
type AuthRequest struct {
	Secret   string `json:"secret"`
	Password string `json:"password,omitempty"`
}

// Value returns whichever of Secret or Password was sent
func (r AuthRequest) Value() string {
	if r.Secret != "" {
		return r.Secret
	}
	return r.Password
}

// AuthResponse is returned by a successful authentication
type AuthResponse struct {
	Success   bool       `json:"success"`
	Role      model.Role `json:"role"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt string     `json:"expires_at,omitempty"`
}

// SystemInfo describes how the server was started
type SystemInfo struct {
	Mode       string `json:"mode"`
	UserID     string `json:"user_id,omitempty"`
	ServerTime int64  `json:"server_time"`
	DataPath   string `json:"data_path"`
}

// SettingsRequest changes the document config. Omitted fields keep their
// current value.
type SettingsRequest struct {
	AdminSecret     string `json:"admin_secret,omitempty"`
	PollingInterval *int   `json:"polling_interval,omitempty"` // Milliseconds
	ExpectedVersion string `json:"expected_version"`
	UpdatedBy       string `json:"updated_by,omitempty"`
}

// AddUserRequest adds a member
type AddUserRequest struct {
	Name            string `json:"name"`
	ExpectedVersion string `json:"expected_version"`
	UpdatedBy       string `json:"updated_by,omitempty"`
}

// UserResponse reports a user change
type UserResponse struct {
	Success    bool        `json:"success"`
	User       *model.User `json:"user,omitempty"`
	NewVersion string      `json:"new_version"`
}

// BackupResponse reports where a backup was written
type BackupResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
}
