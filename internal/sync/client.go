package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/existflow/wbsync/internal/api"
	"github.com/existflow/wbsync/internal/model"
	"github.com/existflow/wbsync/internal/store"
)

// DefaultServerURL is used until SetServer is called
const DefaultServerURL = "http://localhost:8080"

// ErrNotLoggedIn is returned by admin calls made without a session token
var ErrNotLoggedIn = errors.New("not logged in as admin, run 'wbs login' first")

// ErrUnreachable means the server could not be contacted at all
var ErrUnreachable = errors.New("server unreachable")

// Settings holds the client's persisted preferences
type Settings struct {
	ServerURL      string `json:"server_url"`
	Actor          string `json:"actor,omitempty"`   // Recorded as updated_by
	UserID         string `json:"user_id,omitempty"` // Whose tasks a member may edit
	Token          string `json:"token,omitempty"`
	TokenExpiresAt string `json:"token_expires_at,omitempty"`
}

// Client talks to a document server
type Client struct {
	settings   *Settings
	path       string
	httpClient *http.Client
}

// DefaultSettingsPath returns ~/.wbs/client.json
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".wbs", "client.json")
	}
	return filepath.Join(home, ".wbs", "client.json")
}

// NewClient creates a client whose settings live at path (the default when
// empty). Missing or unreadable settings start from defaults.
func NewClient(path string) *Client {
	if path == "" {
		path = DefaultSettingsPath()
	}
	c := &Client{
		path:       path,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	c.loadSettings()
	return c
}

func (c *Client) loadSettings() {
	c.settings = &Settings{ServerURL: DefaultServerURL}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	json.Unmarshal(data, c.settings)
	if c.settings.ServerURL == "" {
		c.settings.ServerURL = DefaultServerURL
	}
}

func (c *Client) saveSettings() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c.settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0600)
}

// Settings returns a copy of the current settings
func (c *Client) Settings() Settings {
	return *c.settings
}

// SetServer sets the server URL
func (c *Client) SetServer(serverURL string) error {
	c.settings.ServerURL = strings.TrimRight(serverURL, "/")
	return c.saveSettings()
}

// UseServer points the client at serverURL without saving it
func (c *Client) UseServer(serverURL string) {
	c.settings.ServerURL = strings.TrimRight(serverURL, "/")
}

// SetIdentity records who this client edits as
func (c *Client) SetIdentity(actor, userID string) error {
	c.settings.Actor = actor
	c.settings.UserID = userID
	return c.saveSettings()
}

// IsLoggedIn returns true if an admin token is stored and not expired
func (c *Client) IsLoggedIn() bool {
	if c.settings.Token == "" {
		return false
	}
	if expires, err := time.Parse(time.RFC3339, c.settings.TokenExpiresAt); err == nil && time.Now().After(expires) {
		return false
	}
	return true
}

// Login exchanges the admin secret for a session token
func (c *Client) Login(ctx context.Context, secret string) (model.Role, error) {
	var res api.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth", api.AuthRequest{Secret: secret}, &res); err != nil {
		return "", err
	}

	c.settings.Token = res.Token
	c.settings.TokenExpiresAt = res.ExpiresAt
	return res.Role, c.saveSettings()
}

// Logout revokes the session on the server, then forgets it locally
func (c *Client) Logout(ctx context.Context) error {
	if c.settings.Token != "" {
		// A dead server must not prevent a local logout
		_ = c.do(ctx, http.MethodPost, "/logout", nil, nil)
	}
	c.settings.Token = ""
	c.settings.TokenExpiresAt = ""
	return c.saveSettings()
}

// Fetch returns the committed document
func (c *Client) Fetch(ctx context.Context) (*model.Document, error) {
	var doc model.Document
	if err := c.do(ctx, http.MethodGet, "/document", nil, &doc); err != nil {
		return nil, err
	}
	doc.Normalize()
	return &doc, nil
}

// Commit proposes doc as the successor of baseline
func (c *Client) Commit(ctx context.Context, doc *model.Document, baseline, actor string) (store.CommitResult, error) {
	var res api.CommitResponse
	req := api.CommitRequest{Data: doc, ExpectedVersion: baseline, UpdatedBy: c.actor(actor)}
	if err := c.do(ctx, http.MethodPost, "/document", req, &res); err != nil {
		return store.CommitResult{}, err
	}
	return commitResult(res), nil
}

// System returns how the server was started
func (c *Client) System(ctx context.Context) (api.SystemInfo, error) {
	var info api.SystemInfo
	err := c.do(ctx, http.MethodGet, "/system", nil, &info)
	return info, err
}

// SaveSettings changes the admin secret and/or polling interval
func (c *Client) SaveSettings(ctx context.Context, req api.SettingsRequest) (store.CommitResult, error) {
	if !c.IsLoggedIn() {
		return store.CommitResult{}, ErrNotLoggedIn
	}
	req.UpdatedBy = c.actor(req.UpdatedBy)

	var res api.CommitResponse
	if err := c.do(ctx, http.MethodPut, "/settings", req, &res); err != nil {
		return store.CommitResult{}, err
	}
	return commitResult(res), nil
}

// AddUser adds a member named name
func (c *Client) AddUser(ctx context.Context, name, baseline string) (model.User, string, error) {
	if !c.IsLoggedIn() {
		return model.User{}, "", ErrNotLoggedIn
	}

	var res api.UserResponse
	req := api.AddUserRequest{Name: name, ExpectedVersion: baseline, UpdatedBy: c.actor("")}
	if err := c.do(ctx, http.MethodPost, "/users", req, &res); err != nil {
		return model.User{}, "", err
	}
	if res.User == nil {
		return model.User{}, "", fmt.Errorf("server returned no user")
	}
	return *res.User, res.NewVersion, nil
}

// DeleteUser removes a member and unassigns their tasks
func (c *Client) DeleteUser(ctx context.Context, id, baseline string) (string, error) {
	if !c.IsLoggedIn() {
		return "", ErrNotLoggedIn
	}

	q := url.Values{}
	q.Set("expected_version", baseline)
	q.Set("updated_by", c.actor(""))
	var res api.UserResponse
	if err := c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id)+"?"+q.Encode(), nil, &res); err != nil {
		return "", err
	}
	return res.NewVersion, nil
}

// Backup asks the server to write a backup and returns its path
func (c *Client) Backup(ctx context.Context) (string, error) {
	if !c.IsLoggedIn() {
		return "", ErrNotLoggedIn
	}

	var res api.BackupResponse
	if err := c.do(ctx, http.MethodPost, "/backup", nil, &res); err != nil {
		return "", err
	}
	return res.Path, nil
}

func (c *Client) actor(name string) string {
	if name != "" {
		return name
	}
	return c.settings.Actor
}

func commitResult(res api.CommitResponse) store.CommitResult {
	result := store.CommitResult{Version: res.NewVersion}
	if res.Meta != nil {
		result.Meta = *res.Meta
	} else {
		result.Meta.Version = res.NewVersion
	}
	return result
}

// do sends a JSON request and decodes a 2xx response into out. Error bodies
// are turned into *RemoteError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.settings.ServerURL+api.Prefix+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.settings.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.settings.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
