package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/existflow/wbsync/internal/api"
	"github.com/existflow/wbsync/internal/auth"
	"github.com/existflow/wbsync/internal/config"
	"github.com/existflow/wbsync/internal/edit"
	"github.com/existflow/wbsync/internal/logger"
	"github.com/existflow/wbsync/internal/model"
	"github.com/existflow/wbsync/internal/storage"
	"github.com/existflow/wbsync/internal/store"
	"github.com/existflow/wbsync/internal/sync"
	"github.com/existflow/wbsync/internal/tui"
)

// ErrAdminOnly is returned when a member tries an admin command
var ErrAdminOnly = errors.New("only the admin can do this")

// adminOps are the calls reserved for the admin. *sync.Client implements
// them over HTTP and localAdmin directly on a store.
type adminOps interface {
	AddUser(ctx context.Context, name, baseline string) (model.User, string, error)
	DeleteUser(ctx context.Context, id, baseline string) (string, error)
	SaveSettings(ctx context.Context, req api.SettingsRequest) (store.CommitResult, error)
	Backup(ctx context.Context) (string, error)
}

// session is what a command works against: a document source, the
// identity edits are made as and, for the admin, the admin calls.
type session struct {
	cache  *sync.Cache
	viewer tui.Viewer
	actor  string
	admin  adminOps
	where  string

	client *sync.Client
	local  *store.Store
}

func (o *options) newClient() *sync.Client {
	client := sync.NewClient(o.clientSettings)
	if o.serverURL != "" {
		client.UseServer(o.serverURL)
	}
	return client
}

// open connects to the local data file when --data is set, otherwise to the
// configured server
func (o *options) open() (*session, error) {
	if o.dataPath != "" {
		return o.openLocal()
	}

	client := o.newClient()
	settings := client.Settings()
	s := &session{
		client: client,
		actor:  firstNonEmpty(o.actor, settings.Actor, settings.UserID),
		where:  settings.ServerURL,
		viewer: tui.Viewer{
			UserID: firstNonEmpty(o.userID, settings.UserID),
			Admin:  client.IsLoggedIn(),
		},
	}
	if s.viewer.Admin {
		s.admin = client
	}
	s.cache = sync.NewCache(client, s.actor)
	return s, nil
}

func (o *options) openLocal() (*session, error) {
	cfg := o.cfg
	backend, err := storage.Open(cfg.StorageDriver, o.dataPath, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", o.dataPath, err)
	}

	var storeOpts []store.Option
	if cfg.BackupEnabled {
		storeOpts = append(storeOpts, store.WithBackupDir(cfg.BackupDir))
	}
	st := store.New(backend, storeOpts...)

	s := &session{
		local: st,
		where: st.Location(),
		viewer: tui.Viewer{
			UserID: cfg.UserID,
			Admin:  cfg.Mode == config.ModeAdmin,
		},
	}
	s.actor = firstNonEmpty(o.actor, cfg.UserID, store.SeedActor)
	if s.viewer.Admin {
		s.admin = &localAdmin{store: st, actor: s.actor}
	}
	s.cache = sync.NewCache(sync.NewLocal(st), s.actor)
	logger.Debug("Opened local store", logger.F("location", s.where))
	return s, nil
}

func (s *session) Close() error {
	if s.local != nil {
		return s.local.Close()
	}
	return nil
}

// load fetches the latest document into the cache
func (s *session) load(ctx context.Context) (*model.Document, string, error) {
	if _, err := s.cache.Refresh(ctx); err != nil {
		return nil, "", err
	}
	doc, version := s.cache.Snapshot()
	return doc, version, nil
}

func (s *session) requireAdmin() (adminOps, error) {
	if s.admin == nil {
		if s.client != nil {
			return nil, sync.ErrNotLoggedIn
		}
		return nil, ErrAdminOnly
	}
	return s.admin, nil
}

// editTask applies fn after checking the member rule for taskID
func (s *session) editTask(ctx context.Context, taskID string, fn sync.EditFunc) (string, error) {
	return s.cache.Edit(ctx, func(doc *model.Document) (*model.Document, error) {
		if !s.viewer.Admin {
			if err := edit.Authorize(doc, s.viewer.UserID, taskID); err != nil {
				return nil, err
			}
		}
		return fn(doc)
	})
}

// localAdmin runs admin calls against a store in this process
type localAdmin struct {
	store *store.Store
	actor string
}

func (a *localAdmin) AddUser(ctx context.Context, name, baseline string) (model.User, string, error) {
	doc, _, err := a.store.Current(ctx)
	if err != nil {
		return model.User{}, "", err
	}
	next, user, err := edit.AddUser(doc, name)
	if err != nil {
		return model.User{}, "", err
	}
	res, err := a.store.Write(ctx, next, baseline, a.actor)
	if err != nil {
		return model.User{}, "", err
	}
	return user, res.Version, nil
}

func (a *localAdmin) DeleteUser(ctx context.Context, id, baseline string) (string, error) {
	doc, _, err := a.store.Current(ctx)
	if err != nil {
		return "", err
	}
	next, err := edit.DeleteUser(doc, id)
	if err != nil {
		return "", err
	}
	res, err := a.store.Write(ctx, next, baseline, a.actor)
	if err != nil {
		return "", err
	}
	return res.Version, nil
}

func (a *localAdmin) SaveSettings(ctx context.Context, req api.SettingsRequest) (store.CommitResult, error) {
	doc, _, err := a.store.Current(ctx)
	if err != nil {
		return store.CommitResult{}, err
	}
	settings := doc.Config
	if req.AdminSecret != "" {
		hash, err := auth.HashSecret(req.AdminSecret)
		if err != nil {
			return store.CommitResult{}, err
		}
		settings.AdminPasswordHash = hash
	}
	if req.PollingInterval != nil {
		settings.PollingInterval = *req.PollingInterval
	}
	return a.store.SaveSettings(ctx, settings, req.ExpectedVersion, firstNonEmpty(req.UpdatedBy, a.actor))
}

func (a *localAdmin) Backup(ctx context.Context) (string, error) {
	return a.store.Backup(ctx)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
