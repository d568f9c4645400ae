// Package app wires the client together: config in, connected services out.
// Views (the CLI today) only ever talk to what App hands them.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"quizdesk/internal/api"
	"quizdesk/internal/auth"
	"quizdesk/internal/browse"
	"quizdesk/internal/event"
	"quizdesk/internal/identity"
	"quizdesk/internal/manage"
	"quizdesk/internal/session"
	"quizdesk/internal/store"
	"quizdesk/internal/uploads"
)

type Config struct {
	API struct {
		BaseURL string
		Timeout time.Duration
	}

	Store struct {
		// Path is the SQLite file holding local state; empty picks a
		// per-user default under the OS config directory.
		Path string
	}

	Identity struct {
		// Strategy names the anonymous id generator: "local" or "uuid".
		Strategy string
	}
}

type App struct {
	c Config

	eb *event.Bus

	infra struct {
		store *store.Store
		api   *api.Client
	}

	service struct {
		auth   *auth.Session
		browse *browse.Service
		manage *manage.Service
	}
}

func Init(ctx context.Context, c Config) (*App, error) {
	a := &App{c: c}

	a.eb = event.NewBus()

	if err := a.initInfra(ctx); err != nil {
		return nil, fmt.Errorf("app: init infra: %w", err)
	}

	a.initService()

	if err := a.service.auth.Init(ctx); err != nil {
		return nil, fmt.Errorf("app: restore session: %w", err)
	}

	return a, nil
}

func (a *App) initInfra(ctx context.Context) error {
	path := a.c.Store.Path
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("store path: %w", err)
		}
		path = filepath.Join(dir, "quizdesk", "state.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("store path: %w", err)
	}

	st, err := store.Open(ctx, store.Config{
		Path:     path,
		EventBus: a.eb,
	})
	if err != nil {
		return err
	}
	a.infra.store = st

	a.infra.api = api.NewClient(api.Config{
		BaseURL: a.c.API.BaseURL,
		Timeout: a.c.API.Timeout,
	})

	return nil
}

func (a *App) initService() {
	anonymous := identity.NewProvider(identity.Config{
		Store:    a.infra.store,
		Generate: identity.ByName(a.c.Identity.Strategy),
	})

	a.service.auth = auth.NewSession(auth.Config{
		API:       a.infra.api,
		Store:     a.infra.store,
		Anonymous: anonymous,
	})

	a.service.browse = browse.NewService(browse.Config{
		API:      a.infra.api,
		EventBus: a.eb,
	})

	a.service.manage = manage.NewService(manage.Config{
		API:  a.infra.api,
		Auth: a.service.auth,
	})
}

func (a *App) Auth() *auth.Session     { return a.service.auth }
func (a *App) Browse() *browse.Service { return a.service.browse }
func (a *App) Manage() *manage.Service { return a.service.manage }
func (a *App) Store() *store.Store     { return a.infra.store }
func (a *App) EventBus() *event.Bus    { return a.eb }

// NewSessionController starts a fresh attempt controller. One controller per
// attempt; it is not reused across quizzes.
func (a *App) NewSessionController() *session.Controller {
	return session.NewController(session.Config{
		API:      a.infra.api,
		Identity: a.service.auth,
		EventBus: a.eb,
	})
}

// NewUploadEditor starts a fresh upload batch.
func (a *App) NewUploadEditor() *uploads.Editor {
	return uploads.NewEditor(uploads.Config{API: a.infra.api})
}

func (a *App) Close() error {
	a.eb.Stop()
	return a.infra.store.Close()
}
