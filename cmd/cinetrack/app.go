package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/cinetrack/internal/adapter"
	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/library"
	"github.com/mmcdole/cinetrack/internal/metadata"
	"github.com/mmcdole/cinetrack/internal/metadata/tmdb"
	"github.com/mmcdole/cinetrack/internal/session"
	"github.com/mmcdole/cinetrack/internal/store"
)

// readyTimeout bounds the wait for the first snapshot in one-shot commands
const readyTimeout = 15 * time.Second

var errSignedOut = errors.New("not signed in; run `cinetrack login` or `cinetrack guest`")

// app holds the services shared by the TUI and the library commands
type app struct {
	cfg      *adapter.Config
	logger   *slog.Logger
	local    *store.LocalStore
	selector *session.Selector
	lookup   *metadata.Lookup

	// Set once a session is running
	lib     *store.Library
	service *library.Service
}

func (c *commandContext) openApp() (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.logger

	local, err := store.NewLocalStore(cfg.Storage.DataDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open local library: %w", err)
	}

	var auth domain.Authenticator
	var remote session.RemoteFactory
	if cfg.HasRemote() {
		serverURL := cfg.Remote.ServerURL
		auth = session.NewRemoteAuth(serverURL, logger)
		remote = func(token string) domain.Backend {
			return store.NewRemoteBackend(serverURL, token, logger)
		}
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		local:    local,
		selector: session.NewSelector(local, auth, remote, logger),
		lookup:   metadata.NewLookup(newCatalog(cfg, logger), cfg.TMDB.MaxResults, logger),
	}, nil
}

// newCatalog returns the TMDB client, or nil when search is not configured
func newCatalog(cfg *adapter.Config, logger *slog.Logger) metadata.Catalog {
	if !cfg.HasCatalog() {
		logger.Info("no TMDB credentials configured, title search disabled")
		return nil
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithAccessToken(cfg.TMDB.AccessToken),
		tmdb.WithRateLimit(cfg.TMDB.RateLimit, max(int(cfg.TMDB.RateLimit), 1)),
		tmdb.WithLogger(logger),
	)
	if err != nil {
		logger.Warn("failed to create TMDB client", "error", err)
		return nil
	}
	return client
}

// start resumes the saved session. Without one it signs in when a server is
// configured and a terminal is attached, and opens the guest library
// otherwise.
func (a *app) start(ctx context.Context, interactive bool) (session.Session, error) {
	saved := a.cfg.Session
	if saved.Mode == "" {
		if a.cfg.HasRemote() && interactive {
			return a.signIn(ctx, "")
		}
		return a.switchMode(ctx, session.ModeGuest)
	}

	mode, err := session.ParseMode(saved.Mode)
	if err != nil {
		return session.Session{}, fmt.Errorf("saved session: %w", err)
	}
	sess := session.Session{
		Mode:     mode,
		Username: saved.Username,
		UserID:   saved.UserID,
		Token:    saved.Token,
	}
	lib, err := a.selector.Resume(ctx, sess)
	if err != nil {
		if errors.Is(err, domain.ErrAuthFailed) {
			return session.Session{}, errSignedOut
		}
		return session.Session{}, err
	}
	a.bind(lib)
	return sess, nil
}

// signIn prompts for credentials and starts a remote session
func (a *app) signIn(ctx context.Context, username string) (session.Session, error) {
	creds, err := session.PromptCredentials(username)
	if err != nil {
		return session.Session{}, err
	}
	sess, lib, err := a.selector.Start(ctx, session.ModeRemote, creds)
	if err != nil {
		return session.Session{}, err
	}
	a.bind(lib)
	return sess, a.save(sess)
}

// switchMode starts an on-device session and remembers it
func (a *app) switchMode(ctx context.Context, mode session.Mode) (session.Session, error) {
	sess, lib, err := a.selector.Start(ctx, mode, session.Credentials{})
	if err != nil {
		return session.Session{}, err
	}
	a.bind(lib)
	return sess, a.save(sess)
}

// signOut ends the session and forgets it. A failed token revocation is
// logged by the selector and does not keep the user signed in.
func (a *app) signOut(ctx context.Context) error {
	_ = a.selector.SignOut(ctx)
	a.lib = nil
	a.service = nil
	return adapter.ClearSession(a.cfg)
}

func (a *app) save(sess session.Session) error {
	if err := adapter.SaveSession(a.cfg, adapter.SessionConfig{
		Mode:     string(sess.Mode),
		Username: sess.Username,
		UserID:   sess.UserID,
		Token:    sess.Token,
	}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (a *app) bind(lib *store.Library) {
	a.lib = lib
	a.service = library.NewService(lib, a.lookup, a.logger)
}

// waitReady blocks until the first snapshot of the active library arrived
func (a *app) waitReady(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	err := a.lib.WaitReady(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrAuthFailed):
		return fmt.Errorf("session expired: %w", errSignedOut)
	case errors.Is(err, context.DeadlineExceeded):
		return errors.New("timed out loading the library")
	default:
		return fmt.Errorf("failed to load library: %w", err)
	}
}

func (a *app) Close() error {
	err := a.selector.Close()
	return errors.Join(err, a.local.Close())
}

// sessionLabel is the short session description shown to the user
func sessionLabel(sess session.Session) string {
	if sess.Username != "" {
		return sess.Mode.String() + " · " + sess.Username
	}
	return sess.Mode.String()
}

// withLibrary runs fn against the resumed session's library
func (c *commandContext) withLibrary(ctx context.Context, fn func(a *app) error) error {
	a, err := c.openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.start(ctx, false); err != nil {
		return err
	}
	if err := a.waitReady(ctx); err != nil {
		return err
	}
	return fn(a)
}
