// Package session decides which storage backend serves the library and
// routes every store operation through the one chosen at session start.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mmcdole/cinetrack/internal/domain"
	"github.com/mmcdole/cinetrack/internal/store"
)

// Mode is the storage mode of a session
type Mode string

const (
	ModeRemote Mode = "remote" // Per-user collection on the server
	ModeGuest  Mode = "guest"  // On-device guest library
	ModeOwner  Mode = "owner"  // On-device owner library (remote fallback)
)

// String returns a human-readable label for the mode
func (m Mode) String() string {
	switch m {
	case ModeRemote:
		return "Cloud"
	case ModeGuest:
		return "Guest"
	case ModeOwner:
		return "Local"
	default:
		return "Unknown"
	}
}

// Namespace returns the storage namespace key for the mode
func (m Mode) Namespace(userID string) string {
	switch m {
	case ModeGuest:
		return store.SlotGuest
	case ModeOwner:
		return store.SlotOwner
	case ModeRemote:
		return "users/" + userID + "/library"
	default:
		return ""
	}
}

// ParseMode parses a mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeRemote, ModeGuest, ModeOwner:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want remote, guest or owner)", s)
	}
}

// Credentials are the username and password for remote sign-in
type Credentials struct {
	Username string
	Password string
}

// Session describes the active mode
type Session struct {
	Mode     Mode
	Username string
	UserID   string
	Token    string

	// FellBack is set when remote sign-in was disabled and the session
	// started in owner mode instead
	FellBack bool
}

// Namespace returns the storage namespace key of the session
func (s Session) Namespace() string {
	return s.Mode.Namespace(s.UserID)
}

// RemoteFactory builds the backend for a remote session
type RemoteFactory func(token string) domain.Backend

// Selector owns the active session and its library. Starting a new session
// closes the previous library; data is never migrated between namespaces.
type Selector struct {
	local  *store.LocalStore
	auth   domain.Authenticator
	remote RemoteFactory
	logger *slog.Logger

	mu      sync.Mutex
	active  *Session
	library *store.Library
}

// NewSelector creates a selector. auth and remote may be nil when no
// collection server is configured.
func NewSelector(local *store.LocalStore, auth domain.Authenticator, remote RemoteFactory, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{
		local:  local,
		auth:   auth,
		remote: remote,
		logger: logger,
	}
}

// Start signs in when needed, selects the backend for mode and starts a
// new library. A remote sign-in that the server reports as disabled falls
// back to owner mode.
func (s *Selector) Start(ctx context.Context, mode Mode, creds Credentials) (Session, *store.Library, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := Session{Mode: mode}
	if mode == ModeRemote {
		if s.auth == nil || s.remote == nil {
			return Session{}, nil, errors.New("no collection server configured (set remote.server_url)")
		}
		res, err := s.auth.SignIn(ctx, creds.Username, creds.Password)
		switch {
		case errors.Is(err, domain.ErrSignInDisabled):
			s.logger.Warn("remote sign-in disabled, falling back to local owner library")
			sess = Session{Mode: ModeOwner, FellBack: true}
		case errors.Is(err, domain.ErrAuthFailed):
			return Session{}, nil, fmt.Errorf("sign-in rejected, check your username and password: %w", err)
		case errors.Is(err, domain.ErrServerOffline):
			return Session{}, nil, fmt.Errorf("cannot reach the collection server, try again or use guest mode: %w", err)
		case err != nil:
			return Session{}, nil, fmt.Errorf("sign-in failed: %w", err)
		default:
			sess.Username = res.Username
			sess.UserID = res.UserID
			sess.Token = res.Token
		}
	}

	// The previous library stays up until sign-in succeeded
	s.closeActiveLocked()
	lib, err := s.startLocked(ctx, sess)
	if err != nil {
		return Session{}, nil, err
	}
	return sess, lib, nil
}

// Resume restarts a saved session without signing in again
func (s *Selector) Resume(ctx context.Context, sess Session) (*store.Library, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.Mode == ModeRemote && sess.Token == "" {
		return nil, domain.ErrAuthFailed
	}
	s.closeActiveLocked()
	return s.startLocked(ctx, sess)
}

func (s *Selector) startLocked(ctx context.Context, sess Session) (*store.Library, error) {
	var backend domain.Backend
	switch sess.Mode {
	case ModeGuest, ModeOwner:
		backend = s.local.Namespace(sess.Namespace())
	case ModeRemote:
		if s.remote == nil {
			return nil, errors.New("no collection server configured (set remote.server_url)")
		}
		backend = s.remote(sess.Token)
	default:
		return nil, fmt.Errorf("unknown mode %q", sess.Mode)
	}

	lib := store.NewLibrary(backend, s.logger)
	lib.Start(ctx)

	s.active = &sess
	s.library = lib
	s.logger.Info("session started", "mode", sess.Mode, "namespace", sess.Namespace(), "user", sess.Username)
	return lib, nil
}

// SignOut ends the active session, clearing in-memory state. Remote tokens
// are revoked best-effort.
func (s *Selector) SignOut(ctx context.Context) error {
	s.mu.Lock()
	active := s.active
	s.closeActiveLocked()
	s.mu.Unlock()

	if active == nil || active.Mode != ModeRemote || s.auth == nil {
		return nil
	}
	if err := s.auth.SignOut(ctx, active.Token); err != nil {
		s.logger.Warn("failed to revoke remote session", "error", err)
		return err
	}
	return nil
}

// Active returns the current session
func (s *Selector) Active() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Session{}, false
	}
	return *s.active, true
}

// Library returns the library of the active session, or nil
func (s *Selector) Library() *store.Library {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.library
}

// Close ends the active session without revoking remote tokens
func (s *Selector) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeActiveLocked()
	return nil
}

func (s *Selector) closeActiveLocked() {
	if s.library != nil {
		if err := s.library.Close(); err != nil {
			s.logger.Warn("failed to close library", "error", err)
		}
	}
	s.library = nil
	s.active = nil
}
