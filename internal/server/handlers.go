package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeInvalidCredential   = "invalid-credential"
	CodeOperationNotAllowed = "operation-not-allowed"
	CodeUnauthenticated     = "unauthenticated"
	CodeInvalidArgument     = "invalid-argument"
	CodeInternal            = "internal"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Signup    bool   `json:"signup"`
	Timestamp int64  `json:"timestamp"`
}

// Handler serves the collection API
type Handler struct {
	db          *DB
	tokens      *TokenManager
	hub         *Hub
	allowSignup bool
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

// NewHandler creates the API handler
func NewHandler(db *DB, tokens *TokenManager, hub *Hub, allowSignup bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:          db,
		tokens:      tokens,
		hub:         hub,
		allowSignup: allowSignup,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Bearer auth, not cookies, so cross-origin dials are harmless
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Debug("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Signup:    h.allowSignup,
		Timestamp: time.Now().UnixMilli(),
	})
}

// Login exchanges a username and password for a token. Unknown users are
// registered when sign-up is allowed.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "malformed request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "username and password are required")
		return
	}

	user, err := h.db.UserByName(r.Context(), req.Username)
	switch {
	case errors.Is(err, ErrUserNotFound):
		if !h.allowSignup {
			signIns.WithLabelValues("disabled").Inc()
			writeError(w, http.StatusForbidden, CodeOperationNotAllowed, "sign-up is disabled on this server")
			return
		}
		user, err = h.register(r.Context(), req.Username, req.Password)
		if errors.Is(err, errWrongPassword) {
			signIns.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusUnauthorized, CodeInvalidCredential, "invalid username or password")
			return
		}
		if err != nil {
			h.logger.Error("failed to register user", "username", req.Username, "error", err)
			writeError(w, http.StatusInternalServerError, CodeInternal, "failed to register user")
			return
		}
		signIns.WithLabelValues("registered").Inc()
		h.logger.Info("user registered", "username", user.Username, "user_id", user.ID)
	case err != nil:
		h.logger.Error("failed to look up user", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to look up user")
		return
	default:
		if !CheckPassword(user.PasswordHash, req.Password) {
			signIns.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusUnauthorized, CodeInvalidCredential, "invalid username or password")
			return
		}
		signIns.WithLabelValues("ok").Inc()
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, UserID: user.ID, Username: user.Username})
}

// errWrongPassword is returned by register when the name was taken meanwhile
// and the password does not match the existing account
var errWrongPassword = errors.New("wrong password")

func (h *Handler) register(ctx context.Context, username, password string) (User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := h.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			// Lost a race with a concurrent sign-up; the winner's password applies
			existing, lookupErr := h.db.UserByName(ctx, username)
			if lookupErr != nil {
				return User{}, lookupErr
			}
			if !CheckPassword(existing.PasswordHash, password) {
				return User{}, errWrongPassword
			}
			return existing, nil
		}
		return User{}, err
	}
	return user, nil
}

// Logout revokes the request's token
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	expires := time.Now()
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	if err := h.db.RevokeToken(r.Context(), claims.ID, expires); err != nil {
		h.logger.Error("failed to revoke token", "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to revoke token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListLibrary returns the caller's collection as a snapshot
func (h *Handler) ListLibrary(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	entries, err := h.db.ListEntries(r.Context(), claims.Subject)
	if err != nil {
		h.logger.Error("failed to list entries", "user", claims.Subject, "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to list entries")
		return
	}
	writeJSON(w, http.StatusOK, SnapshotMessage{Type: MessageTypeSnapshot, Entries: entries})
}

// PutEntry upserts one entry
func (h *Handler) PutEntry(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var e domain.Entry
	if err := decodeBody(r, &e); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "malformed entry")
		return
	}
	if e.ID == "" {
		e.ID = id
	}
	if e.ID != id {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, "entry id does not match path")
		return
	}
	if err := e.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidArgument, err.Error())
		return
	}

	if err := h.db.PutEntry(r.Context(), claims.Subject, e); err != nil {
		h.logger.Error("failed to put entry", "user", claims.Subject, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to save entry")
		return
	}
	libraryWrites.WithLabelValues("put").Inc()
	h.hub.Publish(claims.Subject)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEntry removes one entry
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.db.DeleteEntry(r.Context(), claims.Subject, id); err != nil {
		h.logger.Error("failed to delete entry", "user", claims.Subject, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "failed to delete entry")
		return
	}
	libraryWrites.WithLabelValues("delete").Inc()
	h.hub.Publish(claims.Subject)
	w.WriteHeader(http.StatusNoContent)
}

// LibraryWebSocket upgrades to a snapshot stream for the caller
func (h *Handler) LibraryWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(h.hub, conn, claims.Subject, h.logger)
	if !h.hub.Register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}
	client.Start()
}

// Authenticate requires a valid, unrevoked bearer token
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "missing bearer token")
			return
		}
		claims, err := h.tokens.Parse(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "invalid or expired token")
			return
		}
		revoked, err := h.db.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			h.logger.Error("failed to check token revocation", "error", err)
			writeError(w, http.StatusInternalServerError, CodeInternal, "failed to verify token")
			return
		}
		if revoked {
			writeError(w, http.StatusUnauthorized, CodeUnauthenticated, ErrTokenRevoked.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}
