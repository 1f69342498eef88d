package session

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/mmcdole/cinetrack/internal/domain"
)

const (
	authTimeout = 30 * time.Second

	// codeOperationNotAllowed is returned when the server has sign-in disabled
	codeOperationNotAllowed = "operation-not-allowed"
)

// RemoteAuth implements domain.Authenticator against the collection server
type RemoteAuth struct {
	serverURL  string
	logger     *slog.Logger
	httpClient *http.Client
}

var _ domain.Authenticator = (*RemoteAuth)(nil)

// NewRemoteAuth creates a sign-in client for serverURL
func NewRemoteAuth(serverURL string, logger *slog.Logger) *RemoteAuth {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteAuth{
		serverURL: strings.TrimRight(serverURL, "/"),
		logger:    logger,
		httpClient: &http.Client{
			Timeout: authTimeout,
		},
	}
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

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SignIn exchanges credentials for a session token. The server registers
// unknown users when sign-up is enabled.
func (a *RemoteAuth) SignIn(ctx context.Context, username, password string) (*domain.AuthResult, error) {
	bodyBytes, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.serverURL+"/api/v1/auth/login", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("sign-in request failed", "error", err)
		return nil, domain.ErrServerOffline
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, domain.ErrAuthFailed
	case http.StatusForbidden:
		var er errorResponse
		if json.Unmarshal(respBody, &er) == nil && er.Code == codeOperationNotAllowed {
			return nil, domain.ErrSignInDisabled
		}
		return nil, domain.ErrAuthFailed
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("too many sign-in attempts, try again later")
	default:
		a.logger.Error("sign-in error", "status", resp.StatusCode, "body", string(respBody))
		return nil, fmt.Errorf("sign-in failed with status %d", resp.StatusCode)
	}

	var result loginResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("server returned empty token")
	}

	return &domain.AuthResult{
		Token:    result.Token,
		UserID:   result.UserID,
		Username: result.Username,
	}, nil
}

// SignOut revokes token on the server
func (a *RemoteAuth) SignOut(ctx context.Context, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.serverURL+"/api/v1/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return domain.ErrServerOffline
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		// Already expired or revoked
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sign-out failed with status %d", resp.StatusCode)
	}
	return nil
}

// PromptCredentials asks for a username (unless given) and a hidden password
// on the terminal.
func PromptCredentials(username string) (Credentials, error) {
	fmt.Println()
	fmt.Println("CineTrack Sign-in")
	fmt.Println("━━━━━━━━━━━━━━━━━")

	if username == "" {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}

	// Prompt for password (hidden input)
	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println() // Add newline after hidden input

	return Credentials{Username: username, Password: string(passwordBytes)}, nil
}
