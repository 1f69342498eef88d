package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Remote  RemoteConfig  `mapstructure:"remote"`
	Session SessionConfig `mapstructure:"session"`
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Storage StorageConfig `mapstructure:"storage"`
	Serve   ServeConfig   `mapstructure:"serve"`
	Logging LoggingConfig `mapstructure:"logging"`

	// path is the file SaveSession writes to
	path string
}

// RemoteConfig points at a collection server
type RemoteConfig struct {
	ServerURL string `mapstructure:"server_url"`
}

// SessionConfig is the persisted session, resumed on the next start
type SessionConfig struct {
	Mode     string `mapstructure:"mode"` // "remote", "guest" or "owner"
	Username string `mapstructure:"username"`
	UserID   string `mapstructure:"user_id"`
	Token    string `mapstructure:"token"`
}

// TMDBConfig configures the metadata catalog
type TMDBConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	AccessToken string  `mapstructure:"access_token"` // v4 read token, preferred over api_key
	BaseURL     string  `mapstructure:"base_url"`
	Language    string  `mapstructure:"language"`
	MaxResults  int     `mapstructure:"max_results"`
	RateLimit   float64 `mapstructure:"rate_limit"` // requests per second
}

// StorageConfig holds on-device storage settings
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"` // empty keeps libraries in memory only
}

// ServeConfig configures `cinetrack serve`
type ServeConfig struct {
	Addr           string        `mapstructure:"addr"`
	DBPath         string        `mapstructure:"db_path"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	AllowSignup    bool          `mapstructure:"allow_signup"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	LoginRateLimit int           `mapstructure:"login_rate_limit"` // per minute per IP
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"` // "-" logs to stderr
	Level string `mapstructure:"level"`
}

// HasRemote reports whether a collection server is configured
func (c *Config) HasRemote() bool {
	return c.Remote.ServerURL != ""
}

// HasCatalog reports whether metadata lookups are possible
func (c *Config) HasCatalog() bool {
	return c.TMDB.APIKey != "" || c.TMDB.AccessToken != ""
}

// Path returns the config file used for saving sessions
func (c *Config) Path() string {
	return c.path
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		TMDB: TMDBConfig{
			BaseURL:    "https://api.themoviedb.org/3",
			Language:   "en-US",
			MaxResults: 20,
			RateLimit:  20,
		},
		Storage: StorageConfig{
			DataDir: defaultDataPath(),
		},
		Serve: ServeConfig{
			Addr:           ":8080",
			DBPath:         filepath.Join(defaultDataPath(), "collection.db"),
			TokenTTL:       30 * 24 * time.Hour,
			AllowSignup:    false,
			CORSOrigins:    []string{"*"},
			LoginRateLimit: 10,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "cinetrack.log"),
			Level: "INFO",
		},
		path: filepath.Join(defaultConfigPath(), "config.yaml"),
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "cinetrack")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "cinetrack")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "cinetrack")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "cinetrack")
	}
}

// setDefaults registers every key so environment overrides apply even
// when the config file omits them
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("remote.server_url", cfg.Remote.ServerURL)
	v.SetDefault("session.mode", cfg.Session.Mode)
	v.SetDefault("session.username", cfg.Session.Username)
	v.SetDefault("session.user_id", cfg.Session.UserID)
	v.SetDefault("session.token", cfg.Session.Token)
	v.SetDefault("tmdb.api_key", cfg.TMDB.APIKey)
	v.SetDefault("tmdb.access_token", cfg.TMDB.AccessToken)
	v.SetDefault("tmdb.base_url", cfg.TMDB.BaseURL)
	v.SetDefault("tmdb.language", cfg.TMDB.Language)
	v.SetDefault("tmdb.max_results", cfg.TMDB.MaxResults)
	v.SetDefault("tmdb.rate_limit", cfg.TMDB.RateLimit)
	v.SetDefault("storage.data_dir", cfg.Storage.DataDir)
	v.SetDefault("serve.addr", cfg.Serve.Addr)
	v.SetDefault("serve.db_path", cfg.Serve.DBPath)
	v.SetDefault("serve.jwt_secret", cfg.Serve.JWTSecret)
	v.SetDefault("serve.token_ttl", cfg.Serve.TokenTTL)
	v.SetDefault("serve.allow_signup", cfg.Serve.AllowSignup)
	v.SetDefault("serve.cors_origins", cfg.Serve.CORSOrigins)
	v.SetDefault("serve.login_rate_limit", cfg.Serve.LoginRateLimit)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// LoadConfig loads configuration from config.yaml and the environment
// (CINETRACK_ prefix, e.g. CINETRACK_TMDB_API_KEY). dirs overrides the
// default search path.
func LoadConfig(dirs ...string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(dirs) == 0 {
		dirs = []string{defaultConfigPath(), "."}
	}
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}
	cfg.path = filepath.Join(dirs[0], "config.yaml")

	v.SetEnvPrefix("CINETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	} else {
		cfg.path = v.ConfigFileUsed()
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.TMDB.APIKey == "" {
		cfg.TMDB.APIKey = os.Getenv("TMDB_API_KEY")
	}
	cfg.Storage.DataDir = expandHome(cfg.Storage.DataDir)
	cfg.Serve.DBPath = expandHome(cfg.Serve.DBPath)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	return cfg, nil
}

// SaveSession persists the session so the next start resumes it. Other
// keys in the config file are preserved.
func SaveSession(cfg *Config, s SessionConfig) error {
	if err := writeKeys(cfg.path, map[string]any{
		"session.mode":     s.Mode,
		"session.username": s.Username,
		"session.user_id":  s.UserID,
		"session.token":    s.Token,
	}); err != nil {
		return err
	}
	cfg.Session = s
	return nil
}

// ClearSession forgets the persisted session (used by logout)
func ClearSession(cfg *Config) error {
	return SaveSession(cfg, SessionConfig{})
}

// SetServerURL persists the collection server URL
func SetServerURL(cfg *Config, serverURL string) error {
	if err := writeKeys(cfg.path, map[string]any{"remote.server_url": serverURL}); err != nil {
		return err
	}
	cfg.Remote.ServerURL = serverURL
	return nil
}

func writeKeys(path string, keys map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Environment values must not leak into the file, so read it bare
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	for k, val := range keys {
		v.Set(k, val)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	// The file may hold a session token
	return os.Chmod(path, 0600)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
