package server

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/mmcdole/cinetrack/internal/domain"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrUserNotFound is returned when a username has no account
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned when registering a taken username
var ErrUserExists = errors.New("user already exists")

// User is a registered account
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// DB persists users, per-user collections and revoked tokens in sqlite
type DB struct {
	db *sql.DB
}

// OpenDB opens (creating if needed) the sqlite database at path and applies
// pending migrations.
func OpenDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Pragmas are per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	d := &DB{db: db}
	if err := d.applyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

type migration struct {
	version string
	sql     string
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	migrations := make([]migration, 0, len(names))
	for _, name := range names {
		data, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		migrations = append(migrations, migration{
			version: strings.TrimSuffix(name, ".sql"),
			sql:     string(data),
		})
	}
	return migrations, nil
}

func (d *DB) applyMigrations(ctx context.Context) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", m.version).Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// CreateUser registers a new account
func (d *DB) CreateUser(ctx context.Context, u User) error {
	_, err := d.db.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)",
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UserByName looks up an account by username (case-insensitive)
func (d *DB) UserByName(ctx context.Context, username string) (User, error) {
	var (
		u       User
		created string
	)
	err := d.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return u, nil
}

// ListEntries returns every entry in a user's collection, oldest write first
func (d *DB) ListEntries(ctx context.Context, userID string) ([]domain.Entry, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, doc FROM entries WHERE user_id = ? ORDER BY updated_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.Entry{}
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		var e domain.Entry
		if err := json.Unmarshal([]byte(doc), &e); err != nil {
			// Skip rather than fail the whole collection
			continue
		}
		e.ID = id
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PutEntry upserts an entry; the last write wins
func (d *DB) PutEntry(ctx context.Context, userID string, e domain.Entry) error {
	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO entries (user_id, id, doc, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at`,
		userID, e.ID, string(doc), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

// DeleteEntry removes an entry; deleting a missing id is not an error
func (d *DB) DeleteEntry(ctx context.Context, userID, id string) error {
	if _, err := d.db.ExecContext(ctx, "DELETE FROM entries WHERE user_id = ? AND id = ?", userID, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// RevokeToken records a token id as revoked until its expiry
func (d *DB) RevokeToken(ctx context.Context, jti string, expires time.Time) error {
	_, err := d.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)",
		jti, expires.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token id has been revoked
func (d *DB) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM revoked_tokens WHERE jti = ?", jti).Scan(&count); err != nil {
		return false, fmt.Errorf("query revoked token: %w", err)
	}
	return count > 0, nil
}

// PruneRevoked deletes revocations whose tokens have expired anyway
func (d *DB) PruneRevoked(ctx context.Context, now time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, "DELETE FROM revoked_tokens WHERE expires_at < ?", now.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("prune revoked tokens: %w", err)
	}
	return res.RowsAffected()
}
