package server

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/cinetrack/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "collection.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.db")
	for i := 0; i < 2; i++ {
		db, err := OpenDB(path)
		if err != nil {
			t.Fatalf("OpenDB #%d: %v", i, err)
		}
		var count int
		if err := db.db.QueryRow("SELECT COUNT(1) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("count migrations: %v", err)
		}
		if count != 2 {
			t.Errorf("applied migrations = %d, want 2", count)
		}
		db.Close()
	}
}

func TestUsers(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.UserByName(ctx, "alice"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("UserByName = %v, want ErrUserNotFound", err)
	}

	u := User{ID: "u1", Username: "alice", PasswordHash: "h", CreatedAt: time.Now()}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := db.CreateUser(ctx, User{ID: "u2", Username: "ALICE", PasswordHash: "h", CreatedAt: time.Now()}); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate CreateUser = %v, want ErrUserExists", err)
	}

	got, err := db.UserByName(ctx, "Alice")
	if err != nil {
		t.Fatalf("UserByName: %v", err)
	}
	if got.ID != "u1" || got.PasswordHash != "h" {
		t.Errorf("user = %+v", got)
	}
}

func TestEntriesArePerUser(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	for _, id := range []string{"u1", "u2"} {
		if err := db.CreateUser(ctx, User{ID: id, Username: id, PasswordHash: "h", CreatedAt: time.Now()}); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	e := domain.Entry{ID: "e1", Title: "Heat", Kind: domain.KindMovie, Status: domain.StatusWatchlist, AddedAt: 1}
	if err := db.PutEntry(ctx, "u1", e); err != nil {
		t.Fatalf("PutEntry: %v", err)
	}
	e.Status = domain.StatusWatched
	if err := db.PutEntry(ctx, "u1", e); err != nil {
		t.Fatalf("PutEntry again: %v", err)
	}

	mine, err := db.ListEntries(ctx, "u1")
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(mine) != 1 || mine[0].Status != domain.StatusWatched {
		t.Errorf("u1 entries = %+v", mine)
	}

	theirs, err := db.ListEntries(ctx, "u2")
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if theirs == nil || len(theirs) != 0 {
		t.Errorf("u2 entries = %#v, want empty slice", theirs)
	}

	if err := db.DeleteEntry(ctx, "u1", "e1"); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if err := db.DeleteEntry(ctx, "u1", "missing"); err != nil {
		t.Errorf("DeleteEntry missing: %v", err)
	}
	if mine, _ := db.ListEntries(ctx, "u1"); len(mine) != 0 {
		t.Errorf("entries after delete = %+v", mine)
	}
}

func TestRevokedTokens(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Now()

	if err := db.RevokeToken(ctx, "old", now.Add(-time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if err := db.RevokeToken(ctx, "live", now.Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if err := db.RevokeToken(ctx, "live", now.Add(time.Hour)); err != nil {
		t.Errorf("RevokeToken twice: %v", err)
	}

	if ok, _ := db.IsRevoked(ctx, "live"); !ok {
		t.Error("live token not revoked")
	}
	if ok, _ := db.IsRevoked(ctx, "other"); ok {
		t.Error("unknown token reported revoked")
	}

	n, err := db.PruneRevoked(ctx, now)
	if err != nil {
		t.Fatalf("PruneRevoked: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}
	if ok, _ := db.IsRevoked(ctx, "live"); !ok {
		t.Error("prune removed an unexpired revocation")
	}
}
