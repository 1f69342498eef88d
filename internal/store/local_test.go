package store

import (
	"context"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/cinetrack/internal/domain"
)

func testEntry(id, title string) domain.Entry {
	return domain.Entry{
		ID:      id,
		Title:   title,
		Kind:    domain.KindMovie,
		Status:  domain.StatusWatchlist,
		AddedAt: 1700000000000,
	}
}

func TestLocalPutDeleteRoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	b := s.Namespace(SlotGuest)

	e := testEntry("1", "Heat")
	if err := b.Put(ctx, e); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _ := b.Load(ctx)
	if len(got) != 1 || got[0] != e {
		t.Fatalf("Load after Put = %+v", got)
	}

	e.Status = domain.StatusWatched
	if err := b.Put(ctx, e); err != nil {
		t.Fatalf("Put update: %v", err)
	}
	got, _ = b.Load(ctx)
	if len(got) != 1 || got[0].Status != domain.StatusWatched {
		t.Fatalf("upsert did not replace entry: %+v", got)
	}

	if err := b.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got, _ = b.Load(ctx)
	if len(got) != 0 {
		t.Fatalf("Load after Delete = %+v", got)
	}

	if err := b.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of unknown id = %v", err)
	}
}

func TestLocalPutIdempotent(t *testing.T) {
	s, _ := NewLocalStore("", nil)
	ctx := context.Background()
	b := s.Namespace(SlotOwner)

	e := testEntry("1", "Heat")
	b.Put(ctx, e)
	once, _ := b.Load(ctx)
	b.Put(ctx, e)
	twice, _ := b.Load(ctx)

	if len(once) != 1 || len(twice) != 1 || once[0] != twice[0] {
		t.Errorf("put twice = %+v, once = %+v", twice, once)
	}
}

func TestLocalNamespacesAreDisjoint(t *testing.T) {
	s, _ := NewLocalStore("", nil)
	ctx := context.Background()

	s.Namespace(SlotGuest).Put(ctx, testEntry("g", "Guest Movie"))
	s.Namespace(SlotOwner).Put(ctx, testEntry("o", "Owner Movie"))

	guest, _ := s.Namespace(SlotGuest).Load(ctx)
	owner, _ := s.Namespace(SlotOwner).Load(ctx)
	if len(guest) != 1 || guest[0].ID != "g" {
		t.Errorf("guest slot = %+v", guest)
	}
	if len(owner) != 1 || owner[0].ID != "o" {
		t.Errorf("owner slot = %+v", owner)
	}
}

func TestLocalPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewLocalStore(dir, nil)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	s.Namespace(SlotOwner).Put(ctx, testEntry("1", "Heat"))
	s.Close()

	s, err = NewLocalStore(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	got, _ := s.Namespace(SlotOwner).Load(ctx)
	if len(got) != 1 || got[0].Title != "Heat" {
		t.Errorf("after reopen = %+v", got)
	}
}

func TestLocalCorruptSlotIsEmpty(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewLocalStore(dir, nil)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSlots).Put([]byte(SlotGuest), []byte("{not json"))
	})
	if err != nil {
		t.Fatalf("seed corrupt slot: %v", err)
	}
	defer s.Close()

	b := s.Namespace(SlotGuest)
	got, err := b.Load(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("Load corrupt = %+v, %v", got, err)
	}

	// The next write replaces the corrupt slot wholesale
	if err := b.Put(ctx, testEntry("1", "Heat")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _ = b.Load(ctx)
	if len(got) != 1 {
		t.Errorf("after Put = %+v", got)
	}
}

func TestLocalWatchNotifies(t *testing.T) {
	s, _ := NewLocalStore("", nil)
	b := s.Namespace(SlotGuest)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots := make(chan []domain.Entry, 10)
	go b.Watch(ctx, func(entries []domain.Entry) { snapshots <- entries })

	select {
	case first := <-snapshots:
		if len(first) != 0 {
			t.Fatalf("initial snapshot = %+v", first)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	b.Put(context.Background(), testEntry("1", "Heat"))

	select {
	case next := <-snapshots:
		if len(next) != 1 || next[0].ID != "1" {
			t.Fatalf("snapshot after Put = %+v", next)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot after Put")
	}
}
