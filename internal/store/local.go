package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// Well-known slot names for the two on-device libraries
const (
	SlotGuest = "cinetrack_library_guest"
	SlotOwner = "cinetrack_library_owner"
)

var bucketSlots = []byte("slots")

// LocalStore persists library slots in a single BoltDB file.
// Each slot holds the full serialized entry array and is overwritten on every
// mutation. With an empty data dir the store keeps slots in memory only.
type LocalStore struct {
	db     *bolt.DB
	logger *slog.Logger

	mu    sync.RWMutex // Protects memory cache and watchers
	cache map[string][]byte

	writeMu  sync.Mutex // Serializes read-modify-write of slots
	watchers map[string]map[int]chan struct{}
	nextID   int
}

// NewLocalStore opens (or creates) the store under dataDir
func NewLocalStore(dataDir string, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &LocalStore{
		logger:   logger,
		cache:    make(map[string][]byte),
		watchers: make(map[string]map[int]chan struct{}),
	}
	if dataDir == "" {
		// Memory-only mode (no persistence)
		return s, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, "cinetrack.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSlots)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

// Namespace returns a backend bound to one slot
func (s *LocalStore) Namespace(slot string) *LocalBackend {
	return &LocalBackend{store: s, slot: slot}
}

// Close closes the underlying database
func (s *LocalStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Slot helpers ===

func (s *LocalStore) get(slot string) []byte {
	s.mu.RLock()
	if data, ok := s.cache[slot]; ok {
		s.mu.RUnlock()
		return data
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSlots)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(slot)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return nil
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[slot] = data
	s.mu.Unlock()

	return data
}

func (s *LocalStore) set(slot string, data []byte) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketSlots).Put([]byte(slot), data)
		})
		if err != nil {
			return fmt.Errorf("failed to write slot %s: %w", slot, err)
		}
	}

	s.mu.Lock()
	s.cache[slot] = data
	s.mu.Unlock()
	return nil
}

// load decodes a slot. A missing or corrupt slot is an empty library.
func (s *LocalStore) load(slot string) []domain.Entry {
	data := s.get(slot)
	if len(data) == 0 {
		return []domain.Entry{}
	}
	var entries []domain.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("corrupt library slot, treating as empty", "slot", slot, "error", err)
		return []domain.Entry{}
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	return entries
}

// mutate rewrites a slot with the result of fn and notifies its watchers.
// Nothing is written or notified when the serialized set is unchanged.
func (s *LocalStore) mutate(slot string, fn func([]domain.Entry) []domain.Entry) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.get(slot)
	next := fn(s.load(slot))

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode library: %w", err)
	}
	if bytes.Equal(prev, data) {
		return nil
	}
	if err := s.set(slot, data); err != nil {
		return err
	}
	s.notify(slot)
	return nil
}

func (s *LocalStore) watch(slot string) (int, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ch := make(chan struct{}, 1)
	if s.watchers[slot] == nil {
		s.watchers[slot] = make(map[int]chan struct{})
	}
	s.watchers[slot][s.nextID] = ch
	return s.nextID, ch
}

func (s *LocalStore) unwatch(slot string, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchers[slot], id)
}

// notify signals every watcher of slot without blocking. A pending signal
// already covers the new state since watchers reload the whole slot.
func (s *LocalStore) notify(slot string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.watchers[slot] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// LocalBackend implements domain.Backend over one slot of a LocalStore
type LocalBackend struct {
	store *LocalStore
	slot  string
}

// Slot returns the namespace key this backend is bound to
func (b *LocalBackend) Slot() string {
	return b.slot
}

func (b *LocalBackend) Load(ctx context.Context) ([]domain.Entry, error) {
	return b.store.load(b.slot), nil
}

func (b *LocalBackend) Put(ctx context.Context, e domain.Entry) error {
	return b.store.mutate(b.slot, func(entries []domain.Entry) []domain.Entry {
		for i := range entries {
			if entries[i].ID == e.ID {
				entries[i] = e
				return entries
			}
		}
		return append(entries, e)
	})
}

func (b *LocalBackend) Delete(ctx context.Context, id string) error {
	return b.store.mutate(b.slot, func(entries []domain.Entry) []domain.Entry {
		out := entries[:0]
		for _, e := range entries {
			if e.ID != id {
				out = append(out, e)
			}
		}
		return out
	})
}

func (b *LocalBackend) Watch(ctx context.Context, fn func([]domain.Entry)) error {
	id, ch := b.store.watch(b.slot)
	defer b.store.unwatch(b.slot, id)

	fn(b.store.load(b.slot))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ch:
			fn(b.store.load(b.slot))
		}
	}
}

// Close is a no-op; the LocalStore owns the database
func (b *LocalBackend) Close() error {
	return nil
}
