package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// Library holds the current entry set of the active session and fans out
// backend notifications to subscribers. Mutations go straight to the backend;
// the in-memory set only changes when the backend reports the new state.
type Library struct {
	backend domain.Backend
	logger  *slog.Logger

	mu      sync.RWMutex
	entries []domain.Entry
	subs    map[int]func([]domain.Entry)
	nextSub int
	err     error
	closed  bool

	ready     chan struct{}
	readyOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewLibrary creates a library over backend. Call Start to begin receiving.
func NewLibrary(backend domain.Backend, logger *slog.Logger) *Library {
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		backend: backend,
		logger:  logger,
		subs:    make(map[int]func([]domain.Entry)),
		ready:   make(chan struct{}),
	}
}

// Start begins the backend subscription on its own goroutine
func (l *Library) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	l.mu.Lock()
	l.cancel = cancel
	l.done = make(chan struct{})
	done := l.done
	l.mu.Unlock()

	go func() {
		defer close(done)
		err := l.backend.Watch(ctx, l.apply)
		if err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Error("library subscription ended", "error", err)
			l.mu.Lock()
			l.err = err
			l.mu.Unlock()
		}
		l.readyOnce.Do(func() { close(l.ready) })
	}()
}

// apply installs a snapshot and delivers it to every subscriber in
// subscription order. Only the watch goroutine calls it.
func (l *Library) apply(entries []domain.Entry) {
	snapshot := slices.Clone(entries)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.entries = snapshot
	ids := make([]int, 0, len(l.subs))
	for id := range l.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func([]domain.Entry), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, l.subs[id])
	}
	l.mu.Unlock()

	l.readyOnce.Do(func() { close(l.ready) })

	for _, fn := range fns {
		fn(slices.Clone(snapshot))
	}
}

// Ready is closed once the first snapshot has arrived or the subscription failed
func (l *Library) Ready() <-chan struct{} {
	return l.ready
}

// WaitReady blocks until the first snapshot arrives
func (l *Library) WaitReady(ctx context.Context) error {
	select {
	case <-l.ready:
		return l.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the error that ended the subscription, if any
func (l *Library) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

// List returns a copy of the latest snapshot
func (l *Library) List() []domain.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// Get returns the entry with the given ID from the latest snapshot
func (l *Library) Get(id string) (domain.Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Entry{}, false
}

// Put upserts an entry through the backend
func (l *Library) Put(ctx context.Context, e domain.Entry) error {
	if l.isClosed() {
		return domain.ErrStoreClosed
	}
	return l.backend.Put(ctx, e)
}

// Delete removes an entry through the backend
func (l *Library) Delete(ctx context.Context, id string) error {
	if l.isClosed() {
		return domain.ErrStoreClosed
	}
	return l.backend.Delete(ctx, id)
}

// Subscribe registers fn for every future snapshot. If a snapshot is already
// loaded, fn is not called until the next change; read List for the current
// state. The returned func unsubscribes.
func (l *Library) Subscribe(fn func([]domain.Entry)) func() {
	l.mu.Lock()
	l.nextSub++
	id := l.nextSub
	l.subs[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

func (l *Library) isClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// Close stops the subscription, clears the in-memory set and closes the backend
func (l *Library) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.entries = nil
	l.subs = make(map[int]func([]domain.Entry))
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return l.backend.Close()
}
