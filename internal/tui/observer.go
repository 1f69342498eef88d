package tui

import (
	"sync"

	"github.com/mmcdole/cinetrack/internal/domain"
)

// Snapshotter is the part of store.Library the observer reads
type Snapshotter interface {
	List() []domain.Entry
	Err() error
	Ready() <-chan struct{}
	Subscribe(fn func([]domain.Entry)) func()
}

// LibraryObserver adapts store notifications to a channel for Bubble Tea.
// Notifications coalesce: the reader always gets the latest snapshot, never
// a stale one queued behind it.
type LibraryObserver struct {
	lib     Snapshotter
	changed chan struct{}
	done    chan struct{}
	unsub   func()
	once    sync.Once
}

// NewLibraryObserver subscribes to lib. A first notification fires once the
// library has loaded.
func NewLibraryObserver(lib Snapshotter) *LibraryObserver {
	o := &LibraryObserver{
		lib:     lib,
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	o.unsub = lib.Subscribe(func([]domain.Entry) { o.notify() })

	go func() {
		select {
		case <-lib.Ready():
			o.notify()
		case <-o.done:
		}
	}()
	return o
}

// notify marks the library changed (non-blocking if a signal is pending)
func (o *LibraryObserver) notify() {
	select {
	case o.changed <- struct{}{}:
	default:
	}
}

// Next blocks until the library changes and returns the latest snapshot.
// ok is false once the observer is closed.
func (o *LibraryObserver) Next() (msg SnapshotMsg, ok bool) {
	select {
	case <-o.changed:
		return SnapshotMsg{Entries: o.lib.List(), Err: o.lib.Err()}, true
	case <-o.done:
		return SnapshotMsg{}, false
	}
}

// Close unsubscribes and releases any pending Next
func (o *LibraryObserver) Close() {
	o.once.Do(func() {
		o.unsub()
		close(o.done)
	})
}
