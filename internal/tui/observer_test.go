package tui

import (
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/cinetrack/internal/domain"
)

type fakeLibrary struct {
	mu      sync.Mutex
	entries []domain.Entry
	subs    []func([]domain.Entry)
	ready   chan struct{}
	unsubs  int
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{ready: make(chan struct{})}
}

func (f *fakeLibrary) List() []domain.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries
}

func (f *fakeLibrary) Err() error              { return nil }
func (f *fakeLibrary) Ready() <-chan struct{} { return f.ready }

func (f *fakeLibrary) Subscribe(fn func([]domain.Entry)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
	return func() {
		f.mu.Lock()
		f.unsubs++
		f.mu.Unlock()
	}
}

// emit installs entries and notifies subscribers like store.Library does
func (f *fakeLibrary) emit(entries []domain.Entry) {
	f.mu.Lock()
	f.entries = entries
	subs := append([]func([]domain.Entry){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(entries)
	}
}

func nextWithTimeout(t *testing.T, o *LibraryObserver) (SnapshotMsg, bool) {
	t.Helper()
	type result struct {
		msg SnapshotMsg
		ok  bool
	}
	ch := make(chan result, 1)
	go func() {
		msg, ok := o.Next()
		ch <- result{msg, ok}
	}()
	select {
	case r := <-ch:
		return r.msg, r.ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return SnapshotMsg{}, false
	}
}

func TestObserverFiresWhenReady(t *testing.T) {
	lib := newFakeLibrary()
	lib.entries = []domain.Entry{{ID: "a", Title: "Heat"}}
	o := NewLibraryObserver(lib)
	defer o.Close()

	close(lib.ready)
	msg, ok := nextWithTimeout(t, o)
	if !ok || len(msg.Entries) != 1 {
		t.Fatalf("msg = %+v ok = %v", msg, ok)
	}
}

func TestObserverCoalescesToLatest(t *testing.T) {
	lib := newFakeLibrary()
	o := NewLibraryObserver(lib)
	defer o.Close()

	lib.emit([]domain.Entry{{ID: "a"}})
	lib.emit([]domain.Entry{{ID: "a"}, {ID: "b"}})
	lib.emit([]domain.Entry{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	msg, ok := nextWithTimeout(t, o)
	if !ok {
		t.Fatal("observer closed")
	}
	if len(msg.Entries) != 3 {
		t.Errorf("got %d entries, want the latest snapshot of 3", len(msg.Entries))
	}
}

func TestObserverCloseReleasesNext(t *testing.T) {
	lib := newFakeLibrary()
	o := NewLibraryObserver(lib)

	done := make(chan bool, 1)
	go func() {
		_, ok := o.Next()
		done <- ok
	}()
	o.Close()
	o.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Next reported ok after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next not released by Close")
	}
	if lib.unsubs != 1 {
		t.Errorf("unsubscribed %d times, want 1", lib.unsubs)
	}
	if WaitForSnapshotCmd(o)() != nil {
		t.Error("closed observer produced a message")
	}
}
