package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/oakwood-commons/rdx/internal/config"
	"github.com/oakwood-commons/rdx/internal/store"
	"github.com/oakwood-commons/rdx/pkg/logger"
)

// fakeHandle is a scriptable store.Handle. Unset functions fail loudly so
// tests only exercise the commands they script.
type fakeHandle struct {
	mu sync.Mutex

	firstScanFn func(pattern string, count int64) (store.CursorSet, []string, error)
	scanFn      func(cursors store.CursorSet, pattern string, count int64) (store.CursorSet, []string, error)
	typeFn      func(key string) (string, error)
	ttlFn       func(key string) (int64, error)
	getFn       func(key string) ([]byte, error)
	llenFn      func(key string) (int64, error)
	lrangeFn    func(key string, start, stop int64) ([]string, error)
	setFn       func(key, value string) error
	expireFn    func(key string, seconds int64) (bool, error)
	delFn       func(key string) error

	firstScans int
	scans      int
	typeCalls  int
	lrangeAsks int
}

func (f *fakeHandle) FirstScan(_ context.Context, pattern string, count int64) (store.CursorSet, []string, error) {
	f.mu.Lock()
	f.firstScans++
	fn := f.firstScanFn
	f.mu.Unlock()
	if fn == nil {
		return nil, nil, fmt.Errorf("unexpected FirstScan(%q)", pattern)
	}
	return fn(pattern, count)
}

func (f *fakeHandle) Scan(_ context.Context, cursors store.CursorSet, pattern string, count int64) (store.CursorSet, []string, error) {
	f.mu.Lock()
	f.scans++
	fn := f.scanFn
	f.mu.Unlock()
	if fn == nil {
		return nil, nil, fmt.Errorf("unexpected Scan(%q)", pattern)
	}
	return fn(cursors, pattern, count)
}

func (f *fakeHandle) Type(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	f.typeCalls++
	fn := f.typeFn
	f.mu.Unlock()
	if fn == nil {
		return "", fmt.Errorf("unexpected Type(%q)", key)
	}
	return fn(key)
}

func (f *fakeHandle) TTL(_ context.Context, key string) (int64, error) {
	if f.ttlFn == nil {
		return 0, fmt.Errorf("unexpected TTL(%q)", key)
	}
	return f.ttlFn(key)
}

func (f *fakeHandle) Get(_ context.Context, key string) ([]byte, error) {
	if f.getFn == nil {
		return nil, fmt.Errorf("unexpected Get(%q)", key)
	}
	return f.getFn(key)
}

func (f *fakeHandle) LLen(_ context.Context, key string) (int64, error) {
	if f.llenFn == nil {
		return 0, fmt.Errorf("unexpected LLen(%q)", key)
	}
	return f.llenFn(key)
}

func (f *fakeHandle) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	f.mu.Lock()
	f.lrangeAsks++
	fn := f.lrangeFn
	f.mu.Unlock()
	if fn == nil {
		return nil, fmt.Errorf("unexpected LRange(%q)", key)
	}
	return fn(key, start, stop)
}

func (f *fakeHandle) Set(_ context.Context, key, value string) error {
	if f.setFn == nil {
		return fmt.Errorf("unexpected Set(%q)", key)
	}
	return f.setFn(key, value)
}

func (f *fakeHandle) Expire(_ context.Context, key string, seconds int64) (bool, error) {
	if f.expireFn == nil {
		return false, fmt.Errorf("unexpected Expire(%q)", key)
	}
	return f.expireFn(key, seconds)
}

func (f *fakeHandle) Del(_ context.Context, key string) error {
	if f.delFn == nil {
		return fmt.Errorf("unexpected Del(%q)", key)
	}
	return f.delFn(key)
}

func (f *fakeHandle) counts() (firstScans, scans, typeCalls, lranges int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.firstScans, f.scans, f.typeCalls, f.lrangeAsks
}

type fakeProvider struct {
	handle store.Handle
}

func (p fakeProvider) GetClient(context.Context, string) (store.Handle, error) {
	return p.handle, nil
}

func (p fakeProvider) GetConnection(context.Context, string) (store.Handle, error) {
	return p.handle, nil
}

func (p fakeProvider) Close(string) error { return nil }

// testTuning keeps page math small enough to script by hand.
func testTuning() config.ScanTuning {
	return config.ScanTuning{
		PageCap:             10,
		EmptyFilterPageSize: 5,
		FilteredPageSize:    8,
		PrefixRounds:        3,
		ResolveConcurrency:  4,
		ListPageSize:        100,
		AutoExpandBelow:     20,
	}
}

func newTestSession(t *testing.T, h store.Handle) *Session {
	t.Helper()
	conn := config.Connection{
		Name:      "test",
		URL:       "redis://localhost:6379",
		Separator: ":",
		Scan:      testTuning(),
	}
	s := New(conn, fakeProvider{handle: h}, logger.GetNoopLogger())
	t.Cleanup(s.Close)
	return s
}

// waitFor polls the snapshot until cond holds.
func waitFor(t *testing.T, s *Session, cond func(*Snapshot) bool, msg string) *Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := s.Snapshot()
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; snapshot: %+v", msg, snap)
		}
		select {
		case <-s.Changes():
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// settle gives in-flight background work a moment to land, then returns the
// latest snapshot. Used to assert that something did NOT happen.
func settle(s *Session) *Snapshot {
	time.Sleep(50 * time.Millisecond)
	return s.Snapshot()
}

func stringTyper(string) (string, error) { return "string", nil }

// syncBarrier marks a point in the reducer's command stream; apply closes
// the channel, proving every command enqueued before it has been applied.
type syncBarrier struct{ done chan struct{} }

func (b syncBarrier) apply(*Session) { close(b.done) }

// awaitScanDone waits for the scan chain started by commands enqueued before
// the call to end. The barrier guarantees the wait cannot settle on a
// snapshot taken before those commands were applied, so a false Scanning
// flag afterwards means the chain ran and finished.
func awaitScanDone(t *testing.T, s *Session, msg string) *Snapshot {
	t.Helper()
	b := syncBarrier{done: make(chan struct{})}
	s.enqueue(b)
	<-b.done
	return waitFor(t, s, func(sn *Snapshot) bool { return !sn.Scanning }, msg)
}
