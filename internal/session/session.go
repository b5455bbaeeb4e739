package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/rdx/internal/config"
	"github.com/oakwood-commons/rdx/internal/store"
)

// ErrUnsupportedType is recorded as the select-key outcome for key types
// this core does not load.
var ErrUnsupportedType = errors.New("unsupported key type")

// applier is one unit of work for the reducer loop: either a user command
// or the result of a background store request. Implementations mutate the
// owned state; they run strictly serially.
type applier interface {
	apply(s *Session)
}

// Session owns the browsing state of one store connection. All command
// methods are fire-and-forget: they enqueue work onto the reducer loop and
// return immediately. Effects are observed through Snapshot and Changes.
type Session struct {
	name     string
	sep      string
	tuning   config.ScanTuning
	provider store.Provider
	log      *logr.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	inbox   chan applier
	changes chan struct{}

	snapshot  atomic.Pointer[Snapshot]
	closeOnce sync.Once

	// st is owned by the loop goroutine.
	st connectionState
}

// New creates a session for the given connection and starts its reducer
// loop. The connection carries the separator and scan tuning.
func New(conn config.Connection, provider store.Provider, log *logr.Logger) *Session {
	sep := conn.Separator
	if sep == "" {
		sep = config.DefaultSeparator
	}
	// Guard every field, not just the likely ones: a zero ResolveConcurrency
	// would leave the type resolver with no workers to drain its queue.
	tuning := config.NormalizeTuning(conn.Scan)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		name:     conn.Name,
		sep:      sep,
		tuning:   tuning,
		provider: provider,
		log:      log,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		inbox:    make(chan applier, 64),
		changes:  make(chan struct{}, 1),
		st:       newConnectionState(),
	}
	s.snapshot.Store(s.buildSnapshot())
	go s.loop()
	return s
}

// Name returns the connection identity.
func (s *Session) Name() string {
	return s.name
}

// Separator returns the namespace separator configured for this connection.
func (s *Session) Separator() string {
	return s.sep
}

// Tuning returns the scan tuning in effect.
func (s *Session) Tuning() config.ScanTuning {
	return s.tuning
}

// Snapshot returns the latest published state copy. The returned value and
// everything reachable from it must be treated as read-only.
func (s *Session) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Changes returns the coalesced change-notification channel. A receive
// means "state may have changed since you last looked"; re-read Snapshot.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

// Close stops the reducer loop and cancels outstanding store requests.
func (s *Session) Close() {
	s.closeOnce.Do(s.cancel)
}

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case a := <-s.inbox:
			a.apply(s)
			s.publish()
		}
	}
}

// enqueue hands a command or result to the reducer loop, dropping it if the
// session is closed.
func (s *Session) enqueue(a applier) {
	select {
	case s.inbox <- a:
	case <-s.ctx.Done():
	}
}

// publish copies observable state into a fresh snapshot and signals
// observers. The notification channel is coalescing: an undelivered signal
// already covers this change.
func (s *Session) publish() {
	s.snapshot.Store(s.buildSnapshot())
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Session) buildSnapshot() *Snapshot {
	keys := make(map[string]KeyType, len(s.st.keys))
	for k, t := range s.st.keys {
		keys[k] = t
	}
	return &Snapshot{
		Name:         s.name,
		Keys:         keys,
		Filter:       s.st.filter,
		Mode:         s.st.mode,
		Scanning:     s.st.scanning,
		Completed:    s.st.completed,
		Round:        s.st.round,
		SelectedKey:  s.st.selectedKey,
		Value:        s.st.value,
		ValueErr:     s.st.valueErr,
		TreeVersion:  s.st.treeVersion,
		Deleting:     s.st.deleting,
		Updating:     s.st.updating,
		LastActivity: s.st.lastActivity,
	}
}

// generation identifies the logical request a background operation belongs
// to: the connection identity plus the filter active when it started.
type generation struct {
	conn   string
	filter string
	mode   QueryMode
}

// current reports whether the generation still matches live state. Stale
// results are dropped silently; superseding the filter is the sole
// cancellation mechanism.
func (g generation) current(s *Session) bool {
	return g.conn == s.name && g.filter == s.st.filter && g.mode == s.st.mode
}

func (s *Session) generation() generation {
	return generation{conn: s.name, filter: s.st.filter, mode: s.st.mode}
}

func (s *Session) touch() {
	s.st.lastActivity = s.now()
}

// withHandle resolves the pooled handle for this connection and runs fn
// against it. Intended for background goroutines.
func (s *Session) withHandle(fn func(store.Handle) error) error {
	handle, err := s.provider.GetConnection(s.ctx, s.name)
	if err != nil {
		return err
	}
	return fn(handle)
}
