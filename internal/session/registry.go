package session

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/oakwood-commons/rdx/internal/config"
	"github.com/oakwood-commons/rdx/internal/store"
)

// Registry maps connection identities to live sessions. It is the explicit
// owner of per-connection state; callers hold *Session handles instead of
// reaching through globals.
type Registry struct {
	cfg      *config.Config
	provider store.Provider
	log      *logr.Logger
	sessions *xsync.MapOf[string, *Session]
}

// NewRegistry creates a registry over the configured connections.
func NewRegistry(cfg *config.Config, provider store.Provider, log *logr.Logger) *Registry {
	return &Registry{
		cfg:      cfg,
		provider: provider,
		log:      log,
		sessions: xsync.NewMapOf[string, *Session](),
	}
}

// Open returns the live session for the named connection, creating it on
// first use.
func (r *Registry) Open(name string) (*Session, error) {
	if s, ok := r.sessions.Load(name); ok {
		return s, nil
	}
	conn, ok := r.cfg.Connection(name)
	if !ok {
		return nil, fmt.Errorf("unknown connection %q", name)
	}
	s, _ := r.sessions.LoadOrCompute(name, func() *Session {
		return New(conn, r.provider, r.log)
	})
	return s, nil
}

// Close destroys the session for the named connection, if open, and
// releases its store handle.
func (r *Registry) Close(name string) {
	if s, ok := r.sessions.LoadAndDelete(name); ok {
		s.Close()
	}
	_ = r.provider.Close(name)
}

// CloseAll destroys every open session.
func (r *Registry) CloseAll() {
	r.sessions.Range(func(name string, s *Session) bool {
		s.Close()
		r.sessions.Delete(name)
		_ = r.provider.Close(name)
		return true
	})
}
