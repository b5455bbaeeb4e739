package ui

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/rdx/internal/session"
	"github.com/oakwood-commons/rdx/pkg/logger"
)

// Options configures the browser program.
type Options struct {
	NoColor bool
	// ProgramOptions are forwarded to tea.NewProgram (custom IO in tests).
	ProgramOptions []tea.ProgramOption
}

// Run starts the browser over the given session and blocks until the user
// quits.
func Run(ctx context.Context, s *session.Session, opts Options) error {
	log := logger.FromContext(ctx)
	log.V(1).Info("starting browser", logger.ConnectionKey, s.Name())

	m := NewModel(s, opts.NoColor)
	prog := tea.NewProgram(m, opts.ProgramOptions...)
	_, err := prog.Run()
	return err
}
