// Package trace provides the lightweight listener-callback tracing used by
// the parser driver, in place of a full logging framework: callers register
// a func(string) and the driver funnels formatted diagnostic lines through
// it, the same pattern an LR parser uses for its state-stack trace.
package trace

import (
	"fmt"

	"github.com/google/uuid"
)

// Listener receives one formatted trace line at a time.
type Listener func(line string)

// Session is a correlation-scoped tracer: every line it emits is prefixed
// with a short correlation ID so that interleaved traces from concurrent
// table builds or parses (spec.md §5) can be told apart in one combined
// log stream.
type Session struct {
	id       string
	listener Listener
}

// NewSession creates a tracer with a fresh correlation ID. listener may be
// nil, in which case Notify/Notifyf are no-ops.
func NewSession(listener Listener) *Session {
	return &Session{id: uuid.NewString()[:8], listener: listener}
}

// ID returns the session's correlation ID.
func (s *Session) ID() string {
	return s.id
}

// Notify emits a pre-formatted line, if a listener is registered.
func (s *Session) Notify(line string) {
	if s.listener == nil {
		return
	}
	s.listener(fmt.Sprintf("[%s] %s", s.id, line))
}

// Notifyf formats and emits a line, if a listener is registered. The format
// call is skipped entirely when there is no listener, so tracing carries no
// cost on the hot path when it's disabled.
func (s *Session) Notifyf(format string, args ...interface{}) {
	if s.listener == nil {
		return
	}
	s.Notify(fmt.Sprintf(format, args...))
}

// NotifyFn defers formatting until a listener is actually present, for
// trace lines expensive enough to build (e.g. dumping a whole item set)
// that they shouldn't be paid for when tracing is off.
func (s *Session) NotifyFn(build func() string) {
	if s.listener == nil {
		return
	}
	s.Notify(build())
}
