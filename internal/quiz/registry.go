package quiz

import (
	"context"
	"sync"

	"github.com/mind-engage/mindengage-quiz/internal/logger"
)

// Registry holds the single live Session of each learner.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	factory  func(key string) *Session
}

func NewRegistry(factory func(key string) *Session) *Registry {
	return &Registry{sessions: map[string]*Session{}, factory: factory}
}

// Get returns the session for key, creating an idle one on first use.
func (r *Registry) Get(key string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	if !ok {
		s = r.factory(key)
		r.sessions[key] = s
	}
	return s
}

// Drop resets and forgets the session for key.
func (r *Registry) Drop(key string) {
	r.mu.Lock()
	s, ok := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()
	if ok {
		s.Reset()
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// EventObserver forwards lifecycle events of the session under key to
// sink. Sink failures are logged and otherwise ignored.
func EventObserver(sink EventSink, key string, log *logger.Logger) func(SessionEvent) {
	log = logger.OrNop(log)
	return func(ev SessionEvent) {
		if sink == nil {
			return
		}
		data := map[string]any{"token": ev.Token}
		if ev.Title != "" {
			data["title"] = ev.Title
		}
		if ev.Questions > 0 {
			data["questions"] = ev.Questions
		}
		if ev.Err != nil {
			data["error"] = ev.Err.Error()
		}
		if err := sink.Record(context.Background(), ev.Type, key, data); err != nil {
			log.Warn("event log append failed", "type", ev.Type, "session", key, "error", err)
		}
	}
}
