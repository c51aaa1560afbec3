package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
)

// Generator turns study text into at most count questions.
type Generator interface {
	Generate(ctx context.Context, content string, count int) ([]Question, error)
}

type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateActive     State = "active"
	StateCompleted  State = "completed"
)

const DefaultQuestionCount = 25

// SessionEvent is reported to the observer after every lifecycle change.
type SessionEvent struct {
	Type      string // one of the Event* constants
	Token     uint64
	Title     string
	Questions int
	Err       error
}

const (
	EventGenerated      = "QuizGenerated"
	EventGenerateFailed = "QuizGenerateFailed"
	EventDiscarded      = "QuizGenerateDiscarded"
	EventCompleted      = "QuizCompleted"
	EventReset          = "QuizReset"
)

type SessionOption func(*Session)

func WithQuestionCount(n int) SessionOption { return func(s *Session) { s.count = n } }

// WithLatency delays every generation by d before the generator runs.
func WithLatency(d time.Duration) SessionOption { return func(s *Session) { s.latency = d } }

func WithSessionLogger(l *logger.Logger) SessionOption {
	return func(s *Session) { s.log = logger.OrNop(l) }
}

// WithObserver registers a callback for lifecycle events. It runs outside
// the session lock.
func WithObserver(f func(SessionEvent)) SessionOption { return func(s *Session) { s.observe = f } }

// Session is the in-progress quiz of one learner. All methods are safe for
// concurrent use.
type Session struct {
	gen     Generator
	count   int
	latency time.Duration
	log     *logger.Logger
	observe func(SessionEvent)

	mu        sync.Mutex
	state     State
	token     uint64
	title     string
	questions []Question
	index     int
	answers   []Answer
	answerAt  map[string]int // question id -> position in answers
	lastErr   string
}

func NewSession(gen Generator, opts ...SessionOption) *Session {
	s := &Session{
		gen:   gen,
		count: DefaultQuestionCount,
		log:   logger.Nop(),
		state: StateIdle,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Generate starts building a question set from content. It returns at once;
// the channel yields the outcome (nil on success) and is then closed. A
// result that arrives after Reset or after a newer Generate is dropped and
// reported as ErrStale.
func (s *Session) Generate(ctx context.Context, content, title string) (<-chan error, error) {
	if s.count <= 0 {
		return nil, fmt.Errorf("%w: question count must be positive, got %d", ErrInvalidArgument, s.count)
	}
	if strings.TrimSpace(content) == "" {
		return nil, &GenerationError{Reason: "content is empty", Err: ErrInvalidArgument}
	}

	s.mu.Lock()
	switch s.state {
	case StateGenerating, StateActive:
		st := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot generate while %s", ErrInvalidState, st)
	}
	s.clearLocked()
	s.token++
	token := s.token
	s.state = StateGenerating
	s.title = strings.TrimSpace(title)
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- s.run(ctx, token, content)
	}()
	return done, nil
}

// GenerateWait is Generate followed by waiting for the outcome.
func (s *Session) GenerateWait(ctx context.Context, content, title string) error {
	done, err := s.Generate(ctx, content, title)
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) run(ctx context.Context, token uint64, content string) error {
	var (
		qs  []Question
		err error
	)
	if s.latency > 0 {
		t := time.NewTimer(s.latency)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			err = ctx.Err()
		}
	}
	if err == nil {
		qs, err = s.gen.Generate(ctx, content, s.count)
	}
	if err == nil && len(qs) == 0 {
		err = &GenerationError{Reason: "generator returned no questions"}
	}

	s.mu.Lock()
	if s.token != token || s.state != StateGenerating {
		s.mu.Unlock()
		s.log.Debug("dropping stale question set", "token", token)
		s.emit(SessionEvent{Type: EventDiscarded, Token: token})
		return ErrStale
	}
	if err != nil {
		s.clearLocked()
		s.state = StateIdle
		s.lastErr = err.Error()
		s.mu.Unlock()
		s.log.Warn("question generation failed", "token", token, "error", err)
		s.emit(SessionEvent{Type: EventGenerateFailed, Token: token, Err: err})
		return err
	}
	s.questions = cloneQuestions(qs)
	s.index = 0
	s.answers = nil
	s.answerAt = map[string]int{}
	s.state = StateActive
	title := s.title
	s.mu.Unlock()

	s.log.Info("quiz ready", "token", token, "questions", len(qs))
	s.emit(SessionEvent{Type: EventGenerated, Token: token, Title: title, Questions: len(qs)})
	return nil
}

// Answer records selected as the response to questionID, replacing any
// earlier response. Unknown question ids are ignored.
func (s *Session) Answer(questionID, selected string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return fmt.Errorf("%w: answer while %s", ErrInvalidState, s.state)
	}
	var q *Question
	for i := range s.questions {
		if s.questions[i].ID == questionID {
			q = &s.questions[i]
			break
		}
	}
	if q == nil {
		return nil
	}
	a := Answer{
		QuestionID:     questionID,
		SelectedOption: selected,
		IsCorrect:      grading.IsCorrect(selected, q.CorrectAnswer),
	}
	if i, ok := s.answerAt[questionID]; ok {
		s.answers[i] = a
		return nil
	}
	s.answerAt[questionID] = len(s.answers)
	s.answers = append(s.answers, a)
	return nil
}

func (s *Session) Next() error { return s.move(1) }

func (s *Session) Previous() error { return s.move(-1) }

func (s *Session) move(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return fmt.Errorf("%w: navigate while %s", ErrInvalidState, s.state)
	}
	i := s.index + delta
	if i < 0 {
		i = 0
	}
	if last := len(s.questions) - 1; i > last {
		i = last
	}
	s.index = i
	return nil
}

// Complete ends the quiz and returns the state to be recorded. The
// question set stays readable until Reset or the next Generate.
func (s *Session) Complete() (Snapshot, error) {
	s.mu.Lock()
	if s.state != StateActive {
		st := s.state
		s.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: complete while %s", ErrInvalidState, st)
	}
	s.state = StateCompleted
	snap := s.snapshotLocked()
	token := s.token
	s.mu.Unlock()

	s.emit(SessionEvent{Type: EventCompleted, Token: token, Title: snap.Title, Questions: len(snap.Questions)})
	return snap, nil
}

// Reset discards everything and returns to idle. An in-flight generation
// will be dropped when it finishes.
func (s *Session) Reset() {
	s.mu.Lock()
	s.clearLocked()
	s.token++
	token := s.token
	s.state = StateIdle
	s.mu.Unlock()

	s.emit(SessionEvent{Type: EventReset, Token: token})
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) clearLocked() {
	s.title = ""
	s.questions = nil
	s.index = 0
	s.answers = nil
	s.answerAt = map[string]int{}
	s.lastErr = ""
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:        s.state,
		Title:        s.title,
		Questions:    cloneQuestions(s.questions),
		Answers:      cloneAnswers(s.answers),
		CurrentIndex: s.index,
		Completed:    s.state == StateCompleted,
		Loading:      s.state == StateGenerating,
		Error:        s.lastErr,
	}
}

func (s *Session) emit(ev SessionEvent) {
	if s.observe != nil {
		s.observe(ev)
	}
}

// Snapshot is a detached copy of a session.
type Snapshot struct {
	State        State      `json:"state"`
	Title        string     `json:"title,omitempty"`
	Questions    []Question `json:"questions"`
	Answers      []Answer   `json:"answers"`
	CurrentIndex int        `json:"current_index"`
	Completed    bool       `json:"completed"`
	Loading      bool       `json:"loading"`
	Error        string     `json:"error,omitempty"`
}

func (s Snapshot) Current() (Question, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

func (s Snapshot) AnswerFor(questionID string) (Answer, bool) {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return Answer{}, false
}

// Score counts correct answers.
func (s Snapshot) Score() int { return grading.CountCorrect(s.Answers) }

// Redacted hides correct answers and explanations while the quiz is still
// being taken.
func (s Snapshot) Redacted() Snapshot {
	if s.Completed {
		return s
	}
	s.Questions = cloneQuestions(s.Questions)
	s.Answers = cloneAnswers(s.Answers)
	for i := range s.Questions {
		s.Questions[i].CorrectAnswer = ""
		s.Questions[i].Explanation = ""
	}
	for i := range s.Answers {
		s.Answers[i].IsCorrect = false
	}
	return s
}

// IsStale reports whether err came from a dropped generation.
func IsStale(err error) bool { return errors.Is(err, ErrStale) }
