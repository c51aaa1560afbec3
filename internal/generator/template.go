// Package generator synthesizes multiple-choice questions from study text.
//
// Template fills fixed question and option templates with keywords lifted
// from the text. It does not understand the material: which option is
// labelled correct is a random draw, so the label is internal bookkeeping
// and not a factual claim. Anything that satisfies quiz.Generator, such as
// an LLM-backed provider, can replace it.
package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

const (
	DefaultMinUnitLength = 20
	optionCount          = 4
)

var topics = []string{
	"History",
	"Geography",
	"Polity",
	"Economy",
	"Science and Technology",
}

var optionTemplates = [optionCount]string{
	"It refers to a historical event connected with %q",
	"It is a geographical feature associated with %q",
	"It is a constitutional provision concerning %q",
	"It is an economic policy built around %q",
}

type Option func(*Template)

// WithRand makes output reproducible. The source is guarded by the
// generator's own lock.
func WithRand(r *rand.Rand) Option { return func(t *Template) { t.rng = r } }

func WithMinUnitLength(n int) Option {
	return func(t *Template) {
		if n >= 0 {
			t.minUnit = n
		}
	}
}

// WithIDs overrides question id allocation.
func WithIDs(f func() string) Option { return func(t *Template) { t.newID = f } }

type Template struct {
	mu      sync.Mutex
	rng     *rand.Rand
	minUnit int
	newID   func() string
}

var _ quiz.Generator = (*Template)(nil)

func New(opts ...Option) *Template {
	t := &Template{
		minUnit: DefaultMinUnitLength,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(t)
	}
	if t.rng == nil {
		seed := uint64(time.Now().UnixNano())
		t.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return t
}

// Generate returns min(count, units) questions built from the first units
// of content.
func (t *Template) Generate(ctx context.Context, content string, count int) ([]quiz.Question, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: question count must be positive, got %d", quiz.ErrInvalidArgument, count)
	}
	if trimUnit(content) == "" {
		return nil, &quiz.GenerationError{Reason: "content is empty", Err: quiz.ErrInvalidArgument}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	units := segment(content, t.minUnit)
	if len(units) == 0 {
		return nil, &quiz.GenerationError{
			Reason: fmt.Sprintf("no passage longer than %d characters to build questions from", t.minUnit),
		}
	}
	if count > len(units) {
		count = len(units)
	}
	global := keywordSet(units)

	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]quiz.Question, 0, count)
	for i, u := range units[:count] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cands := u.candidates(global)
		keyword := cands[t.rng.IntN(len(cands))]
		out = append(out, t.build(i+1, u, keyword))
	}
	return out, nil
}

func (t *Template) build(n int, u unit, keyword string) quiz.Question {
	topic := topics[t.rng.IntN(len(topics))]

	opts := make([]string, optionCount)
	for i, tpl := range optionTemplates {
		opts[i] = fmt.Sprintf(tpl, keyword)
	}
	t.rng.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	correct := opts[t.rng.IntN(optionCount)]

	return quiz.Question{
		ID:            t.newID(),
		Text:          fmt.Sprintf("Question %d: Which of the following best describes the concept of %q in %s?", n, keyword, topic),
		Options:       opts,
		CorrectAnswer: correct,
		Explanation:   fmt.Sprintf("The source passage reads: %q. The concept of %q is taken from this passage.", u.text, keyword),
	}
}
