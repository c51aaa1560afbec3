package quiz

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
)

const DefaultTitle = "Study Quiz"

// Appender persists an assessment under an identity.
type Appender interface {
	Append(ctx context.Context, userID string, a Assessment) error
}

// EventSink receives lifecycle facts for the audit log.
type EventSink interface {
	Record(ctx context.Context, typ, key string, data any) error
}

type RecorderOption func(*Recorder)

func WithClock(now func() time.Time) RecorderOption { return func(r *Recorder) { r.now = now } }

func WithAssessmentIDs(f func() string) RecorderOption { return func(r *Recorder) { r.newID = f } }

func WithDefaultTitle(t string) RecorderOption {
	return func(r *Recorder) {
		if strings.TrimSpace(t) != "" {
			r.defaultTitle = t
		}
	}
}

func WithEventSink(s EventSink) RecorderOption { return func(r *Recorder) { r.events = s } }

func WithRecorderLogger(l *logger.Logger) RecorderOption {
	return func(r *Recorder) { r.log = logger.OrNop(l) }
}

type Recorder struct {
	store        Appender
	events       EventSink
	log          *logger.Logger
	now          func() time.Time
	newID        func() string
	defaultTitle string
}

func NewRecorder(store Appender, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:        store,
		log:          logger.Nop(),
		now:          time.Now,
		newID:        uuid.NewString,
		defaultTitle: DefaultTitle,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Record freezes questions and answers into an Assessment and appends it
// to userID's history. With an empty userID nothing is persisted. When the
// store fails the Assessment is still returned, together with a
// *StorageError, so the result can be shown.
func (r *Recorder) Record(ctx context.Context, userID, title string, questions []Question, answers []Answer) (Assessment, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = r.defaultTitle
	}
	a := Assessment{
		ID:             r.newID(),
		UserID:         userID,
		Title:          title,
		CreatedAt:      r.now().UTC(),
		Score:          grading.CountCorrect(answers),
		TotalQuestions: len(questions),
		Answers:        cloneAnswers(answers),
		Questions:      cloneQuestions(questions),
	}
	if a.Answers == nil {
		a.Answers = []Answer{}
	}
	if a.Questions == nil {
		a.Questions = []Question{}
	}

	if userID == "" || r.store == nil {
		r.log.Debug("assessment not persisted: anonymous session", "assessment_id", a.ID)
		return a, nil
	}
	if err := r.store.Append(ctx, userID, a.Clone()); err != nil {
		r.log.Error("persist assessment failed", "user_id", userID, "assessment_id", a.ID, "error", err)
		return a, NewStorageError("append", err)
	}
	r.log.Info("assessment recorded", "user_id", userID, "assessment_id", a.ID,
		"score", a.Score, "total", a.TotalQuestions)

	if r.events != nil {
		data := map[string]any{
			"user_id":         userID,
			"score":           a.Score,
			"total_questions": a.TotalQuestions,
			"title":           a.Title,
		}
		if err := r.events.Record(ctx, "AssessmentRecorded", a.ID, data); err != nil {
			r.log.Warn("event log append failed", "assessment_id", a.ID, "error", err)
		}
	}
	return a, nil
}

// CompleteSession completes s and records the result in one step.
func (r *Recorder) CompleteSession(ctx context.Context, s *Session, userID string) (Assessment, error) {
	snap, err := s.Complete()
	if err != nil {
		return Assessment{}, err
	}
	return r.Record(ctx, userID, snap.Title, snap.Questions, snap.Answers)
}
