package history

import (
	"context"
	"errors"

	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

const DefaultRecent = 3

// Service is the read/write facade the API and the recorder use.
type Service struct {
	store Store
	log   *logger.Logger
}

var _ quiz.Appender = (*Service)(nil)

func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: logger.OrNop(log)}
}

func (s *Service) Append(ctx context.Context, userID string, a quiz.Assessment) error {
	if err := s.store.Append(ctx, userID, a); err != nil {
		return quiz.NewStorageError("append", err)
	}
	return nil
}

// List returns userID's assessments, most recent first. An identity that
// never completed a quiz has an empty ledger.
func (s *Service) List(ctx context.Context, userID string) ([]quiz.Assessment, error) {
	out, err := s.store.List(ctx, userID)
	if err != nil {
		s.log.Error("list history failed", "user_id", userID, "error", err)
		return nil, quiz.NewStorageError("list", err)
	}
	if out == nil {
		out = []quiz.Assessment{}
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, userID, assessmentID string) (quiz.Assessment, error) {
	a, err := s.store.Get(ctx, userID, assessmentID)
	if err != nil {
		if errors.Is(err, quiz.ErrNotFound) {
			return quiz.Assessment{}, err
		}
		return quiz.Assessment{}, quiz.NewStorageError("get", err)
	}
	return a, nil
}

func (s *Service) MonthlyAggregates(ctx context.Context, userID string) ([]quiz.MonthlyAggregate, error) {
	ledger, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return MonthlyAggregates(reverse(ledger)), nil
}

func (s *Service) Summary(ctx context.Context, userID string, recent int) (Summary, error) {
	ledger, err := s.List(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(ledger, recent), nil
}
