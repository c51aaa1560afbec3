// Package history keeps the append-only ledger of completed assessments
// for each identity and derives statistics from it.
package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// Store is a per-identity append-only ledger. Append must be atomic per
// assessment so concurrent completions for one identity all survive.
// List returns the most recent assessment first.
type Store interface {
	Append(ctx context.Context, userID string, a quiz.Assessment) error
	List(ctx context.Context, userID string) ([]quiz.Assessment, error)
	Get(ctx context.Context, userID, assessmentID string) (quiz.Assessment, error)
}

// LedgerKey is the storage key of a user's ledger in key-value backends.
func LedgerKey(userID string) string { return "quiz_history_" + userID }

type MemoryStore struct {
	mu      sync.RWMutex
	ledgers map[string][]quiz.Assessment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ledgers: map[string][]quiz.Assessment{}}
}

func (m *MemoryStore) Append(ctx context.Context, userID string, a quiz.Assessment) error {
	if err := ctx.Err(); err != nil {
		return quiz.NewStorageError("append", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ledgers[userID] = append(m.ledgers[userID], a.Clone())
	return nil
}

func (m *MemoryStore) List(ctx context.Context, userID string) ([]quiz.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, quiz.NewStorageError("list", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ledger := m.ledgers[userID]
	out := make([]quiz.Assessment, 0, len(ledger))
	for i := len(ledger) - 1; i >= 0; i-- {
		out = append(out, ledger[i].Clone())
	}
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, userID, assessmentID string) (quiz.Assessment, error) {
	if err := ctx.Err(); err != nil {
		return quiz.Assessment{}, quiz.NewStorageError("get", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.ledgers[userID] {
		if a.ID == assessmentID {
			return a.Clone(), nil
		}
	}
	return quiz.Assessment{}, fmt.Errorf("assessment %q: %w", assessmentID, quiz.ErrNotFound)
}

// reverse flips a chronological ledger into most-recent-first order.
func reverse(in []quiz.Assessment) []quiz.Assessment {
	for i, j := 0, len(in)-1; i < j; i, j = i+1, j-1 {
		in[i], in[j] = in[j], in[i]
	}
	return in
}
