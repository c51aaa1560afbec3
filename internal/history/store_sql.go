package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// SQLStore keeps one row per assessment. Appending is a single INSERT, so
// two completions racing for the same user both land.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Append(ctx context.Context, userID string, a quiz.Assessment) error {
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return err
	}
	qj, err := json.Marshal(a.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO assessments
		(id,user_id,title,score,total_questions,answers_json,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, userID, a.Title, a.Score, a.TotalQuestions, string(aj), string(qj), a.CreatedAt.UnixMilli())
	return err
}

const selectAssessment = `SELECT id,user_id,title,score,total_questions,answers_json,questions_json,created_at FROM assessments`

func (s *SQLStore) List(ctx context.Context, userID string) ([]quiz.Assessment, error) {
	rows, err := s.db.QueryContext(ctx, selectAssessment+` WHERE user_id=$1 ORDER BY seq DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []quiz.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) Get(ctx context.Context, userID, assessmentID string) (quiz.Assessment, error) {
	row := s.db.QueryRowContext(ctx, selectAssessment+` WHERE user_id=$1 AND id=$2`, userID, assessmentID)
	a, err := scanAssessment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Assessment{}, fmt.Errorf("assessment %q: %w", assessmentID, quiz.ErrNotFound)
		}
		return quiz.Assessment{}, err
	}
	return a, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAssessment(sc scanner) (quiz.Assessment, error) {
	var (
		a            quiz.Assessment
		ajson, qjson string
		created      int64
	)
	if err := sc.Scan(&a.ID, &a.UserID, &a.Title, &a.Score, &a.TotalQuestions, &ajson, &qjson, &created); err != nil {
		return quiz.Assessment{}, err
	}
	if err := json.Unmarshal([]byte(ajson), &a.Answers); err != nil {
		return quiz.Assessment{}, fmt.Errorf("decode answers of %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(qjson), &a.Questions); err != nil {
		return quiz.Assessment{}, fmt.Errorf("decode questions of %s: %w", a.ID, err)
	}
	a.CreatedAt = time.UnixMilli(created).UTC()
	return a, nil
}
