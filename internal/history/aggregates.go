package history

import (
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

const monthLayout = "Jan 2006"

// MonthlyAggregates groups a chronological ledger by creation month.
// Groups keep the order in which their month first appears. A month whose
// assessments hold no questions at all is left out.
func MonthlyAggregates(chronological []quiz.Assessment) []quiz.MonthlyAggregate {
	type acc struct {
		count, score, total int
	}
	var order []string
	groups := map[string]*acc{}
	for _, a := range chronological {
		label := a.CreatedAt.UTC().Format(monthLayout)
		g, ok := groups[label]
		if !ok {
			g = &acc{}
			groups[label] = g
			order = append(order, label)
		}
		g.count++
		g.score += a.Score
		g.total += a.TotalQuestions
	}

	out := make([]quiz.MonthlyAggregate, 0, len(order))
	for _, label := range order {
		g := groups[label]
		if g.total == 0 {
			continue
		}
		out = append(out, quiz.MonthlyAggregate{
			Month:               label,
			Count:               g.count,
			AverageScorePercent: grading.Percent(g.score, g.total),
		})
	}
	return out
}

type RecentAssessment struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"created_at"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percent        int       `json:"percent"`
	Band           string    `json:"band"`
}

// Summary is the dashboard view of a ledger.
type Summary struct {
	TotalQuizzes     int                `json:"total_quizzes"`
	TotalQuestions   int                `json:"total_questions"`
	CorrectAnswers   int                `json:"correct_answers"`
	AverageScore     int                `json:"average_score_percent"`
	LastAssessmentAt *time.Time         `json:"last_assessment_at,omitempty"`
	Recent           []RecentAssessment `json:"recent"`
}

// Summarize expects the ledger most recent first, as Store.List returns it.
func Summarize(recentFirst []quiz.Assessment, recent int) Summary {
	s := Summary{TotalQuizzes: len(recentFirst), Recent: []RecentAssessment{}}
	for _, a := range recentFirst {
		s.TotalQuestions += a.TotalQuestions
		s.CorrectAnswers += a.Score
	}
	s.AverageScore = grading.Percent(s.CorrectAnswers, s.TotalQuestions)
	if len(recentFirst) > 0 {
		t := recentFirst[0].CreatedAt
		s.LastAssessmentAt = &t
	}
	if recent > len(recentFirst) {
		recent = len(recentFirst)
	}
	for _, a := range recentFirst[:max(recent, 0)] {
		pct := grading.Percent(a.Score, a.TotalQuestions)
		s.Recent = append(s.Recent, RecentAssessment{
			ID:             a.ID,
			Title:          a.Title,
			CreatedAt:      a.CreatedAt,
			Score:          a.Score,
			TotalQuestions: a.TotalQuestions,
			Percent:        pct,
			Band:           grading.Band(pct),
		})
	}
	return s
}
