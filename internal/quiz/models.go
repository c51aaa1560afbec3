package quiz

import "time"

type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`        // always four, all distinct
	CorrectAnswer string   `json:"correct_answer"` // one of Options
	Explanation   string   `json:"explanation"`
}

type Answer struct {
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	IsCorrect      bool   `json:"is_correct"`
}

// Assessment is the frozen record of one completed session.
type Assessment struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id,omitempty"`
	Title          string     `json:"title"`
	CreatedAt      time.Time  `json:"created_at"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"total_questions"`
	Answers        []Answer   `json:"answers"`
	Questions      []Question `json:"questions"`
}

type MonthlyAggregate struct {
	Month               string `json:"month"` // e.g. "Jan 2026"
	Count               int    `json:"count"`
	AverageScorePercent int    `json:"average_score_percent"`
}

func cloneQuestions(in []Question) []Question {
	if in == nil {
		return nil
	}
	out := make([]Question, len(in))
	for i, q := range in {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

func cloneAnswers(in []Answer) []Answer {
	if in == nil {
		return nil
	}
	return append([]Answer(nil), in...)
}

// Clone returns a deep copy so callers can never alias a stored record.
func (a Assessment) Clone() Assessment {
	a.Questions = cloneQuestions(a.Questions)
	a.Answers = cloneAnswers(a.Answers)
	return a
}

func (a Answer) Correct() bool { return a.IsCorrect }
