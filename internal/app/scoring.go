package app

import "quizhost-service/internal/domain"

// ScoreResult is the outcome of scoring one submitted answer set.
// Correct counts correctly answered questions, which differs from Score
// when questions carry more than one point.
type ScoreResult struct {
	Score    int `json:"score"`
	MaxScore int `json:"maxScore"`
	Correct  int `json:"correct"`
}

// Perfect reports whether the percentage score is exactly 100.
func (r ScoreResult) Perfect() bool {
	return r.MaxScore > 0 && r.Score == r.MaxScore
}

// ScoreAttempt grades a submitted answer set against the quiz's own
// question and choice definitions. It is pure: no store access, identical
// inputs always produce identical output. A missing answer, or a choice
// that does not belong to the question, contributes zero without error.
// When the same question appears twice in the answer set, the first
// occurrence wins.
func ScoreAttempt(questions []domain.Question, answers []domain.SubmittedAnswer) ScoreResult {
	picked := make(map[string]string, len(answers))
	for _, a := range answers {
		if _, ok := picked[a.QuestionID]; !ok {
			picked[a.QuestionID] = a.ChoiceID
		}
	}

	var result ScoreResult
	for _, q := range questions {
		points := q.Points
		if points <= 0 {
			points = 1
		}
		result.MaxScore += points

		choiceID := picked[q.ID]
		if choiceID == "" {
			continue
		}
		for _, c := range q.Choices {
			if c.ID == choiceID {
				if c.IsCorrect {
					result.Score += points
					result.Correct++
				}
				break
			}
		}
	}
	return result
}
