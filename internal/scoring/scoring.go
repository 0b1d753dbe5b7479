// Package scoring compares submitted option sets against a question's answer key.
//
// Correctness is all-or-nothing set equality for both selection modes; partial
// credit is not awarded. A question without any correct option is never
// scored correct, even for an empty submission.
package scoring

import (
	"math"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
)

type QuestionResult struct {
	QuestionID    uint   `json:"question_id"`
	Answered      bool   `json:"answered"`
	IsCorrect     bool   `json:"is_correct"`
	PointsAwarded int    `json:"points_awarded"`
	Selected      []uint `json:"selected"`
	Correct       []uint `json:"correct"`
}

type Summary struct {
	QuestionCount  int `json:"question_count"`
	CorrectCount   int `json:"correct_count"`
	IncorrectCount int `json:"incorrect_count"`
	TotalPoints    int `json:"total_points"`
	AwardedPoints  int `json:"awarded_points"`
	// Percentage is based on the count of correct answers, not on points.
	Percentage int              `json:"percentage"`
	Questions  []QuestionResult `json:"questions,omitempty"`
}

// Evaluate grades one question. submitted is treated as a set.
func Evaluate(q *models.Question, submitted []uint) QuestionResult {
	selected := models.NormalizeIDs(submitted)
	correct := models.NormalizeIDs(q.CorrectOptionIDs())

	res := QuestionResult{
		QuestionID: q.ID,
		Answered:   len(selected) > 0,
		Selected:   selected,
		Correct:    correct,
	}
	res.IsCorrect = len(correct) > 0 && equalSets(selected, correct)
	if res.IsCorrect {
		res.PointsAwarded = q.Points
	}
	return res
}

// EvaluateAll grades every question; answers maps question id to the selected
// option ids. Questions missing from answers count as incorrect.
func EvaluateAll(questions []models.Question, answers map[uint][]uint) Summary {
	sum := Summary{
		QuestionCount: len(questions),
		Questions:     make([]QuestionResult, 0, len(questions)),
	}
	for i := range questions {
		q := &questions[i]
		res := Evaluate(q, answers[q.ID])
		sum.TotalPoints += q.Points
		sum.AwardedPoints += res.PointsAwarded
		if res.IsCorrect {
			sum.CorrectCount++
		} else {
			sum.IncorrectCount++
		}
		sum.Questions = append(sum.Questions, res)
	}
	sum.Percentage = Percentage(sum.CorrectCount, sum.QuestionCount)
	return sum
}

// Percentage returns round(part/whole*100), or 0 when whole is 0.
func Percentage(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// AnswersByQuestion indexes stored answers by question id.
func AnswersByQuestion(answers []models.Answer) map[uint][]uint {
	out := make(map[uint][]uint, len(answers))
	for i := range answers {
		out[answers[i].QuestionID] = answers[i].SelectedIDs()
	}
	return out
}

// both inputs must already be normalized
func equalSets(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
