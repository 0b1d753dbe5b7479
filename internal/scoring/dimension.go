package scoring

import (
	"github.com/SAP-F-2025/assessment-delivery/internal/models"
)

type DimensionScore struct {
	Dimension string  `json:"dimension"`
	Score     float64 `json:"score"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Items     int     `json:"items"`
	Answered  int     `json:"answered"`
}

// DimensionScores sums Likert option scores per psychometric dimension.
// Reverse-oriented items are mirrored within the question's own score range
// (min+max-score). Questions without a dimension or without scored options are
// skipped; unanswered items add to Items but not to Score.
func DimensionScores(questions []models.Question, answers map[uint][]uint) []DimensionScore {
	index := make(map[string]int)
	var out []DimensionScore

	for i := range questions {
		q := &questions[i]
		if q.Dimension == nil || *q.Dimension == "" {
			continue
		}
		lo, hi, ok := scoreRange(q)
		if !ok {
			continue
		}

		pos, seen := index[*q.Dimension]
		if !seen {
			pos = len(out)
			index[*q.Dimension] = pos
			out = append(out, DimensionScore{Dimension: *q.Dimension})
		}
		d := &out[pos]
		d.Items++

		perSelection := 1
		if q.Mode == models.ModeMultiple {
			perSelection = len(q.Options)
		}
		d.Min += lo
		d.Max += hi * float64(perSelection)

		selected := answers[q.ID]
		if len(selected) == 0 {
			continue
		}
		d.Answered++
		for _, id := range models.NormalizeIDs(selected) {
			for _, o := range q.Options {
				if o.ID != id || o.Score == nil {
					continue
				}
				v := *o.Score
				if q.IsReverse() {
					v = lo + hi - v
				}
				d.Score += v
			}
		}
	}
	return out
}

func scoreRange(q *models.Question) (lo, hi float64, ok bool) {
	for _, o := range q.Options {
		if o.Score == nil {
			continue
		}
		if !ok {
			lo, hi, ok = *o.Score, *o.Score, true
			continue
		}
		if *o.Score < lo {
			lo = *o.Score
		}
		if *o.Score > hi {
			hi = *o.Score
		}
	}
	return lo, hi, ok
}
