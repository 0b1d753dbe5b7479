package engine

import (
	"fmt"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/scoring"
)

type OptionView struct {
	ID       uint   `json:"id"`
	Text     string `json:"text"`
	Selected bool   `json:"selected"`
}

// QuestionView is a question as shown while taking: no answer key.
type QuestionView struct {
	ID         uint                 `json:"id"`
	QuestionNo int                  `json:"question_no"`
	Text       string               `json:"text"`
	ImageURL   *string              `json:"image_url,omitempty"`
	Points     int                  `json:"points"`
	Mode       models.SelectionMode `json:"mode"`
	Options    []OptionView         `json:"options"`
}

type Progress struct {
	Answered        int `json:"answered"`
	Total           int `json:"total"`
	PercentComplete int `json:"percent_complete"`
}

type View struct {
	AttemptID    uint          `json:"attempt_id"`
	State        State         `json:"state"`
	Progress     Progress      `json:"progress"`
	RemainingSec int           `json:"remaining_sec"`
	Remaining    string        `json:"remaining"`
	Timed        bool          `json:"timed"`
	Cursor       int           `json:"cursor"`
	Question     *QuestionView `json:"question,omitempty"`

	CanGoBack    bool `json:"can_go_back"`
	CanGoForward bool `json:"can_go_forward"`
	IsLast       bool `json:"is_last"`
	CanSubmit    bool `json:"can_submit"`

	Results *Results `json:"results,omitempty"`
}

// View builds the presentation payload for the current state.
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{AttemptID: m.attemptID, State: m.state}
	if m.state == StateNotStarted {
		return v
	}

	total := len(m.questions)
	answered := m.ledger.AnsweredCount()
	v.Progress = Progress{
		Answered:        answered,
		Total:           total,
		PercentComplete: scoring.Percentage(answered, total),
	}
	v.RemainingSec = m.clock.Remaining()
	v.Remaining = FormatRemaining(v.RemainingSec)
	v.Timed = m.clock.Timed()
	v.Cursor = m.cursor

	q := &m.questions[m.cursor]
	v.Question = m.questionView(q)

	active := m.state == StateInProgress
	v.IsLast = m.cursor == total-1
	v.CanGoBack = active && m.cursor > 0
	v.CanGoForward = active && !v.IsLast && m.ledger.IsAnswered(q.ID)
	v.CanSubmit = active

	if m.results != nil {
		res := *m.results
		v.Results = &res
	}
	return v
}

func (m *Machine) questionView(q *models.Question) *QuestionView {
	selected := make(map[uint]bool)
	for _, id := range m.ledger.Selected(q.ID) {
		selected[id] = true
	}
	qv := &QuestionView{
		ID:         q.ID,
		QuestionNo: q.QuestionNo,
		Text:       q.Text,
		ImageURL:   q.ImageURL,
		Points:     q.Points,
		Mode:       q.Mode,
		Options:    make([]OptionView, len(q.Options)),
	}
	for i, o := range q.Options {
		qv.Options[i] = OptionView{ID: o.ID, Text: o.Text, Selected: selected[o.ID]}
	}
	return qv
}

// FormatRemaining renders seconds as mm:ss. Minutes are not capped at 59.
func FormatRemaining(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
