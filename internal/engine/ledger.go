package engine

import (
	"fmt"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
)

// Ledger holds the current option selection per question. It is the source of
// truth for the in-session view; the backend copy is best effort until submit.
// Ledger is not safe for concurrent use; the Machine serializes access.
type Ledger struct {
	selections map[uint]map[uint]struct{}
	onChange   func(questionID uint, selected []uint)
}

// NewLedger returns an empty ledger. onChange, if set, receives the full
// selection after every successful Select.
func NewLedger(onChange func(questionID uint, selected []uint)) *Ledger {
	return &Ledger{
		selections: make(map[uint]map[uint]struct{}),
		onChange:   onChange,
	}
}

// Select applies one option click. Single mode replaces the selection,
// multiple mode toggles membership.
func (l *Ledger) Select(questionID, optionID uint, mode models.SelectionMode) ([]uint, error) {
	set := l.selections[questionID]
	switch mode {
	case models.ModeSingle:
		set = map[uint]struct{}{optionID: {}}
	case models.ModeMultiple:
		if set == nil {
			set = make(map[uint]struct{})
		}
		if _, ok := set[optionID]; ok {
			delete(set, optionID)
		} else {
			set[optionID] = struct{}{}
		}
	default:
		return nil, fmt.Errorf("unknown selection mode %q", mode)
	}
	l.selections[questionID] = set

	selected := l.Selected(questionID)
	if l.onChange != nil {
		l.onChange(questionID, selected)
	}
	return selected, nil
}

// Selected returns a sorted copy of the selection for questionID.
func (l *Ledger) Selected(questionID uint) []uint {
	set := l.selections[questionID]
	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return models.NormalizeIDs(ids)
}

func (l *Ledger) IsAnswered(questionID uint) bool {
	return len(l.selections[questionID]) > 0
}

func (l *Ledger) AnsweredCount() int {
	n := 0
	for _, set := range l.selections {
		if len(set) > 0 {
			n++
		}
	}
	return n
}

// Snapshot copies every non-empty selection.
func (l *Ledger) Snapshot() map[uint][]uint {
	out := make(map[uint][]uint, len(l.selections))
	for qid, set := range l.selections {
		if len(set) > 0 {
			out[qid] = l.Selected(qid)
		}
	}
	return out
}
