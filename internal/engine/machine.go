// Package engine runs one timed test attempt on the taking side: it records
// selections locally, syncs them to the backend in the background, counts down
// the time limit and finalizes the attempt exactly once.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/SAP-F-2025/assessment-delivery/internal/scoring"
)

type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateInProgress State = "IN_PROGRESS"
	StateSubmitted  State = "SUBMITTED"
	StateExpired    State = "EXPIRED"
)

func (s State) IsTerminal() bool {
	return s == StateSubmitted || s == StateExpired
}

type Reason string

const (
	ReasonManual  Reason = "manual"
	ReasonTimeout Reason = "timeout"
)

type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

const defaultSaveTimeout = 10 * time.Second

// Session is what Start hands back to the caller. AttemptID must be passed to
// every later call.
type Session struct {
	AttemptID     uint `json:"attempt_id"`
	QuestionCount int  `json:"question_count"`
	DurationSec   int  `json:"duration_sec"`
}

// Results is the locally computed outcome shown once the attempt is terminal.
// The backend score from GetAttemptByID is authoritative.
type Results struct {
	AttemptID    uint   `json:"attempt_id"`
	Status       State  `json:"status"`
	Reason       Reason `json:"reason"`
	TimeSpentSec int    `json:"time_spent_sec"`
	scoring.Summary

	// Warning is set when the finalize request failed.
	Warning error `json:"-"`
}

// Machine owns the lifecycle of one attempt. It is safe for concurrent use.
type Machine struct {
	mu sync.Mutex

	backend Backend
	logger  *slog.Logger

	clockOpts   []ClockOption
	saveTimeout time.Duration
	onWarning   func(error)
	onFinalized func(Results)

	state     State
	attemptID uint
	userID    string
	target    Target
	duration  int

	questions []models.Question
	index     map[uint]int
	cursor    int

	clock  *Clock
	ledger *Ledger
	queue  *syncQueue

	results   *Results
	finalized chan struct{}
}

type Option func(*Machine)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) { m.logger = logger }
}

// WithClockOptions configures the attempt clock, e.g. ManualClock for tests.
func WithClockOptions(opts ...ClockOption) Option {
	return func(m *Machine) { m.clockOpts = append(m.clockOpts, opts...) }
}

// WithSaveTimeout bounds each background answer save.
func WithSaveTimeout(d time.Duration) Option {
	return func(m *Machine) { m.saveTimeout = d }
}

// OnWarning receives recoverable errors (AnswerPersistError,
// SubmitPersistError). It runs on a background goroutine.
func OnWarning(fn func(error)) Option {
	return func(m *Machine) { m.onWarning = fn }
}

// OnFinalized receives the results after every terminal transition,
// including the one forced by the clock.
func OnFinalized(fn func(Results)) Option {
	return func(m *Machine) { m.onFinalized = fn }
}

func NewMachine(backend Backend, opts ...Option) *Machine {
	m := &Machine{
		backend:     backend,
		logger:      slog.Default(),
		saveTimeout: defaultSaveTimeout,
		state:       StateNotStarted,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ===== LIFECYCLE =====

// Start checks the entitlement, resolves the question list, creates the
// attempt on the backend and starts the clock. On failure the machine stays
// NOT_STARTED so Start can be retried.
func (m *Machine) Start(ctx context.Context, target Target, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateNotStarted {
		return nil, &InvalidTransitionError{Op: "start", State: m.state, AttemptID: m.attemptID}
	}
	if err := target.validate(); err != nil {
		return nil, &AttemptStartError{Reason: StartInvalidTarget, Err: err}
	}

	m.logger.Info("Starting attempt", "user_id", userID, "test_id", target.TestID, "battery_id", target.BatteryID)

	entitled, err := m.isEntitled(ctx, target, userID)
	if err != nil {
		return nil, &AttemptStartError{Reason: StartNetwork, Err: err}
	}
	if !entitled {
		return nil, &AttemptStartError{Reason: StartNoEntitlement}
	}

	resolved, err := m.resolve(ctx, target)
	if err != nil {
		return nil, &AttemptStartError{Reason: StartNetwork, Err: err}
	}
	if len(resolved.questions) == 0 {
		return nil, &AttemptStartError{Reason: StartNoQuestions}
	}

	resp, err := m.backend.StartAttempt(ctx, StartAttemptRequest{
		TestID:       resolved.testID,
		BatteryID:    target.BatteryID,
		AssignmentID: target.AssignmentID,
		UserID:       userID,
		DurationSec:  resolved.durationSec,
	})
	if err != nil {
		return nil, &AttemptStartError{Reason: StartNetwork, Err: err}
	}

	m.attemptID = resp.AttemptID
	m.userID = userID
	m.target = target
	m.duration = resolved.durationSec
	m.questions = resolved.questions
	m.index = make(map[uint]int, len(resolved.questions))
	for i, q := range resolved.questions {
		m.index[q.ID] = i
	}
	m.cursor = 0
	m.ledger = NewLedger(m.scheduleSave)
	m.queue = newSyncQueue()
	m.clock = NewClock(m.expire, m.clockOpts...)
	m.state = StateInProgress
	m.clock.Start(resolved.durationSec)

	m.logger.Info("Attempt started",
		"attempt_id", m.attemptID,
		"question_count", len(m.questions),
		"duration_sec", m.duration)

	return &Session{
		AttemptID:     m.attemptID,
		QuestionCount: len(m.questions),
		DurationSec:   m.duration,
	}, nil
}

// Answer records one option click and schedules a background save.
func (m *Machine) Answer(attemptID, questionID, optionID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireActive("answer", attemptID); err != nil {
		return err
	}
	idx, ok := m.index[questionID]
	if !ok {
		return fmt.Errorf("question %d: %w", questionID, ErrUnknownQuestion)
	}
	q := &m.questions[idx]
	if !q.HasOption(optionID) {
		return fmt.Errorf("option %d on question %d: %w", optionID, questionID, ErrUnknownOption)
	}

	_, err := m.ledger.Select(questionID, optionID, q.Mode)
	return err
}

// Advance moves the cursor by one, clamped to the question list. Moving
// forward first saves the current question's selection, if any.
func (m *Machine) Advance(attemptID uint, dir Direction) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireActive("advance", attemptID); err != nil {
		return m.cursor, err
	}

	current := m.questions[m.cursor].ID
	if dir == Forward && m.ledger.IsAnswered(current) {
		m.flushLocked(current)
	}

	next := m.cursor
	switch {
	case dir > 0:
		next++
	case dir < 0:
		next--
	}
	if next < 0 {
		next = 0
	}
	if next > len(m.questions)-1 {
		next = len(m.questions) - 1
	}
	if next != m.cursor {
		m.cursor = next
		m.clock.ResetQuestion()
	}
	return m.cursor, nil
}

// Submit finalizes the attempt. The terminal state is visible before the
// finalize request completes, and it is reached even if that request fails.
// Calling Submit on a terminal attempt does nothing and returns the existing
// results.
func (m *Machine) Submit(ctx context.Context, attemptID uint, reason Reason) (*Results, error) {
	m.mu.Lock()
	if m.state == StateNotStarted {
		defer m.mu.Unlock()
		return nil, &InvalidTransitionError{Op: "submit", State: m.state}
	}
	if attemptID != m.attemptID {
		defer m.mu.Unlock()
		return nil, &InvalidTransitionError{Op: "submit", State: m.state, AttemptID: attemptID}
	}
	return m.finalize(ctx, reason)
}

// finalize is entered with m.mu held and releases it.
func (m *Machine) finalize(ctx context.Context, reason Reason) (*Results, error) {
	if m.state.IsTerminal() {
		done := m.finalized
		m.mu.Unlock()
		return m.awaitResults(ctx, done)
	}

	m.clock.Stop()
	current := m.questions[m.cursor].ID
	if m.ledger.IsAnswered(current) && m.clock.ElapsedForCurrentQuestion() > 0 {
		m.flushLocked(current)
	}

	if reason == ReasonTimeout {
		m.state = StateExpired
	} else {
		reason = ReasonManual
		m.state = StateSubmitted
	}
	m.finalized = make(chan struct{})

	timeSpent := m.clock.Elapsed()
	summary := scoring.EvaluateAll(m.questions, m.ledger.Snapshot())
	m.results = &Results{
		AttemptID:    m.attemptID,
		Status:       m.state,
		Reason:       reason,
		TimeSpentSec: timeSpent,
		Summary:      summary,
	}
	attemptID := m.attemptID
	queue := m.queue
	done := m.finalized
	m.mu.Unlock()

	m.logger.Info("Finalizing attempt",
		"attempt_id", attemptID,
		"reason", reason,
		"time_spent_sec", timeSpent,
		"correct_count", summary.CorrectCount,
		"question_count", summary.QuestionCount)

	var warning error
	if err := queue.drain(ctx); err != nil {
		m.logger.Warn("Pending answer saves did not finish before submit", "attempt_id", attemptID, "error", err)
	}
	queue.close()

	err := m.backend.SubmitAttempt(ctx, SubmitAttemptRequest{
		AttemptID:         attemptID,
		FinalTimeSpentSec: timeSpent,
		Reason:            reason,
	})
	if err != nil {
		warning = &SubmitPersistError{AttemptID: attemptID, Err: err}
		m.logger.Error("Failed to submit attempt", "attempt_id", attemptID, "error", err)
	}

	m.mu.Lock()
	m.results.Warning = warning
	res := *m.results
	close(done)
	m.mu.Unlock()

	if warning != nil {
		m.warn(warning)
	}
	if m.onFinalized != nil {
		m.onFinalized(res)
	}
	return &res, nil
}

func (m *Machine) awaitResults(ctx context.Context, done <-chan struct{}) (*Results, error) {
	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	res := *m.results
	return &res, nil
}

// expire is the clock's onExpire callback.
func (m *Machine) expire() {
	m.mu.Lock()
	if m.state != StateInProgress {
		m.mu.Unlock()
		return
	}
	m.logger.Info("Attempt time is up", "attempt_id", m.attemptID)
	if _, err := m.finalize(context.Background(), ReasonTimeout); err != nil {
		m.logger.Error("Failed to finalize expired attempt", "error", err)
	}
}

// ===== ACCESSORS =====

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) AttemptID() uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attemptID
}

// Clock exposes the attempt clock, nil before Start.
func (m *Machine) Clock() *Clock {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock
}

// Questions returns the resolved question list in presentation order.
func (m *Machine) Questions() []models.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Question, len(m.questions))
	copy(out, m.questions)
	return out
}

// Selected returns the ledger selection for questionID.
func (m *Machine) Selected(questionID uint) []uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ledger == nil {
		return nil
	}
	return m.ledger.Selected(questionID)
}

// Results returns the terminal results, nil while the attempt is open.
func (m *Machine) Results() *Results {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.results == nil {
		return nil
	}
	res := *m.results
	return &res
}

// ===== INTERNALS =====

func (m *Machine) requireActive(op string, attemptID uint) error {
	if m.state != StateInProgress || attemptID != m.attemptID {
		return &InvalidTransitionError{Op: op, State: m.state, AttemptID: attemptID}
	}
	return nil
}

// scheduleSave is the ledger's change hook. Called with m.mu held.
func (m *Machine) scheduleSave(questionID uint, selected []uint) {
	m.pushSave(questionID, selected, m.clock.ResetQuestion())
}

// flushLocked saves the current selection of questionID with the time spent
// since the last save.
func (m *Machine) flushLocked(questionID uint) {
	m.pushSave(questionID, m.ledger.Selected(questionID), m.clock.ResetQuestion())
}

func (m *Machine) pushSave(questionID uint, selected []uint, increment int) {
	req := SaveAnswerRequest{
		AttemptID:             m.attemptID,
		QuestionID:            questionID,
		UserID:                m.userID,
		SelectedOptionIDs:     selected,
		TimeSpentIncrementSec: increment,
	}
	m.queue.push(func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.saveTimeout)
		defer cancel()
		if err := m.backend.SaveAnswer(ctx, req); err != nil {
			perr := &AnswerPersistError{AttemptID: req.AttemptID, QuestionID: req.QuestionID, Err: err}
			m.logger.Warn("Failed to save answer", "attempt_id", req.AttemptID, "question_id", req.QuestionID, "error", err)
			m.warn(perr)
		}
	})
}

func (m *Machine) warn(err error) {
	if m.onWarning != nil {
		m.onWarning(err)
	}
}
