package engine

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownQuestion = errors.New("question is not part of this attempt")
	ErrUnknownOption   = errors.New("option does not belong to question")
	ErrInvalidTarget   = errors.New("exactly one of test or battery must be set")
)

type StartFailure string

const (
	StartNoEntitlement StartFailure = "no_entitlement"
	StartNoQuestions   StartFailure = "no_questions"
	StartNetwork       StartFailure = "network"
	StartInvalidTarget StartFailure = "invalid_target"
)

// AttemptStartError is fatal to the flow: no attempt exists and the caller
// should go back to test selection. Network failures can be retried.
type AttemptStartError struct {
	Reason StartFailure
	Err    error
}

func (e *AttemptStartError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot start attempt (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot start attempt (%s)", e.Reason)
}

func (e *AttemptStartError) Unwrap() error { return e.Err }

// Retryable reports whether calling Start again may succeed.
func (e *AttemptStartError) Retryable() bool {
	return e.Reason == StartNetwork
}

// AnswerPersistError is a best-effort save that did not reach the backend.
// The local ledger keeps the selection.
type AnswerPersistError struct {
	AttemptID  uint
	QuestionID uint
	Err        error
}

func (e *AnswerPersistError) Error() string {
	return fmt.Sprintf("failed to save answer for question %d of attempt %d: %v", e.QuestionID, e.AttemptID, e.Err)
}

func (e *AnswerPersistError) Unwrap() error { return e.Err }

// SubmitPersistError means the finalize request failed. Local results are
// still shown.
type SubmitPersistError struct {
	AttemptID uint
	Err       error
}

func (e *SubmitPersistError) Error() string {
	return fmt.Sprintf("submission of attempt %d may not be recorded, contact support: %v", e.AttemptID, e.Err)
}

func (e *SubmitPersistError) Unwrap() error { return e.Err }

// InvalidTransitionError is a programming error: an operation was called in a
// state that does not allow it, or with a foreign attempt id.
type InvalidTransitionError struct {
	Op        string
	State     State
	AttemptID uint
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s in state %s (attempt %d)", e.Op, e.State, e.AttemptID)
}

func IsStartError(err error) bool {
	var se *AttemptStartError
	return errors.As(err, &se)
}

func IsInvalidTransition(err error) bool {
	var ite *InvalidTransitionError
	return errors.As(err, &ite)
}
