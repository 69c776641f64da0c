package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz is absent or not in the expected status.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrChoiceNotFound indicates a choice ID is invalid.
	ErrChoiceNotFound = errors.New("choice not found")
	// ErrAttemptNotFound indicates the attempt does not exist.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptFinished is returned when submitting an already finished attempt.
	ErrAttemptFinished = errors.New("attempt already finished")
	// ErrAttemptPending is returned when an operation needs a finished attempt.
	ErrAttemptPending = errors.New("attempt not finished")
	// ErrQuizMismatch is returned when an attempt belongs to a different quiz.
	ErrQuizMismatch = errors.New("attempt does not belong to quiz")
	// ErrScoreAlreadySaved indicates the attempt already has a score entry.
	ErrScoreAlreadySaved = errors.New("score already saved")
	// ErrChoiceLimit is returned when a question would exceed six choices.
	ErrChoiceLimit = errors.New("maximum 6 choices allowed")
	// ErrUserNotFound indicates no local user record exists for the email.
	ErrUserNotFound = errors.New("user not found")
)
