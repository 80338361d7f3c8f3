package domain

import "errors"

var (
	// ErrQuizNotFound is returned when no quiz matches the given id or access code.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizInactive is returned when an operation requires an Active quiz.
	ErrQuizInactive = errors.New("quiz is not active")
	// ErrQuestionNotFound indicates a submitted question id is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrParticipantNotFound indicates a participant id unknown to the quiz.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrInvalidAnswerFormat is returned for payloads that do not match the
	// quiz game mode (wrong kind, out-of-range or duplicate option indices).
	ErrInvalidAnswerFormat = errors.New("invalid answer format")
	// ErrAnswerAlreadySubmitted is returned for a repeat submission on the
	// same (participant, question) pair.
	ErrAnswerAlreadySubmitted = errors.New("answer already submitted")
	// ErrUnauthorized is returned when the caller is not the quiz host.
	ErrUnauthorized = errors.New("not authorized")
)
