package app

import (
	"context"

	"quickchallenge/internal/domain"
)

// Store abstracts persistence of quizzes, questions, participants, answers,
// and results (in-memory, Postgres, or a cache-fronted combination).
type Store interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	GetQuiz(ctx context.Context, id int) (domain.Quiz, error)
	GetQuizByAccessCode(ctx context.Context, accessCode string) (domain.Quiz, error)
	QuizzesByHost(ctx context.Context, hostID int) ([]domain.Quiz, error)
	ActiveQuizzes(ctx context.Context) ([]domain.Quiz, error)
	// DeactivateQuiz flips the active latch. It reports true only for the
	// caller that performed the flip, so concurrent end-of-quiz triggers
	// (host action vs clock sweep) run the scoring pass exactly once.
	DeactivateQuiz(ctx context.Context, id int) (bool, error)

	CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error)
	GetQuestion(ctx context.Context, id int) (domain.Question, error)
	QuestionsByQuiz(ctx context.Context, quizID int) ([]domain.Question, error)

	CreateParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error)
	GetParticipant(ctx context.Context, id int) (domain.Participant, error)
	ParticipantsByQuiz(ctx context.Context, quizID int) ([]domain.Participant, error)

	CreateAnswer(ctx context.Context, answer domain.Answer) (domain.Answer, error)
	AnswersByQuiz(ctx context.Context, quizID int) ([]domain.Answer, error)
	HasAnswer(ctx context.Context, participantID, questionID int) (bool, error)

	// ReplaceResults atomically swaps the result set for a quiz, keeping the
	// scoring pass idempotent under retries.
	ReplaceResults(ctx context.Context, quizID int, results []domain.Result) ([]domain.Result, error)
	ResultsByQuiz(ctx context.Context, quizID int) ([]domain.Result, error)
}
