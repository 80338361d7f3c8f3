package domain

import (
	"strings"
	"time"
)

// GameMode selects how answers are evaluated.
type GameMode string

const (
	// GameModeSingleEntry scores free-text answers by case-insensitive
	// membership in the question's accepted strings.
	GameModeSingleEntry GameMode = "single_entry"
	// GameModeMultiChoice scores option-index sets by exact set equality.
	GameModeMultiChoice GameMode = "multi_choice"
)

// Valid reports whether the mode is one of the known game modes.
func (m GameMode) Valid() bool {
	return m == GameModeSingleEntry || m == GameModeMultiChoice
}

// Quiz is one timed question set joined via an access code.
type Quiz struct {
	ID          int       `json:"id"`
	HostID      int       `json:"hostId"`
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	Section     string    `json:"section"`
	GameMode    GameMode  `json:"gameMode"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	PrizesCount int       `json:"prizesCount"`
	AccessCode  string    `json:"accessCode"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Question belongs to a quiz and is immutable after creation.
// AcceptedTexts is populated for single_entry quizzes, CorrectIndices for
// multi_choice quizzes; the other field stays empty.
type Question struct {
	ID             int       `json:"id"`
	QuizID         int       `json:"quizId"`
	Text           string    `json:"text"`
	Options        []string  `json:"options"`
	AcceptedTexts  []string  `json:"acceptedTexts,omitempty"`
	CorrectIndices []int     `json:"correctIndices,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Sanitized returns a copy with the correct-answer fields stripped, for
// sending to participants while the quiz is still running.
func (q Question) Sanitized() Question {
	q.AcceptedTexts = nil
	q.CorrectIndices = nil
	return q
}

// Participant is one join of a quiz. Rejoining creates a new row; names are
// not deduplicated.
type Participant struct {
	ID        int       `json:"id"`
	QuizID    int       `json:"quizId"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Answer records one accepted submission with correctness decided at
// submission time.
type Answer struct {
	ID            int        `json:"id"`
	ParticipantID int        `json:"participantId"`
	QuestionID    int        `json:"questionId"`
	QuizID        int        `json:"quizId"`
	Value         Submission `json:"answer"`
	IsCorrect     bool       `json:"isCorrect"`
	SubmittedAt   time.Time  `json:"submittedAt"`
}

// Result is the final per-participant score/rank row, written once per quiz
// after it completes.
type Result struct {
	ID            int       `json:"id"`
	QuizID        int       `json:"quizId"`
	ParticipantID int       `json:"participantId"`
	Score         int       `json:"score"`
	TimeTaken     int       `json:"timeTaken"` // whole seconds between first and last answer
	Rank          int       `json:"rank"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NormalizeAccessCode upper-cases and trims a code so lookups are
// case-insensitive everywhere.
func NormalizeAccessCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
