package http

import (
	"encoding/json"
	"errors"

	"quickchallenge/internal/app"
	"quickchallenge/internal/domain"
)

// Message type discriminators, inbound and outbound.
const (
	MsgJoinQuiz          = "JOIN_QUIZ"
	MsgQuizJoined        = "QUIZ_JOINED"
	MsgParticipantJoined = "PARTICIPANT_JOINED"
	MsgSubmitAnswer      = "SUBMIT_ANSWER"
	MsgAnswerSubmitted   = "ANSWER_SUBMITTED"
	MsgEndQuiz           = "END_QUIZ"
	MsgQuizEnded         = "QUIZ_ENDED"
	MsgPing              = "PING"
	MsgPong              = "PONG"
	MsgError             = "ERROR"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type joinQuizPayload struct {
	AccessCode    string `json:"accessCode"`
	ParticipantID int    `json:"participantId"`
}

type quizJoinedPayload struct {
	Quiz          domain.Quiz       `json:"quiz"`
	Questions     []domain.Question `json:"questions"`
	ParticipantID int               `json:"participantId"`
}

type participantJoinedPayload struct {
	ParticipantID int `json:"participantId"`
}

type submitAnswerPayload struct {
	Answer        domain.Submission `json:"answer"`
	QuestionID    int               `json:"questionId"`
	QuizID        int               `json:"quizId"`
	ParticipantID int               `json:"participantId"`
}

type answerSubmittedPayload struct {
	AnswerID  int  `json:"answerId"`
	IsCorrect bool `json:"isCorrect"`
}

type endQuizPayload struct {
	QuizID int `json:"quizId"`
}

type quizEndedPayload struct {
	Results []app.RankedResult `json:"results"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMsg(message string) outboundMessage[errorPayload] {
	return outboundMessage[errorPayload]{Type: MsgError, Payload: errorPayload{Message: message}}
}

// clientMessage maps domain errors to the stable wire strings clients match
// on. Unknown errors get a generic message so internals never leak.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		return "Quiz not found"
	case errors.Is(err, domain.ErrQuizInactive):
		return "Quiz is not active"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return "Question not found"
	case errors.Is(err, domain.ErrParticipantNotFound):
		return "Participant not found"
	case errors.Is(err, domain.ErrInvalidAnswerFormat):
		return "Invalid answer format"
	case errors.Is(err, domain.ErrAnswerAlreadySubmitted):
		return "Answer already submitted"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Not authorized"
	default:
		return "Failed to process message"
	}
}
