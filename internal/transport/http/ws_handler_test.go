package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quickchallenge/internal/app"
	"quickchallenge/internal/domain"
	"quickchallenge/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*app.QuizService, *httptest.Server) {
	t.Helper()
	service := app.NewQuizService(memory.NewStore())
	rooms := NewRooms()
	service.NotifyQuizEnded(QuizEndedNotifier(rooms))
	ws := NewWSHandler(service, rooms, HeaderHostAuth{})
	server := httptest.NewServer(NewHandlers(service, ws, HeaderHostAuth{}).Router())
	t.Cleanup(server.Close)
	return service, server
}

func seedQuiz(t *testing.T, service *app.QuizService) (domain.Quiz, domain.Question) {
	t.Helper()
	ctx := context.Background()
	quiz, err := service.CreateQuiz(ctx, domain.Quiz{
		HostID:    1,
		Title:     "Live round",
		GameMode:  domain.GameModeMultiChoice,
		StartTime: time.Now().Add(-time.Minute),
		EndTime:   time.Now().Add(30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	question, err := service.AddQuestion(ctx, 1, domain.Question{
		QuizID:         quiz.ID,
		Text:           "Pick b",
		Options:        []string{"a", "b", "c"},
		CorrectIndices: []int{1},
	})
	if err != nil {
		t.Fatalf("add question: %v", err)
	}
	return quiz, question
}

func dialWS(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readNext(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg inboundMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg.Type, msg.Payload
}

func joinRoom(t *testing.T, conn *websocket.Conn, accessCode string, participantID int) quizJoinedPayload {
	t.Helper()
	send(t, conn, MsgJoinQuiz, map[string]any{"accessCode": accessCode, "participantId": participantID})
	msgType, payload := readNext(t, conn)
	if msgType != MsgQuizJoined {
		t.Fatalf("expected %s, got %s (%s)", MsgQuizJoined, msgType, payload)
	}
	var joined quizJoinedPayload
	if err := json.Unmarshal(payload, &joined); err != nil {
		t.Fatalf("decode joined payload: %v", err)
	}
	return joined
}

func TestJoinQuizHidesAnswersFromParticipants(t *testing.T) {
	service, server := newTestServer(t)
	quiz, _ := seedQuiz(t, service)

	conn := dialWS(t, server, "")
	joined := joinRoom(t, conn, quiz.AccessCode, 0)

	if joined.Quiz.ID != quiz.ID {
		t.Fatalf("expected quiz %d, got %d", quiz.ID, joined.Quiz.ID)
	}
	if len(joined.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(joined.Questions))
	}
	if len(joined.Questions[0].CorrectIndices) != 0 {
		t.Fatalf("expected correct indices hidden from participant")
	}

	// The host sees full questions on the same message.
	hostConn := dialWS(t, server, "?hostId=1")
	hostJoined := joinRoom(t, hostConn, quiz.AccessCode, 0)
	if len(hostJoined.Questions[0].CorrectIndices) == 0 {
		t.Fatalf("expected host to receive correct indices")
	}
}

func TestParticipantJoinedBroadcastExcludesJoiner(t *testing.T) {
	service, server := newTestServer(t)
	quiz, _ := seedQuiz(t, service)

	first := dialWS(t, server, "")
	joinRoom(t, first, quiz.AccessCode, 11)

	second := dialWS(t, server, "")
	joinRoom(t, second, quiz.AccessCode, 22)

	msgType, payload := readNext(t, first)
	if msgType != MsgParticipantJoined {
		t.Fatalf("expected %s on existing connection, got %s", MsgParticipantJoined, msgType)
	}
	var note participantJoinedPayload
	if err := json.Unmarshal(payload, &note); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if note.ParticipantID != 22 {
		t.Fatalf("expected participant 22, got %d", note.ParticipantID)
	}
}

func TestSubmitAnswerOverSocket(t *testing.T) {
	service, server := newTestServer(t)
	quiz, question := seedQuiz(t, service)

	participant, _, err := service.Join(context.Background(), quiz.AccessCode, "Ann", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	conn := dialWS(t, server, "")
	joinRoom(t, conn, quiz.AccessCode, participant.ID)

	send(t, conn, MsgSubmitAnswer, map[string]any{
		"quizId":        quiz.ID,
		"questionId":    question.ID,
		"participantId": participant.ID,
		"answer":        []int{1},
	})
	msgType, payload := readNext(t, conn)
	if msgType != MsgAnswerSubmitted {
		t.Fatalf("expected %s, got %s (%s)", MsgAnswerSubmitted, msgType, payload)
	}
	var ack answerSubmittedPayload
	if err := json.Unmarshal(payload, &ack); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !ack.IsCorrect {
		t.Fatalf("expected correct answer acknowledged")
	}

	// A second submission for the same question is refused.
	send(t, conn, MsgSubmitAnswer, map[string]any{
		"quizId":        quiz.ID,
		"questionId":    question.ID,
		"participantId": participant.ID,
		"answer":        []int{0},
	})
	msgType, payload = readNext(t, conn)
	if msgType != MsgError {
		t.Fatalf("expected %s, got %s", MsgError, msgType)
	}
	var errPayload errorPayload
	if err := json.Unmarshal(payload, &errPayload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if errPayload.Message != "Answer already submitted" {
		t.Fatalf("unexpected error message %q", errPayload.Message)
	}
}

func TestHostEndQuizBroadcastsResults(t *testing.T) {
	service, server := newTestServer(t)
	quiz, question := seedQuiz(t, service)

	participant, _, err := service.Join(context.Background(), quiz.AccessCode, "Ann", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.SubmitAnswer(context.Background(), quiz.ID, question.ID, participant.ID, domain.ChoiceSubmission(1)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	playerConn := dialWS(t, server, "")
	joinRoom(t, playerConn, quiz.AccessCode, participant.ID)

	hostConn := dialWS(t, server, "?hostId=1")
	joinRoom(t, hostConn, quiz.AccessCode, 0)

	// The host joining announces itself to the player.
	if msgType, _ := readNext(t, playerConn); msgType != MsgParticipantJoined {
		t.Fatalf("expected %s, got %s", MsgParticipantJoined, msgType)
	}

	send(t, hostConn, MsgEndQuiz, map[string]any{"quizId": quiz.ID})

	for _, conn := range []*websocket.Conn{hostConn, playerConn} {
		msgType, payload := readNext(t, conn)
		if msgType != MsgQuizEnded {
			t.Fatalf("expected %s, got %s (%s)", MsgQuizEnded, msgType, payload)
		}
		var ended quizEndedPayload
		if err := json.Unmarshal(payload, &ended); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if len(ended.Results) != 1 || ended.Results[0].Score != 1 || ended.Results[0].Rank != 1 {
			t.Fatalf("unexpected results %+v", ended.Results)
		}
	}
}

func TestEndQuizFromNonHostRejected(t *testing.T) {
	service, server := newTestServer(t)
	quiz, _ := seedQuiz(t, service)

	conn := dialWS(t, server, "")
	joinRoom(t, conn, quiz.AccessCode, 0)

	send(t, conn, MsgEndQuiz, map[string]any{"quizId": quiz.ID})
	msgType, payload := readNext(t, conn)
	if msgType != MsgError {
		t.Fatalf("expected %s, got %s", MsgError, msgType)
	}
	var errPayload errorPayload
	_ = json.Unmarshal(payload, &errPayload)
	if errPayload.Message != "Not authorized" {
		t.Fatalf("unexpected error message %q", errPayload.Message)
	}
}

func TestMalformedMessageDoesNotDisconnect(t *testing.T) {
	_, server := newTestServer(t)

	conn := dialWS(t, server, "")
	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json at all")); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	if msgType, _ := readNext(t, conn); msgType != MsgError {
		t.Fatalf("expected %s for malformed input, got %s", MsgError, msgType)
	}

	// The connection is still serviceable afterwards.
	send(t, conn, MsgPing, struct{}{})
	if msgType, _ := readNext(t, conn); msgType != MsgPong {
		t.Fatalf("expected %s after recovery, got %s", MsgPong, msgType)
	}
}

func TestUnknownMessageTypeAnswered(t *testing.T) {
	_, server := newTestServer(t)

	conn := dialWS(t, server, "")
	send(t, conn, "SHOUT", struct{}{})
	msgType, payload := readNext(t, conn)
	if msgType != MsgError {
		t.Fatalf("expected %s, got %s", MsgError, msgType)
	}
	var errPayload errorPayload
	_ = json.Unmarshal(payload, &errPayload)
	if errPayload.Message != "Unsupported message type" {
		t.Fatalf("unexpected error message %q", errPayload.Message)
	}
}

func TestJoinUnknownAccessCode(t *testing.T) {
	_, server := newTestServer(t)

	conn := dialWS(t, server, "")
	send(t, conn, MsgJoinQuiz, map[string]any{"accessCode": "NOPE42"})
	msgType, payload := readNext(t, conn)
	if msgType != MsgError {
		t.Fatalf("expected %s, got %s", MsgError, msgType)
	}
	var errPayload errorPayload
	_ = json.Unmarshal(payload, &errPayload)
	if errPayload.Message != "Quiz not found" {
		t.Fatalf("unexpected error message %q", errPayload.Message)
	}
}
