package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"quickchallenge/internal/app"
	"quickchallenge/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler upgrades connections and dispatches the session protocol:
// JOIN_QUIZ, SUBMIT_ANSWER, END_QUIZ, PING. Every failure becomes an ERROR
// unicast to the sender; nothing short of a dead socket ends the loop.
type WSHandler struct {
	service  *app.QuizService
	rooms    *Rooms
	auth     HostAuth
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, rooms *Rooms, auth HostAuth) *WSHandler {
	return &WSHandler{
		service: service,
		rooms:   rooms,
		auth:    auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// QuizEndedNotifier builds the broadcast hook the service invokes after a
// quiz's results are durably written.
func QuizEndedNotifier(rooms *Rooms) func(quiz domain.Quiz, top []app.RankedResult) {
	return func(quiz domain.Quiz, top []app.RankedResult) {
		rooms.Broadcast(quiz.AccessCode, outboundMessage[quizEndedPayload]{
			Type:    MsgQuizEnded,
			Payload: quizEndedPayload{Results: top},
		}, nil)
	}
}

// connState is the per-connection identity the dispatcher accumulates.
type connState struct {
	hostID        int
	isHost        bool
	accessCode    string
	participantID int
}

// ServeWS runs the read loop for one connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	st := &connState{}
	if h.auth != nil {
		st.hostID, st.isHost = h.auth.HostID(r)
	}

	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	conn := newWSConn(raw)
	defer func() {
		h.rooms.Leave(conn)
		_ = conn.Close()
	}()

	raw.SetReadLimit(maxMessageSize)
	_ = raw.SetReadDeadline(time.Now().Add(pongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := r.Context()
	for {
		_, data, err := raw.ReadMessage()
		if err != nil {
			return
		}
		_ = raw.SetReadDeadline(time.Now().Add(pongWait))

		var inbound inboundMessage
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.rooms.Unicast(conn, errorMsg("Invalid message format"))
			continue
		}

		switch inbound.Type {
		case MsgJoinQuiz:
			h.handleJoin(ctx, st, conn, inbound.Payload)
		case MsgSubmitAnswer:
			h.handleSubmitAnswer(ctx, st, conn, inbound.Payload)
		case MsgEndQuiz:
			h.handleEndQuiz(ctx, st, conn, inbound.Payload)
		case MsgPing:
			h.rooms.Unicast(conn, outboundMessage[struct{}]{Type: MsgPong, Payload: struct{}{}})
		default:
			h.rooms.Unicast(conn, errorMsg("Unsupported message type"))
		}
	}
}

func (h *WSHandler) handleJoin(ctx context.Context, st *connState, conn Conn, payload json.RawMessage) {
	var join joinQuizPayload
	if err := json.Unmarshal(payload, &join); err != nil {
		h.rooms.Unicast(conn, errorMsg("Invalid message format"))
		return
	}

	quiz, err := h.service.QuizByAccessCode(ctx, join.AccessCode)
	if err != nil {
		h.rooms.Unicast(conn, errorMsg(clientMessage(err)))
		return
	}
	if h.service.Status(quiz) == domain.StatusCompleted {
		h.rooms.Unicast(conn, errorMsg(clientMessage(domain.ErrQuizInactive)))
		return
	}

	isOwner := st.isHost && st.hostID == quiz.HostID
	questions, err := h.service.QuestionsForQuiz(ctx, quiz, isOwner)
	if err != nil {
		h.rooms.Unicast(conn, errorMsg(clientMessage(err)))
		return
	}

	h.rooms.Join(quiz.AccessCode, conn)
	st.accessCode = quiz.AccessCode
	st.participantID = join.ParticipantID

	h.rooms.Unicast(conn, outboundMessage[quizJoinedPayload]{
		Type: MsgQuizJoined,
		Payload: quizJoinedPayload{
			Quiz:          quiz,
			Questions:     questions,
			ParticipantID: join.ParticipantID,
		},
	})
	h.rooms.Broadcast(quiz.AccessCode, outboundMessage[participantJoinedPayload]{
		Type:    MsgParticipantJoined,
		Payload: participantJoinedPayload{ParticipantID: join.ParticipantID},
	}, conn)
}

func (h *WSHandler) handleSubmitAnswer(ctx context.Context, st *connState, conn Conn, payload json.RawMessage) {
	var submit submitAnswerPayload
	if err := json.Unmarshal(payload, &submit); err != nil {
		h.rooms.Unicast(conn, errorMsg(clientMessage(domain.ErrInvalidAnswerFormat)))
		return
	}

	answer, err := h.service.SubmitAnswer(ctx, submit.QuizID, submit.QuestionID, submit.ParticipantID, submit.Answer)
	if err != nil {
		h.rooms.Unicast(conn, errorMsg(clientMessage(err)))
		return
	}

	// Correctness goes to the submitter only; the room never sees it.
	h.rooms.Unicast(conn, outboundMessage[answerSubmittedPayload]{
		Type:    MsgAnswerSubmitted,
		Payload: answerSubmittedPayload{AnswerID: answer.ID, IsCorrect: answer.IsCorrect},
	})
}

func (h *WSHandler) handleEndQuiz(ctx context.Context, st *connState, conn Conn, payload json.RawMessage) {
	if !st.isHost {
		h.rooms.Unicast(conn, errorMsg(clientMessage(domain.ErrUnauthorized)))
		return
	}
	var end endQuizPayload
	if err := json.Unmarshal(payload, &end); err != nil {
		h.rooms.Unicast(conn, errorMsg("Invalid message format"))
		return
	}

	quiz, ranked, flipped, err := h.service.EndQuiz(ctx, end.QuizID, st.hostID)
	if err != nil {
		h.rooms.Unicast(conn, errorMsg(clientMessage(err)))
		return
	}

	top := ranked
	if quiz.PrizesCount > 0 && quiz.PrizesCount < len(top) {
		top = top[:quiz.PrizesCount]
	}
	// The flip triggers the room broadcast through the service's notifier;
	// answer directly only when the caller would otherwise hear nothing.
	if !flipped || !h.rooms.Contains(quiz.AccessCode, conn) {
		h.rooms.Unicast(conn, outboundMessage[quizEndedPayload]{
			Type:    MsgQuizEnded,
			Payload: quizEndedPayload{Results: top},
		})
	}
}
