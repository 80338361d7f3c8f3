package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"quickchallenge/internal/app"
	"quickchallenge/internal/domain"
	"github.com/gorilla/mux"
)

// Handlers is the thin REST surface around the core: quiz/question CRUD for
// hosts, join and results for participants. Heavy lifting stays in app.
type Handlers struct {
	service *app.QuizService
	ws      *WSHandler
	auth    HostAuth
}

func NewHandlers(service *app.QuizService, ws *WSHandler, auth HostAuth) *Handlers {
	return &Handlers{service: service, ws: ws, auth: auth}
}

// Router builds the HTTP routing table.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	r.HandleFunc("/ws", h.ws.ServeWS)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/quizzes", h.createQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quizzes", h.listQuizzes).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/code/{accessCode}", h.getQuizByCode).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/code/{accessCode}/join", h.joinQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id:[0-9]+}", h.getQuiz).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{id:[0-9]+}", h.endQuiz).Methods(http.MethodDelete)
	api.HandleFunc("/quizzes/{id:[0-9]+}/questions", h.createQuestion).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id:[0-9]+}/questions", h.listQuestions).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{id:[0-9]+}/results", h.listResults).Methods(http.MethodGet)
	return r
}

type createQuizRequest struct {
	Title       string    `json:"title"`
	Subject     string    `json:"subject"`
	Section     string    `json:"section"`
	GameMode    string    `json:"gameMode"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	PrizesCount int       `json:"prizesCount"`
}

func (h *Handlers) createQuiz(w http.ResponseWriter, r *http.Request) {
	hostID, ok := h.auth.HostID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	quiz, err := h.service.CreateQuiz(r.Context(), domain.Quiz{
		HostID:      hostID,
		Title:       req.Title,
		Subject:     req.Subject,
		Section:     req.Section,
		GameMode:    domain.GameMode(req.GameMode),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		PrizesCount: req.PrizesCount,
	})
	if err != nil {
		// CreateQuiz failures are validation problems, not lookups.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *Handlers) listQuizzes(w http.ResponseWriter, r *http.Request) {
	hostID, ok := h.auth.HostID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	quizzes, err := h.service.QuizzesByHost(r.Context(), hostID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handlers) getQuiz(w http.ResponseWriter, r *http.Request) {
	hostID, ok := h.auth.HostID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	quiz, err := h.ownQuiz(r, hostID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handlers) endQuiz(w http.ResponseWriter, r *http.Request) {
	hostID, ok := h.auth.HostID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	if _, _, _, err := h.service.EndQuiz(r.Context(), id, hostID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) getQuizByCode(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.QuizByAccessCode(r.Context(), mux.Vars(r)["accessCode"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

type joinRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (h *Handlers) joinQuiz(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	participant, quiz, err := h.service.Join(r.Context(), mux.Vars(r)["accessCode"], req.Name, req.Email)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"participant": participant,
		"quiz":        quiz,
	})
}

type createQuestionRequest struct {
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	AcceptedTexts  []string `json:"acceptedTexts"`
	CorrectIndices []int    `json:"correctIndices"`
}

func (h *Handlers) createQuestion(w http.ResponseWriter, r *http.Request) {
	hostID, ok := h.auth.HostID(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	quizID, _ := strconv.Atoi(mux.Vars(r)["id"])
	var req createQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	question, err := h.service.AddQuestion(r.Context(), hostID, domain.Question{
		QuizID:         quizID,
		Text:           req.Text,
		Options:        req.Options,
		AcceptedTexts:  req.AcceptedTexts,
		CorrectIndices: req.CorrectIndices,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, question)
	case errors.Is(err, domain.ErrQuizNotFound), errors.Is(err, domain.ErrUnauthorized):
		writeDomainError(w, err)
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

// listQuestions serves anyone; correct answers are stripped unless the
// caller is the host or the quiz has completed.
func (h *Handlers) listQuestions(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	quiz, err := h.service.QuizByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	hostID, ok := h.auth.HostID(r)
	questions, err := h.service.QuestionsForQuiz(r.Context(), quiz, ok && hostID == quiz.HostID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handlers) listResults(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	results, err := h.service.Results(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// ownQuiz loads the quiz from the id path var and checks host ownership.
// Foreign quizzes surface as not-found rather than forbidden.
func (h *Handlers) ownQuiz(r *http.Request, hostID int) (domain.Quiz, error) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	quiz, err := h.service.QuizByID(r.Context(), id)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.HostID != hostID {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrParticipantNotFound):
		writeError(w, http.StatusNotFound, clientMessage(err))
	case errors.Is(err, domain.ErrQuizInactive),
		errors.Is(err, domain.ErrAnswerAlreadySubmitted):
		writeError(w, http.StatusConflict, clientMessage(err))
	case errors.Is(err, domain.ErrInvalidAnswerFormat):
		writeError(w, http.StatusBadRequest, clientMessage(err))
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusForbidden, clientMessage(err))
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
