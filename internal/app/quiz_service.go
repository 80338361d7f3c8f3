package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"quickchallenge/internal/domain"
)

// RankedResult pairs a result row with its participant for broadcasting and
// the results endpoints.
type RankedResult struct {
	domain.Result
	Participant domain.Participant `json:"participant"`
}

// QuizService contains the live-session use cases: hosting, joining,
// answering, and ending quizzes.
type QuizService struct {
	store   Store
	now     func() time.Time
	newCode func() (string, error)
	notify  func(quiz domain.Quiz, top []RankedResult)
}

func NewQuizService(store Store) *QuizService {
	return NewQuizServiceWithClock(store, time.Now)
}

// NewQuizServiceWithClock allows deterministic timestamps in tests.
func NewQuizServiceWithClock(store Store, now func() time.Time) *QuizService {
	return &QuizService{
		store:   store,
		now:     now,
		newCode: NewAccessCode,
	}
}

// NotifyQuizEnded registers the broadcast hook invoked after a quiz's results
// are durably written. Set once during wiring, before traffic is served.
func (s *QuizService) NotifyQuizEnded(fn func(quiz domain.Quiz, top []RankedResult)) {
	s.notify = fn
}

// CreateQuiz validates the declared time window, assigns a fresh access code,
// and stores the quiz as active.
func (s *QuizService) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	if !quiz.GameMode.Valid() {
		return domain.Quiz{}, fmt.Errorf("unknown game mode %q", quiz.GameMode)
	}
	if !quiz.StartTime.Before(quiz.EndTime) {
		return domain.Quiz{}, fmt.Errorf("start time must be before end time")
	}
	if quiz.PrizesCount <= 0 {
		quiz.PrizesCount = 3
	}
	quiz.IsActive = true
	quiz.CreatedAt = s.now()

	// Access codes are unique; regenerate on the unlikely collision.
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("generate access code: %w", err)
		}
		quiz.AccessCode = domain.NormalizeAccessCode(code)
		created, err := s.store.CreateQuiz(ctx, quiz)
		if err == nil {
			return created, nil
		}
		lastErr = err
	}
	return domain.Quiz{}, fmt.Errorf("create quiz: %w", lastErr)
}

func (s *QuizService) QuizByID(ctx context.Context, id int) (domain.Quiz, error) {
	return s.store.GetQuiz(ctx, id)
}

func (s *QuizService) QuizByAccessCode(ctx context.Context, accessCode string) (domain.Quiz, error) {
	return s.store.GetQuizByAccessCode(ctx, domain.NormalizeAccessCode(accessCode))
}

func (s *QuizService) QuizzesByHost(ctx context.Context, hostID int) ([]domain.Quiz, error) {
	return s.store.QuizzesByHost(ctx, hostID)
}

// Status derives the quiz lifecycle state at the current instant. Evaluated
// per call; never cached.
func (s *QuizService) Status(quiz domain.Quiz) domain.QuizStatus {
	return domain.StatusAt(quiz, s.now())
}

// AddQuestion appends a question to a host's quiz, checking that the
// correct-answer specification matches the game mode.
func (s *QuizService) AddQuestion(ctx context.Context, hostID int, question domain.Question) (domain.Question, error) {
	quiz, err := s.store.GetQuiz(ctx, question.QuizID)
	if err != nil {
		return domain.Question{}, err
	}
	if quiz.HostID != hostID {
		return domain.Question{}, domain.ErrUnauthorized
	}
	switch quiz.GameMode {
	case domain.GameModeSingleEntry:
		if len(question.AcceptedTexts) == 0 {
			return domain.Question{}, fmt.Errorf("single_entry question needs at least one accepted answer")
		}
		question.CorrectIndices = nil
	case domain.GameModeMultiChoice:
		if len(question.Options) == 0 || len(question.CorrectIndices) == 0 {
			return domain.Question{}, fmt.Errorf("multi_choice question needs options and correct indices")
		}
		for _, idx := range question.CorrectIndices {
			if idx < 0 || idx >= len(question.Options) {
				return domain.Question{}, fmt.Errorf("correct index %d out of range", idx)
			}
		}
		question.AcceptedTexts = nil
	}
	question.CreatedAt = s.now()
	return s.store.CreateQuestion(ctx, question)
}

// QuestionsForQuiz returns the quiz's questions, stripping correct answers
// unless the requester is the host or the quiz has completed.
func (s *QuizService) QuestionsForQuiz(ctx context.Context, quiz domain.Quiz, isHost bool) ([]domain.Question, error) {
	questions, err := s.store.QuestionsByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}
	if isHost || s.Status(quiz) == domain.StatusCompleted {
		return questions, nil
	}
	sanitized := make([]domain.Question, len(questions))
	for i, q := range questions {
		sanitized[i] = q.Sanitized()
	}
	return sanitized, nil
}

// Join registers a new participant identity for the quiz behind the access
// code. Rejoining deliberately creates a fresh identity. Scheduled quizzes
// accept joins (the waiting room); completed ones do not.
func (s *QuizService) Join(ctx context.Context, accessCode, name, email string) (domain.Participant, domain.Quiz, error) {
	quiz, err := s.QuizByAccessCode(ctx, accessCode)
	if err != nil {
		return domain.Participant{}, domain.Quiz{}, err
	}
	if s.Status(quiz) == domain.StatusCompleted {
		return domain.Participant{}, domain.Quiz{}, domain.ErrQuizInactive
	}
	participant, err := s.store.CreateParticipant(ctx, domain.Participant{
		QuizID:    quiz.ID,
		Name:      name,
		Email:     email,
		CreatedAt: s.now(),
	})
	if err != nil {
		return domain.Participant{}, domain.Quiz{}, err
	}
	return participant, quiz, nil
}

// SubmitAnswer evaluates and persists one answer. The quiz must be Active by
// the clock at the moment of the call; a second submission for the same
// (participant, question) pair is rejected.
func (s *QuizService) SubmitAnswer(ctx context.Context, quizID, questionID, participantID int, sub domain.Submission) (domain.Answer, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Answer{}, err
	}
	if s.Status(quiz) != domain.StatusActive {
		return domain.Answer{}, domain.ErrQuizInactive
	}

	question, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Answer{}, err
	}
	if question.QuizID != quiz.ID {
		return domain.Answer{}, domain.ErrQuestionNotFound
	}

	participant, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return domain.Answer{}, err
	}
	if participant.QuizID != quiz.ID {
		return domain.Answer{}, domain.ErrParticipantNotFound
	}

	if dup, err := s.store.HasAnswer(ctx, participantID, questionID); err != nil {
		return domain.Answer{}, err
	} else if dup {
		return domain.Answer{}, domain.ErrAnswerAlreadySubmitted
	}

	correct, normalized, err := Evaluate(quiz.GameMode, question, sub)
	if err != nil {
		return domain.Answer{}, err
	}

	answer := domain.Answer{
		ParticipantID: participantID,
		QuestionID:    questionID,
		QuizID:        quiz.ID,
		Value:         normalized,
		IsCorrect:     correct,
		SubmittedAt:   s.now(),
	}
	saved, err := s.store.CreateAnswer(ctx, answer)
	if err != nil {
		// One transparent retry for transient persistence failures.
		saved, err = s.store.CreateAnswer(ctx, answer)
	}
	if err != nil {
		return domain.Answer{}, fmt.Errorf("persist answer: %w", err)
	}
	return saved, nil
}

// EndQuiz forces the quiz to Completed on behalf of its host and runs the
// scoring pass. The returned flag reports whether this call performed the
// flip; when false the quiz had already completed and the existing results
// are returned without re-scoring.
func (s *QuizService) EndQuiz(ctx context.Context, quizID, hostID int) (domain.Quiz, []RankedResult, bool, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, nil, false, err
	}
	if quiz.HostID != hostID {
		return domain.Quiz{}, nil, false, domain.ErrUnauthorized
	}

	ranked, flipped, err := s.finish(ctx, quiz)
	if err != nil {
		return domain.Quiz{}, nil, false, err
	}
	if !flipped {
		ranked, err = s.Results(ctx, quiz.ID)
		if err != nil {
			return domain.Quiz{}, nil, false, err
		}
	}
	quiz.IsActive = false
	return quiz, ranked, flipped, nil
}

// Results returns the stored results joined with participants, rank order.
func (s *QuizService) Results(ctx context.Context, quizID int) ([]RankedResult, error) {
	results, err := s.store.ResultsByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	participants, err := s.store.ParticipantsByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return joinResults(results, participants), nil
}

// finish flips the active latch and, if this caller won the flip, computes
// and persists results before notifying the room. The scoring pass is a pure
// function of persisted answers, so the whole pass is retried on failure
// rather than left partially applied.
func (s *QuizService) finish(ctx context.Context, quiz domain.Quiz) ([]RankedResult, bool, error) {
	flipped, err := s.store.DeactivateQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, false, err
	}
	if !flipped {
		return nil, false, nil
	}

	var ranked []RankedResult
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		ranked, lastErr = s.scoreQuiz(ctx, quiz.ID)
		if lastErr == nil {
			break
		}
		log.Printf("scoring pass for quiz %d failed (attempt %d): %v", quiz.ID, attempt+1, lastErr)
	}
	if lastErr != nil {
		return nil, true, fmt.Errorf("score quiz %d: %w", quiz.ID, lastErr)
	}

	if s.notify != nil {
		top := ranked
		if quiz.PrizesCount > 0 && quiz.PrizesCount < len(top) {
			top = top[:quiz.PrizesCount]
		}
		s.notify(quiz, top)
	}
	return ranked, true, nil
}

// scoreQuiz is the retryable body of the scoring pass: load everything,
// compute, replace the result set atomically.
func (s *QuizService) scoreQuiz(ctx context.Context, quizID int) ([]RankedResult, error) {
	answers, err := s.store.AnswersByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	participants, err := s.store.ParticipantsByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	results := ComputeResults(quizID, participants, answers, s.now())
	stored, err := s.store.ReplaceResults(ctx, quizID, results)
	if err != nil {
		return nil, err
	}
	return joinResults(stored, participants), nil
}

func joinResults(results []domain.Result, participants []domain.Participant) []RankedResult {
	byID := make(map[int]domain.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}
	ranked := make([]RankedResult, 0, len(results))
	for _, r := range results {
		ranked = append(ranked, RankedResult{Result: r, Participant: byID[r.ParticipantID]})
	}
	return ranked
}
