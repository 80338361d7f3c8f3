package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"quickchallenge/internal/app"
	"quickchallenge/internal/domain"
)

// Store is an in-memory implementation of app.Store, used for unit tests and
// for running the service without Postgres.
type Store struct {
	mu           sync.RWMutex
	quizzes      map[int]domain.Quiz
	byAccessCode map[string]int
	questions    map[int]domain.Question
	participants map[int]domain.Participant
	answers      map[int]domain.Answer
	results      map[int]domain.Result
	nextID       int
}

var _ app.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		quizzes:      make(map[int]domain.Quiz),
		byAccessCode: make(map[string]int),
		questions:    make(map[int]domain.Question),
		participants: make(map[int]domain.Participant),
		answers:      make(map[int]domain.Answer),
		results:      make(map[int]domain.Result),
	}
}

func (s *Store) nextIDLocked() int {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byAccessCode[quiz.AccessCode]; taken {
		return domain.Quiz{}, fmt.Errorf("access code %s already in use", quiz.AccessCode)
	}
	quiz.ID = s.nextIDLocked()
	s.quizzes[quiz.ID] = quiz
	s.byAccessCode[quiz.AccessCode] = quiz.ID
	return quiz, nil
}

func (s *Store) GetQuiz(_ context.Context, id int) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) GetQuizByAccessCode(_ context.Context, accessCode string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byAccessCode[domain.NormalizeAccessCode(accessCode)]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.quizzes[id], nil
}

func (s *Store) QuizzesByHost(_ context.Context, hostID int) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Quiz
	for _, quiz := range s.quizzes {
		if quiz.HostID == hostID {
			out = append(out, quiz)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ActiveQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Quiz
	for _, quiz := range s.quizzes {
		if quiz.IsActive {
			out = append(out, quiz)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeactivateQuiz(_ context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return false, domain.ErrQuizNotFound
	}
	if !quiz.IsActive {
		return false, nil
	}
	quiz.IsActive = false
	s.quizzes[id] = quiz
	return true, nil
}

func (s *Store) CreateQuestion(_ context.Context, question domain.Question) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[question.QuizID]; !ok {
		return domain.Question{}, domain.ErrQuizNotFound
	}
	question.ID = s.nextIDLocked()
	s.questions[question.ID] = question
	return question, nil
}

func (s *Store) GetQuestion(_ context.Context, id int) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (s *Store) QuestionsByQuiz(_ context.Context, quizID int) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Question
	for _, question := range s.questions {
		if question.QuizID == quizID {
			out = append(out, question)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateParticipant(_ context.Context, participant domain.Participant) (domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[participant.QuizID]; !ok {
		return domain.Participant{}, domain.ErrQuizNotFound
	}
	participant.ID = s.nextIDLocked()
	s.participants[participant.ID] = participant
	return participant, nil
}

func (s *Store) GetParticipant(_ context.Context, id int) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	participant, ok := s.participants[id]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return participant, nil
}

func (s *Store) ParticipantsByQuiz(_ context.Context, quizID int) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Participant
	for _, participant := range s.participants {
		if participant.QuizID == quizID {
			out = append(out, participant)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateAnswer(_ context.Context, answer domain.Answer) (domain.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer.ID = s.nextIDLocked()
	s.answers[answer.ID] = answer
	return answer, nil
}

func (s *Store) AnswersByQuiz(_ context.Context, quizID int) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Answer
	for _, answer := range s.answers {
		if answer.QuizID == quizID {
			out = append(out, answer)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) HasAnswer(_ context.Context, participantID, questionID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, answer := range s.answers {
		if answer.ParticipantID == participantID && answer.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ReplaceResults(_ context.Context, quizID int, results []domain.Result) ([]domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, result := range s.results {
		if result.QuizID == quizID {
			delete(s.results, id)
		}
	}
	stored := make([]domain.Result, 0, len(results))
	for _, result := range results {
		result.ID = s.nextIDLocked()
		s.results[result.ID] = result
		stored = append(stored, result)
	}
	return stored, nil
}

func (s *Store) ResultsByQuiz(_ context.Context, quizID int) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Result
	for _, result := range s.results {
		if result.QuizID == quizID {
			out = append(out, result)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}
