package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"quickchallenge/internal/app"
	"quickchallenge/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// StoreCache fronts an app.Store with Redis for the read paths that every
// join and answer submission hits: quiz by id, quiz by access code, and the
// question list. Writes pass straight through and invalidate. The active
// latch flip stays in the backing store, so CAS semantics are untouched.
type StoreCache struct {
	app.Store
	client *redis.Client
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewStoreCache(client *redis.Client, store app.Store, ttl time.Duration) *StoreCache {
	return &StoreCache{
		Store:  store,
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *StoreCache) quizKey(id int) string {
	return "quiz:" + strconv.Itoa(id)
}

func (s *StoreCache) codeKey(accessCode string) string {
	return "quiz:code:" + domain.NormalizeAccessCode(accessCode)
}

func (s *StoreCache) questionsKey(quizID int) string {
	return "quiz:" + strconv.Itoa(quizID) + ":questions"
}

func (s *StoreCache) GetQuiz(ctx context.Context, id int) (domain.Quiz, error) {
	var quiz domain.Quiz
	if ok := s.getJSON(ctx, s.quizKey(id), &quiz); ok {
		return quiz, nil
	}

	result, err, _ := s.sf.Do(s.quizKey(id), func() (interface{}, error) {
		var quiz domain.Quiz
		if ok := s.getJSON(ctx, s.quizKey(id), &quiz); ok {
			return quiz, nil
		}
		quiz, err := s.Store.GetQuiz(ctx, id)
		if err != nil {
			return domain.Quiz{}, err
		}
		s.cacheQuiz(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (s *StoreCache) GetQuizByAccessCode(ctx context.Context, accessCode string) (domain.Quiz, error) {
	key := s.codeKey(accessCode)
	var quiz domain.Quiz
	if ok := s.getJSON(ctx, key, &quiz); ok {
		return quiz, nil
	}

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		var quiz domain.Quiz
		if ok := s.getJSON(ctx, key, &quiz); ok {
			return quiz, nil
		}
		quiz, err := s.Store.GetQuizByAccessCode(ctx, accessCode)
		if err != nil {
			return domain.Quiz{}, err
		}
		s.cacheQuiz(ctx, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (s *StoreCache) QuestionsByQuiz(ctx context.Context, quizID int) ([]domain.Question, error) {
	key := s.questionsKey(quizID)
	var questions []domain.Question
	if ok := s.getJSON(ctx, key, &questions); ok {
		return questions, nil
	}

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		var questions []domain.Question
		if ok := s.getJSON(ctx, key, &questions); ok {
			return questions, nil
		}
		questions, err := s.Store.QuestionsByQuiz(ctx, quizID)
		if err != nil {
			return nil, err
		}
		s.setJSON(ctx, key, questions)
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (s *StoreCache) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	created, err := s.Store.CreateQuestion(ctx, question)
	if err != nil {
		return domain.Question{}, err
	}
	_ = s.client.Del(ctx, s.questionsKey(created.QuizID)).Err()
	return created, nil
}

// DeactivateQuiz passes the CAS through and drops the cached quiz, so the
// next status read sees the flipped latch immediately.
func (s *StoreCache) DeactivateQuiz(ctx context.Context, id int) (bool, error) {
	quiz, err := s.Store.GetQuiz(ctx, id)
	if err != nil {
		return false, err
	}
	flipped, err := s.Store.DeactivateQuiz(ctx, id)
	if err != nil {
		return false, err
	}
	_ = s.client.Del(ctx, s.quizKey(id), s.codeKey(quiz.AccessCode)).Err()
	return flipped, nil
}

func (s *StoreCache) cacheQuiz(ctx context.Context, quiz domain.Quiz) {
	s.setJSON(ctx, s.quizKey(quiz.ID), quiz)
	s.setJSON(ctx, s.codeKey(quiz.AccessCode), quiz)
}

// getJSON is a best-effort cache read; any Redis or decode trouble counts as
// a miss.
func (s *StoreCache) getJSON(ctx context.Context, key string, v any) bool {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func (s *StoreCache) setJSON(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = s.client.Set(ctx, key, data, s.ttlWithJitter()).Err()
}

func (s *StoreCache) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
