package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quickchallenge/internal/app"
	"quickchallenge/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store is the Postgres implementation of app.Store.
type Store struct {
	pool *pgxpool.Pool
}

var _ app.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const quizColumns = `id, host_id, title, subject, section, game_mode, start_time, end_time, prizes_count, access_code, is_active, created_at`

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var q domain.Quiz
	err := row.Scan(&q.ID, &q.HostID, &q.Title, &q.Subject, &q.Section, &q.GameMode,
		&q.StartTime, &q.EndTime, &q.PrizesCount, &q.AccessCode, &q.IsActive, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("scan quiz: %w", err)
	}
	return q, nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO quizzes (host_id, title, subject, section, game_mode, start_time, end_time, prizes_count, access_code, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+quizColumns,
		quiz.HostID, quiz.Title, quiz.Subject, quiz.Section, quiz.GameMode,
		quiz.StartTime, quiz.EndTime, quiz.PrizesCount, quiz.AccessCode, quiz.IsActive, quiz.CreatedAt)
	return scanQuiz(row)
}

func (s *Store) GetQuiz(ctx context.Context, id int) (domain.Quiz, error) {
	return scanQuiz(s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1`, id))
}

func (s *Store) GetQuizByAccessCode(ctx context.Context, accessCode string) (domain.Quiz, error) {
	return scanQuiz(s.pool.QueryRow(ctx,
		`SELECT `+quizColumns+` FROM quizzes WHERE access_code=$1`,
		domain.NormalizeAccessCode(accessCode)))
}

func (s *Store) quizList(ctx context.Context, query string, args ...any) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	defer rows.Close()

	var out []domain.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) QuizzesByHost(ctx context.Context, hostID int) ([]domain.Quiz, error) {
	return s.quizList(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE host_id=$1 ORDER BY id`, hostID)
}

func (s *Store) ActiveQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizList(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE is_active ORDER BY id`)
}

// DeactivateQuiz is the compare-and-swap guard for the one-time completion
// transition: only the caller whose UPDATE actually flips the flag gets true.
func (s *Store) DeactivateQuiz(ctx context.Context, id int) (bool, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE quizzes SET is_active=false WHERE id=$1 AND is_active`, id)
	if err != nil {
		return false, fmt.Errorf("deactivate quiz: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) CreateQuestion(ctx context.Context, question domain.Question) (domain.Question, error) {
	options, accepted, indices, err := marshalQuestionFields(question)
	if err != nil {
		return domain.Question{}, err
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO questions (quiz_id, text, options, accepted_texts, correct_indices, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		question.QuizID, question.Text, options, accepted, indices, question.CreatedAt).Scan(&question.ID)
	if err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return question, nil
}

func (s *Store) GetQuestion(ctx context.Context, id int) (domain.Question, error) {
	q, err := scanQuestion(s.pool.QueryRow(ctx,
		`SELECT id, quiz_id, text, options, accepted_texts, correct_indices, created_at FROM questions WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, err
}

func (s *Store) QuestionsByQuiz(ctx context.Context, quizID int) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, text, options, accepted_texts, correct_indices, created_at FROM questions WHERE quiz_id=$1 ORDER BY id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) CreateParticipant(ctx context.Context, participant domain.Participant) (domain.Participant, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO participants (quiz_id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		participant.QuizID, participant.Name, participant.Email, participant.CreatedAt).Scan(&participant.ID)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("insert participant: %w", err)
	}
	return participant, nil
}

func (s *Store) GetParticipant(ctx context.Context, id int) (domain.Participant, error) {
	var p domain.Participant
	err := s.pool.QueryRow(ctx,
		`SELECT id, quiz_id, name, email, created_at FROM participants WHERE id=$1`, id).
		Scan(&p.ID, &p.QuizID, &p.Name, &p.Email, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("scan participant: %w", err)
	}
	return p, nil
}

func (s *Store) ParticipantsByQuiz(ctx context.Context, quizID int) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, name, email, created_at FROM participants WHERE quiz_id=$1 ORDER BY id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.QuizID, &p.Name, &p.Email, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) CreateAnswer(ctx context.Context, answer domain.Answer) (domain.Answer, error) {
	value, err := json.Marshal(answer.Value)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("marshal answer value: %w", err)
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO answers (participant_id, question_id, quiz_id, answer, is_correct, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		answer.ParticipantID, answer.QuestionID, answer.QuizID, value, answer.IsCorrect, answer.SubmittedAt).Scan(&answer.ID)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("insert answer: %w", err)
	}
	return answer, nil
}

func (s *Store) AnswersByQuiz(ctx context.Context, quizID int) ([]domain.Answer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, participant_id, question_id, quiz_id, answer, is_correct, submitted_at FROM answers WHERE quiz_id=$1 ORDER BY id`, quizID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var out []domain.Answer
	for rows.Next() {
		var a domain.Answer
		var value []byte
		if err := rows.Scan(&a.ID, &a.ParticipantID, &a.QuestionID, &a.QuizID, &value, &a.IsCorrect, &a.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if err := json.Unmarshal(value, &a.Value); err != nil {
			return nil, fmt.Errorf("unmarshal answer value: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) HasAnswer(ctx context.Context, participantID, questionID int) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM answers WHERE participant_id=$1 AND question_id=$2)`,
		participantID, questionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check answer: %w", err)
	}
	return exists, nil
}

// ReplaceResults deletes and rewrites the quiz's result rows in one
// transaction, so readers never observe a partially ranked quiz.
func (s *Store) ReplaceResults(ctx context.Context, quizID int, results []domain.Result) ([]domain.Result, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM results WHERE quiz_id=$1`, quizID); err != nil {
		return nil, fmt.Errorf("clear results: %w", err)
	}
	stored := make([]domain.Result, 0, len(results))
	for _, r := range results {
		err := tx.QueryRow(ctx, `
			INSERT INTO results (quiz_id, participant_id, score, time_taken, rank, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			r.QuizID, r.ParticipantID, r.Score, r.TimeTaken, r.Rank, r.CreatedAt).Scan(&r.ID)
		if err != nil {
			return nil, fmt.Errorf("insert result: %w", err)
		}
		stored = append(stored, r)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit results: %w", err)
	}
	return stored, nil
}

func (s *Store) ResultsByQuiz(ctx context.Context, quizID int) ([]domain.Result, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, participant_id, score, time_taken, rank, created_at FROM results WHERE quiz_id=$1 ORDER BY rank`, quizID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []domain.Result
	for rows.Next() {
		var r domain.Result
		if err := rows.Scan(&r.ID, &r.QuizID, &r.ParticipantID, &r.Score, &r.TimeTaken, &r.Rank, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func marshalQuestionFields(q domain.Question) (options, accepted, indices []byte, err error) {
	if options, err = json.Marshal(orEmptyStrings(q.Options)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal options: %w", err)
	}
	if accepted, err = json.Marshal(orEmptyStrings(q.AcceptedTexts)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal accepted texts: %w", err)
	}
	if indices, err = json.Marshal(orEmptyInts(q.CorrectIndices)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal correct indices: %w", err)
	}
	return options, accepted, indices, nil
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	var options, accepted, indices []byte
	err := row.Scan(&q.ID, &q.QuizID, &q.Text, &options, &accepted, &indices, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Question{}, err
		}
		return domain.Question{}, fmt.Errorf("scan question: %w", err)
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal options: %w", err)
	}
	if err := json.Unmarshal(accepted, &q.AcceptedTexts); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal accepted texts: %w", err)
	}
	if err := json.Unmarshal(indices, &q.CorrectIndices); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal correct indices: %w", err)
	}
	return q, nil
}

func orEmptyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func orEmptyInts(in []int) []int {
	if in == nil {
		return []int{}
	}
	return in
}
