package app

import (
	"context"
	"log"
	"time"
)

// ExpireDue ends every active quiz whose end time has passed. Safe to call
// concurrently with host end actions; the active-latch flip decides which
// trigger runs scoring.
func (s *QuizService) ExpireDue(ctx context.Context) error {
	quizzes, err := s.store.ActiveQuizzes(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	for _, quiz := range quizzes {
		if now.Before(quiz.EndTime) {
			continue
		}
		if _, _, err := s.finish(ctx, quiz); err != nil {
			log.Printf("expire quiz %d: %v", quiz.ID, err)
		}
	}
	return nil
}

// RunSweeper polls for expired quizzes until the context is canceled. One
// slow quiz does not stall the loop beyond its own scoring pass.
func (s *QuizService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ExpireDue(ctx); err != nil {
				log.Printf("sweep expired quizzes: %v", err)
			}
		}
	}
}
