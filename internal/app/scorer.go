package app

import (
	"sort"
	"time"

	"quickchallenge/internal/domain"
)

// ComputeResults aggregates all answers of a quiz into one result per
// participant and assigns strict 1-based ranks. Pure function of its inputs:
// re-running it on the same answer set yields identical results, which makes
// the scoring pass safe to retry.
//
// Ordering: score descending, then timeTaken ascending (faster participant
// wins the tie), then participant id ascending. Ranks are strictly
// sequential; exact ties still receive distinct consecutive ranks.
func ComputeResults(quizID int, participants []domain.Participant, answers []domain.Answer, now time.Time) []domain.Result {
	type tally struct {
		score int
		first time.Time
		last  time.Time
		count int
	}
	tallies := make(map[int]*tally, len(participants))
	for _, p := range participants {
		tallies[p.ID] = &tally{}
	}

	for _, a := range answers {
		t, ok := tallies[a.ParticipantID]
		if !ok {
			// Answer from a participant row we did not load; skip rather
			// than invent a result for it.
			continue
		}
		if a.IsCorrect {
			t.score++
		}
		if t.count == 0 || a.SubmittedAt.Before(t.first) {
			t.first = a.SubmittedAt
		}
		if t.count == 0 || a.SubmittedAt.After(t.last) {
			t.last = a.SubmittedAt
		}
		t.count++
	}

	results := make([]domain.Result, 0, len(participants))
	for _, p := range participants {
		t := tallies[p.ID]
		timeTaken := 0
		if t.count > 0 {
			timeTaken = int(t.last.Sub(t.first) / time.Second)
		}
		results = append(results, domain.Result{
			QuizID:        quizID,
			ParticipantID: p.ID,
			Score:         t.score,
			TimeTaken:     timeTaken,
			CreatedAt:     now,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].TimeTaken != results[j].TimeTaken {
			return results[i].TimeTaken < results[j].TimeTaken
		}
		return results[i].ParticipantID < results[j].ParticipantID
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}
