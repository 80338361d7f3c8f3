package app

import (
	"strings"

	"quickchallenge/internal/domain"
)

// Evaluate decides correctness of a submission against a question for the
// given game mode. It returns the normalized value to persist alongside the
// verdict. Pure: no I/O, no side effects.
//
// single_entry: the trimmed text matches any accepted string,
// case-insensitively. multi_choice: the submitted index set equals the
// correct set exactly; subsets and supersets score as incorrect.
func Evaluate(mode domain.GameMode, question domain.Question, sub domain.Submission) (bool, domain.Submission, error) {
	switch mode {
	case domain.GameModeSingleEntry:
		if sub.Kind != domain.SubmissionText {
			return false, domain.Submission{}, domain.ErrInvalidAnswerFormat
		}
		normalized := sub.Normalize()
		for _, accepted := range question.AcceptedTexts {
			if strings.EqualFold(strings.TrimSpace(accepted), normalized.Text) {
				return true, normalized, nil
			}
		}
		return false, normalized, nil

	case domain.GameModeMultiChoice:
		if sub.Kind != domain.SubmissionChoice {
			return false, domain.Submission{}, domain.ErrInvalidAnswerFormat
		}
		for _, idx := range sub.Indices {
			if idx < 0 || idx >= len(question.Options) {
				return false, domain.Submission{}, domain.ErrInvalidAnswerFormat
			}
		}
		normalized := sub.Normalize()
		return indexSetsEqual(normalized.Indices, question.CorrectIndices), normalized, nil

	default:
		return false, domain.Submission{}, domain.ErrInvalidAnswerFormat
	}
}

// indexSetsEqual compares two index slices as sets. The submitted side is
// already sorted and deduped; the correct side may be in any order.
func indexSetsEqual(submitted, correct []int) bool {
	set := make(map[int]struct{}, len(correct))
	for _, idx := range correct {
		set[idx] = struct{}{}
	}
	if len(submitted) != len(set) {
		return false
	}
	for _, idx := range submitted {
		if _, ok := set[idx]; !ok {
			return false
		}
	}
	return true
}
