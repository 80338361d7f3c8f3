package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// SubmissionKind discriminates the two answer payload shapes.
type SubmissionKind string

const (
	// SubmissionText is a free-text answer (single_entry mode).
	SubmissionText SubmissionKind = "text"
	// SubmissionChoice is a set of option indices (multi_choice mode).
	SubmissionChoice SubmissionKind = "choice"
)

// Submission is the tagged union of answer payloads. On the wire it is either
// a bare JSON string or an array of integers, matching what clients send.
type Submission struct {
	Kind    SubmissionKind
	Text    string
	Indices []int
}

// TextSubmission builds a free-text submission.
func TextSubmission(text string) Submission {
	return Submission{Kind: SubmissionText, Text: text}
}

// ChoiceSubmission builds an option-index submission.
func ChoiceSubmission(indices ...int) Submission {
	return Submission{Kind: SubmissionChoice, Indices: indices}
}

// Normalize trims text answers and sorts/dedupes index sets so that stored
// values compare deterministically.
func (s Submission) Normalize() Submission {
	switch s.Kind {
	case SubmissionText:
		s.Text = strings.TrimSpace(s.Text)
	case SubmissionChoice:
		seen := make(map[int]struct{}, len(s.Indices))
		out := make([]int, 0, len(s.Indices))
		for _, i := range s.Indices {
			if _, ok := seen[i]; ok {
				continue
			}
			seen[i] = struct{}{}
			out = append(out, i)
		}
		sort.Ints(out)
		s.Indices = out
	}
	return s
}

// MarshalJSON encodes the payload in its wire shape.
func (s Submission) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SubmissionChoice:
		if s.Indices == nil {
			return json.Marshal([]int{})
		}
		return json.Marshal(s.Indices)
	default:
		return json.Marshal(s.Text)
	}
}

// UnmarshalJSON accepts a JSON string or an integer array; anything else is
// rejected with ErrInvalidAnswerFormat.
func (s *Submission) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Submission{Kind: SubmissionText, Text: text}
		return nil
	}
	var indices []int
	if err := json.Unmarshal(data, &indices); err == nil {
		*s = Submission{Kind: SubmissionChoice, Indices: indices}
		return nil
	}
	return ErrInvalidAnswerFormat
}
