package app_test

import (
	"errors"
	"testing"

	"quickchallenge/internal/app"
	"quickchallenge/internal/domain"
)

func TestEvaluateSingleEntryCaseInsensitive(t *testing.T) {
	question := domain.Question{AcceptedTexts: []string{"Paris", "paris"}}

	correct, normalized, err := app.Evaluate(domain.GameModeSingleEntry, question, domain.TextSubmission("PARIS"))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !correct {
		t.Fatalf("expected PARIS to match accepted answers")
	}
	if normalized.Text != "PARIS" {
		t.Fatalf("expected normalized text PARIS, got %q", normalized.Text)
	}

	correct, _, err = app.Evaluate(domain.GameModeSingleEntry, question, domain.TextSubmission("  paris  "))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !correct {
		t.Fatalf("expected trimmed answer to match")
	}

	correct, _, err = app.Evaluate(domain.GameModeSingleEntry, question, domain.TextSubmission("London"))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if correct {
		t.Fatalf("expected London to be incorrect")
	}
}

func TestEvaluateMultiChoiceExactSetMatch(t *testing.T) {
	question := domain.Question{
		Options:        []string{"a", "b", "c", "d"},
		CorrectIndices: []int{1, 2},
	}

	cases := []struct {
		name      string
		submitted []int
		want      bool
	}{
		{"exact match", []int{1, 2}, true},
		{"order independent", []int{2, 1}, true},
		{"duplicates collapse", []int{1, 2, 2}, true},
		{"subset", []int{1}, false},
		{"superset", []int{1, 2, 3}, false},
		{"disjoint", []int{0, 3}, false},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		correct, _, err := app.Evaluate(domain.GameModeMultiChoice, question, domain.ChoiceSubmission(tc.submitted...))
		if err != nil {
			t.Fatalf("%s: evaluate: %v", tc.name, err)
		}
		if correct != tc.want {
			t.Fatalf("%s: expected correct=%v", tc.name, tc.want)
		}
	}
}

func TestEvaluateRejectsMalformedPayloads(t *testing.T) {
	question := domain.Question{
		Options:        []string{"a", "b"},
		CorrectIndices: []int{0},
	}

	// Index out of range.
	_, _, err := app.Evaluate(domain.GameModeMultiChoice, question, domain.ChoiceSubmission(0, 5))
	if !errors.Is(err, domain.ErrInvalidAnswerFormat) {
		t.Fatalf("expected ErrInvalidAnswerFormat for out-of-range index, got %v", err)
	}

	// Negative index.
	_, _, err = app.Evaluate(domain.GameModeMultiChoice, question, domain.ChoiceSubmission(-1))
	if !errors.Is(err, domain.ErrInvalidAnswerFormat) {
		t.Fatalf("expected ErrInvalidAnswerFormat for negative index, got %v", err)
	}

	// Wrong payload kind for the mode, both directions.
	_, _, err = app.Evaluate(domain.GameModeMultiChoice, question, domain.TextSubmission("a"))
	if !errors.Is(err, domain.ErrInvalidAnswerFormat) {
		t.Fatalf("expected ErrInvalidAnswerFormat for text answer in multi_choice, got %v", err)
	}
	_, _, err = app.Evaluate(domain.GameModeSingleEntry, domain.Question{AcceptedTexts: []string{"a"}}, domain.ChoiceSubmission(0))
	if !errors.Is(err, domain.ErrInvalidAnswerFormat) {
		t.Fatalf("expected ErrInvalidAnswerFormat for choice answer in single_entry, got %v", err)
	}
}
