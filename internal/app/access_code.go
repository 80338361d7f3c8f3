package app

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// accessCodeAlphabet avoids lowercase so codes survive case-insensitive
// human entry unchanged.
const (
	accessCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	accessCodeLength   = 6
)

// NewAccessCode generates a short human-enterable quiz code.
func NewAccessCode() (string, error) {
	return gonanoid.Generate(accessCodeAlphabet, accessCodeLength)
}
