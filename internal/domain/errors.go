package domain

import "errors"

var (
	ErrCredentialNotFound = errors.New("Credential not found")
	ErrActiveNotInItems   = errors.New("Active credential ID not found in items")
	ErrEmptyTextSegment   = errors.New("TextSegment text cannot be empty")
)
