package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidScore    = errors.New("invalid score")
	ErrInvalidHearts   = errors.New("invalid hearts count")
)
