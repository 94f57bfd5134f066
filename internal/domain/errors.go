package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a drill session does not exist.
	ErrSessionNotFound = errors.New("drill session not found")
	// ErrSessionOver is returned when a caller acts on a finished session.
	ErrSessionOver = errors.New("drill session is over")
	// ErrInvalidPlayer indicates a missing player name or class.
	ErrInvalidPlayer = errors.New("player name and class are required")
	// ErrUnknownPlayer indicates the player is not on the configured roster.
	ErrUnknownPlayer = errors.New("player not found in class roster")
	// ErrEntropyUnavailable means no random seed could be read; no question can be generated.
	ErrEntropyUnavailable = errors.New("random source unavailable")
)
