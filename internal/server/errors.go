package server

import "errors"

// Registry errors
var (
	// ErrNameTaken is returned when a nickname is already held by another
	// connected client. It is a user-facing condition, not a system fault:
	// the offending client is invited to retry.
	ErrNameTaken = errors.New("nickname taken")
)
