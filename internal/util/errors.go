package util

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionCompleted   = errors.New("session already completed")
	ErrUnknownQuestion    = errors.New("unknown question")
	ErrUnknownOption      = errors.New("unknown answer option")
	ErrSubmissionInFlight = errors.New("submission in flight")
	ErrJobNotFound        = errors.New("transcode job not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
