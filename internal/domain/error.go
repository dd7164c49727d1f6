package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound         = errors.New("entity not found")
	ErrNoActiveSession  = errors.New("no active negotiation session")
	ErrSessionFinished  = errors.New("negotiation session already finished")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrMaxRoundsReached = errors.New("maximum negotiation rounds reached")
	ErrAlreadyExists    = errors.New("entity already exists")
)
