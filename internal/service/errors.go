package service

import "errors"

var (
	ErrInvalidState      = errors.New("operation not valid for the round's current state")
	ErrUnknownInvitee    = errors.New("user was not invited to this round")
	ErrEmptyCandidateSet = errors.New("no accepted participants to choose from")
	ErrRoundNotFound     = errors.New("round not found")
	ErrNoInvitees        = errors.New("at least one invitee is required")
	ErrMissingInitiator  = errors.New("initiator is required")
	ErrHistoryExists     = errors.New("round already recorded in history")
	ErrConcurrentUpdate  = errors.New("round was updated concurrently, retry")
	ErrNotInitiator      = errors.New("only the round's initiator may choose the tea-maker")
)
