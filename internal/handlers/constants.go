package handlers

const (
	ErrInvalidRequestBody  = "Invalid request body"
	ErrUnauthorized        = "Unauthorized"
	ErrTooManyRequests     = "Too many requests"
	ErrOnlyInitiator       = "Only the initiator can choose the tea-maker"
	ErrInternalServerError = "Internal server error"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	defaultInboxLimit   = 20
)
