package services

import "errors"

// Failure kinds surfaced by the service layer. Handlers map these to HTTP
// status codes; nothing below this layer knows about HTTP.
var (
	ErrNotFound            = errors.New("record not found")
	ErrInsufficientCredits = errors.New("insufficient credit balance")
	ErrAlreadyInProgress   = errors.New("a generation is already in progress or the pitch is finalised")
	ErrUpstreamUnavailable = errors.New("workflow engine rejected the job or timed out")
)
