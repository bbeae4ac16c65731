package httpserver

import "errors"

var (
	errModelRequired    = errors.New("model is required")
	errMessagesRequired = errors.New("messages must be a non-empty array")
	errInvalidRole      = errors.New("message role must be one of: system, user, assistant")
)
