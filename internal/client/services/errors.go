package services

import "errors"

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionNotSelected = errors.New("chat session is not selected")
	ErrMessageNotFound    = errors.New("message not found")
	ErrNotRetryable       = errors.New("message is not in a failed state")
)
