package errors

import (
	"errors"
)

// UserError represents an error with both technical and user-friendly messages
type UserError struct {
	Err     error
	UserMsg string
}

func (e *UserError) Error() string {
	return e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// Predefined errors
var (
	ErrUnauthorized = &UserError{
		Err:     errors.New("unauthorized chat"),
		UserMsg: "Sorry, you are not authorized to use this bot yet. The admin has been asked to review your request.",
	}

	ErrEmailNotConfigured = &UserError{
		Err:     errors.New("chat email not configured"),
		UserMsg: "❌ Email is not configured. Fix it and try again!",
	}
)

// Wrap wraps a technical error with a user message
func Wrap(err error, userMsg string) *UserError {
	return &UserError{
		Err:     err,
		UserMsg: userMsg,
	}
}

// GetUserMessage extracts user-friendly message from error
func GetUserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMsg
	}
	// Default message for unexpected errors
	return "An unexpected error occurred. Please try again later."
}
