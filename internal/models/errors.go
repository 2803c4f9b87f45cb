package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound = errors.New("resource not found")

	// Lookup chain errors: email -> user -> character -> story
	ErrUserNotFound        = errors.New("user not found")
	ErrCharacterNotFound   = errors.New("character not found")
	ErrStoryNotFound       = errors.New("story not found")
	ErrSharedStoryNotFound = errors.New("shared story not found")

	// Validation
	ErrInvalidInput          = errors.New("invalid input data")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrCharacterLimitReached = errors.New("character limit reached")

	// Upstream
	ErrAIUnavailable       = errors.New("AI service is temporarily unavailable, please try again later")
	ErrFeedbackUnparseable = errors.New("could not derive preference changes from feedback")
)
