package domain

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmailTaken      = errors.New("email already in use by another profile")
	ErrSlugTaken       = errors.New("slug already in use by another profile")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrForbidden       = errors.New("access forbidden")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")

	ErrTaskNotFound = errors.New("task not found")
	ErrInvalidTask  = errors.New("invalid task")

	ErrInvalidActivity = errors.New("activity entry requires owner, action and entity type")

	ErrUnknownSink        = errors.New("unknown integration")
	ErrInvalidAPIKey      = errors.New("invalid api key")
	ErrNotConnected       = errors.New("integration not connected")
	ErrCredentialsRevoked = errors.New("integration credentials revoked")
)
