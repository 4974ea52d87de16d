// Package models defines the data types shared across the application
// and the sentinel error kinds the handlers map to HTTP statuses.
package models

import "errors"

// User represents a registered account.
// The ID is a generated short alphanumeric key, not a UUID.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

// Link maps a short code to its destination URL and the owning user.
type Link struct {
	ShortCode string `json:"short_code"`
	LongURL   string `json:"long_url"`
	OwnerID   string `json:"owner_id"`
}

// Credentials carries the login/registration form fields.
type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// InternalStatsResponse reports store-wide counters.
type InternalStatsResponse struct {
	URLs  int64 `json:"urls"`
	Users int64 `json:"users"`
}

// ErrLinkNotFound is returned when a short code is absent from the store.
var ErrLinkNotFound = errors.New("link not found")

// ErrUserNotFound is returned when a user id or email has no account.
var ErrUserNotFound = errors.New("user not found")

// ErrUnauthenticated is returned when an operation requires a logged-in caller.
var ErrUnauthenticated = errors.New("authentication required")

// ErrNotOwner is returned when the caller is logged in but does not own the link.
var ErrNotOwner = errors.New("unauthorized")

// ErrEmailTaken is returned when registering with an already-registered email.
var ErrEmailTaken = errors.New("email already registered")

// ErrValidation is returned when required form fields are missing or malformed.
var ErrValidation = errors.New("missing or invalid fields")

// ErrAuthFailure is returned on login when the account is unknown
// or the password does not match.
var ErrAuthFailure = errors.New("wrong email or password")
