package repository

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when the email uniqueness constraint rejects a write.
	ErrEmailTaken = errors.New("email already in use")
	// ErrPhoneTaken is returned when the phone uniqueness constraint rejects a write.
	ErrPhoneTaken = errors.New("phone already in use")
)
