package model

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrPasswordTooLong is returned by hashers that cannot encode the whole
	// password.
	ErrPasswordTooLong = errors.New("password too long")
)
