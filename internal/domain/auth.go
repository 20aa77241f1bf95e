package domain

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid operator credentials")
)
