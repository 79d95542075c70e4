package utils

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid request format")
	ErrMissingFile    = errors.New("missing upload file")
	ErrUnauthorized   = errors.New("authorization header missing or invalid")
	ErrInvalidToken   = errors.New("invalid or expired token")
)
