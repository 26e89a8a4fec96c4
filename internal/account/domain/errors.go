package domain

import "errors"

var (
	ErrInvalidAPIKey   = errors.New("invalid_api_key")
	ErrAccountNotFound = errors.New("account_not_found")
)
