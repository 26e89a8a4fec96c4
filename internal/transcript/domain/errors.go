package domain

import "errors"

var ErrRequestNotFound = errors.New("transcription_request_not_found")
