package domain

import "errors"

var (
	ErrProviderNotFound   = errors.New("provider_not_found")
	ErrProviderNotReady   = errors.New("provider_not_ready")
	ErrUnsupportedFormat  = errors.New("unsupported_format")
	ErrFileTooLarge       = errors.New("file_too_large")
	ErrProviderFailed     = errors.New("provider_failed")
	ErrProviderTimeout    = errors.New("provider_timeout")
	ErrAllProvidersFailed = errors.New("all_providers_failed")
	ErrEmptyAudio         = errors.New("empty_audio")
	ErrNoProviders        = errors.New("no_providers_configured")
)
