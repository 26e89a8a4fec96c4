package domain

import "context"

type Service interface {
	// AuthenticateAPIKey resolves an active account from a raw API key.
	AuthenticateAPIKey(ctx context.Context, rawKey string) (*Account, error)
}
