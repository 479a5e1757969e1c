package service

import (
	"context"
)

// PassthroughResolver treats the platform identity as the account id
// directly. It stands in for a real directory lookup when the embedding
// application already speaks account ids.
type PassthroughResolver struct{}

// Resolve returns the platform user as the account id.
func (PassthroughResolver) Resolve(ctx context.Context, platformUser string) (string, error) {
	if platformUser == "" {
		return "", ErrNotLinked
	}
	return platformUser, nil
}
