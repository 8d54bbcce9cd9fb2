package driven

import (
	"context"
	"errors"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// BRANDPANEL_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set BRANDPANEL_SECRET_KEY")

// CredentialStore defines the driven port for encrypted credential
// persistence. Values are addressed by (service, key), e.g.
// ("gbp", "refresh_token"). The adapter layer owns encryption; this interface
// operates on plaintext at the domain boundary.
type CredentialStore interface {
	// Set stores or replaces the value for (service, key). Returns
	// ErrEncryptionKeyNotSet if the adapter was constructed without a key.
	Set(ctx context.Context, service, key, plaintext string) error

	// Get retrieves the plaintext value for (service, key).
	// Returns ("", nil) if no value exists.
	Get(ctx context.Context, service, key string) (string, error)

	// Delete removes the value for (service, key).
	Delete(ctx context.Context, service, key string) error
}
