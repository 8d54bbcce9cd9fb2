package model

import "time"

// CredentialKind discriminates the two mutually exclusive authentication
// strategies against the business-profile platform.
type CredentialKind string

const (
	// CredentialDelegated is an OAuth access/refresh token pair obtained on
	// behalf of an end user.
	CredentialDelegated CredentialKind = "delegated"
	// CredentialServiceIdentity is a long-lived signing key used to mint
	// short-lived assertions for machine-to-machine authentication.
	CredentialServiceIdentity CredentialKind = "service_identity"
)

// Credential is a tagged union over the two credential strategies. Only the
// fields for the active Kind are populated. The access token and its expiry
// are the only mutable fields: a refresh replaces them in place and never
// discards the refresh capability or the signing key.
type Credential struct {
	Kind CredentialKind

	// Shared access-token cache. For a delegated credential this is the user's
	// current access token; for a service identity it caches the token minted
	// from the most recent assertion exchange.
	AccessToken string
	Expiry      time.Time

	// Delegated fields.
	RefreshToken string
	ClientID     string
	ClientSecret string

	// Service-identity fields. PrivateKeyPEM holds the PEM-encoded RSA signing
	// key; Issuer is the service identity (client email) asserted in tokens.
	Issuer        string
	PrivateKeyPEM string
	TokenURI      string
	Scopes        []string
}

// CanRefresh reports whether the credential can obtain a new access token
// without user interaction. A delegated credential needs its refresh token;
// a service identity can always mint a fresh assertion.
func (c Credential) CanRefresh() bool {
	switch c.Kind {
	case CredentialDelegated:
		return c.RefreshToken != ""
	case CredentialServiceIdentity:
		return c.PrivateKeyPEM != ""
	default:
		return false
	}
}
