// Package model defines the domain records shared across the application.
// All records are canonical projections of the vendor API payloads; vendor
// field names never appear outside the adapter layer.
package model

// Account is a business-profile account. Name is the opaque resource name
// ("accounts/123...") and is the account's identity; the remaining fields
// are descriptive.
type Account struct {
	Name              string
	DisplayName       string
	Kind              string
	Role              string
	VerificationState string
}
