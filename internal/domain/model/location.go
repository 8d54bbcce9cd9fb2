package model

// Location is a single storefront belonging to exactly one Account. The
// AccountName reference is by resource name only; removing a location never
// removes its account.
type Location struct {
	Name            string
	AccountName     string
	DisplayName     string
	PrimaryCategory string
	Categories      []string
	Phone           string
	WebsiteURL      string
	Latitude        *float64
	Longitude       *float64
	OpenState       string
	StoreCode       string
}
