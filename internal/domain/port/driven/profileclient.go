// Package driven declares the driven ports: interfaces the application core
// depends on and the adapter layer implements.
package driven

import (
	"context"
	"time"

	"github.com/brandops/brandpanel/internal/domain/model"
)

// ProfileClient defines the driven port for the business-profile platform.
// All methods return canonical domain records and classified errors
// (*model.ClientError); vendor payload shapes never cross this boundary.
//
// Account and location arguments accept either a full resource name
// ("accounts/123", "locations/456") or the bare numeric ID; implementations
// qualify bare IDs before use.
type ProfileClient interface {
	// ListAccounts returns the accounts visible to the credential via the
	// canonical management host.
	ListAccounts(ctx context.Context) ([]model.Account, error)
	// CheckConnection is the manual diagnostic path: it walks every known
	// account surface in preference order and returns the first listing that
	// succeeds. Used by connection checks, not by production flows.
	CheckConnection(ctx context.Context) ([]model.Account, error)

	ListLocations(ctx context.Context, account string) ([]model.Location, error)
	GetLocation(ctx context.Context, location string) (*model.Location, error)
	// UpdateLocation patches the named location. fields selects which canonical
	// fields to write ("displayName", "phone", "websiteUrl", "storeCode").
	UpdateLocation(ctx context.Context, loc model.Location, fields []string) (*model.Location, error)
	CreateLocation(ctx context.Context, account string, loc model.Location) (*model.Location, error)

	ListReviews(ctx context.Context, account, location string) ([]model.Review, error)
	ReplyToReview(ctx context.Context, account, location, reviewID, comment string) error

	// CreatePost publishes post on post.LocationName and returns the created
	// record.
	CreatePost(ctx context.Context, post model.Post) (*model.Post, error)

	// FetchInsights returns one series per requested daily metric over the
	// inclusive [start, end] date range.
	FetchInsights(ctx context.Context, location string, metrics []string, start, end time.Time) ([]model.InsightSeries, error)
}
