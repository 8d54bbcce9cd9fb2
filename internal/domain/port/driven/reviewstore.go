package driven

import (
	"context"

	"github.com/brandops/brandpanel/internal/domain/model"
)

// ReviewStore defines the driven port for persisted review snapshots. The
// sync service upserts what it fetched; read surfaces list by location
// without touching the vendor API.
type ReviewStore interface {
	// Upsert inserts or replaces reviews by (location_name, review_id).
	Upsert(ctx context.Context, reviews []model.Review) error

	// ListByLocation returns the stored reviews for a location, newest
	// update first.
	ListByLocation(ctx context.Context, locationName string) ([]model.Review, error)
}
