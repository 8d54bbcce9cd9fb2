package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/brandops/brandpanel/internal/domain/model"
	"github.com/brandops/brandpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ReviewStore = (*ReviewRepo)(nil)

// ReviewRepo is the SQLite implementation of the ReviewStore port. It holds
// the latest synced snapshot of each review; the sync service overwrites
// rows in place on every cycle.
type ReviewRepo struct {
	db *DB
}

// NewReviewRepo creates a new ReviewRepo.
func NewReviewRepo(db *DB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// Upsert inserts or replaces reviews by (location_name, review_id).
func (r *ReviewRepo) Upsert(ctx context.Context, reviews []model.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert reviews: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `INSERT OR REPLACE INTO reviews
		(location_name, review_id, reviewer, reviewer_photo_url, star_rating, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare upsert reviews: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rev := range reviews {
		_, err := stmt.ExecContext(ctx,
			rev.LocationName,
			rev.ReviewID,
			rev.Reviewer,
			rev.ReviewerPhotoURL,
			rev.StarRating,
			rev.Comment,
			rev.CreatedAt.UTC().Format(time.RFC3339),
			rev.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("upsert review %s: %w", rev.ReviewID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert reviews: %w", err)
	}
	return nil
}

// ListByLocation returns the stored reviews for a location, newest update
// first.
func (r *ReviewRepo) ListByLocation(ctx context.Context, locationName string) ([]model.Review, error) {
	const query = `SELECT location_name, review_id, reviewer, reviewer_photo_url, star_rating, comment, created_at, updated_at
		FROM reviews WHERE location_name = ? ORDER BY updated_at DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, locationName)
	if err != nil {
		return nil, fmt.Errorf("list reviews for %s: %w", locationName, err)
	}
	defer func() { _ = rows.Close() }()

	var reviews []model.Review
	for rows.Next() {
		var rev model.Review
		var createdAt, updatedAt string
		if err := rows.Scan(
			&rev.LocationName,
			&rev.ReviewID,
			&rev.Reviewer,
			&rev.ReviewerPhotoURL,
			&rev.StarRating,
			&rev.Comment,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}

		if rev.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at for review %s: %w", rev.ReviewID, err)
		}
		if rev.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at for review %s: %w", rev.ReviewID, err)
		}

		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews: %w", err)
	}

	if reviews == nil {
		reviews = []model.Review{}
	}
	return reviews, nil
}

// parseTime parses the timestamp formats SQLite hands back.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}
