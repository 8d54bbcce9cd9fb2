package model

import "time"

// Review is a customer review of a location. StarRating is always an integer
// in 0..5 regardless of how the vendor encoded it; 0 means unrated or
// unrecognized.
type Review struct {
	ReviewID         string
	LocationName     string
	Reviewer         string
	ReviewerPhotoURL string
	StarRating       int
	Comment          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
