package model

import "time"

// CallToAction is an optional action button attached to a post.
type CallToAction struct {
	ActionType string
	URL        string
}

// Post is a local post published on a location's storefront listing.
type Post struct {
	Name         string
	LocationName string
	TopicType    string
	Summary      string
	State        string
	CallToAction *CallToAction
	CreatedAt    time.Time
}
