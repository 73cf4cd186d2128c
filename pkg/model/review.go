package model

import "time"

type HelpfulMark struct {
	User      string    `json:"user" bson:"user"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Review struct {
	ID         string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	User       string        `json:"user" bson:"user" validate:"required,mongodb"`
	Listing    string        `json:"listing" bson:"listing" validate:"required,mongodb"`
	Rating     int           `json:"rating" bson:"rating" validate:"required,min=1,max=5"`
	Content    string        `json:"content" bson:"content" validate:"required,min=3,max=2000"`
	Categories []string      `json:"categories" bson:"categories" validate:"max=10,dive,min=1,max=50"`
	Helpful    []HelpfulMark `json:"helpful" bson:"helpful"`
	CreatedAt  time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// MarkedHelpfulBy reports whether userID has marked this review helpful.
func (r *Review) MarkedHelpfulBy(userID string) bool {
	for _, mark := range r.Helpful {
		if mark.User == userID {
			return true
		}
	}
	return false
}

type ReviewUpdate struct {
	Rating     *int     `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Content    *string  `json:"content,omitempty" validate:"omitempty,min=3,max=2000"`
	Categories []string `json:"categories,omitempty" validate:"omitempty,max=10,dive,min=1,max=50"`
}

// RatingStats is the aggregate stored on a listing.
type RatingStats struct {
	Average float64
	Count   int
}
