package model

import "time"

// BookingLock is an advisory lock document. Holding it serializes payment
// captures for one booking; the TTL index reaps locks left by crashed requests.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
