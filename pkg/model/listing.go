package model

import "time"

type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" bson:"lng" validate:"min=-180,max=180"`
}

type Location struct {
	State       string       `json:"state" bson:"state" validate:"required,min=2,max=100"`
	Village     string       `json:"village" bson:"village" validate:"required,min=2,max=100"`
	Coordinates *Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty" validate:"omitempty"`
}

type Listing struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Title          string    `json:"title" bson:"title" validate:"required,min=3,max=200"`
	Description    string    `json:"description" bson:"description" validate:"max=5000"`
	Location       Location  `json:"location" bson:"location" validate:"required"`
	Images         []string  `json:"images" bson:"images" validate:"max=20,dive,url"`
	Price          float64   `json:"price" bson:"price" validate:"min=0"`
	Amenities      []string  `json:"amenities" bson:"amenities" validate:"max=50,dive,min=1,max=100"`
	ExperienceType string    `json:"experienceType" bson:"experienceType" validate:"required,min=2,max=50"`
	Host           string    `json:"host" bson:"host" validate:"required,mongodb"`
	Rating         float64   `json:"rating" bson:"rating"`
	ReviewsCount   int       `json:"reviewsCount" bson:"reviewsCount"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (l *Listing) Summary() *ListingSummary {
	return &ListingSummary{
		ID:             l.ID,
		Title:          l.Title,
		Location:       &l.Location,
		Images:         l.Images,
		Price:          l.Price,
		ExperienceType: l.ExperienceType,
	}
}

type ListingSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title,omitempty"`
	Location       *Location `json:"location,omitempty"`
	Images         []string  `json:"images,omitempty"`
	Price          float64   `json:"price,omitempty"`
	ExperienceType string    `json:"experienceType,omitempty"`
}

type ListingUpdate struct {
	Title          *string   `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description    *string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	Location       *Location `json:"location,omitempty" validate:"omitempty"`
	Images         []string  `json:"images,omitempty" validate:"omitempty,max=20,dive,url"`
	Price          *float64  `json:"price,omitempty" validate:"omitempty,min=0"`
	Amenities      []string  `json:"amenities,omitempty" validate:"omitempty,max=50,dive,min=1,max=100"`
	ExperienceType *string   `json:"experienceType,omitempty" validate:"omitempty,min=2,max=50"`
}

// ListingFilter narrows listing searches. Zero values are ignored.
type ListingFilter struct {
	State          string
	ExperienceType string
	Host           string
	MinPrice       *float64
	MaxPrice       *float64
}
