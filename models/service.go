package models

import "time"

// Service is one treatment offering in the catalog.
type Service struct {
	ID              string    `bson:"id" json:"id" validate:"required"`
	Name            string    `bson:"name" json:"name" validate:"required"`
	Price           float64   `bson:"price" json:"price" validate:"gte=0"`
	DurationMinutes int       `bson:"durationMinutes" json:"durationMinutes" validate:"gt=0"`
	TargetCondition string    `bson:"targetCondition,omitempty" json:"targetCondition,omitempty"`
	Published       bool      `bson:"published" json:"published"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}
