package models

import "time"

// PainScoreEntry is one post-session pain score.
type PainScoreEntry struct {
	Date          time.Time `bson:"date" json:"date"`
	SessionNumber int       `bson:"sessionNumber" json:"sessionNumber"`
	Score         int       `bson:"score" json:"score"`
	ProviderID    string    `bson:"providerId" json:"providerId"`
	BookingID     string    `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
}

type Patient struct {
	ID               string           `bson:"id" json:"id"`
	Name             string           `bson:"name" json:"name" validate:"required,min=2"`
	Phone            string           `bson:"phone" json:"phone" validate:"required,min=7"`
	Condition        string           `bson:"condition" json:"condition"`
	ServiceArea      ServiceArea      `bson:"serviceArea" json:"serviceArea" validate:"required,oneof=north south east west central"`
	Address          string           `bson:"address,omitempty" json:"address,omitempty"`
	InitialPainScore int              `bson:"initialPainScore" json:"initialPainScore" validate:"gte=0,lte=10"`
	CurrentPainScore int              `bson:"currentPainScore" json:"currentPainScore" validate:"gte=0,lte=10"`
	ActivePackageID  string           `bson:"activePackageId,omitempty" json:"activePackageId,omitempty"`
	PainHistory      []PainScoreEntry `bson:"painHistory" json:"painHistory"`
	FCMToken         string           `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt        time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time        `bson:"updatedAt" json:"updatedAt"`
}
