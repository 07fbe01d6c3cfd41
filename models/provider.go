package models

import "time"

// ServiceArea is a fixed geographic zone used to match patients and providers.
type ServiceArea string

const (
	AreaNorth   ServiceArea = "north"
	AreaSouth   ServiceArea = "south"
	AreaEast    ServiceArea = "east"
	AreaWest    ServiceArea = "west"
	AreaCentral ServiceArea = "central"
)

// ServiceAreas lists every known area.
var ServiceAreas = []ServiceArea{AreaNorth, AreaSouth, AreaEast, AreaWest, AreaCentral}

func (a ServiceArea) Valid() bool {
	for _, known := range ServiceAreas {
		if a == known {
			return true
		}
	}
	return false
}

type ProviderStatus string

const (
	ProviderActive    ProviderStatus = "active"
	ProviderPending   ProviderStatus = "pending"
	ProviderSuspended ProviderStatus = "suspended"
)

func (s ProviderStatus) Valid() bool {
	return s == ProviderActive || s == ProviderPending || s == ProviderSuspended
}

// Provider is a therapist who delivers sessions in one service area.
type Provider struct {
	ID              string         `bson:"id" json:"id"`
	Name            string         `bson:"name" json:"name" validate:"required,min=2"`
	Phone           string         `bson:"phone" json:"phone" validate:"required,min=7"`
	ServiceArea     ServiceArea    `bson:"serviceArea" json:"serviceArea" validate:"required,oneof=north south east west central"`
	OfferedServices []string       `bson:"offeredServices" json:"offeredServices" validate:"required,min=1,dive,required"`
	Status          ProviderStatus `bson:"status" json:"status"`
	Rating          float64        `bson:"rating" json:"rating" validate:"gte=0,lte=5"`
	CompletionRate  float64        `bson:"completionRate" json:"completionRate" validate:"gte=0,lte=1"`
	CompletedCount  int            `bson:"completedCount" json:"completedCount"`
	Territory       string         `bson:"territory,omitempty" json:"territory,omitempty"`
	ExperienceYears int            `bson:"experienceYears" json:"experienceYears" validate:"gte=0"`
	FCMToken        string         `bson:"fcmToken,omitempty" json:"-"`
	CreatedAt       time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// Offers reports whether the provider lists serviceID among its services.
func (p *Provider) Offers(serviceID string) bool {
	for _, id := range p.OfferedServices {
		if id == serviceID {
			return true
		}
	}
	return false
}

// ProviderFilter narrows a registry listing.
type ProviderFilter struct {
	ServiceArea ServiceArea
	Status      ProviderStatus
}
