package models

import "time"

type PackageType string

const (
	PackageBasic    PackageType = "basic"
	PackageStandard PackageType = "standard"
	PackagePremium  PackageType = "premium"
)

type PackageStatus string

const (
	PackageActive    PackageStatus = "active"
	PackageCompleted PackageStatus = "completed"
	PackageExpired   PackageStatus = "expired"
)

// PackagePlan holds the fixed terms of a package type.
type PackagePlan struct {
	Type          PackageType   `json:"type"`
	TotalSessions int           `json:"totalSessions"`
	Price         float64       `json:"price"`
	Validity      time.Duration `json:"validity"`
}

var packagePlans = map[PackageType]PackagePlan{
	PackageBasic:    {Type: PackageBasic, TotalSessions: 4, Price: 4000, Validity: 30 * 24 * time.Hour},
	PackageStandard: {Type: PackageStandard, TotalSessions: 8, Price: 7500, Validity: 60 * 24 * time.Hour},
	PackagePremium:  {Type: PackagePremium, TotalSessions: 12, Price: 10500, Validity: 90 * 24 * time.Hour},
}

// PlanFor returns the terms of the given package type.
func PlanFor(t PackageType) (PackagePlan, bool) {
	p, ok := packagePlans[t]
	return p, ok
}

// TreatmentPackage is a prepaid bundle of sessions owned by one patient.
// SessionsCompleted + SessionsRemaining always equals TotalSessions.
type TreatmentPackage struct {
	ID                string        `bson:"id" json:"id"`
	PatientID         string        `bson:"patientId" json:"patientId"`
	Type              PackageType   `bson:"type" json:"type"`
	TotalSessions     int           `bson:"totalSessions" json:"totalSessions"`
	SessionsCompleted int           `bson:"sessionsCompleted" json:"sessionsCompleted"`
	SessionsRemaining int           `bson:"sessionsRemaining" json:"sessionsRemaining"`
	SessionsReserved  int           `bson:"sessionsReserved" json:"sessionsReserved"`
	Price             float64       `bson:"price" json:"price"`
	Status            PackageStatus `bson:"status" json:"status"`
	PurchasedAt       time.Time     `bson:"purchasedAt" json:"purchasedAt"`
	ExpiresAt         time.Time     `bson:"expiresAt" json:"expiresAt"`
	Version           int64         `bson:"version" json:"version"`
}

// Available is the number of sessions that can still be booked.
func (p *TreatmentPackage) Available() int {
	return p.SessionsRemaining - p.SessionsReserved
}
