package repository

import (
	"context"

	bookingRepo "meridian/database/repository/booking"
	catalogRepo "meridian/database/repository/catalog"
	patientRepo "meridian/database/repository/patient"
	providerRepo "meridian/database/repository/provider"
	treatmentPkgRepo "meridian/database/repository/treatmentpkg"

	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export the repository interfaces.
type (
	ProviderRepository = providerRepo.ProviderRepository
	BookingRepository  = bookingRepo.BookingRepository
	PackageRepository  = treatmentPkgRepo.PackageRepository
	PatientRepository  = patientRepo.PatientRepository
	ServiceRepository  = catalogRepo.ServiceRepository
)

// Mongo bundles the Mongo backed repositories.
type Mongo struct {
	Providers *providerRepo.MongoProviderRepo
	Bookings  *bookingRepo.MongoBookingRepo
	Packages  *treatmentPkgRepo.MongoPackageRepo
	Patients  *patientRepo.MongoPatientRepo
	Services  *catalogRepo.MongoServiceRepo
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{
		Providers: providerRepo.NewMongoProviderRepo(db),
		Bookings:  bookingRepo.NewMongoBookingRepo(db),
		Packages:  treatmentPkgRepo.NewMongoPackageRepo(db),
		Patients:  patientRepo.NewMongoPatientRepo(db),
		Services:  catalogRepo.NewMongoServiceRepo(db),
	}
}

// EnsureIndexes creates the indexes of every collection.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	steps := []func(context.Context) error{
		m.Providers.EnsureIndexes,
		m.Bookings.EnsureIndexes,
		m.Packages.EnsureIndexes,
		m.Patients.EnsureIndexes,
		m.Services.EnsureIndexes,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}
