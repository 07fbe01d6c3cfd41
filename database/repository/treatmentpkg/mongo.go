package treatmentPkgRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meridian/apperrors"
	"meridian/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoPackageRepo struct {
	coll *mongo.Collection
}

func NewMongoPackageRepo(db *mongo.Database) *MongoPackageRepo {
	return &MongoPackageRepo{coll: db.Collection("packages")}
}

func (r *MongoPackageRepo) Create(ctx context.Context, pkg *models.TreatmentPackage) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, pkg); err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}
	return nil
}

func (r *MongoPackageRepo) GetByID(ctx context.Context, id string) (*models.TreatmentPackage, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var pkg models.TreatmentPackage
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&pkg); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("package", id)
		}
		return nil, fmt.Errorf("failed to fetch package %s: %w", id, err)
	}
	return &pkg, nil
}

// Save is a compare-and-swap on the version field.
func (r *MongoPackageRepo) Save(ctx context.Context, pkg *models.TreatmentPackage) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": pkg.ID, "version": pkg.Version}
	update := bson.M{
		"$set": bson.M{
			"sessionsCompleted": pkg.SessionsCompleted,
			"sessionsRemaining": pkg.SessionsRemaining,
			"sessionsReserved":  pkg.SessionsReserved,
			"status":            pkg.Status,
		},
		"$inc": bson.M{"version": 1},
	}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save package %s: %w", pkg.ID, err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, pkg.ID); err != nil {
			return err
		}
		return apperrors.ConcurrentUpdate("package", pkg.ID)
	}
	pkg.Version++
	return nil
}

func (r *MongoPackageRepo) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{
		"status":    models.PackageActive,
		"expiresAt": bson.M{"$lte": now},
	}
	update := bson.M{
		"$set": bson.M{"status": models.PackageExpired},
		"$inc": bson.M{"version": 1},
	}
	result, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire packages: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *MongoPackageRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "patientId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expiresAt", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create package indexes: %w", err)
	}
	return nil
}
