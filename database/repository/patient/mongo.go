package patientRepo

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

type MongoPatientRepo struct {
	coll *mongo.Collection
}

func NewMongoPatientRepo(db *mongo.Database) *MongoPatientRepo {
	return &MongoPatientRepo{coll: db.Collection("patients")}
}

func (r *MongoPatientRepo) Create(ctx context.Context, patient *models.Patient) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, patient); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("DUPLICATE_PATIENT", "a patient with this phone number already exists")
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *MongoPatientRepo) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var patient models.Patient
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&patient); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("patient", id)
		}
		return nil, fmt.Errorf("failed to fetch patient %s: %w", id, err)
	}
	if patient.PainHistory == nil {
		patient.PainHistory = []models.PainScoreEntry{}
	}
	return &patient, nil
}

func (r *MongoPatientRepo) SetActivePackage(ctx context.Context, patientID, packageID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	update := bson.M{"$set": bson.M{"activePackageId": packageID, "updatedAt": time.Now()}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": patientID}, update)
	if err != nil {
		return fmt.Errorf("failed to set active package for patient %s: %w", patientID, err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFound("patient", patientID)
	}
	return nil
}

func (r *MongoPatientRepo) AppendPainScore(ctx context.Context, patientID string, entry models.PainScoreEntry) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":                        patientID,
		"painHistory.sessionNumber": bson.M{"$ne": entry.SessionNumber},
	}
	update := bson.M{
		"$push": bson.M{"painHistory": entry},
		"$set":  bson.M{"currentPainScore": entry.Score, "updatedAt": time.Now()},
	}
	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to append pain score for patient %s: %w", patientID, err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, patientID); err != nil {
			return err
		}
		return apperrors.ConcurrentUpdate("patient", patientID)
	}
	return nil
}

func (r *MongoPatientRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create patient indexes: %w", err)
	}
	return nil
}
