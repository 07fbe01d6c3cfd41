package providerRepo

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

// dispatchOrder is rating desc, then experience desc, then id for a stable tie-break.
var dispatchOrder = bson.D{
	{Key: "rating", Value: -1},
	{Key: "experienceYears", Value: -1},
	{Key: "id", Value: 1},
}

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

// NewMongoProviderRepo creates a new instance of ProviderRepository using MongoDB.
func NewMongoProviderRepo(db *mongo.Database) *MongoProviderRepo {
	return &MongoProviderRepo{coll: db.Collection("providers")}
}

// newContext derives a context with the given timeout.
func newContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

func (r *MongoProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()
	var provider models.Provider
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&provider); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("provider", id)
		}
		return nil, fmt.Errorf("failed to fetch provider with id %s: %w", id, err)
	}
	return &provider, nil
}

func (r *MongoProviderRepo) Create(ctx context.Context, provider *models.Provider) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()
	if _, err := r.coll.InsertOne(ctx, provider); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Conflict("DUPLICATE_PROVIDER", "a provider with this phone number already exists")
		}
		return fmt.Errorf("failed to create provider: %w", err)
	}
	return nil
}

func (r *MongoProviderRepo) List(ctx context.Context, filter models.ProviderFilter) ([]models.Provider, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filter.ServiceArea != "" {
		query["serviceArea"] = filter.ServiceArea
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return r.find(ctx, query)
}

// FindEligible applies the dispatch predicate in the query itself.
func (r *MongoProviderRepo) FindEligible(ctx context.Context, area models.ServiceArea, serviceID string) ([]models.Provider, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	query := bson.M{
		"status":          models.ProviderActive,
		"serviceArea":     area,
		"offeredServices": serviceID,
	}
	return r.find(ctx, query)
}

func (r *MongoProviderRepo) find(ctx context.Context, query bson.M) ([]models.Provider, error) {
	cursor, err := r.coll.Find(ctx, query, options.Find().SetSort(dispatchOrder))
	if err != nil {
		return nil, fmt.Errorf("provider query failed: %w", err)
	}
	defer cursor.Close(ctx)

	providers := []models.Provider{}
	for cursor.Next(ctx) {
		var p models.Provider
		if err := cursor.Decode(&p); err != nil {
			return nil, fmt.Errorf("failed to decode provider: %w", err)
		}
		providers = append(providers, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return providers, nil
}

func (r *MongoProviderRepo) UpdateStatus(ctx context.Context, id string, status models.ProviderStatus) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update provider with id %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFound("provider", id)
	}
	return nil
}

func (r *MongoProviderRepo) RecordCompletion(ctx context.Context, id string) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()
	update := bson.M{
		"$inc": bson.M{"completedCount": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to record completion for provider %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFound("provider", id)
	}
	return nil
}
