package providerRepo

import (
	"context"

	"meridian/models"
)

// ProviderRepository defines methods for provider data access.
type ProviderRepository interface {
	// GetByID retrieves a provider by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	// Create inserts a new provider record.
	Create(ctx context.Context, provider *models.Provider) error
	// List returns providers matching filter, highest rated first.
	List(ctx context.Context, filter models.ProviderFilter) ([]models.Provider, error)
	// FindEligible returns active providers in area offering serviceID, in dispatch order.
	FindEligible(ctx context.Context, area models.ServiceArea, serviceID string) ([]models.Provider, error)
	// UpdateStatus changes the registry status of a provider.
	UpdateStatus(ctx context.Context, id string, status models.ProviderStatus) error
	// RecordCompletion bumps the completed session counter of a provider.
	RecordCompletion(ctx context.Context, id string) error
}
