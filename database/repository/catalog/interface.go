package catalogRepo

import (
	"context"

	"meridian/models"
)

type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*models.Service, error)
	List(ctx context.Context, publishedOnly bool) ([]models.Service, error)
	Upsert(ctx context.Context, service *models.Service) error
}
