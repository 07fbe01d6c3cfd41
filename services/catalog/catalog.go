package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"meridian/apperrors"
	catalogRepo "meridian/database/repository/catalog"
	"meridian/models"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	serviceKeyPrefix = "catalog:service:"
	publishedListKey = "catalog:published"
)

// Service is the read side of the treatment catalog used by bookings and the API.
type Service interface {
	Get(ctx context.Context, id string) (*models.Service, error)
	ListPublished(ctx context.Context) ([]models.Service, error)
	Upsert(ctx context.Context, svc *models.Service) error
}

type DefaultCatalogService struct {
	Repo     catalogRepo.ServiceRepository
	Cache    Cache
	TTL      time.Duration
	Logger   *zap.Logger
	validate *validator.Validate
}

func NewCatalogService(repo catalogRepo.ServiceRepository, cache Cache, ttl time.Duration, logger *zap.Logger) *DefaultCatalogService {
	return &DefaultCatalogService{
		Repo:     repo,
		Cache:    cache,
		TTL:      ttl,
		Logger:   logger,
		validate: validator.New(),
	}
}

// Get reads through the cache. Cache failures fall back to the repository.
func (s *DefaultCatalogService) Get(ctx context.Context, id string) (*models.Service, error) {
	key := serviceKeyPrefix + id
	if raw, ok, err := s.Cache.Get(ctx, key); err != nil {
		s.Logger.Warn("catalog cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var svc models.Service
		if err := json.Unmarshal(raw, &svc); err == nil {
			return &svc, nil
		}
	}

	svc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, svc)
	return svc, nil
}

func (s *DefaultCatalogService) ListPublished(ctx context.Context) ([]models.Service, error) {
	if raw, ok, err := s.Cache.Get(ctx, publishedListKey); err != nil {
		s.Logger.Warn("catalog cache read failed", zap.String("key", publishedListKey), zap.Error(err))
	} else if ok {
		var services []models.Service
		if err := json.Unmarshal(raw, &services); err == nil {
			return services, nil
		}
	}

	services, err := s.Repo.List(ctx, true)
	if err != nil {
		return nil, err
	}
	s.store(ctx, publishedListKey, services)
	return services, nil
}

func (s *DefaultCatalogService) Upsert(ctx context.Context, svc *models.Service) error {
	if err := s.validate.Struct(svc); err != nil {
		return apperrors.Validation(fmt.Sprintf("invalid service: %v", err))
	}
	svc.UpdatedAt = time.Now()
	if err := s.Repo.Upsert(ctx, svc); err != nil {
		return err
	}
	if err := s.Cache.Del(ctx, serviceKeyPrefix+svc.ID, publishedListKey); err != nil {
		s.Logger.Warn("catalog cache invalidation failed", zap.String("serviceId", svc.ID), zap.Error(err))
	}
	return nil
}

func (s *DefaultCatalogService) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, key, raw, s.TTL); err != nil {
		s.Logger.Warn("catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
