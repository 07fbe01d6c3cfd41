package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"meridian/apperrors"
	"meridian/models"

	"go.uber.org/zap"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet {
		return nil, false, errors.New("connection refused")
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

type mockServiceRepository struct {
	services map[string]models.Service
	gets     int
}

func (m *mockServiceRepository) GetByID(ctx context.Context, id string) (*models.Service, error) {
	m.gets++
	svc, ok := m.services[id]
	if !ok {
		return nil, apperrors.NotFound("service", id)
	}
	return &svc, nil
}

func (m *mockServiceRepository) List(ctx context.Context, publishedOnly bool) ([]models.Service, error) {
	out := []models.Service{}
	for _, svc := range m.services {
		if publishedOnly && !svc.Published {
			continue
		}
		out = append(out, svc)
	}
	return out, nil
}

func (m *mockServiceRepository) Upsert(ctx context.Context, svc *models.Service) error {
	m.services[svc.ID] = *svc
	return nil
}

func newTestCatalog() (*DefaultCatalogService, *mockServiceRepository, *memoryCache) {
	repo := &mockServiceRepository{services: map[string]models.Service{
		"neck-relief": {ID: "neck-relief", Name: "Neck Relief", Price: 900, DurationMinutes: 45, Published: true},
		"draft":       {ID: "draft", Name: "Draft", Price: 500, DurationMinutes: 30},
	}}
	cache := newMemoryCache()
	return NewCatalogService(repo, cache, time.Minute, zap.NewNop()), repo, cache
}

func TestGetReadsThroughCache(t *testing.T) {
	svc, repo, _ := newTestCatalog()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := svc.Get(ctx, "neck-relief")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Name != "Neck Relief" {
			t.Errorf("unexpected service %+v", got)
		}
	}
	if repo.gets != 1 {
		t.Errorf("expected a single repository read, got %d", repo.gets)
	}
}

func TestGetFallsBackWhenCacheFails(t *testing.T) {
	svc, repo, cache := newTestCatalog()
	cache.failGet = true

	if _, err := svc.Get(context.Background(), "neck-relief"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.gets != 1 {
		t.Errorf("expected repository read, got %d", repo.gets)
	}
}

func TestGetUnknownService(t *testing.T) {
	svc, _, _ := newTestCatalog()
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUpsertInvalidatesCache(t *testing.T) {
	svc, _, cache := newTestCatalog()
	ctx := context.Background()

	if _, err := svc.ListPublished(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(ctx, "draft"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.Upsert(ctx, &models.Service{ID: "draft", Name: "Back Care", Price: 1200, DurationMinutes: 60, Published: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, serviceKeyPrefix+"draft"); ok {
		t.Error("expected service entry to be invalidated")
	}

	published, err := svc.ListPublished(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(published) != 2 {
		t.Errorf("expected 2 published services after upsert, got %d", len(published))
	}
}

func TestUpsertValidates(t *testing.T) {
	svc, _, _ := newTestCatalog()
	err := svc.Upsert(context.Background(), &models.Service{ID: "bad", Name: "", DurationMinutes: 0})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
