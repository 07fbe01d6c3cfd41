package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meridian/config"
	"meridian/database/repository/memory"
	"meridian/handlers"
	"meridian/models"
	"meridian/services/booking"
	"meridian/services/catalog"
	"meridian/services/dispatch"
	"meridian/services/events"
	"meridian/services/registry"
	"meridian/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type nopNotifier struct{}

func (nopNotifier) NotifyAssignment(ctx context.Context, id string) error   { return nil }
func (nopNotifier) NotifyConfirmation(ctx context.Context, id string) error { return nil }

type mapCache map[string][]byte

func (m mapCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapCache) Set(ctx context.Context, key string, v []byte, ttl time.Duration) error {
	m[key] = v
	return nil
}

func (m mapCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m, k)
	}
	return nil
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	prev := config.AppConfig.JWTSecret
	config.AppConfig.JWTSecret = "routes-test-secret"
	t.Cleanup(func() { config.AppConfig.JWTSecret = prev })

	logger := zap.NewNop()
	store := memory.NewStore()
	publisher := events.LogPublisher{Logger: logger}
	catalogSvc := catalog.NewCatalogService(store.Services(), mapCache{}, time.Minute, logger)
	matcher := dispatch.NewMatcher(store.Providers(), store.Bookings(), nopNotifier{}, publisher, logger)
	bookingSvc := &booking.DefaultBookingService{
		Bookings:  store.Bookings(),
		Packages:  store.Packages(),
		Patients:  store.Patients(),
		Providers: store.Providers(),
		Catalog:   catalogSvc,
		Tx:        store,
		Notifier:  nopNotifier{},
		Events:    publisher,
		Logger:    logger,
	}
	registrySvc := registry.NewRegistryService(store.Providers(), store.Patients(), store.Packages(), store, logger)

	r := gin.New()
	RegisterRoutes(r, &handlers.HandlerBundle{
		Booking:  handlers.NewBookingHandler(bookingSvc, matcher),
		Registry: handlers.NewRegistryHandler(registrySvc),
		Catalog:  handlers.NewCatalogHandler(catalogSvc),
	}, 10000)
	return &testServer{t: t, engine: r, store: store}
}

func (s *testServer) do(method, path string, caller *models.Caller, body any, out any) int {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		token, err := utils.GenerateToken(caller.ID, caller.Role, time.Hour)
		if err != nil {
			s.t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			s.t.Fatalf("%s %s: cannot decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

var adminCaller = &models.Caller{ID: "adm-1", Role: models.RoleAdmin}

func TestBookingFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)

	var svc models.Service
	if code := s.do(http.MethodPut, "/api/admin/services/svc-back", adminCaller,
		map[string]any{"name": "Back pain relief", "price": 1000, "durationMinutes": 60, "targetCondition": "back pain", "published": true}, &svc); code != http.StatusOK {
		t.Fatalf("upsert service: %d", code)
	}

	var patient models.Patient
	if code := s.do(http.MethodPost, "/api/admin/patients", adminCaller,
		map[string]any{"name": "Amina Otieno", "phone": "+254700000001", "serviceArea": "west", "initialPainScore": 8}, &patient); code != http.StatusCreated {
		t.Fatalf("create patient: %d", code)
	}
	var pkg models.TreatmentPackage
	if code := s.do(http.MethodPost, "/api/patients/"+patient.ID+"/packages", adminCaller,
		map[string]any{"type": "basic"}, &pkg); code != http.StatusCreated {
		t.Fatalf("purchase package: %d", code)
	}

	patientCaller := &models.Caller{ID: patient.ID, Role: models.RolePatient}
	var created models.Booking
	if code := s.do(http.MethodPost, "/api/bookings", patientCaller, map[string]any{
		"packageId": pkg.ID, "serviceId": "svc-back", "requestedDate": "2024-07-01", "requestedTime": "09:00", "address": "4 Kilimani Rd",
	}, &created); code != http.StatusCreated {
		t.Fatalf("create booking: %d", code)
	}

	// Nobody serves the west yet.
	var errBody utils.ErrorResponse
	if code := s.do(http.MethodPost, "/api/bookings/"+created.ID+"/assign", adminCaller,
		map[string]any{"providerId": "anyone"}, &errBody); code != http.StatusConflict {
		t.Fatalf("assign without providers: expected 409, got %d", code)
	}
	if errBody.Code != "NO_ELIGIBLE_PROVIDER" || errBody.Message != "no providers available in west" {
		t.Errorf("unexpected error body %+v", errBody)
	}

	var prov models.Provider
	if code := s.do(http.MethodPost, "/api/admin/providers", adminCaller, map[string]any{
		"name": "Grace Wanjiru", "phone": "+254711111111", "serviceArea": "west", "offeredServices": []string{"svc-back"}, "rating": 4.6,
	}, &prov); code != http.StatusCreated {
		t.Fatalf("register provider: %d", code)
	}
	if code := s.do(http.MethodPatch, "/api/admin/providers/"+prov.ID+"/status", adminCaller,
		map[string]any{"status": "active"}, nil); code != http.StatusOK {
		t.Fatalf("activate provider: %d", code)
	}

	var candidates struct {
		Providers []models.Provider `json:"providers"`
	}
	if code := s.do(http.MethodGet, "/api/bookings/"+created.ID+"/candidates", adminCaller, nil, &candidates); code != http.StatusOK || len(candidates.Providers) != 1 {
		t.Fatalf("candidates: %d %+v", code, candidates)
	}
	if code := s.do(http.MethodPost, "/api/bookings/"+created.ID+"/assign", adminCaller,
		map[string]any{"providerId": prov.ID}, nil); code != http.StatusOK {
		t.Fatalf("assign: %d", code)
	}

	providerCaller := &models.Caller{ID: prov.ID, Role: models.RoleProvider}
	if code := s.do(http.MethodPost, "/api/bookings/"+created.ID+"/confirm", providerCaller, nil, nil); code != http.StatusOK {
		t.Fatalf("confirm: %d", code)
	}
	var done models.Booking
	if code := s.do(http.MethodPost, "/api/bookings/"+created.ID+"/complete", providerCaller,
		map[string]any{"painBefore": 8, "painAfter": 5, "notes": "good response"}, &done); code != http.StatusOK {
		t.Fatalf("complete: %d", code)
	}
	if done.Status != models.StatusCompleted {
		t.Errorf("expected completed, got %s", done.Status)
	}

	var report struct {
		PercentComplete      int    `json:"percentComplete"`
		PainReductionPercent int    `json:"painReductionPercent"`
		Trend                string `json:"trend"`
	}
	if code := s.do(http.MethodGet, "/api/patients/"+patient.ID+"/progress", patientCaller, nil, &report); code != http.StatusOK {
		t.Fatalf("progress: %d", code)
	}
	if report.PercentComplete != 25 || report.PainReductionPercent != 38 || report.Trend != "stable" {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestRouteGuards(t *testing.T) {
	s := newTestServer(t)
	patientCaller := &models.Caller{ID: "pat-1", Role: models.RolePatient}
	providerCaller := &models.Caller{ID: "prov-1", Role: models.RoleProvider}

	tests := []struct {
		name   string
		method string
		path   string
		caller *models.Caller
		body   any
		want   int
	}{
		{"no token", http.MethodGet, "/api/bookings", nil, nil, http.StatusUnauthorized},
		{"patient on admin group", http.MethodGet, "/api/admin/providers", patientCaller, nil, http.StatusForbidden},
		{"provider cannot create bookings", http.MethodPost, "/api/bookings", providerCaller, map[string]any{}, http.StatusForbidden},
		{"patient cannot assign", http.MethodPost, "/api/bookings/b-1/assign", patientCaller, map[string]any{"providerId": "x"}, http.StatusForbidden},
		{"missing booking fields", http.MethodPost, "/api/bookings", patientCaller, map[string]any{"serviceId": "svc"}, http.StatusBadRequest},
		{"unknown booking", http.MethodGet, "/api/bookings/nope", adminCaller, nil, http.StatusNotFound},
		{"bad limit", http.MethodGet, "/api/bookings?limit=abc", adminCaller, nil, http.StatusBadRequest},
		{"health is public", http.MethodGet, "/health", nil, nil, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.do(tc.method, tc.path, tc.caller, tc.body, nil); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
