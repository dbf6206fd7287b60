package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"batchgen/internal/domain"
	"batchgen/internal/http/handlers"
	"batchgen/internal/middleware"
)

type stubJobs struct {
	domain.BatchJobAdmin
}

func (stubJobs) GetJob(_ context.Context, jobID string) (*domain.BatchJob, error) {
	if jobID == "11111111-2222-4333-8444-555555555555" {
		return &domain.BatchJob{ID: jobID, Status: domain.BatchJobPending}, nil
	}
	return nil, domain.ErrNotFound
}

func (stubJobs) ClaimNextJob(context.Context, time.Duration) (*domain.BatchJob, error) {
	return nil, errors.New("not used")
}

func newTestRouter(secret string) http.Handler {
	app := handlers.NewApp(stubJobs{}, nil, nil, nil)
	return NewRouter(app, Options{Logger: zerolog.Nop(), RateLimitPerMin: 100, AdminJWTSecret: secret})
}

func TestRouterHealthIsPublic(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter("s3cret").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing X-Request-ID")
	}
}

func TestRouterRequiresAdminToken(t *testing.T) {
	h := newTestRouter("s3cret")
	path := "/v1/batch-jobs/11111111-2222-4333-8444-555555555555"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	token, err := middleware.SignJWT("s3cret", middleware.TokenClaims{
		Scope:            middleware.ScopeBatchAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ops"},
	})
	if err != nil {
		t.Fatalf("SignJWT error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status with token = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestRouterOpenAPIServed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter("").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil))
	if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Fatalf("status = %d, body %d bytes", rec.Code, rec.Body.Len())
	}
}
