// internal/api/server_test.go
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/altalpha/lab/internal/config"
	"github.com/altalpha/lab/internal/core"
	"github.com/altalpha/lab/internal/metrics"
	"github.com/altalpha/lab/internal/research"
	"github.com/altalpha/lab/internal/sentiment"
	"go.uber.org/zap"
)

type stubProvider struct{}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) FetchDailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.DailyBar, error) {
	bars := make([]core.DailyBar, 30)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	for i := range bars {
		bars[i] = core.DailyBar{Date: base.AddDate(0, 0, i), Close: price}
		price *= 1.005
	}
	return bars, nil
}

func testServer(apiKey string) *Server {
	cfg := config.Defaults()
	cfg.Server.APIKey = apiKey
	cfg.Data.StartDate = "2024-01-01"
	cfg.Data.EndDate = "2024-03-01"

	reg := metrics.NewRegistry()
	svc := research.NewService(cfg, &stubProvider{}, sentiment.NewMock(), nil, reg, zap.NewNop())
	return NewServer(cfg, svc, reg, zap.NewNop(), "test")
}

func do(s *Server, method, path, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s := testServer("")

	rec := do(s, "GET", "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestServer_HealthSkipsAuth(t *testing.T) {
	s := testServer("secret")

	rec := do(s, "GET", "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health should not require a key, got %d", rec.Code)
	}
}

func TestServer_AuthEnforcedOnAPI(t *testing.T) {
	s := testServer("secret")

	rec := do(s, "GET", "/api/features?ticker=AAPL", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without key", rec.Code)
	}

	rec = do(s, "GET", "/api/features?ticker=AAPL", "secret")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with key, body %s", rec.Code, rec.Body.String())
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	s := testServer("")

	rec := do(s, "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("expected prometheus exposition output")
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	s := testServer("")

	rec := do(s, "GET", "/api/does-not-exist", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
