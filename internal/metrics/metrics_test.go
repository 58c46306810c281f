package metrics

import (
	"testing"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(mfs) == 0 {
		t.Error("expected go runtime metrics to be registered")
	}
}

func gatherNames(t *testing.T, reg *Registry) map[string]bool {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	names := make(map[string]bool, len(mfs))
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	return names
}

func TestRegistry_RecordRequest(t *testing.T) {
	reg := NewRegistry()

	reg.RecordRequest("GET", "/api/features", 200, 0.05)

	names := gatherNames(t, reg)
	if !names["http_requests_total"] {
		t.Error("expected http_requests_total metric")
	}
	if !names["http_request_duration_seconds"] {
		t.Error("expected http_request_duration_seconds metric")
	}
}

func TestRegistry_BusinessMetrics(t *testing.T) {
	reg := NewRegistry()

	reg.RecordBacktest("ok", 0.2)
	reg.RecordOptimization("ok", 12.5)
	reg.RecordSimulation("error")
	reg.RecordCollectorRequest("yahoo", "ok")
	reg.SetJobsActive("optimize", 3)

	names := gatherNames(t, reg)
	for _, want := range []string{
		"altalpha_backtests_total",
		"altalpha_backtest_duration_seconds",
		"altalpha_optimizations_total",
		"altalpha_optimization_duration_seconds",
		"altalpha_simulations_total",
		"altalpha_collector_requests_total",
		"altalpha_jobs_active",
	} {
		if !names[want] {
			t.Errorf("expected %s metric", want)
		}
	}
}

func TestStatusToString(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		if got := statusToString(tt.status); got != tt.expected {
			t.Errorf("statusToString(%d) = %s, want %s", tt.status, got, tt.expected)
		}
	}
}
