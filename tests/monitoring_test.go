package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galemire/elevator-dispatch/internal/infra/health"
	"github.com/galemire/elevator-dispatch/internal/registry"
	"github.com/galemire/elevator-dispatch/metrics"
)

// TestHealthEndpointReportsFleetAndResourceChecks exercises the same mux
// shape ops_server.go builds for /health, without binding a real port.
func TestHealthEndpointReportsFleetAndResourceChecks(t *testing.T) {
	reg := registry.New([]int{0, 1, 2}, 1)

	svc := health.NewHealthService(time.Second)
	svc.Register(health.NewLivenessChecker())
	svc.Register(health.NewSystemResourceChecker(0, 0))
	svc.Register(health.NewFleetChecker(func() (int, int) {
		return len(reg.CarIDs()), reg.FleetSize()
	}))

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status, results := svc.GetOverallStatus(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if status == health.StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": results,
		})
	})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, string(health.StatusHealthy), body["status"])

	checks := body["checks"].(map[string]interface{})
	assert.Contains(t, checks, "liveness")
	assert.Contains(t, checks, "system_resources")
	assert.Contains(t, checks, "fleet")

	reg.Remove(0)
	reg.Remove(1)
	reg.Remove(2)

	req2 := httptest.NewRequest("GET", "/health", nil)
	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusServiceUnavailable, w2.Code)
}

func TestHealthServiceCachesResultsWithinTTL(t *testing.T) {
	calls := 0
	svc := health.NewHealthService(time.Hour)
	svc.Register(countingChecker{name: "counter", onCheck: func() { calls++ }})

	ctx := context.Background()
	svc.CheckAll(ctx)
	svc.CheckAll(ctx)

	assert.Equal(t, 1, calls, "a long cache TTL should serve the second call from cache")
}

type countingChecker struct {
	name    string
	onCheck func()
}

func (c countingChecker) Name() string { return c.name }

func (c countingChecker) Check(ctx context.Context) health.CheckResult {
	c.onCheck()
	return health.CheckResult{Name: c.name, Status: health.StatusHealthy, Timestamp: time.Now()}
}

func TestMetricsAreRegisteredWithDispatchNamespace(t *testing.T) {
	metrics.ObserveAssignmentDuration(0.01)
	metrics.SetCarBusy(0, true)
	metrics.IncFault(0, 1)
	metrics.IncCompletion(0)

	metricFamilies, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := make(map[string]bool)
	for _, mf := range metricFamilies {
		name := mf.GetName()
		if strings.HasPrefix(name, "dispatcher_") {
			found[name] = true
		}
	}

	for _, expected := range []string{
		"dispatcher_assignment_duration_seconds",
		"dispatcher_car_busy",
		"dispatcher_faults_total",
		"dispatcher_completions_total",
	} {
		assert.True(t, found[expected], "expected metric %s not found", expected)
	}
}
