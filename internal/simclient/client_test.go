package simclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gridswap/swapdash/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, timeout, zap.NewNop().Sugar())
}

func TestRunScenarioDecodesResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/projects/p1/scenarios/s1/run" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(types.SimulationResult{
			ScenarioID: "s1",
			Status:     "completed",
			KPIs:       &types.KPISummary{City: types.CityKPI{AvgWaitTime: 3.4}},
		})
	}, 0)

	result, err := c.RunScenario(context.Background(), "p1", "s1")
	if err != nil {
		t.Fatalf("RunScenario: %v", err)
	}
	if result.Status != "completed" || result.KPIs.City.AvgWaitTime != 3.4 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRunScenarioReportedFailureIsAResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.SimulationResult{
			ScenarioID: "s1",
			Status:     "failed",
			Error:      "demand exceeded capacity",
		})
	}, 0)

	result, err := c.RunScenario(context.Background(), "p1", "s1")
	if err != nil {
		t.Fatalf("a reported failure is data, not a transport error: %v", err)
	}
	if result.Status != "failed" || result.Error == "" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRemoteStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}, 0)

	_, err := c.RunScenario(context.Background(), "p1", "s1")
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if se.Kind != KindRemoteStatus || se.StatusCode != http.StatusInternalServerError {
		t.Errorf("unexpected error: %+v", se)
	}
	if IsTimedOut(err) {
		t.Error("remote status must not classify as timeout")
	}
}

func TestTimeoutClassification(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}, 20*time.Millisecond)

	_, err := c.RunScenario(context.Background(), "p1", "s1")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTimedOut(err) {
		t.Errorf("expected timed-out classification, got %v", err)
	}
}

func TestNetworkFailureClassification(t *testing.T) {
	// Closed server: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New(url, time.Second, zap.NewNop().Sugar())
	_, err := c.ListProjects(context.Background())
	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if se.Kind != KindNetworkFailure {
		t.Errorf("kind = %v, want network failure", se.Kind)
	}
}

func TestContextAuthTokenIsSent(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]types.Project{})
	}, 0)

	ctx := WithAuthToken(context.Background(), "tok-123")
	if _, err := c.ListProjects(ctx); err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if got != "Bearer tok-123" {
		t.Errorf("Authorization = %q", got)
	}

	// A bare context sends no Authorization header.
	got = "unset"
	if _, err := c.ListProjects(context.Background()); err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if got != "" {
		t.Errorf("Authorization without token = %q, want empty", got)
	}
}

func TestBaselineRunDecodesCosts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":        "completed",
			"baseline_kpis": types.KPISummary{City: types.CityKPI{AvgWaitTime: 4.1}},
			"costs":         types.CostBreakdown{Summary: types.CostSummary{TotalCost: 120000}},
		})
	}, 0)

	kpis, costs, err := c.RunBaseline(context.Background(), "p1")
	if err != nil {
		t.Fatalf("RunBaseline: %v", err)
	}
	if kpis.City.AvgWaitTime != 4.1 {
		t.Errorf("unexpected KPIs: %+v", kpis)
	}
	if costs == nil || costs.Summary.TotalCost != 120000 {
		t.Errorf("unexpected costs: %+v", costs)
	}
}
