// Package simclient is the HTTP client for the remote battery-swap
// simulation service. The dashboard contains no simulation engine of its
// own; every run is executed remotely and returned as a SimulationResult.
package simclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gridswap/swapdash/internal/types"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a simulation service request when the
// configuration does not specify one.
const DefaultTimeout = 120 * time.Second

// Client talks to the remote simulation service over HTTP/JSON. One client
// is shared by every dashboard session, so per-session credentials travel
// in the request context (WithAuthToken), never on the client itself.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// New creates a simulation service client. A zero timeout selects
// DefaultTimeout.
func New(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type authTokenKey struct{}

// WithAuthToken returns a context whose requests carry the given bearer
// token. The dashboard's session middleware attaches the logged-in
// session's token this way so every upstream call is authenticated.
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, authTokenKey{}, token)
}

func authTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(authTokenKey{}).(string)
	return token
}

// ListProjects retrieves all projects visible to the current user.
func (c *Client) ListProjects(ctx context.Context) ([]types.Project, error) {
	var projects []types.Project
	if err := c.doJSON(ctx, "list projects", http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject retrieves a single project, including its stored baseline KPIs.
func (c *Client) GetProject(ctx context.Context, projectID string) (*types.Project, error) {
	var project types.Project
	path := fmt.Sprintf("/projects/%s", projectID)
	if err := c.doJSON(ctx, "get project", http.MethodGet, path, nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// RunBaseline runs the baseline-only simulation for a project and returns its
// KPI summary and cost breakdown. The service also persists the KPIs on the
// project record.
func (c *Client) RunBaseline(ctx context.Context, projectID string) (*types.KPISummary, *types.CostBreakdown, error) {
	var resp struct {
		Status       string               `json:"status"`
		BaselineKPIs types.KPISummary     `json:"baseline_kpis"`
		Costs        *types.CostBreakdown `json:"costs"`
		Message      string               `json:"message"`
	}
	path := fmt.Sprintf("/projects/%s/baseline/run", projectID)
	if err := c.doJSON(ctx, "run baseline", http.MethodPost, path, nil, &resp); err != nil {
		return nil, nil, err
	}
	return &resp.BaselineKPIs, resp.Costs, nil
}

// ListStations retrieves all stations belonging to a project.
func (c *Client) ListStations(ctx context.Context, projectID string) ([]types.Station, error) {
	var stations []types.Station
	path := fmt.Sprintf("/projects/%s/stations", projectID)
	if err := c.doJSON(ctx, "list stations", http.MethodGet, path, nil, &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// CreateStation creates a station under a project.
func (c *Client) CreateStation(ctx context.Context, projectID string, station types.Station) (*types.Station, error) {
	var created types.Station
	path := fmt.Sprintf("/projects/%s/stations", projectID)
	if err := c.doJSON(ctx, "create station", http.MethodPost, path, station, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateStation patches a station's attributes. Fields holds only the
// attributes being changed.
func (c *Client) UpdateStation(ctx context.Context, projectID, stationID string, fields map[string]interface{}) (*types.Station, error) {
	var updated types.Station
	path := fmt.Sprintf("/projects/%s/stations/%s", projectID, stationID)
	if err := c.doJSON(ctx, "update station", http.MethodPatch, path, fields, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteStation removes a station from a project.
func (c *Client) DeleteStation(ctx context.Context, projectID, stationID string) error {
	path := fmt.Sprintf("/projects/%s/stations/%s", projectID, stationID)
	return c.doJSON(ctx, "delete station", http.MethodDelete, path, nil, nil)
}

// CreateScenario persists a scenario (phase one of the two-phase
// create-then-run flow).
func (c *Client) CreateScenario(ctx context.Context, projectID string, scenario types.Scenario) (*types.Scenario, error) {
	var created types.Scenario
	path := fmt.Sprintf("/projects/%s/scenarios", projectID)
	if err := c.doJSON(ctx, "create scenario", http.MethodPost, path, scenario, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// RunScenario executes a previously created scenario. A payload with
// status "failed" is returned as a result, not an error: the caller decides
// how a simulation-reported failure is surfaced.
func (c *Client) RunScenario(ctx context.Context, projectID, scenarioID string) (*types.SimulationResult, error) {
	var result types.SimulationResult
	path := fmt.Sprintf("/projects/%s/scenarios/%s/run", projectID, scenarioID)
	if err := c.doJSON(ctx, "run scenario", http.MethodPost, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Optimize submits the current baseline KPIs and returns the optimizer's
// suggestions.
func (c *Client) Optimize(ctx context.Context, baseline types.KPISummary) ([]types.OptimizationSuggestion, error) {
	var resp struct {
		Suggestions []types.OptimizationSuggestion `json:"suggestions"`
	}
	if err := c.doJSON(ctx, "optimize", http.MethodPost, "/simulation/optimize", baseline, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

// Login authenticates against the simulation service and returns the
// session tokens.
func (c *Client) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		UserID       string `json:"user_id"`
		Role         string `json:"role"`
	}
	if err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, "", err
	}
	user := &types.User{ID: resp.UserID, Email: email, Role: resp.Role}
	return user, resp.AccessToken, nil
}

// Logout invalidates the remote session. Failures are logged and discarded:
// the local session is cleared regardless, so there is nothing for the
// caller to recover from.
func (c *Client) Logout(ctx context.Context) {
	if err := c.doJSON(ctx, "logout", http.MethodPost, "/auth/logout", nil, nil); err != nil {
		c.logger.Debugf("ignoring logout failure: %v", err)
	}
}

// doJSON performs one request against the service, decoding a JSON response
// into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, op, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := authTokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a bounded amount so the connection can be reused.
		io.CopyN(io.Discard, resp.Body, 4096)
		return &Error{Kind: KindRemoteStatus, Op: op, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindNetworkFailure, Op: op, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}
