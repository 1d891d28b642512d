package config

import "strings"

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSimService() (*SimServiceData, error)
	GetControllers() ([]ControllerData, error)
	GetArchiveConfig() (*ArchiveData, error)

	// UpdateManagementToken persists a newly generated management auth
	// token. Read-only providers return an error.
	UpdateManagementToken(token string) error

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	SimService  SimServiceData   `json:"sim_service"`
	Playback    PlaybackData     `json:"playback,omitempty"`
	Archive     ArchiveData      `json:"archive,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty"`
}

// SimServiceData holds the connection settings for the remote simulation
// service that the dashboard is a client of.
type SimServiceData struct {
	BaseURL string `json:"base_url"`
	// TimeoutSeconds bounds every request to the simulation service. A
	// request exceeding it surfaces as a timed-out error rather than
	// leaving a run in progress forever.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// PlaybackData holds timeline playback tuning.
type PlaybackData struct {
	// BaseIntervalMS is the tick interval at 1x speed, in milliseconds.
	BaseIntervalMS int `json:"base_interval_ms,omitempty"`
}

// ArchiveData holds the configuration for run-history archive backends.
type ArchiveData struct {
	SQLite   *SQLiteArchiveData   `json:"sqlite,omitempty"`
	Postgres *PostgresArchiveData `json:"postgres,omitempty"`
}

type SQLiteArchiveData struct {
	Path string `json:"path"`
}

type PostgresArchiveData struct {
	ConnectionString string `json:"connection_string"`
}

// ControllerData holds the configuration for the HTTP controller surfaces
type ControllerData struct {
	Type          string             `json:"type,omitempty"`
	Dashboard     *DashboardData     `json:"dashboard,omitempty"`
	ManagementAPI *ManagementAPIData `json:"management,omitempty"`
}

// DashboardData configures the browser-facing dashboard API server.
type DashboardData struct {
	ListenAddr         string   `json:"listen_addr,omitempty"`
	Port               int      `json:"port,omitempty"`
	TLSCertPath        string   `json:"cert,omitempty"`
	TLSKeyPath         string   `json:"key,omitempty"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins,omitempty"`
}

// ManagementAPIData configures the token-authenticated management API.
type ManagementAPIData struct {
	Cert       string `json:"cert,omitempty"`
	Key        string `json:"key,omitempty"`
	Port       int    `json:"port,omitempty"`
	ListenAddr string `json:"listen_addr,omitempty"`
	AuthToken  string `json:"auth_token,omitempty"`
}

// splitOrigins parses a comma-separated origin list from a single
// database column into a slice.
func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
