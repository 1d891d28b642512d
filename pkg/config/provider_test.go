package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testYAML = `
sim_service:
  base_url: http://localhost:9000
  timeout_seconds: 90
playback:
  base_interval_ms: 250
archive:
  sqlite:
    path: /var/lib/swapdash/runs.db
controllers:
  - type: dashboard
    dashboard:
      port: 8080
      cors_allowed_origins:
        - http://localhost:5173
  - type: management
    management:
      port: 8081
      listen_addr: 127.0.0.1
      auth_token: secret-token
`

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	p := NewYAMLProvider(writeTempYAML(t, testYAML))

	cfg, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.SimService.BaseURL != "http://localhost:9000" || cfg.SimService.TimeoutSeconds != 90 {
		t.Errorf("sim service config: %+v", cfg.SimService)
	}
	if cfg.Playback.BaseIntervalMS != 250 {
		t.Errorf("playback config: %+v", cfg.Playback)
	}
	if cfg.Archive.SQLite == nil || cfg.Archive.SQLite.Path != "/var/lib/swapdash/runs.db" {
		t.Errorf("archive config: %+v", cfg.Archive)
	}
	if cfg.Archive.Postgres != nil {
		t.Errorf("postgres archive should be absent: %+v", cfg.Archive.Postgres)
	}

	if len(cfg.Controllers) != 2 {
		t.Fatalf("controllers = %d, want 2", len(cfg.Controllers))
	}
	dash := cfg.Controllers[0]
	if dash.Type != "dashboard" || dash.Dashboard == nil || dash.Dashboard.Port != 8080 {
		t.Errorf("dashboard controller: %+v", dash)
	}
	if len(dash.Dashboard.CORSAllowedOrigins) != 1 {
		t.Errorf("cors origins: %+v", dash.Dashboard.CORSAllowedOrigins)
	}
	mgmt := cfg.Controllers[1]
	if mgmt.Type != "management" || mgmt.ManagementAPI == nil || mgmt.ManagementAPI.AuthToken != "secret-token" {
		t.Errorf("management controller: %+v", mgmt)
	}
}

func TestYAMLProviderRejectsUnknownController(t *testing.T) {
	p := NewYAMLProvider(writeTempYAML(t, `
sim_service:
  base_url: http://localhost:9000
controllers:
  - type: gopher
`))
	if _, err := p.LoadConfig(); err == nil {
		t.Fatal("expected error for unknown controller type")
	}
}

func TestYAMLProviderIsReadOnly(t *testing.T) {
	p := NewYAMLProvider(writeTempYAML(t, testYAML))
	if !p.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}
	if err := p.UpdateManagementToken("new-token"); err == nil {
		t.Error("UpdateManagementToken should fail for YAML provider")
	}
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.db")
	p, err := NewSQLiteProvider(path)
	if err != nil {
		t.Fatalf("NewSQLiteProvider: %v", err)
	}
	defer p.Close()

	seed := []string{
		`INSERT INTO sim_service (id, base_url, timeout_seconds) VALUES (1, 'http://sim:9000', 120)`,
		`INSERT INTO playback (id, base_interval_ms) VALUES (1, 500)`,
		`INSERT INTO archive (id, sqlite_path) VALUES (1, '/tmp/runs.db')`,
		`INSERT INTO controllers (type, listen_addr, port, cors_allowed_origins)
		 VALUES ('dashboard', '0.0.0.0', 8080, 'http://a.example, http://b.example')`,
	}
	for _, stmt := range seed {
		if _, err := p.db.Exec(stmt); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	cfg, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SimService.BaseURL != "http://sim:9000" {
		t.Errorf("sim service: %+v", cfg.SimService)
	}
	if cfg.Playback.BaseIntervalMS != 500 {
		t.Errorf("playback: %+v", cfg.Playback)
	}
	if cfg.Archive.SQLite == nil || cfg.Archive.SQLite.Path != "/tmp/runs.db" {
		t.Errorf("archive: %+v", cfg.Archive)
	}
	if len(cfg.Controllers) != 1 || cfg.Controllers[0].Dashboard == nil {
		t.Fatalf("controllers: %+v", cfg.Controllers)
	}
	if got := cfg.Controllers[0].Dashboard.CORSAllowedOrigins; len(got) != 2 || got[0] != "http://a.example" {
		t.Errorf("cors origins: %+v", got)
	}
}

func TestSQLiteProviderTokenUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.db")
	p, err := NewSQLiteProvider(path)
	if err != nil {
		t.Fatalf("NewSQLiteProvider: %v", err)
	}
	defer p.Close()

	if _, err := p.db.Exec(`INSERT INTO sim_service (id, base_url) VALUES (1, 'http://sim:9000')`); err != nil {
		t.Fatal(err)
	}

	// No management row yet: update inserts one.
	if err := p.UpdateManagementToken("tok-1"); err != nil {
		t.Fatalf("UpdateManagementToken: %v", err)
	}
	controllers, err := p.GetControllers()
	if err != nil {
		t.Fatal(err)
	}
	if len(controllers) != 1 || controllers[0].ManagementAPI.AuthToken != "tok-1" {
		t.Fatalf("after insert: %+v", controllers)
	}

	// Existing row: update replaces the token.
	if err := p.UpdateManagementToken("tok-2"); err != nil {
		t.Fatalf("UpdateManagementToken: %v", err)
	}
	controllers, err = p.GetControllers()
	if err != nil {
		t.Fatal(err)
	}
	if len(controllers) != 1 || controllers[0].ManagementAPI.AuthToken != "tok-2" {
		t.Fatalf("after update: %+v", controllers)
	}
}
