package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		SimService struct {
			BaseURL        string `yaml:"base_url"`
			TimeoutSeconds int    `yaml:"timeout_seconds"`
		} `yaml:"sim_service"`
		Playback struct {
			BaseIntervalMS int `yaml:"base_interval_ms"`
		} `yaml:"playback,omitempty"`
		Archive struct {
			SQLite struct {
				Path string `yaml:"path"`
			} `yaml:"sqlite,omitempty"`
			Postgres struct {
				ConnectionString string `yaml:"connection_string"`
			} `yaml:"postgres,omitempty"`
		} `yaml:"archive,omitempty"`
		Controllers []struct {
			Type      string `yaml:"type"`
			Dashboard struct {
				ListenAddr         string   `yaml:"listen_addr"`
				Port               int      `yaml:"port"`
				Cert               string   `yaml:"cert"`
				Key                string   `yaml:"key"`
				CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
			} `yaml:"dashboard,omitempty"`
			Management struct {
				ListenAddr string `yaml:"listen_addr"`
				Port       int    `yaml:"port"`
				Cert       string `yaml:"cert"`
				Key        string `yaml:"key"`
				AuthToken  string `yaml:"auth_token"`
			} `yaml:"management,omitempty"`
		} `yaml:"controllers,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		SimService: SimServiceData{
			BaseURL:        yamlConfig.SimService.BaseURL,
			TimeoutSeconds: yamlConfig.SimService.TimeoutSeconds,
		},
		Playback: PlaybackData{
			BaseIntervalMS: yamlConfig.Playback.BaseIntervalMS,
		},
		Controllers: make([]ControllerData, 0, len(yamlConfig.Controllers)),
	}

	if yamlConfig.Archive.SQLite.Path != "" {
		config.Archive.SQLite = &SQLiteArchiveData{Path: yamlConfig.Archive.SQLite.Path}
	}
	if yamlConfig.Archive.Postgres.ConnectionString != "" {
		config.Archive.Postgres = &PostgresArchiveData{ConnectionString: yamlConfig.Archive.Postgres.ConnectionString}
	}

	for _, con := range yamlConfig.Controllers {
		cd := ControllerData{Type: con.Type}
		switch con.Type {
		case "dashboard":
			cd.Dashboard = &DashboardData{
				ListenAddr:         con.Dashboard.ListenAddr,
				Port:               con.Dashboard.Port,
				TLSCertPath:        con.Dashboard.Cert,
				TLSKeyPath:         con.Dashboard.Key,
				CORSAllowedOrigins: con.Dashboard.CORSAllowedOrigins,
			}
		case "management":
			cd.ManagementAPI = &ManagementAPIData{
				ListenAddr: con.Management.ListenAddr,
				Port:       con.Management.Port,
				Cert:       con.Management.Cert,
				Key:        con.Management.Key,
				AuthToken:  con.Management.AuthToken,
			}
		default:
			return nil, fmt.Errorf("unknown controller type in config: %s", con.Type)
		}
		config.Controllers = append(config.Controllers, cd)
	}

	y.config = config
	return config, nil
}

// GetSimService returns the simulation service settings
func (y *YAMLProvider) GetSimService() (*SimServiceData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return &y.config.SimService, nil
}

// GetControllers returns controller configurations
func (y *YAMLProvider) GetControllers() ([]ControllerData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return y.config.Controllers, nil
}

// GetArchiveConfig returns the archive backend configuration
func (y *YAMLProvider) GetArchiveConfig() (*ArchiveData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return &y.config.Archive, nil
}

// UpdateManagementToken is not supported for YAML configurations
func (y *YAMLProvider) UpdateManagementToken(token string) error {
	return fmt.Errorf("YAML configuration is read-only; set the management auth_token in %s", y.filename)
}

// IsReadOnly reports that YAML providers cannot persist changes
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}

func (y *YAMLProvider) ensureLoaded() error {
	if y.config != nil {
		return nil
	}
	_, err := y.LoadConfig()
	return err
}
