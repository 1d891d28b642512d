package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	p := &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}

	if err := p.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return p, nil
}

func (s *SQLiteProvider) ensureSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS sim_service (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			base_url TEXT NOT NULL,
			timeout_seconds INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS playback (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			base_interval_ms INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS archive (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			sqlite_path TEXT,
			postgres_connection_string TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS controllers (
			type TEXT PRIMARY KEY,
			listen_addr TEXT,
			port INTEGER,
			cert TEXT,
			key TEXT,
			auth_token TEXT,
			cors_allowed_origins TEXT
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create config schema: %w", err)
		}
	}
	return nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	simService, err := s.GetSimService()
	if err != nil {
		return nil, fmt.Errorf("failed to load sim service config: %w", err)
	}
	config.SimService = *simService

	playback, err := s.getPlayback()
	if err != nil {
		return nil, fmt.Errorf("failed to load playback config: %w", err)
	}
	config.Playback = *playback

	archive, err := s.GetArchiveConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load archive config: %w", err)
	}
	config.Archive = *archive

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	return config, nil
}

// GetSimService returns the simulation service settings from the database
func (s *SQLiteProvider) GetSimService() (*SimServiceData, error) {
	row := s.db.QueryRow(`SELECT base_url, timeout_seconds FROM sim_service WHERE id = 1`)

	var data SimServiceData
	var timeout sql.NullInt64
	err := row.Scan(&data.BaseURL, &timeout)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no sim_service configuration found in %s", s.dbPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sim_service: %w", err)
	}
	if timeout.Valid {
		data.TimeoutSeconds = int(timeout.Int64)
	}
	return &data, nil
}

func (s *SQLiteProvider) getPlayback() (*PlaybackData, error) {
	row := s.db.QueryRow(`SELECT base_interval_ms FROM playback WHERE id = 1`)

	var data PlaybackData
	var interval sql.NullInt64
	err := row.Scan(&interval)
	if err == sql.ErrNoRows {
		return &data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playback: %w", err)
	}
	if interval.Valid {
		data.BaseIntervalMS = int(interval.Int64)
	}
	return &data, nil
}

// GetArchiveConfig returns the archive backend configuration from the database
func (s *SQLiteProvider) GetArchiveConfig() (*ArchiveData, error) {
	row := s.db.QueryRow(`SELECT sqlite_path, postgres_connection_string FROM archive WHERE id = 1`)

	var data ArchiveData
	var sqlitePath, pgConn sql.NullString
	err := row.Scan(&sqlitePath, &pgConn)
	if err == sql.ErrNoRows {
		return &data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	if sqlitePath.Valid && sqlitePath.String != "" {
		data.SQLite = &SQLiteArchiveData{Path: sqlitePath.String}
	}
	if pgConn.Valid && pgConn.String != "" {
		data.Postgres = &PostgresArchiveData{ConnectionString: pgConn.String}
	}
	return &data, nil
}

// GetControllers returns controller configurations from the database
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	rows, err := s.db.Query(`SELECT type, listen_addr, port, cert, key, auth_token, cors_allowed_origins FROM controllers ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var ctype string
		var listenAddr, cert, key, authToken, corsOrigins sql.NullString
		var port sql.NullInt64

		if err := rows.Scan(&ctype, &listenAddr, &port, &cert, &key, &authToken, &corsOrigins); err != nil {
			return nil, fmt.Errorf("failed to scan controller row: %w", err)
		}

		cd := ControllerData{Type: ctype}
		switch ctype {
		case "dashboard":
			cd.Dashboard = &DashboardData{
				ListenAddr:         listenAddr.String,
				Port:               int(port.Int64),
				TLSCertPath:        cert.String,
				TLSKeyPath:         key.String,
				CORSAllowedOrigins: splitOrigins(corsOrigins.String),
			}
		case "management":
			cd.ManagementAPI = &ManagementAPIData{
				ListenAddr: listenAddr.String,
				Port:       int(port.Int64),
				Cert:       cert.String,
				Key:        key.String,
				AuthToken:  authToken.String,
			}
		default:
			return nil, fmt.Errorf("unknown controller type in config database: %s", ctype)
		}
		controllers = append(controllers, cd)
	}
	return controllers, rows.Err()
}

// UpdateManagementToken saves a newly generated management auth token
func (s *SQLiteProvider) UpdateManagementToken(token string) error {
	result, err := s.db.Exec(`UPDATE controllers SET auth_token = ? WHERE type = 'management'`, token)
	if err != nil {
		return fmt.Errorf("failed to update management token: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		_, err = s.db.Exec(`INSERT INTO controllers (type, auth_token) VALUES ('management', ?)`, token)
		if err != nil {
			return fmt.Errorf("failed to insert management controller: %w", err)
		}
	}
	return nil
}

// IsReadOnly reports that SQLite providers can persist changes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
