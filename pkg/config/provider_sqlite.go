package config

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

const settingsSchema = `
	CREATE TABLE IF NOT EXISTS settings (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)
`

// SQLiteProvider implements ConfigProvider for SQLite database configuration.
// Settings are stored as rows of a key/value table using dotted keys such as
// "forcing.backend" or "rest.max-concurrent-runs".
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
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(settingsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// setting binds a dotted key to a ConfigData field
type setting struct {
	get func(c *ConfigData) string
	set func(c *ConfigData, v string) error
}

func stringSetting(field func(c *ConfigData) *string) setting {
	return setting{
		get: func(c *ConfigData) string { return *field(c) },
		set: func(c *ConfigData, v string) error { *field(c) = v; return nil },
	}
}

func floatSetting(field func(c *ConfigData) *float64) setting {
	return setting{
		get: func(c *ConfigData) string { return strconv.FormatFloat(*field(c), 'g', -1, 64) },
		set: func(c *ConfigData, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			*field(c) = f
			return nil
		},
	}
}

func intSetting(field func(c *ConfigData) *int) setting {
	return setting{
		get: func(c *ConfigData) string { return strconv.Itoa(*field(c)) },
		set: func(c *ConfigData, v string) error {
			i, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*field(c) = i
			return nil
		},
	}
}

var settings = map[string]setting{
	"landsat.dir":                        stringSetting(func(c *ConfigData) *string { return &c.Landsat.Dir }),
	"landsat.max-cloud-cover":            floatSetting(func(c *ConfigData) *float64 { return &c.Landsat.MaxCloudCover }),
	"forcing.backend":                    stringSetting(func(c *ConfigData) *string { return &c.Forcing.Backend }),
	"forcing.hourly-template":            stringSetting(func(c *ConfigData) *string { return &c.Forcing.HourlyTemplate }),
	"forcing.daily-template":             stringSetting(func(c *ConfigData) *string { return &c.Forcing.DailyTemplate }),
	"forcing.hourly-variables.shortwave": stringSetting(func(c *ConfigData) *string { return &c.Forcing.HourlyVariables.Shortwave }),
	"forcing.hourly-variables.longwave":  stringSetting(func(c *ConfigData) *string { return &c.Forcing.HourlyVariables.Longwave }),
	"forcing.daily-variables.shortwave":  stringSetting(func(c *ConfigData) *string { return &c.Forcing.DailyVariables.Shortwave }),
	"forcing.daily-variables.longwave":   stringSetting(func(c *ConfigData) *string { return &c.Forcing.DailyVariables.Longwave }),
	"forcing.hourly-accumulation":        stringSetting(func(c *ConfigData) *string { return &c.Forcing.HourlyAccumulation }),
	"forcing.connection-string":          stringSetting(func(c *ConfigData) *string { return &c.Forcing.ConnectionString }),
	"model.rt":                           floatSetting(func(c *ConfigData) *float64 { return &c.Model.RadiationThreshold }),
	"model.mt":                           floatSetting(func(c *ConfigData) *float64 { return &c.Model.MoistureThreshold }),
	"model.crs":                          stringSetting(func(c *ConfigData) *string { return &c.Model.CRS }),
	"model.scale":                        floatSetting(func(c *ConfigData) *float64 { return &c.Model.Scale }),
	"model.workers":                      intSetting(func(c *ConfigData) *int { return &c.Model.Workers }),
	"rest.listen-addr":                   stringSetting(func(c *ConfigData) *string { return &c.REST.ListenAddr }),
	"rest.port":                          intSetting(func(c *ConfigData) *int { return &c.REST.Port }),
	"rest.cert":                          stringSetting(func(c *ConfigData) *string { return &c.REST.Cert }),
	"rest.key":                           stringSetting(func(c *ConfigData) *string { return &c.REST.Key }),
	"rest.max-concurrent-runs":           intSetting(func(c *ConfigData) *int { return &c.REST.MaxConcurrentRuns }),
	"rest.retained-runs":                 intSetting(func(c *ConfigData) *int { return &c.REST.RetainedRuns }),
	"export.creation-options": {
		get: func(c *ConfigData) string { return strings.Join(c.Export.CreationOptions, ",") },
		set: func(c *ConfigData, v string) error {
			c.Export.CreationOptions = nil
			for _, o := range strings.Split(v, ",") {
				if o = strings.TrimSpace(o); o != "" {
					c.Export.CreationOptions = append(c.Export.CreationOptions, o)
				}
			}
			return nil
		},
	},
}

// Keys lists every recognised setting key in sorted order
func Keys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	config := &ConfigData{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan setting row: %w", err)
		}
		st, ok := settings[key]
		if !ok {
			return nil, fmt.Errorf("unknown setting %q", key)
		}
		if err := st.set(config, value); err != nil {
			return nil, fmt.Errorf("invalid value %q for setting %s: %w", value, key, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	config.ApplyDefaults()
	return config, nil
}

// GetSetting returns the stored value of a single key
func (s *SQLiteProvider) GetSetting(key string) (string, error) {
	if _, ok := settings[key]; !ok {
		return "", fmt.Errorf("unknown setting %q", key)
	}
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting %s is not set", key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting validates and stores a single key
func (s *SQLiteProvider) SetSetting(key, value string) error {
	st, ok := settings[key]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := st.set(&ConfigData{}, value); err != nil {
		return fmt.Errorf("invalid value %q for setting %s: %w", value, key, err)
	}
	return upsert(s.db, key, value)
}

// DeleteSetting removes a key so that its default applies again
func (s *SQLiteProvider) DeleteSetting(key string) error {
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// SaveConfig replaces every stored setting with the values of configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM settings`); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	for _, key := range Keys() {
		value := settings[key].get(configData)
		if value == "" {
			continue
		}
		if err := upsert(tx, key, value); err != nil {
			return err
		}
	}

	return tx.Commit()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsert(db execer, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
