package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/simonL79/aria-ops-ai-sub007/pkg/audit"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/entity"
	"github.com/simonL79/aria-ops-ai-sub007/pkg/intelligence"
)

// Config contains the complete configuration for an engine client.
//
// It includes settings for:
//   - Record store (SQLite, PostgreSQL, MySQL)
//   - Correlation/learning heuristics (optional, defaults applied)
//   - Consumed collaborators: audit sink, entity resolver, logger (optional)
//
// Example:
//
//	config := &core.Config{
//	    Store: core.StoreConfig{
//	        Provider: "sqlite",
//	        Config: map[string]interface{}{
//	            "db_path": "./aria.db",
//	        },
//	    },
//	}
type Config struct {
	// Store contains record store configuration.
	Store StoreConfig `json:"store"`

	// Engine contains the heuristic constants of the correlation and
	// learning algorithms. Nil uses intelligence.DefaultConfig().
	Engine *intelligence.Config `json:"-"`

	// AuditSink receives reinforcement/flag check events. Nil uses a
	// structured-log sink.
	AuditSink audit.Sink `json:"-"`

	// Resolver maps entity names to internal identifiers for the feedback
	// log. Nil resolves every entity to the "unknown" sentinel.
	Resolver entity.Resolver `json:"-"`

	// Logger is the structured logger for operation logging. Nil uses the
	// default logger.
	Logger *log.Logger `json:"-"`
}

// StoreConfig contains configuration for the record store.
//
// Supported providers: sqlite, postgres, mysql
//
// Example:
//
//	storeConfig := core.StoreConfig{
//	    Provider: "sqlite",
//	    Config: map[string]interface{}{
//	        "db_path":      "./aria.db",
//	        "memory_table": "intel_memories",
//	    },
//	}
type StoreConfig struct {
	// Provider is the record store provider name (sqlite, postgres, mysql).
	Provider string `json:"provider"`

	// Config contains provider-specific configuration.
	// For SQLite: db_path, memory_table, pattern_table, feedback_table
	// For PostgreSQL: host, port, user, password, db_name, tables, ssl_mode
	// For MySQL: host, port, user, password, db_name, tables
	Config map[string]interface{} `json:"config"`
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - DATABASE_PROVIDER (sqlite, postgres, mysql)
//   - SQLITE_PATH, SQLITE_MEMORY_TABLE, SQLITE_PATTERN_TABLE, SQLITE_FEEDBACK_TABLE
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD,
//     POSTGRES_DATABASE, POSTGRES_SSLMODE
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
//
// Returns a Config instance, or an error if loading fails.
//
// Example:
//
//	config, err := core.LoadConfigFromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadConfigFromEnv() (*Config, error) {
	// Use FindEnvFile to locate .env file (supports upward search)
	envPath, found := FindEnvFile()
	if found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("DATABASE_PROVIDER", "sqlite")

	storeConfig := make(map[string]interface{})

	switch provider {
	case "sqlite":
		storeConfig = map[string]interface{}{
			"db_path":        getEnvOrDefault("SQLITE_PATH", "./aria.db"),
			"memory_table":   getEnvOrDefault("SQLITE_MEMORY_TABLE", "intel_memories"),
			"pattern_table":  getEnvOrDefault("SQLITE_PATTERN_TABLE", "pattern_log"),
			"feedback_table": getEnvOrDefault("SQLITE_FEEDBACK_TABLE", "feedback_log"),
		}
	case "postgres":
		port := getEnvIntOrDefault("POSTGRES_PORT", 5432)
		storeConfig = map[string]interface{}{
			"host":           getEnvOrDefault("POSTGRES_HOST", "localhost"),
			"port":           port,
			"user":           getEnvOrDefault("POSTGRES_USER", "postgres"),
			"password":       os.Getenv("POSTGRES_PASSWORD"),
			"db_name":        getEnvOrDefault("POSTGRES_DATABASE", "aria"),
			"memory_table":   getEnvOrDefault("POSTGRES_MEMORY_TABLE", "intel_memories"),
			"pattern_table":  getEnvOrDefault("POSTGRES_PATTERN_TABLE", "pattern_log"),
			"feedback_table": getEnvOrDefault("POSTGRES_FEEDBACK_TABLE", "feedback_log"),
			"ssl_mode":       getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
		}
	case "mysql":
		port := getEnvIntOrDefault("MYSQL_PORT", 3306)
		storeConfig = map[string]interface{}{
			"host":           getEnvOrDefault("MYSQL_HOST", "127.0.0.1"),
			"port":           port,
			"user":           getEnvOrDefault("MYSQL_USER", "root"),
			"password":       os.Getenv("MYSQL_PASSWORD"),
			"db_name":        getEnvOrDefault("MYSQL_DATABASE", "aria"),
			"memory_table":   getEnvOrDefault("MYSQL_MEMORY_TABLE", "intel_memories"),
			"pattern_table":  getEnvOrDefault("MYSQL_PATTERN_TABLE", "pattern_log"),
			"feedback_table": getEnvOrDefault("MYSQL_FEEDBACK_TABLE", "feedback_log"),
		}
	}

	config := &Config{
		Store: StoreConfig{
			Provider: provider,
			Config:   storeConfig,
		},
	}

	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
//
// Parameters:
//   - envPath: Path to the .env file
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
//
// Parameters:
//   - path: Path to the JSON configuration file
//
// Returns a Config instance, or an error if loading or parsing fails.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewMemoryError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// Validate validates the configuration.
//
// Returns an error if the record store provider is missing or unknown, nil
// otherwise.
func (c *Config) Validate() error {
	switch c.Store.Provider {
	case "sqlite", "postgres", "mysql":
		return nil
	default:
		return NewMemoryError("Validate", ErrInvalidConfig)
	}
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault gets an integer environment variable or returns the
// default value.
func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var parsed int
	if _, err := fmt.Sscanf(value, "%d", &parsed); err != nil {
		return defaultValue
	}
	return parsed
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	// First check the current directory
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	// Check project root directory (search upward)
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		envExamplePath := filepath.Join(dir, ".env.example")

		if _, err := os.Stat(envPath); err == nil {
			return envPath, true
		}
		if _, err := os.Stat(envExamplePath); err == nil {
			return envExamplePath, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}
