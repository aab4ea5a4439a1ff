package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	DatabasePath  string `json:"database_path"`
	APIPort       string `json:"api_port"`
	DataDir       string `json:"data_dir"`
	JWTSecret     string `json:"jwt_secret"`
	EncryptionKey string `json:"encryption_key"` // key for the credential vault; empty means ephemeral
	CORSOrigins   string `json:"cors_origins"`   // comma separated, * for all

	// Oracle settings
	AIProvider string `json:"ai_provider"` // gemini, openai, claude, custom
	AIAPIKey   string `json:"ai_api_key"`
	AIModel    string `json:"ai_model"`
	AIBaseURL  string `json:"ai_base_url"`

	// Google OAuth client used for the Gmail API
	GoogleClientID     string `json:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret"`

	// Scan settings
	CheckIntervalMinutes  int `json:"check_interval_minutes"`
	LookbackDays          int `json:"lookback_days"`
	MaxMessagesPerCheck   int `json:"max_messages_per_check"`
	RetentionDays         int `json:"retention_days"`
	MaxConcurrentAccounts int `json:"max_concurrent_accounts"`
}

// Default configuration values
const (
	DefaultDatabasePath          = "data/job_parser.db"
	DefaultAPIPort               = "8080"
	DefaultDataDir               = "data"
	DefaultJWTSecret             = "job-parser-default-secret-change-in-production"
	DefaultCORSOrigins           = "*"
	DefaultAIProvider            = "gemini"
	DefaultAIModel               = "gemini-2.0-flash-001"
	DefaultCheckIntervalMinutes  = 30
	DefaultLookbackDays          = 1
	DefaultMaxMessagesPerCheck   = 50
	DefaultRetentionDays         = 90
	DefaultMaxConcurrentAccounts = 4
)

// Load loads configuration from environment variables and config file
// Priority: Environment variables > Config file > Default values
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:          DefaultDatabasePath,
		APIPort:               DefaultAPIPort,
		DataDir:               DefaultDataDir,
		JWTSecret:             DefaultJWTSecret,
		CORSOrigins:           DefaultCORSOrigins,
		AIProvider:            DefaultAIProvider,
		AIModel:               DefaultAIModel,
		CheckIntervalMinutes:  DefaultCheckIntervalMinutes,
		LookbackDays:          DefaultLookbackDays,
		MaxMessagesPerCheck:   DefaultMaxMessagesPerCheck,
		RetentionDays:         DefaultRetentionDays,
		MaxConcurrentAccounts: DefaultMaxConcurrentAccounts,
	}

	// Config file is optional
	_ = cfg.loadFromFile()

	cfg.loadFromEnv()

	return cfg, nil
}

// loadFromFile loads configuration from config.json
func (c *Config) loadFromFile() error {
	configPaths := []string{
		"config.json",
		filepath.Join(c.DataDir, "config.json"),
	}

	for _, path := range configPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return json.Unmarshal(data, c)
	}

	return nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	setString := func(dst *string, key string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	setInt := func(dst *int, key string) {
		if val := os.Getenv(key); val != "" {
			if n, err := strconv.Atoi(val); err == nil {
				*dst = n
			}
		}
	}

	setString(&c.DatabasePath, "JOB_PARSER_DATABASE_PATH")
	setString(&c.APIPort, "JOB_PARSER_API_PORT")
	setString(&c.DataDir, "JOB_PARSER_DATA_DIR")
	setString(&c.JWTSecret, "JOB_PARSER_JWT_SECRET")
	setString(&c.EncryptionKey, "JOB_PARSER_ENCRYPTION_KEY")
	setString(&c.CORSOrigins, "JOB_PARSER_CORS_ORIGINS")
	setString(&c.AIProvider, "JOB_PARSER_AI_PROVIDER")
	setString(&c.AIAPIKey, "JOB_PARSER_AI_API_KEY")
	setString(&c.AIModel, "JOB_PARSER_AI_MODEL")
	setString(&c.AIBaseURL, "JOB_PARSER_AI_BASE_URL")
	setString(&c.GoogleClientID, "JOB_PARSER_GOOGLE_CLIENT_ID")
	setString(&c.GoogleClientSecret, "JOB_PARSER_GOOGLE_CLIENT_SECRET")
	setInt(&c.CheckIntervalMinutes, "JOB_PARSER_CHECK_INTERVAL_MINUTES")
	setInt(&c.LookbackDays, "JOB_PARSER_LOOKBACK_DAYS")
	setInt(&c.MaxMessagesPerCheck, "JOB_PARSER_MAX_MESSAGES_PER_CHECK")
	setInt(&c.RetentionDays, "JOB_PARSER_RETENTION_DAYS")
	setInt(&c.MaxConcurrentAccounts, "JOB_PARSER_MAX_CONCURRENT_ACCOUNTS")
}

// Save saves the current configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
