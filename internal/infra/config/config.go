// Package config provides application-wide configuration.
// Values are resolved in three layers: built-in defaults, an optional YAML file
// named by CONFIG_FILE, then environment variables. All fields have safe defaults
// so the binary runs locally without any env setup; Jira credentials are the
// exception and are reported as missing at first tool use, not at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for jiraagent.
type Config struct {
	// HTTP server
	Host string `yaml:"host"` // HOST, default: "0.0.0.0"
	Port int    `yaml:"port"` // PORT, default: 3000

	// Jira
	JiraBaseURL       string        `yaml:"jira_base_url"`        // JIRA_BASE_URL
	JiraUser          string        `yaml:"jira_user"`            // JIRA_USER
	JiraPassword      string        `yaml:"jira_password"`        // JIRA_PASSWORD
	JiraEmail         string        `yaml:"jira_email"`           // JIRA_EMAIL
	JiraAPIToken      string        `yaml:"jira_api_token"`       // JIRA_API_TOKEN
	JiraAuthToken     string        `yaml:"jira_auth_token"`      // JIRA_AUTH_TOKEN: base64 "user:password"
	JiraEpicNameField string        `yaml:"jira_epic_name_field"` // JIRA_EPIC_NAME_FIELD, default: "customfield_10104"
	JiraMaxResults    int           `yaml:"jira_max_results"`     // JIRA_MAX_RESULTS, default: 100
	JiraTimeout       time.Duration `yaml:"jira_timeout"`         // JIRA_TIMEOUT, default: 10s

	// LLM
	LLMProvider   string        `yaml:"llm_provider"`    // LLM_PROVIDER, default: "ollama"
	OllamaBaseURL string        `yaml:"ollama_base_url"` // OLLAMA_BASE_URL (or OLLAMA_HOST), default: "http://localhost:11434"
	OllamaModel   string        `yaml:"ollama_model"`    // OLLAMA_MODEL, default: "llama3.1:8b"
	LLMTimeout    time.Duration `yaml:"llm_timeout"`     // LLM_TIMEOUT, default: 120s

	// Storage
	DBPath              string `yaml:"db_path"`               // DB_PATH, default: "./data/jiraagent.db"
	CredentialSecretKey string `yaml:"credential_secret_key"` // CREDENTIAL_SECRET_KEY

	// Auth
	JWTSecret      string `yaml:"jwt_secret"`       // JWT_SECRET: empty disables bearer auth
	JWTExpiryHours int    `yaml:"jwt_expiry_hours"` // JWT_EXPIRY, default: 24

	// Logging
	LogLevel  string `yaml:"log_level"`  // LOG_LEVEL, default: "info"
	LogFormat string `yaml:"log_format"` // LOG_FORMAT: "json" | "console", default: "json"
}

const (
	envKeyConfigFile = "CONFIG_FILE"

	envKeyHost = "HOST"
	envKeyPort = "PORT"

	envKeyJiraBaseURL       = "JIRA_BASE_URL"
	envKeyJiraUser          = "JIRA_USER"
	envKeyJiraPassword      = "JIRA_PASSWORD"
	envKeyJiraEmail         = "JIRA_EMAIL"
	envKeyJiraAPIToken      = "JIRA_API_TOKEN"
	envKeyJiraAuthToken     = "JIRA_AUTH_TOKEN"
	envKeyJiraEpicNameField = "JIRA_EPIC_NAME_FIELD"
	envKeyJiraMaxResults    = "JIRA_MAX_RESULTS"
	envKeyJiraTimeout       = "JIRA_TIMEOUT"

	envKeyLLMProvider   = "LLM_PROVIDER"
	envKeyOllamaBaseURL = "OLLAMA_BASE_URL"
	envKeyOllamaHost    = "OLLAMA_HOST"
	envKeyOllamaModel   = "OLLAMA_MODEL"
	envKeyLLMTimeout    = "LLM_TIMEOUT"

	envKeyDBPath              = "DB_PATH"
	envKeyCredentialSecretKey = "CREDENTIAL_SECRET_KEY"

	envKeyJWTSecret = "JWT_SECRET"
	envKeyJWTExpiry = "JWT_EXPIRY"

	envKeyLogLevel  = "LOG_LEVEL"
	envKeyLogFormat = "LOG_FORMAT"
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              3000,
		JiraEpicNameField: "customfield_10104",
		JiraMaxResults:    100,
		JiraTimeout:       10 * time.Second,
		LLMProvider:       "ollama",
		OllamaBaseURL:     "http://localhost:11434",
		OllamaModel:       "llama3.1:8b",
		LLMTimeout:        120 * time.Second,
		DBPath:            "./data/jiraagent.db",
		JWTExpiryHours:    24,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// Load resolves configuration from defaults, the optional CONFIG_FILE and the environment.
// Only an unreadable or malformed config file is an error.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv(envKeyConfigFile); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	cfg.JiraBaseURL = normalizeJiraBaseURL(cfg.JiraBaseURL)
	return cfg, nil
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// loadFile overlays the YAML document at path on top of cfg.
// Keys absent from the file keep their current values.
func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Host = envOr(envKeyHost, cfg.Host)
	cfg.Port = envIntOr(envKeyPort, cfg.Port)

	cfg.JiraBaseURL = envOr(envKeyJiraBaseURL, cfg.JiraBaseURL)
	cfg.JiraUser = envOr(envKeyJiraUser, cfg.JiraUser)
	cfg.JiraPassword = envOr(envKeyJiraPassword, cfg.JiraPassword)
	cfg.JiraEmail = envOr(envKeyJiraEmail, cfg.JiraEmail)
	cfg.JiraAPIToken = envOr(envKeyJiraAPIToken, cfg.JiraAPIToken)
	cfg.JiraAuthToken = envOr(envKeyJiraAuthToken, cfg.JiraAuthToken)
	cfg.JiraEpicNameField = envOr(envKeyJiraEpicNameField, cfg.JiraEpicNameField)
	cfg.JiraMaxResults = envIntOr(envKeyJiraMaxResults, cfg.JiraMaxResults)
	cfg.JiraTimeout = envDurationOr(envKeyJiraTimeout, cfg.JiraTimeout)

	cfg.LLMProvider = envOr(envKeyLLMProvider, cfg.LLMProvider)
	// OLLAMA_HOST is the variable name the Ollama CLI itself uses; OLLAMA_BASE_URL wins.
	cfg.OllamaBaseURL = envOr(envKeyOllamaBaseURL, envOr(envKeyOllamaHost, cfg.OllamaBaseURL))
	cfg.OllamaModel = envOr(envKeyOllamaModel, cfg.OllamaModel)
	cfg.LLMTimeout = envDurationOr(envKeyLLMTimeout, cfg.LLMTimeout)

	cfg.DBPath = envOr(envKeyDBPath, cfg.DBPath)
	cfg.CredentialSecretKey = envOr(envKeyCredentialSecretKey, cfg.CredentialSecretKey)

	cfg.JWTSecret = envOr(envKeyJWTSecret, cfg.JWTSecret)
	cfg.JWTExpiryHours = envIntOr(envKeyJWTExpiry, cfg.JWTExpiryHours)

	cfg.LogLevel = envOr(envKeyLogLevel, cfg.LogLevel)
	cfg.LogFormat = envOr(envKeyLogFormat, cfg.LogFormat)
}

// normalizeJiraBaseURL strips trailing slashes and a trailing REST prefix so that
// both "https://jira.example.com" and "https://jira.example.com/rest/api/2" work.
func normalizeJiraBaseURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	u = strings.TrimSuffix(u, "/rest/api/2")
	return strings.TrimRight(u, "/")
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envIntOr parses key as an int. Unset or invalid values keep fallback.
func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// envDurationOr accepts Go duration strings ("15s") or a bare number of seconds.
func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
