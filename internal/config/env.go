package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env         string   `envconfig:"ENV" default:"local"`
	HTTPHost    string   `envconfig:"HTTP_HOST" default:""`
	HTTPPort    string   `envconfig:"HTTP_PORT" default:"8000"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
	// RateLimit is the number of requests allowed per client per minute; 0 disables it.
	RateLimit int `envconfig:"RATE_LIMIT" default:"120"`
}

type KBEnv struct {
	Path  string `envconfig:"KB_PATH" default:"data/action_kb.yaml"`
	Watch bool   `envconfig:"KB_WATCH" default:"true"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:"."`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"helply/"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`
}

type CRMEnv struct {
	Type         string `envconfig:"CRM_TYPE" default:"mock"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"data/helply.db"`
	SeedDemo     bool   `envconfig:"CRM_SEED_DEMO" default:"true"`
	APIURL       string `envconfig:"CRM_API_URL"`
	APIKey       string `envconfig:"CRM_API_KEY"`
	HubSpotToken string `envconfig:"HUBSPOT_API_KEY"`

	SalesforceUsername      string `envconfig:"SALESFORCE_USERNAME"`
	SalesforcePassword      string `envconfig:"SALESFORCE_PASSWORD"`
	SalesforceSecurityToken string `envconfig:"SALESFORCE_SECURITY_TOKEN"`
	SalesforceClientID      string `envconfig:"SALESFORCE_CLIENT_ID"`
	SalesforceClientSecret  string `envconfig:"SALESFORCE_CLIENT_SECRET"`
	SalesforceDomain        string `envconfig:"SALESFORCE_DOMAIN" default:"login"`
}

type AIEnv struct {
	Enabled       bool          `envconfig:"USE_AI_GUIDANCE" default:"false"`
	GeminiAPIKey  string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel   string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash-lite"`
	GeminiBaseURL string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	Timeout       time.Duration `envconfig:"AI_TIMEOUT" default:"20s"`
}

type Env struct {
	BaseEnv
	KBEnv
	StorageEnv
	CRMEnv
	AIEnv
}

const namespace = "HELPLY"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Local reports whether the process runs on a developer machine
func (e *BaseEnv) Local() bool {
	return e != nil && e.Env == "local"
}

// LoadEnvFile sets variables from a KEY=VALUE file without overriding ones
// already present. A missing file is not an error.
func LoadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), "\"'")

		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}
