// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	awsconn "github.com/parsebench/parsebench-go/internal/connectors/aws"
)

// StoreKind selects where summaries are persisted.
type StoreKind string

const (
	StoreFile     StoreKind = "file"
	StorePostgres StoreKind = "postgres"
)

// DefaultEnvFiles are loaded, when present, before reading the environment.
// Variables already set in the process environment win.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config holds all application configuration.
type Config struct {
	FixturesDir    string        `env:"PARSEBENCH_FIXTURES_DIR" envDefault:"testdata/fixtures" validate:"required"`
	ResultsDir     string        `env:"PARSEBENCH_RESULTS_DIR" envDefault:"results" validate:"required"`
	TolerancesFile string        `env:"PARSEBENCH_TOLERANCES_FILE"`
	Concurrency    int           `env:"PARSEBENCH_CONCURRENCY" envDefault:"1" validate:"min=1,max=64"`
	DocTimeout     time.Duration `env:"PARSEBENCH_DOC_TIMEOUT" envDefault:"30s" validate:"min=0"`
	RateLimit      float64       `env:"PARSEBENCH_RATE_LIMIT" envDefault:"0" validate:"min=0"`
	Warmup         int           `env:"PARSEBENCH_WARMUP" envDefault:"10" validate:"min=0"`
	MemoryTracking bool          `env:"PARSEBENCH_MEMORY_TRACKING" envDefault:"true"`

	Store       StoreKind `env:"PARSEBENCH_STORE" envDefault:"file" validate:"oneof=file postgres"`
	DatabaseURL string    `env:"PARSEBENCH_DATABASE_URL"`

	// API server settings.
	APIPort      string   `env:"PARSEBENCH_API_PORT" envDefault:"8080" validate:"numeric"`
	CORSOrigins  []string `env:"PARSEBENCH_CORS_ORIGINS" envDefault:"*" envSeparator:","`
	APIBudget    int      `env:"PARSEBENCH_API_BUDGET" envDefault:"0" validate:"min=0"`
	OIDCIssuer   string   `env:"PARSEBENCH_OIDC_ISSUER" validate:"omitempty,url"`
	OIDCAudience string   `env:"PARSEBENCH_OIDC_AUDIENCE"`

	PublishCloudWatch   bool   `env:"PARSEBENCH_PUBLISH_CLOUDWATCH" envDefault:"false"`
	CloudWatchNamespace string `env:"PARSEBENCH_CLOUDWATCH_NAMESPACE" envDefault:"ParseBench"`
	AWSRegion           string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSProfile          string `env:"AWS_PROFILE"`
	RoleARN             string `env:"PARSEBENCH_ROLE_ARN"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn warning error"`
	OTelEnabled bool   `env:"OTEL_ENABLED" envDefault:"false"`
}

// LoadFromEnv loads DefaultEnvFiles and reads configuration from the environment.
func LoadFromEnv() (Config, error) {
	return Load(DefaultEnvFiles...)
}

// Load reads the given dotenv files that exist, then the environment.
func Load(envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, fmt.Errorf("config: load env files: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.CORSOrigins = normalizeOrigins(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field requirements.
func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid settings: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: %w", err)
	}

	if c.Store == StorePostgres && c.DatabaseURL == "" {
		return fmt.Errorf("config: PARSEBENCH_DATABASE_URL required when PARSEBENCH_STORE=postgres")
	}
	if c.PublishCloudWatch && c.AWSRegion == "" {
		return fmt.Errorf("config: AWS_REGION required when PARSEBENCH_PUBLISH_CLOUDWATCH is set")
	}
	if c.RoleARN != "" {
		if err := awsconn.ValidateRoleARN(c.RoleARN); err != nil {
			return fmt.Errorf("config: PARSEBENCH_ROLE_ARN: %w", err)
		}
	}
	if c.OIDCIssuer != "" && c.OIDCAudience == "" {
		return fmt.Errorf("config: PARSEBENCH_OIDC_AUDIENCE required when PARSEBENCH_OIDC_ISSUER is set")
	}
	return nil
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if info, err := os.Stat(f); err == nil && !info.IsDir() {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func normalizeOrigins(raw []string) []string {
	var origins []string
	for _, o := range raw {
		if t := strings.TrimSpace(o); t != "" {
			origins = append(origins, t)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// OIDCEnabled reports whether the API requires bearer tokens.
func (c Config) OIDCEnabled() bool {
	return c.OIDCIssuer != ""
}
