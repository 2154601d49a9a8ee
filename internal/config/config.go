package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/urbanmobility/taxi-backend-go/internal/cleaning"
	"github.com/urbanmobility/taxi-backend-go/internal/database"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database database.Config `yaml:"database"`
	Pipeline PipelineConfig  `yaml:"pipeline"`
	Auth     AuthConfig      `yaml:"auth"`
	Log      LogConfig       `yaml:"log"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Port        string        `yaml:"port" validate:"required"`
	Mode        string        `yaml:"mode" validate:"oneof=debug release test"`
	CORSOrigins []string      `yaml:"cors_origins"`
	RateLimit   int           `yaml:"rate_limit" validate:"min=0"` // Requests per window and client, 0 disables
	RateWindow  time.Duration `yaml:"rate_window" validate:"gt=0"`
}

// PipelineConfig selects the cleaning policy and the batch files.
// Pointer fields override the named policy only when set.
type PipelineConfig struct {
	Policy             string                `yaml:"policy" validate:"oneof=canonical alternate"`
	MinDurationSeconds *int                  `yaml:"min_duration_seconds"`
	MaxDurationSeconds *int                  `yaml:"max_duration_seconds"`
	MinPassengers      *int                  `yaml:"min_passengers"`
	MaxPassengers      *int                  `yaml:"max_passengers"`
	ServiceArea        *cleaning.ServiceArea `yaml:"service_area"`
	IQRMultiplier      *float64              `yaml:"iqr_multiplier"`
	MaxSpeed           *float64              `yaml:"max_speed"`
	RushHours          []int                 `yaml:"rush_hours" validate:"dive,min=0,max=23"`
	DistanceUnit       string                `yaml:"distance_unit" validate:"omitempty,oneof=miles km"`
	BatchSize          int                   `yaml:"batch_size" validate:"min=1"`
	RawPath            string                `yaml:"raw_path"`
	CleanedPath        string                `yaml:"cleaned_path"`
	LogPath            string                `yaml:"log_path"`
}

// AuthConfig configures bearer-token auth on the API
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"` // Empty disables auth
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// DefaultCORSOrigins are the local front-end origins allowed by default
var DefaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5500",
	"http://localhost:5500",
	"http://127.0.0.1:8080",
	"http://localhost:8080",
	"null",
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        ":8080",
			Mode:        "release",
			CORSOrigins: append([]string(nil), DefaultCORSOrigins...),
			RateLimit:   0,
			RateWindow:  time.Minute,
		},
		Database: database.Config{
			Driver:       database.DriverSQLite,
			DSN:          "./data/taxi_data.db",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		Pipeline: PipelineConfig{
			Policy:      cleaning.PolicyCanonical,
			BatchSize:   10000,
			RawPath:     "./data/train.csv",
			CleanedPath: "./data/cleaned_data.csv",
			LogPath:     "./data/cleaning_log.txt",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load 加载配置: defaults, then the YAML file at path (optional), then
// .env in the working directory, then the process environment
func Load(path string) (*Config, error) {
	return LoadFiles(path, ".env")
}

// LoadFiles is Load with an explicit .env location
func LoadFiles(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// .env never overrides variables already set in the environment
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the resulting cleaning policy
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Pipeline.CleaningPolicy(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// CleaningPolicy builds the named policy with every override applied
func (p PipelineConfig) CleaningPolicy() (cleaning.Policy, error) {
	policy, err := cleaning.PolicyByName(p.Policy)
	if err != nil {
		return cleaning.Policy{}, err
	}

	if p.MinDurationSeconds != nil {
		policy.MinDurationSeconds = *p.MinDurationSeconds
	}
	if p.MaxDurationSeconds != nil {
		policy.MaxDurationSeconds = *p.MaxDurationSeconds
	}
	if p.MinPassengers != nil {
		policy.MinPassengers = *p.MinPassengers
	}
	if p.MaxPassengers != nil {
		policy.MaxPassengers = *p.MaxPassengers
	}
	if p.ServiceArea != nil {
		policy.ServiceArea = *p.ServiceArea
	}
	if p.IQRMultiplier != nil {
		policy.IQRMultiplier = *p.IQRMultiplier
	}
	if p.MaxSpeed != nil {
		policy.MaxSpeed = *p.MaxSpeed
	}
	if len(p.RushHours) > 0 {
		policy = policy.WithRushHours(p.RushHours)
	}
	if p.DistanceUnit != "" {
		policy = policy.WithDistanceUnit(p.DistanceUnit)
	}

	if err := policy.Validate(); err != nil {
		return cleaning.Policy{}, err
	}
	return policy, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.Mode, "GIN_MODE")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.DSN, "DB_PATH")
	setString(&cfg.Database.DSN, "DB_DSN")

	setString(&cfg.Pipeline.Policy, "CLEANING_POLICY")
	setString(&cfg.Pipeline.RawPath, "RAW_PATH")
	setString(&cfg.Pipeline.CleanedPath, "CLEANED_PATH")
	setString(&cfg.Pipeline.LogPath, "CLEANING_LOG_PATH")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	if err := setInt(&cfg.Server.RateLimit, "RATE_LIMIT"); err != nil {
		return err
	}
	return setInt(&cfg.Pipeline.BatchSize, "BATCH_SIZE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
