// Package config provides configuration loading and management using koanf.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Default configuration values.
const (
	// DefaultLogFileMaxSizeMB is the default max log file size in megabytes.
	DefaultLogFileMaxSizeMB = 100

	// DefaultLogFileMaxBackups is the default number of old log files to retain.
	DefaultLogFileMaxBackups = 3

	// DefaultLogFileMaxAgeDays is the default max days to retain old log files.
	DefaultLogFileMaxAgeDays = 28

	// DefaultOutputFormat is the default export format.
	DefaultOutputFormat = "json"
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Output    OutputConfig    `koanf:"output"    validate:"required"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Record    RecordConfig    `koanf:"record"`
	Steps     []StepConfig    `koanf:"steps"     validate:"dive"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev ci qa prod test"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// OutputConfig selects how the exported record is printed.
type OutputConfig struct {
	Format string `koanf:"format" validate:"required,oneof=json yaml dump"`
}

// MetricsConfig contains Prometheus textfile settings.
type MetricsConfig struct {
	Enabled      bool   `koanf:"enabled"`
	TextfilePath string `koanf:"textfile_path" validate:"required_if=Enabled true"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true,omitempty,hostname_port"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// RecordConfig is the initial state of the demo record.
// Contents are taken as-is; only the shape is checked.
type RecordConfig struct {
	CNIL     bool     `koanf:"cnil"`
	ANSSI    bool     `koanf:"anssi"`
	PIX      *string  `koanf:"pix"`
	Diplomas []string `koanf:"diplomas"`
}

// StepConfig is one mutation applied to the demo record.
type StepConfig struct {
	Op  string `koanf:"op"  validate:"required,oneof=add_baccalaureate add_brevet add_diploma remove_diploma set_skill_level clear_skill_level"`
	Arg string `koanf:"arg"`
}

// defaults returns the default configuration values.
// The default steps reproduce the reference demonstration.
func defaults() map[string]any {
	return map[string]any{
		"app.name":        "certrecord",
		"app.version":     "dev",
		"app.environment": "local",

		"log.level":            "info",
		"log.format":           "pretty",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/certrecord.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"output.format": DefaultOutputFormat,

		"metrics.enabled":       false,
		"metrics.textfile_path": "./metrics/certrecord.prom",

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.service_name":  "certrecord",
		"telemetry.sampling_rate": 1.0,

		"record.cnil":     true,
		"record.anssi":    false,
		"record.diplomas": []string{},

		"steps": []map[string]any{
			{"op": "set_skill_level", "arg": "Intermediate"},
			{"op": "add_baccalaureate", "arg": "Bien"},
			{"op": "add_brevet"},
			{"op": "add_diploma", "arg": "Licence 1 informatique"},
		},
	}
}

// LoadFrom loads configuration from dir with the following precedence
// (highest to lowest):
//  1. Environment variables (APP_ prefix)
//  2. Profile config file ({dir}/{profile}.yaml)
//  3. Base config file ({dir}/base.yaml)
//  4. Default values
func LoadFrom(dir, profile string) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	err := k.Load(confmap.Provider(defaults(), "."), nil)
	if err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// 2. Load base config file if it exists
	err = loadFileIfExists(k, dir+"/base.yaml")
	if err != nil {
		return nil, fmt.Errorf("loading base config: %w", err)
	}

	// 3. Load profile config file if it exists
	if profile != "" {
		profilePath := fmt.Sprintf("%s/%s.yaml", dir, profile)

		err := loadFileIfExists(k, profilePath)
		if err != nil {
			return nil, fmt.Errorf("loading profile config %q: %w", profile, err)
		}
	}

	// 4. Load environment variables with APP_ prefix
	err = k.Load(env.Provider("APP_", ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config

	err = k.Unmarshal("", &cfg)
	if err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKey maps APP_LOG_FILE_ENABLED to log.file.enabled. Keys whose last
// segment contains an underscore (textfile_path, sampling_rate) are listed
// explicitly, since the generic mapping would split them.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, "APP_"))
	if mapped, ok := envKeyOverrides[key]; ok {
		return mapped
	}
	return strings.ReplaceAll(key, "_", ".")
}

var envKeyOverrides = map[string]string{
	"metrics_textfile_path":   "metrics.textfile_path",
	"telemetry_service_name":  "telemetry.service_name",
	"telemetry_sampling_rate": "telemetry.sampling_rate",
	"log_file_max_size":       "log.file.max_size",
	"log_file_max_backups":    "log.file.max_backups",
	"log_file_max_age":        "log.file.max_age",
}

// loadFileIfExists loads a YAML config file if it exists.
// Returns nil if the file doesn't exist, error only for parse/read failures.
func loadFileIfExists(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil // File doesn't exist, that's fine
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
