// Package config provides configuration loading and validation for the CLI
// and the HTTP server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-assistant/internal/fetch"
	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/logger"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey      = "GEMINI_API_KEY"
	EnvOpenAIKey   = "OPENAI_API_KEY"
	EnvDatabaseURL = "DATABASE_URL"
	EnvLogLevel    = "LOG_LEVEL"
	EnvLogFormat   = "LOG_FORMAT"
	EnvPort        = "PORT"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Inputs
	Input  string `json:"input,omitempty"`                             // Path to the user input file, or "-" for stdin
	Job    string `json:"job,omitempty"`                               // Path to job description text file, or "-" for stdin
	JobURL string `json:"job_url,omitempty" validate:"omitempty,url"` // URL to fetch the job description from
	// Browser renders job pages in headless Chrome when the static HTML
	// yields too little text.
	Browser bool `json:"browser,omitempty"`
	Mode   string `json:"mode,omitempty" validate:"omitempty,mode"`   // Skip classification and force a mode
	// FallbackMode is used when the router cannot classify a request.
	FallbackMode string `json:"fallback_mode,omitempty" validate:"omitempty,mode"`

	// Model
	APIKey          string            `json:"api_key,omitempty"`
	Provider        string            `json:"provider,omitempty" validate:"omitempty,oneof=gemini openai"`
	BaseURL         string            `json:"base_url,omitempty" validate:"omitempty,url"` // OpenAI-compatible endpoint
	Models          map[string]string `json:"models,omitempty" validate:"omitempty,dive,keys,oneof=lite standard advanced,endkeys,required"`
	Temperature     float32           `json:"temperature,omitempty" validate:"gte=0,lte=2"`
	MaxOutputTokens int               `json:"max_output_tokens,omitempty" validate:"gte=0"`
	CallTimeout     string            `json:"call_timeout,omitempty" validate:"omitempty,duration"`

	// Server
	Port              int    `json:"port,omitempty" validate:"gte=0,lte=65535"`
	MaxConcurrentRuns int    `json:"max_concurrent_runs,omitempty" validate:"gte=0"`
	DatabaseURL       string `json:"database_url,omitempty"`

	// Behavior
	Stream    bool   `json:"stream,omitempty"`
	Verbose   bool   `json:"verbose,omitempty"`
	LogLevel  string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `json:"log_format,omitempty" validate:"omitempty,oneof=json pretty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	modes := map[string]bool{"FULL_PIPELINE": true, "WRITE_ONLY": true, "REVIEW_ONLY": true, "ANALYZE_ONLY": true}
	_ = v.RegisterValidation("mode", func(fl validator.FieldLevel) bool {
		return modes[fl.Field().String()]
	})
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	return v
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Required inputs are checked by the commands after merging flags.
func (c *Config) Validate() error {
	if c.Job != "" && c.JobURL != "" {
		return fmt.Errorf("config error: 'job' and 'job_url' are mutually exclusive")
	}

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' validation", jsonName(fe.StructField()), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Job != "" && c.Job != "-" {
		if _, err := os.Stat(c.Job); os.IsNotExist(err) {
			return fmt.Errorf("config error: job file not found: %s", c.Job)
		}
	}
	if c.Input != "" && c.Input != "-" {
		if _, err := os.Stat(c.Input); os.IsNotExist(err) {
			return fmt.Errorf("config error: input file not found: %s", c.Input)
		}
	}

	return nil
}

func jsonName(field string) string {
	names := map[string]string{
		"JobURL":            "job_url",
		"FallbackMode":      "fallback_mode",
		"APIKey":            "api_key",
		"BaseURL":           "base_url",
		"MaxOutputTokens":   "max_output_tokens",
		"CallTimeout":       "call_timeout",
		"MaxConcurrentRuns": "max_concurrent_runs",
		"LogLevel":          "log_level",
		"LogFormat":         "log_format",
	}
	if name, ok := names[field]; ok {
		return name
	}
	return toSnake(field)
}

func toSnake(s string) string {
	out := make([]byte, 0, len(s)+4)
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= 'A' && ch <= 'Z' {
			if i > 0 {
				out = append(out, '_')
			}
			ch += 'a' - 'A'
		}
		out = append(out, ch)
	}
	return string(out)
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	strs := []struct {
		dst *string
		src string
	}{
		{&result.Input, defaults.Input},
		{&result.Job, defaults.Job},
		{&result.JobURL, defaults.JobURL},
		{&result.Mode, defaults.Mode},
		{&result.FallbackMode, defaults.FallbackMode},
		{&result.APIKey, defaults.APIKey},
		{&result.Provider, defaults.Provider},
		{&result.BaseURL, defaults.BaseURL},
		{&result.CallTimeout, defaults.CallTimeout},
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.LogLevel, defaults.LogLevel},
		{&result.LogFormat, defaults.LogFormat},
	}
	for _, s := range strs {
		if *s.dst == "" {
			*s.dst = s.src
		}
	}

	if result.Temperature == 0 {
		result.Temperature = defaults.Temperature
	}
	if result.MaxOutputTokens == 0 {
		result.MaxOutputTokens = defaults.MaxOutputTokens
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MaxConcurrentRuns == 0 {
		result.MaxConcurrentRuns = defaults.MaxConcurrentRuns
	}
	if len(result.Models) == 0 && len(defaults.Models) > 0 {
		result.Models = make(map[string]string, len(defaults.Models))
		for k, v := range defaults.Models {
			result.Models[k] = v
		}
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv fills empty fields from environment variables. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.APIKey == "" {
		c.APIKey = getenv(APIKeyEnv(llm.Provider(c.Provider)))
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv(EnvDatabaseURL)
	}
	if c.LogLevel == "" {
		c.LogLevel = getenv(EnvLogLevel)
	}
	if c.LogFormat == "" {
		c.LogFormat = getenv(EnvLogFormat)
	}
	if c.Port == 0 {
		if port, err := strconv.Atoi(getenv(EnvPort)); err == nil {
			c.Port = port
		}
	}
}

// APIKeyEnv names the environment variable holding the key for provider.
func APIKeyEnv(provider llm.Provider) string {
	if provider == llm.ProviderOpenAI {
		return EnvOpenAIKey
	}
	return EnvAPIKey
}

// LLMConfig builds the model configuration, starting from the provider
// defaults and applying any overrides.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.DefaultConfig()
	if llm.Provider(c.Provider) == llm.ProviderOpenAI {
		cfg = llm.DefaultOpenAIConfig()
	}
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	for tier, model := range c.Models {
		cfg = cfg.WithModel(llm.ModelTier(tier), model)
	}
	if c.Temperature > 0 {
		cfg.Temperature = c.Temperature
	}
	if c.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = c.MaxOutputTokens
	}
	if d, err := time.ParseDuration(c.CallTimeout); err == nil && d > 0 {
		cfg.CallTimeout = d
	}
	return cfg
}

// FetchOptions returns the options used to fetch job postings.
func (c *Config) FetchOptions() *fetch.Options {
	opts := fetch.DefaultOptions()
	if c.Browser {
		opts.Render = fetch.BrowserRenderer(fetch.DefaultBrowserTimeout)
	}
	return opts
}

// LoggerConfig returns the logging configuration. Verbose forces debug level.
func (c *Config) LoggerConfig() logger.Config {
	level := c.LogLevel
	if c.Verbose {
		level = "debug"
	}
	return logger.Config{Level: level, Format: c.LogFormat}
}
