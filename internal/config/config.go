// Package config loads the scheduler configuration from an optional YAML
// file and SCHEDULER_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SCHEDULER_MODEL_API_KEY.
const EnvPrefix = "SCHEDULER"

// Calendar backends.
const (
	BackendGoogle = "google"
	BackendMemory = "memory"
)

// Config is the complete application configuration.
type Config struct {
	TimeZone string         `mapstructure:"timezone"`
	Model    ModelConfig    `mapstructure:"model"`
	Agent    AgentConfig    `mapstructure:"agent"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Server   ServerConfig   `mapstructure:"server"`
	Export   ExportConfig   `mapstructure:"export"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ModelConfig selects the chat-completions endpoint.
type ModelConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Name        string        `mapstructure:"name"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// AgentConfig bounds the conversation loop.
type AgentConfig struct {
	MaxIterations    int           `mapstructure:"max_iterations"`
	MemoryCapacity   int           `mapstructure:"memory_capacity"`
	ToolTimeout      time.Duration `mapstructure:"tool_timeout"`
	BatchToolTimeout time.Duration `mapstructure:"batch_tool_timeout"`
}

// CalendarConfig selects and configures the calendar backend.
type CalendarConfig struct {
	Backend            string `mapstructure:"backend"`
	Account            string `mapstructure:"account"`
	DefaultCalendarID  string `mapstructure:"default_calendar_id"`
	SeedFile           string `mapstructure:"seed_file"`
	TokenDir           string `mapstructure:"token_dir"`
	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
}

// ServerConfig configures the HTTP servers and sessions.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	MetricsAddr    string        `mapstructure:"metrics_addr"`
	MetricsEnabled bool          `mapstructure:"metrics_enabled"`
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
}

// ExportConfig configures Markdown export.
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TimeZone: "Europe/London",
		Model: ModelConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Name:        "llama-3.3-70b-versatile",
			Temperature: 0,
			MaxTokens:   1024,
			Timeout:     60 * time.Second,
		},
		Agent: AgentConfig{
			MaxIterations:    10,
			MemoryCapacity:   8,
			ToolTimeout:      30 * time.Second,
			BatchToolTimeout: 60 * time.Second,
		},
		Calendar: CalendarConfig{
			Backend:           BackendGoogle,
			Account:           "default",
			DefaultCalendarID: "primary",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MetricsAddr:    ":9090",
			MetricsEnabled: true,
			SessionTimeout: 30 * time.Minute,
		},
		Export: ExportConfig{
			Dir: "./output",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the configuration. An empty path looks for scheduler.yaml in
// the working directory and in $HOME/.config/scheduler; a missing file is
// not an error. Environment variables override the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("model.api_key", EnvPrefix+"_MODEL_API_KEY", "GROQ_API_KEY")
	_ = v.BindEnv("calendar.google_client_id", EnvPrefix+"_CALENDAR_GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_ID")
	_ = v.BindEnv("calendar.google_client_secret", EnvPrefix+"_CALENDAR_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_SECRET")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("scheduler")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "scheduler"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.TimeZone, err)
	}
	switch c.Calendar.Backend {
	case BackendGoogle, BackendMemory:
	default:
		return fmt.Errorf("invalid calendar backend %q (use %s or %s)", c.Calendar.Backend, BackendGoogle, BackendMemory)
	}
	if c.Agent.MaxIterations < 1 {
		return fmt.Errorf("agent.max_iterations must be at least 1, got %d", c.Agent.MaxIterations)
	}
	if c.Agent.MemoryCapacity < 1 {
		return fmt.Errorf("agent.memory_capacity must be at least 1, got %d", c.Agent.MemoryCapacity)
	}
	if c.Agent.ToolTimeout <= 0 || c.Agent.BatchToolTimeout <= 0 {
		return errors.New("agent tool timeouts must be positive")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("model.temperature must be between 0 and 2, got %g", c.Model.Temperature)
	}
	return nil
}

// Location returns the reference timezone. Validate has checked it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("timezone", d.TimeZone)
	v.SetDefault("model.base_url", d.Model.BaseURL)
	v.SetDefault("model.api_key", d.Model.APIKey)
	v.SetDefault("model.name", d.Model.Name)
	v.SetDefault("model.temperature", d.Model.Temperature)
	v.SetDefault("model.max_tokens", d.Model.MaxTokens)
	v.SetDefault("model.timeout", d.Model.Timeout)
	v.SetDefault("agent.max_iterations", d.Agent.MaxIterations)
	v.SetDefault("agent.memory_capacity", d.Agent.MemoryCapacity)
	v.SetDefault("agent.tool_timeout", d.Agent.ToolTimeout)
	v.SetDefault("agent.batch_tool_timeout", d.Agent.BatchToolTimeout)
	v.SetDefault("calendar.backend", d.Calendar.Backend)
	v.SetDefault("calendar.account", d.Calendar.Account)
	v.SetDefault("calendar.default_calendar_id", d.Calendar.DefaultCalendarID)
	v.SetDefault("calendar.seed_file", d.Calendar.SeedFile)
	v.SetDefault("calendar.token_dir", d.Calendar.TokenDir)
	v.SetDefault("calendar.google_client_id", d.Calendar.GoogleClientID)
	v.SetDefault("calendar.google_client_secret", d.Calendar.GoogleClientSecret)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.metrics_addr", d.Server.MetricsAddr)
	v.SetDefault("server.metrics_enabled", d.Server.MetricsEnabled)
	v.SetDefault("server.session_timeout", d.Server.SessionTimeout)
	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}
