package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Timer    TimerConfig    `yaml:"timer"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Email    EmailConfig    `yaml:"email"`
	Push     PushConfig     `yaml:"push"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// TimerConfig contains countdown notification settings
type TimerConfig struct {
	// TickSchedule is a cron expression (with seconds) for the
	// per-session countdown ticks.
	TickSchedule string `yaml:"tick_schedule"`
	// WarningMinutes are remaining-time thresholds that trigger a
	// one-shot warning event per session.
	WarningMinutes []int32 `yaml:"warning_minutes"`
	// SubscriberBuffer is the per-subscriber event channel depth.
	SubscriberBuffer int `yaml:"subscriber_buffer"`
}

// JobsConfig contains cron schedule settings for maintenance jobs
type JobsConfig struct {
	SweepStaleSessions string `yaml:"sweep_stale_sessions"`
	ReportActiveCounts string `yaml:"report_active_counts"`
	// SweepGraceMinutes is how long past its deadline an ACTIVE session
	// must be before the sweep job force-expires it.
	SweepGraceMinutes int `yaml:"sweep_grace_minutes"`
}

// EmailConfig contains SendGrid settings for operator escalations
type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
}

// PushConfig contains Firebase Cloud Messaging settings for branch
// display push delivery
type PushConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Email
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Email.SendGridAPIKey = val
	}
	if val := os.Getenv("EMAIL_FROM"); val != "" {
		c.Email.FromEmail = val
	}

	// Push
	if val := os.Getenv("FCM_CREDENTIALS_FILE"); val != "" {
		c.Push.CredentialsFile = val
	}
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Timer defaults
	if c.Timer.TickSchedule == "" {
		c.Timer.TickSchedule = "0 * * * * *" // top of every minute, UTC
	}
	if len(c.Timer.WarningMinutes) == 0 {
		c.Timer.WarningMinutes = []int32{5, 1}
	}
	if c.Timer.SubscriberBuffer <= 0 {
		c.Timer.SubscriberBuffer = 16
	}

	// Jobs defaults
	if c.Jobs.SweepStaleSessions == "" {
		c.Jobs.SweepStaleSessions = "0 */5 * * * *" // every 5 minutes
	}
	if c.Jobs.ReportActiveCounts == "" {
		c.Jobs.ReportActiveCounts = "0 0 * * * *" // hourly
	}
	if c.Jobs.SweepGraceMinutes <= 0 {
		c.Jobs.SweepGraceMinutes = 2
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
