package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Workbook     WorkbookConfig     `yaml:"workbook"`
	Log          LogConfig          `yaml:"log"`
	Mail         MailConfig         `yaml:"mail"`
	Push         PushConfig         `yaml:"push"`
	Notification NotificationConfig `yaml:"notification"`
	Schedule     ScheduleConfig     `yaml:"schedule"`
	Intake       IntakeConfig       `yaml:"intake"`
	Property     PropertyConfig     `yaml:"property"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogQueries             bool   `yaml:"log_queries"`
}

// WorkbookConfig points the store at an .xlsx file instead of the database.
type WorkbookConfig struct {
	Path string `yaml:"path"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json or console
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MailConfig holds the HTTP mail API settings.
type MailConfig struct {
	Endpoint         string        `yaml:"endpoint"`
	APIToken         string        `yaml:"api_token"`
	From             string        `yaml:"from"`
	TimeoutSeconds   int           `yaml:"timeout_seconds"`
	Timeout          time.Duration `yaml:"-"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryWaitSeconds int           `yaml:"retry_wait_seconds"`
	RetryWait        time.Duration `yaml:"-"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// NotificationConfig holds the configuration for outgoing notifications.
type NotificationConfig struct {
	ManagerEmail     string `yaml:"manager_email"`
	WorkerPoolSize   int    `yaml:"worker_pool_size"`
	ReminderLeadDays int    `yaml:"reminder_lead_days"`
}

// ScheduleConfig defines when the recurring jobs run.
type ScheduleConfig struct {
	Enabled                   bool          `yaml:"enabled"`
	TickSeconds               int           `yaml:"tick_seconds"`
	Tick                      time.Duration `yaml:"-"`
	Hour                      int           `yaml:"hour"`
	Weekday                   string        `yaml:"weekday"`
	InvoiceDay                int           `yaml:"invoice_day"`
	IntakeSyncIntervalMinutes int           `yaml:"intake_sync_interval_minutes"`
	IntakeSyncInterval        time.Duration `yaml:"-"`
}

// IntakeConfig defines the form-response endpoint polled for new bookings.
type IntakeConfig struct {
	Enabled  bool              `yaml:"enabled"`
	URL      string            `yaml:"url"`
	Headers  map[string]string `yaml:"headers"`
	PageSize int               `yaml:"page_size"`
	RoomID   string            `yaml:"room_id"`
}

// PropertyConfig describes the managed property.
type PropertyConfig struct {
	Name     string         `yaml:"name"`
	Timezone string         `yaml:"timezone"`
	Location *time.Location `yaml:"-"`
	Currency string         `yaml:"currency"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}

	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	switch cfg.Database.Driver {
	case "":
		cfg.Database.Driver = "postgres"
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", cfg.Database.Driver)
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMinutes <= 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 10
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 7
	}
	if cfg.Log.MaxAgeDays <= 0 {
		cfg.Log.MaxAgeDays = 28
	}

	if cfg.Mail.TimeoutSeconds <= 0 {
		cfg.Mail.TimeoutSeconds = 10
	}
	cfg.Mail.Timeout = time.Duration(cfg.Mail.TimeoutSeconds) * time.Second
	if cfg.Mail.MaxRetries < 0 {
		cfg.Mail.MaxRetries = 0
	} else if cfg.Mail.MaxRetries == 0 {
		cfg.Mail.MaxRetries = 3
	}
	if cfg.Mail.RetryWaitSeconds <= 0 {
		cfg.Mail.RetryWaitSeconds = 2
	}
	cfg.Mail.RetryWait = time.Duration(cfg.Mail.RetryWaitSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Notification.WorkerPoolSize <= 0 {
		cfg.Notification.WorkerPoolSize = 1
	}
	if cfg.Notification.ReminderLeadDays <= 0 {
		cfg.Notification.ReminderLeadDays = 3
	}

	if cfg.Schedule.TickSeconds <= 0 {
		cfg.Schedule.TickSeconds = 60
	}
	cfg.Schedule.Tick = time.Duration(cfg.Schedule.TickSeconds) * time.Second
	if cfg.Schedule.Hour < 0 || cfg.Schedule.Hour > 23 {
		return fmt.Errorf("schedule.hour must be 0-23, got %d", cfg.Schedule.Hour)
	}
	if cfg.Schedule.Weekday == "" {
		cfg.Schedule.Weekday = "Monday"
	}
	if _, err := ParseWeekday(cfg.Schedule.Weekday); err != nil {
		return err
	}
	if cfg.Schedule.InvoiceDay <= 0 {
		cfg.Schedule.InvoiceDay = 1
	}
	if cfg.Schedule.InvoiceDay > 28 {
		return fmt.Errorf("schedule.invoice_day must be 1-28, got %d", cfg.Schedule.InvoiceDay)
	}
	if cfg.Schedule.IntakeSyncIntervalMinutes <= 0 {
		cfg.Schedule.IntakeSyncIntervalMinutes = 15
	}
	cfg.Schedule.IntakeSyncInterval = time.Duration(cfg.Schedule.IntakeSyncIntervalMinutes) * time.Minute

	if cfg.Intake.PageSize <= 0 {
		cfg.Intake.PageSize = 100
	}

	if cfg.Property.Timezone == "" {
		cfg.Property.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(cfg.Property.Timezone)
	if err != nil {
		return fmt.Errorf("property.timezone: %w", err)
	}
	cfg.Property.Location = loc
	if cfg.Property.Currency == "" {
		cfg.Property.Currency = "USD"
	}
	return nil
}

// ParseWeekday reads a weekday name such as "Mon" or "monday".
func ParseWeekday(raw string) (time.Weekday, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) >= 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", raw)
}
