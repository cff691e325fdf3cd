package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendMongo     = "mongo"
	BackendFirestore = "firestore"

	FeedRedis = "redis"
	FeedMongo = "mongo"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Document service selection: "mongo" or "firestore".
	StoreBackend string `mapstructure:"STORE_BACKEND"`

	// MongoDB configuration.
	DatabaseURL            string `mapstructure:"DATABASE_URL"`
	DatabaseName           string `mapstructure:"DATABASE_NAME"`
	AppointmentsCollection string `mapstructure:"APPOINTMENTS_COLLECTION"`
	DatabaseAutoMigrate    bool   `mapstructure:"DATABASE_AUTO_MIGRATE"`

	// ChangeFeed selects how the mongo backend learns about mutations:
	// "redis" pub/sub or "mongo" change streams.
	ChangeFeed string `mapstructure:"CHANGE_FEED"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisChangesDB       int    `mapstructure:"REDIS_CHANGES_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`
	RedisChannelPrefix   string `mapstructure:"REDIS_CHANNEL_PREFIX"`

	// Firebase configuration (Firestore backend and FCM pushes).
	FirebaseProjectID       string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	FCMTopic                string `mapstructure:"FCM_TOPIC"`

	// Calendar presentation.
	Timezone  string `mapstructure:"TIMEZONE"`
	WeekStart string `mapstructure:"WEEK_START"`

	// Reminders.
	RemindersEnabled    bool `mapstructure:"REMINDERS_ENABLED"`
	ReminderLeadMinutes int  `mapstructure:"REMINDER_LEAD_MINUTES"`

	HealthCheckSchedule string `mapstructure:"HEALTH_CHECK_SCHEDULE"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	v.SetDefault("STORE_BACKEND", BackendMongo)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "clinic")
	v.SetDefault("APPOINTMENTS_COLLECTION", "appointments")
	v.SetDefault("DATABASE_AUTO_MIGRATE", true)
	v.SetDefault("CHANGE_FEED", FeedRedis)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CHANGES_DB", 0)
	v.SetDefault("REDIS_REMINDER_QUEUE_DB", 3)
	v.SetDefault("REDIS_CHANNEL_PREFIX", "changes:")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	v.SetDefault("FCM_TOPIC", "appointments")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("WEEK_START", "sunday")
	v.SetDefault("REMINDERS_ENABLED", false)
	v.SetDefault("REMINDER_LEAD_MINUTES", 60)
	v.SetDefault("HEALTH_CHECK_SCHEDULE", "@every 60s")
}

// Load reads config.yaml from the current or ./config directory and
// overlays environment variables on top of it.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// LoadConfig populates AppConfig or exits.
func LoadConfig() {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig = cfg
}

// Normalize replaces unknown or empty values with defaults so that a
// partially filled config still produces a working service.
func (c *Config) Normalize() {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	switch strings.ToLower(c.WeekStart) {
	case "monday":
		c.WeekStart = "monday"
	default:
		c.WeekStart = "sunday"
	}
	switch strings.ToLower(c.StoreBackend) {
	case BackendFirestore:
		c.StoreBackend = BackendFirestore
	default:
		c.StoreBackend = BackendMongo
	}
	switch strings.ToLower(c.ChangeFeed) {
	case FeedMongo:
		c.ChangeFeed = FeedMongo
	default:
		c.ChangeFeed = FeedRedis
	}
	if c.DatabaseName == "" {
		c.DatabaseName = "clinic"
	}
	if c.AppointmentsCollection == "" {
		c.AppointmentsCollection = "appointments"
	}
	if c.ReminderLeadMinutes <= 0 {
		c.ReminderLeadMinutes = 60
	}
	if c.MaxRequestsPerMin <= 0 {
		c.MaxRequestsPerMin = 100
	}
	if c.HealthCheckSchedule == "" {
		c.HealthCheckSchedule = "@every 60s"
	}
}

// WeekStartDay returns the configured first day of the calendar week.
func (c Config) WeekStartDay() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// Location resolves Timezone, falling back to time.Local.
func (c Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("failed to load timezone %q; falling back to local: %v", c.Timezone, err)
		return time.Local
	}
	return loc
}

// ReminderLead is the time before an appointment its reminder fires.
func (c Config) ReminderLead() time.Duration {
	return time.Duration(c.ReminderLeadMinutes) * time.Minute
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
