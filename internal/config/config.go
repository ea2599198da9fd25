package config

import (
	"errors"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
// It is read once at startup and treated as immutable afterwards.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN"`
	AdminID  int64  `envconfig:"ADMIN_ID" default:"0"`

	// Storage backend selection (see store.Open for the fallback chain).
	DatabaseURL       string `envconfig:"DATABASE_URL"`
	DBPath            string `envconfig:"DB_PATH" default:"exam_bot.db"`
	UseFirestore      bool   `envconfig:"USE_FIRESTORE" default:"false"`
	FirebaseProjectID string `envconfig:"FIREBASE_PROJECT_ID"`
	// Either a path to a service-account JSON file or the JSON blob itself.
	GoogleCredentials string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`

	// DebugFastSchedule replaces daily triggers with a short fixed interval
	// so reminders can be observed without waiting a day.
	DebugFastSchedule bool `envconfig:"DEBUG_FAST_SCHEDULE" default:"false"`
	// NotifyWhenEmpty sends an explicit notice when a user has no upcoming
	// exams instead of staying silent.
	NotifyWhenEmpty bool `envconfig:"NOTIFY_WHEN_EMPTY" default:"false"`

	DefaultTimezone   string `envconfig:"DEFAULT_TIMEZONE" default:"Europe/Rome"`
	DefaultNotifyTime string `envconfig:"DEFAULT_NOTIFY_TIME" default:"09:00"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
}

// Load reads environment variables into Config and validates required fields.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if cfg.BotToken == "" {
		return cfg, errors.New("BOT_TOKEN environment variable is required")
	}
	return cfg, nil
}
