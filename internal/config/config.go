package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends selectable through STORAGE_BACKEND.
const (
	BackendDatabase = "database"
	BackendFile     = "file"
	BackendMemory   = "memory"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	Port                 string
	StorageBackend       string
	DatabaseURL          string
	SQLitePath           string
	DataDir              string
	LocalTimezone        *time.Location
	RolloverPastTriggers bool
	NotificationIcon     string
	NotificationColor    string
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioWhatsAppNumber string
	NotifyWhatsAppTo     string
	BotOwner             string
	OpenAIAPIKey         string
}

// Load reads configuration values and prepares defaults where applicable.
func Load() *Config {
	_ = godotenv.Load()

	timezoneName := getenvDefault("LOCAL_TIMEZONE", "Local")
	location, err := time.LoadLocation(timezoneName)
	if err != nil {
		log.Printf("config: invalid LOCAL_TIMEZONE %q, defaulting to system local: %v", timezoneName, err)
		location = time.Local
	}

	backend := strings.ToLower(getenvDefault("STORAGE_BACKEND", BackendDatabase))
	switch backend {
	case BackendDatabase, BackendFile, BackendMemory:
	default:
		log.Printf("config: unknown STORAGE_BACKEND %q, using %s", backend, BackendDatabase)
		backend = BackendDatabase
	}

	return &Config{
		Port:                 getenvDefault("PORT", "8080"),
		StorageBackend:       backend,
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SQLitePath:           getenvDefault("SQLITE_PATH", "reminders.db"),
		DataDir:              getenvDefault("DATA_DIR", "./data"),
		LocalTimezone:        location,
		RolloverPastTriggers: ParseBoolEnv("ROLLOVER_PAST_TRIGGERS", false),
		NotificationIcon:     getenvDefault("NOTIFICATION_ICON", "ic_launcher"),
		NotificationColor:    getenvDefault("NOTIFICATION_ICON_COLOR", "#488AFF"),
		TwilioAccountSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppNumber: os.Getenv("TWILIO_WHATSAPP_NUMBER"),
		NotifyWhatsAppTo:     os.Getenv("NOTIFY_WHATSAPP_TO"),
		BotOwner:             os.Getenv("BOT_OWNER"),
		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
	}
}

func getenvDefault(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		return def
	}
	return value
}

// ParseBoolEnv returns the boolean value for an environment variable or the provided default.
func ParseBoolEnv(key string, def bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return def
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("config: unable to parse %s=%q as bool: %v", key, value, err)
		return def
	}
	return parsed
}
