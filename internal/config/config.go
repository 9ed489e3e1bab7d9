package config

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type AppConfig struct {
	DatabaseDriver string
	DatabaseURL    string
	HTTPAddr       string

	// бот необязателен, без токена поднимается только HTTP API
	TelegramToken string
	TelegramDebug bool
	AdminChatID   int64

	RecomputeWorkers int
	RecomputeCron    string
	HolidaysFile     string
	LogLevel         string
}

var instance *AppConfig
var once sync.Once

func GetConfig() *AppConfig {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Infof("no .env file loaded, using process environment: %s", err.Error())
		}

		instance = Load()
	})

	return instance
}

// Load читает конфигурацию из переменных окружения без кэширования
func Load() *AppConfig {
	cfg := &AppConfig{
		DatabaseDriver:   getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:      getEnv("DATABASE_URL", "attendance.db"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		TelegramToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramDebug:    getEnvAsBool("TELEGRAM_DEBUG", false),
		AdminChatID:      getEnvAsInt("ADMIN_CHAT_ID", 0),
		RecomputeWorkers: int(getEnvAsInt("RECOMPUTE_WORKERS", 4)),
		RecomputeCron:    getEnv("RECOMPUTE_CRON", "0 3 * * *"),
		HolidaysFile:     getEnv("HOLIDAYS_FILE", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		logrus.Fatalf("unsupported DATABASE_DRIVER %q, expected sqlite or postgres", cfg.DatabaseDriver)
	}

	if cfg.DatabaseURL == "" {
		logrus.Fatal("could not get db url")
	}

	if cfg.RecomputeWorkers < 1 {
		cfg.RecomputeWorkers = 1
	}

	return cfg
}

// BotEnabled сообщает, нужно ли запускать Telegram бота
func (c *AppConfig) BotEnabled() bool {
	return c.TelegramToken != ""
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}
