package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/yukikurage/pandora-pm/internal/constants"
)

// Supported values for DB_DRIVER.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Supported values for SESSION_STORE.
const (
	SessionStoreRedis  = "redis"
	SessionStoreCookie = "cookie"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string

	RedisHost     string
	RedisPort     string
	SessionStore  string
	SessionSecret string

	GinMode        string
	ServerAddr     string
	RequestTimeout time.Duration

	// Access policy switches
	StrictAssignee      bool
	OpenProjectCreation bool
	RevealMissing       bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:      getEnv("DB_DRIVER", DriverMySQL),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "pandora"),
		DBPassword:    getEnv("DB_PASSWORD", "pandorapassword"),
		DBName:        getEnv("DB_NAME", "pandora_pm"),
		SQLitePath:    getEnv("SQLITE_PATH", "pandora.db"),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "pandora_pm"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionStore:  getEnv("SESSION_STORE", SessionStoreRedis),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),

		GinMode:        getEnv("GIN_MODE", "debug"),
		ServerAddr:     getEnv("SERVER_ADDR", ":8080"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", constants.DefaultRequestTimeout),

		StrictAssignee:      getBool("STRICT_ASSIGNEE", true),
		OpenProjectCreation: getBool("OPEN_PROJECT_CREATION", false),
		RevealMissing:       getBool("REVEAL_MISSING", false),
	}
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
