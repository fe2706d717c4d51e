package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// App holds runtime configuration derived from env vars.
type App struct {
	DBDriver    string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBErrorMode string

	APIPort     string
	RawQuery    bool
	Environment string
	LogLevel    string
	LogEncoding string
	CORSOrigins []string
}

// Load reads the given .env files (".env" when none are named) into the
// process environment, then builds the configuration. Missing files are ignored;
// variables already set win.
func Load(files ...string) (App, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return App{}, err
		}
	}
	return FromEnv(), nil
}

// FromEnv loads the application configuration from environment variables.
func FromEnv() App {
	return App{
		DBDriver:    getEnv("DB_DRIVER", "mysql"),
		DBHost:      getEnv("DB_HOST", "localhost:3306"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBErrorMode: getEnv("DB_ERROR_MODE", "halt"),
		APIPort:     getEnv("API_PORT", "8080"),
		RawQuery:    getEnv("API_RAW_QUERY", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "production"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", "json"),
		CORSOrigins: getCORSOrigins(),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// getCORSOrigins splits CORS_ORIGINS on commas; unset or empty means "*".
func getCORSOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")
	if raw == "" {
		return []string{"*"}
	}

	origins := make([]string, 0)
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
