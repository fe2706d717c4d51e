package config

import (
	"os"
	"path/filepath"
	"testing"
)

var envKeys = []string{
	"DB_DRIVER", "DB_HOST", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_ERROR_MODE",
	"API_PORT", "API_RAW_QUERY", "ENVIRONMENT", "LOG_LEVEL", "LOG_ENCODING", "CORS_ORIGINS",
}

// clearEnv unsets every config key and restores the originals when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestFromEnv_WhenAllVariablesSet_ThenReturnsConfigWithSetValues(t *testing.T) {
	// Arrange
	clearEnv(t)
	os.Setenv("DB_DRIVER", "postgres")
	os.Setenv("DB_HOST", "db:5432")
	os.Setenv("DB_USER", "app")
	os.Setenv("DB_PASSWORD", "secret")
	os.Setenv("DB_NAME", "shop")
	os.Setenv("DB_ERROR_MODE", "return")
	os.Setenv("API_PORT", "9000")
	os.Setenv("API_RAW_QUERY", "true")
	os.Setenv("ENVIRONMENT", "development")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_ENCODING", "console")
	os.Setenv("CORS_ORIGINS", "http://localhost:3000,https://example.com")

	// Act
	config := FromEnv()

	// Assert
	if config.DBDriver != "postgres" {
		t.Errorf("expected DBDriver 'postgres', got '%s'", config.DBDriver)
	}
	if config.DBHost != "db:5432" {
		t.Errorf("expected DBHost 'db:5432', got '%s'", config.DBHost)
	}
	if config.DBUser != "app" || config.DBPassword != "secret" || config.DBName != "shop" {
		t.Errorf("unexpected credentials %q/%q/%q", config.DBUser, config.DBPassword, config.DBName)
	}
	if config.DBErrorMode != "return" {
		t.Errorf("expected DBErrorMode 'return', got '%s'", config.DBErrorMode)
	}
	if config.APIPort != "9000" {
		t.Errorf("expected APIPort '9000', got '%s'", config.APIPort)
	}
	if !config.RawQuery {
		t.Error("expected RawQuery to be enabled")
	}
	if config.Environment != "development" {
		t.Errorf("expected Environment 'development', got '%s'", config.Environment)
	}
	if config.LogLevel != "debug" || config.LogEncoding != "console" {
		t.Errorf("unexpected log settings %q/%q", config.LogLevel, config.LogEncoding)
	}
	if len(config.CORSOrigins) != 2 || config.CORSOrigins[1] != "https://example.com" {
		t.Errorf("unexpected CORS origins %v", config.CORSOrigins)
	}
}

func TestFromEnv_WhenNoVariablesSet_ThenReturnsDefaults(t *testing.T) {
	// Arrange
	clearEnv(t)

	// Act
	config := FromEnv()

	// Assert
	if config.DBDriver != "mysql" {
		t.Errorf("expected DBDriver 'mysql', got '%s'", config.DBDriver)
	}
	if config.DBHost != "localhost:3306" {
		t.Errorf("expected DBHost 'localhost:3306', got '%s'", config.DBHost)
	}
	if config.DBErrorMode != "halt" {
		t.Errorf("expected DBErrorMode 'halt', got '%s'", config.DBErrorMode)
	}
	if config.APIPort != "8080" {
		t.Errorf("expected APIPort '8080', got '%s'", config.APIPort)
	}
	if config.RawQuery {
		t.Error("expected RawQuery to be disabled")
	}
	if config.Environment != "production" {
		t.Errorf("expected Environment 'production', got '%s'", config.Environment)
	}
	if config.LogLevel != "info" || config.LogEncoding != "json" {
		t.Errorf("unexpected log settings %q/%q", config.LogLevel, config.LogEncoding)
	}
	if len(config.CORSOrigins) != 1 || config.CORSOrigins[0] != "*" {
		t.Errorf("expected CORS origins to be ['*'], got %v", config.CORSOrigins)
	}
}

func TestLoad_WhenDotEnvPresent_ThenFillsUnsetVariables(t *testing.T) {
	// Arrange
	clearEnv(t)
	os.Setenv("DB_USER", "from-env")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DB_USER=from-file\nDB_NAME=shop\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// Act
	config, err := Load(path)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if config.DBUser != "from-env" {
		t.Errorf("expected existing variable to win, got '%s'", config.DBUser)
	}
	if config.DBName != "shop" {
		t.Errorf("expected DBName from file, got '%s'", config.DBName)
	}
}

func TestLoad_WhenFileMissing_ThenIgnoresIt(t *testing.T) {
	// Arrange
	clearEnv(t)

	// Act
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	// Assert
	if err != nil {
		t.Errorf("expected missing file to be ignored, got %v", err)
	}
}

func TestGetCORSOrigins_WhenMultipleOriginsWithWhitespace_ThenTrimsCorrectly(t *testing.T) {
	// Arrange
	t.Setenv("CORS_ORIGINS", " http://localhost:3000 , https://example.com ,  ")

	// Act
	origins := getCORSOrigins()

	// Assert
	if len(origins) != 2 {
		t.Fatalf("expected 2 origins after trimming, got %d", len(origins))
	}
	if origins[0] != "http://localhost:3000" {
		t.Errorf("expected first origin 'http://localhost:3000', got '%s'", origins[0])
	}
}

func TestGetCORSOrigins_WhenOnlyWhitespace_ThenReturnsEmpty(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "   ,  ,  ")

	if origins := getCORSOrigins(); len(origins) != 0 {
		t.Errorf("expected empty slice, got %v", origins)
	}
}

func TestGetEnv_WhenVariableEmpty_ThenReturnsDefault(t *testing.T) {
	t.Setenv("EMPTY_VAR", "")

	if result := getEnv("EMPTY_VAR", "default_value"); result != "default_value" {
		t.Errorf("expected 'default_value', got '%s'", result)
	}
}
