package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	Port         string
	GinMode      string
	Environment  string
	MonitorToken string
}

type JWTConfig struct {
	Secret []byte
	Issuer string
}

type MailConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	From          string // e.g. "Appraisal System <no-reply@your.org>"
	SkipTLSVerify bool
}

// LoadAppConfig reads server settings with their defaults.
func LoadAppConfig() AppConfig {
	cfg := AppConfig{
		Port:         os.Getenv("SERVER_PORT"),
		GinMode:      os.Getenv("GIN_MODE"),
		Environment:  strings.ToLower(os.Getenv("ENVIRONMENT")),
		MonitorToken: os.Getenv("MONITOR_TOKEN"),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	return cfg
}

// LoadJWTConfig reads the verification key of the identity provider tokens.
func LoadJWTConfig() JWTConfig {
	return JWTConfig{
		Secret: []byte(os.Getenv("JWT_SECRET")),
		Issuer: strings.TrimSpace(os.Getenv("JWT_ISSUER")),
	}
}

func LoadMailConfig() MailConfig {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if port == 0 {
		port = 587
	}
	return MailConfig{
		Host:          os.Getenv("SMTP_HOST"),
		Port:          port,
		User:          os.Getenv("SMTP_USER"),
		Password:      os.Getenv("SMTP_PASS"),
		From:          os.Getenv("SMTP_FROM"),
		SkipTLSVerify: os.Getenv("SMTP_SKIP_TLS_VERIFY") == "1",
	}
}

// Validate ensures the sections the API cannot start without are configured.
// Mail is optional: notifications are still stored when SMTP is missing.
func Validate() error {
	if err := ValidateDatabaseConfig(); err != nil {
		return fmt.Errorf("database configuration: %w", err)
	}

	if err := ValidateJWTConfig(); err != nil {
		return fmt.Errorf("jwt configuration: %w", err)
	}

	if err := ValidateMailConfig(); err != nil {
		return fmt.Errorf("mail configuration: %w", err)
	}

	return nil
}

// ValidateDatabaseConfig checks the variables required by the selected driver.
func ValidateDatabaseConfig() error {
	cfg := LoadDatabaseConfig()
	switch cfg.Driver {
	case "sqlite":
		return nil
	case "mysql":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	required := []string{"DB_HOST", "DB_PORT", "DB_DATABASE", "DB_USERNAME"}
	return requireEnv(required)
}

func ValidateJWTConfig() error {
	if strings.TrimSpace(os.Getenv("JWT_SECRET")) == "" {
		return fmt.Errorf("JWT_SECRET environment variable is not set")
	}
	return nil
}

// ValidateMailConfig only checks well-formedness when SMTP_HOST is set.
func ValidateMailConfig() error {
	if strings.TrimSpace(os.Getenv("SMTP_HOST")) == "" {
		return nil
	}

	if err := requireEnv([]string{"SMTP_FROM"}); err != nil {
		return err
	}

	if raw := strings.TrimSpace(os.Getenv("SMTP_PORT")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 {
			return fmt.Errorf("SMTP_PORT must be a positive integer")
		}
	}

	return nil
}

func requireEnv(keys []string) error {
	var missing []string
	for _, key := range keys {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
