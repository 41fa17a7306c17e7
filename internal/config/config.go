package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Port                 string
	Origin               string
	Environment          string
	LogLevel             string
	JWTSecret            string
	JWTExpirationMinutes int
	RequireLGPDConsent   bool
	Database             DatabaseConfig
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	SSLMode  string
	DSN      string
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3001")
	v.SetDefault("ORIGIN", "http://localhost:5173")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "default_jwt_secret")
	v.SetDefault("JWT_EXPIRATION_MINUTES", 60)
	v.SetDefault("REQUIRE_LGPD_CONSENT", false)
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USERNAME", "root")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "neokids")
	v.SetDefault("DB_SSLMODE", "disable")

	driver := strings.ToLower(v.GetString("DB_DRIVER"))
	if !v.IsSet("DB_PORT") {
		switch driver {
		case "postgres":
			v.SetDefault("DB_PORT", "5432")
		default:
			v.SetDefault("DB_PORT", "3306")
		}
	}

	dbConfig := DatabaseConfig{
		Driver:   driver,
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		Username: v.GetString("DB_USERNAME"),
		Password: v.GetString("DB_PASSWORD"),
		Name:     v.GetString("DB_NAME"),
		SSLMode:  v.GetString("DB_SSLMODE"),
	}

	dsn, err := buildDSN(dbConfig)
	if err != nil {
		return nil, err
	}
	dbConfig.DSN = dsn

	jwtExpMinutes := v.GetInt("JWT_EXPIRATION_MINUTES")
	if jwtExpMinutes <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %q", v.GetString("JWT_EXPIRATION_MINUTES"))
	}

	return &Config{
		Port:                 v.GetString("PORT"),
		Origin:               v.GetString("ORIGIN"),
		Environment:          v.GetString("APP_ENV"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		JWTSecret:            v.GetString("JWT_SECRET"),
		JWTExpirationMinutes: jwtExpMinutes,
		RequireLGPDConsent:   v.GetBool("REQUIRE_LGPD_CONSENT"),
		Database:             dbConfig,
	}, nil
}

// buildDSN renders the Data Source Name for the configured driver.
func buildDSN(db DatabaseConfig) (string, error) {
	switch db.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			db.Username, db.Password, db.Host, db.Port, db.Name), nil
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			db.Host, db.Port, db.Username, db.Password, db.Name, db.SSLMode), nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q (want mysql or postgres)", db.Driver)
	}
}
