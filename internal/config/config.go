package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Backup  BackupConfig  `yaml:"backup"`
	Auth    AuthConfig    `yaml:"auth"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port int `yaml:"port"`
}

// StorageConfig locates the CSV data directory and the backup directory
type StorageConfig struct {
	DataDir   string `yaml:"data_dir"`
	BackupDir string `yaml:"backup_dir"`
}

// BackupConfig controls scheduled backups. An empty cron expression
// disables them.
type BackupConfig struct {
	Cron string `yaml:"cron"`
}

// AuthConfig holds the authentication configuration. PasswordScheme is
// "plain" (the historical file format) or "bcrypt" for fresh deployments.
type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret"`
	PasswordScheme string `yaml:"password_scheme"`
}

// LoadConfig reads the YAML file named by CONFIG_FILE when set, then
// applies environment-variable overrides, then fills remaining defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	cfg.Server.Port = getEnvAsInt("SERVER_PORT", cfg.Server.Port)
	cfg.Storage.DataDir = getEnv("DATA_DIR", cfg.Storage.DataDir)
	cfg.Storage.BackupDir = getEnv("BACKUP_DIR", cfg.Storage.BackupDir)
	cfg.Backup.Cron = getEnv("BACKUP_CRON", cfg.Backup.Cron)
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.PasswordScheme = getEnv("PASSWORD_SCHEME", cfg.Auth.PasswordScheme)

	cfg.normalize()
	return cfg, nil
}

// normalize fills in missing values with defaults so a partial config
// still behaves sensibly.
func (c *Config) normalize() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.BackupDir == "" {
		c.Storage.BackupDir = "backups"
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "your-secret-key-here"
	}
	if c.Auth.PasswordScheme == "" {
		c.Auth.PasswordScheme = "plain"
	}
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
