package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration, loaded from an optional YAML file
// with environment overrides applied on top.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Database struct {
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`

	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	Auction struct {
		SweepIntervalMs   int `yaml:"sweep_interval_ms"`
		BotPollIntervalMs int `yaml:"bot_poll_interval_ms"`
	} `yaml:"auction"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// loadConfig reads the YAML config at path (a missing file is fine) and
// layers environment variables over it.
func loadConfig(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.Server.Port = getEnv("PORT", defaultString(config.Server.Port, "8080"))

	config.Database.DSN = getEnv("DATABASE_URL", config.Database.DSN)
	config.Database.Host = getEnv("DB_HOST", config.Database.Host)
	config.Database.Port = getEnvAsInt("DB_PORT", config.Database.Port)
	config.Database.User = getEnv("DB_USER", config.Database.User)
	config.Database.Password = getEnv("DB_PASSWORD", config.Database.Password)
	config.Database.Database = getEnv("DB_NAME", config.Database.Database)
	config.Database.SSLMode = getEnv("DB_SSLMODE", config.Database.SSLMode)

	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)

	config.Auction.SweepIntervalMs = getEnvAsInt("SWEEP_INTERVAL_MS",
		defaultInt(config.Auction.SweepIntervalMs, 500))
	config.Auction.BotPollIntervalMs = getEnvAsInt("BOT_POLL_INTERVAL_MS",
		defaultInt(config.Auction.BotPollIntervalMs, 2000))

	return &config, nil
}

// databaseConfigured reports whether any postgres settings were supplied.
// Without them the service runs on the in-memory store.
func (c *Config) databaseConfigured() bool {
	return c.Database.DSN != "" || c.Database.Host != ""
}

func (c *Config) sweepInterval() time.Duration {
	return time.Duration(c.Auction.SweepIntervalMs) * time.Millisecond
}

func (c *Config) botPollInterval() time.Duration {
	return time.Duration(c.Auction.BotPollIntervalMs) * time.Millisecond
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
