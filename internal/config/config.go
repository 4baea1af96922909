package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config defines the evlogger service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"EVLOGGER_HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"EVLOGGER_POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr" env:"EVLOGGER_REDIS_ADDR"`
		Password string `yaml:"password" env:"EVLOGGER_REDIS_PASSWORD"`
	} `yaml:"redis"`
	Auth struct {
		JWTSecret         string `yaml:"jwtSecret" env:"EVLOGGER_JWT_SECRET"`
		AdminPasswordHash string `yaml:"adminPasswordHash" env:"EVLOGGER_ADMIN_PASSWORD_HASH"`
		TokenTTLMinutes   int    `yaml:"tokenTtlMinutes" env:"EVLOGGER_TOKEN_TTL_MINUTES"`
	} `yaml:"auth"`
	Vehicle struct {
		BaseURL   string `yaml:"baseUrl" env:"EVLOGGER_VEHICLE_API_URL"`
		Username  string `yaml:"username" env:"EVLOGGER_VEHICLE_USERNAME"`
		Password  string `yaml:"password" env:"EVLOGGER_VEHICLE_PASSWORD"`
		PIN       string `yaml:"pin" env:"EVLOGGER_VEHICLE_PIN"`
		VehicleID string `yaml:"vehicleId" env:"EVLOGGER_VEHICLE_ID"`
	} `yaml:"vehicle"`
	Poll struct {
		CachedRefreshSeconds  int     `yaml:"cachedRefreshSeconds" env:"EVLOGGER_CACHED_REFRESH_SECONDS"`
		EngineRunningSeconds  int     `yaml:"engineRunningSeconds" env:"EVLOGGER_ENGINE_RUNNING_SECONDS"`
		DCChargeSeconds       int     `yaml:"dcChargeSeconds" env:"EVLOGGER_DC_CHARGE_SECONDS"`
		ACChargeSeconds       int     `yaml:"acChargeSeconds" env:"EVLOGGER_AC_CHARGE_SECONDS"`
		CarOffSeconds         int     `yaml:"carOffSeconds" env:"EVLOGGER_CAR_OFF_SECONDS"`
		RateLimitCooldownSecs int     `yaml:"rateLimitCooldownSeconds" env:"EVLOGGER_RATE_LIMIT_COOLDOWN_SECONDS"`
		ActiveStartHour       int     `yaml:"activeStartHour" env:"EVLOGGER_REFRESH_START_HOUR"`
		ActiveEndHour         int     `yaml:"activeEndHour" env:"EVLOGGER_REFRESH_END_HOUR"`
		MinAuxBatteryPercent  int     `yaml:"minAuxBatteryPercent" env:"EVLOGGER_MIN_AUX_BATTERY_PERCENT"`
		BatteryCapacityKWh    float64 `yaml:"batteryCapacityKwh" env:"EVLOGGER_BATTERY_CAPACITY_KWH"`
	} `yaml:"poll"`
}

// Load reads configuration from YAML file and environment.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Auth.TokenTTLMinutes = 60

	// defaults match the ~200 requests/day API budget: cached reads every
	// 30 minutes, force refreshes far less often unless the car is active.
	cfg.Poll.CachedRefreshSeconds = 1800
	cfg.Poll.EngineRunningSeconds = 600
	cfg.Poll.DCChargeSeconds = 1800
	cfg.Poll.ACChargeSeconds = 1800
	cfg.Poll.CarOffSeconds = 14400
	cfg.Poll.RateLimitCooldownSecs = 3600
	cfg.Poll.ActiveStartHour = 6
	cfg.Poll.ActiveEndHour = 22
	cfg.Poll.MinAuxBatteryPercent = 30
	cfg.Poll.BatteryCapacityKWh = 70

	if err := load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	if strings.TrimSpace(cfg.Vehicle.BaseURL) == "" {
		return nil, errors.New("config: vehicle api base url required")
	}
	if strings.TrimSpace(cfg.Vehicle.VehicleID) == "" {
		return nil, errors.New("config: vehicle id required")
	}
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("config: jwt secret required")
	}
	if cfg.Poll.ActiveStartHour < 0 || cfg.Poll.ActiveStartHour > 23 ||
		cfg.Poll.ActiveEndHour < 0 || cfg.Poll.ActiveEndHour > 24 {
		return nil, errors.New("config: active hours out of range")
	}
	return cfg, nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// CachedRefreshInterval returns the base cadence for cached polls.
func (c *Config) CachedRefreshInterval() time.Duration {
	return seconds(c.Poll.CachedRefreshSeconds, 1800)
}

// RateLimitCooldown returns the wait applied after a rate-limited cycle.
func (c *Config) RateLimitCooldown() time.Duration {
	return seconds(c.Poll.RateLimitCooldownSecs, 3600)
}

// TokenTTL returns the JWT lifetime.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}
