package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifeTime int // minutes
}

type Config struct {
	DB DBConfig

	// Next-event projection refresh period, minutes.
	RefreshIntervalMin int

	// Meeting provisioning service.
	MeetingBaseURL      string
	MeetingAPIKey       string
	MeetingAPISecret    string
	MeetingPasswordSeed string
	// External account ids backing the license pool, comma-separated.
	MeetingUserIDs []string

	NotifyQueueSize int

	// REST API listen address.
	HTTPAddr string
}

func Load() (*Config, error) {
	dbCfg, err := LoadDBConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DB:                  *dbCfg,
		RefreshIntervalMin:  getEnvInt("NEXT_EVENT_REFRESH_MIN", 5),
		MeetingBaseURL:      getEnv("MEETING_API_BASE_URL", "https://api.zoom.us/v2"),
		MeetingAPIKey:       getEnv("MEETING_API_KEY", ""),
		MeetingAPISecret:    getEnv("MEETING_API_SECRET", ""),
		MeetingPasswordSeed: getEnv("MEETING_PASSWORD_SEED", ""),
		NotifyQueueSize:     getEnvInt("NOTIFY_QUEUE_SIZE", 64),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
	}

	if ids := getEnv("MEETING_USER_IDS", ""); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.MeetingUserIDs = append(cfg.MeetingUserIDs, id)
			}
		}
	}

	return cfg, nil
}

func LoadDBConfig() (*DBConfig, error) {
	cfg := &DBConfig{
		Host:            getEnv("DB_HOST", "postgres"),
		User:            getEnv("DB_USER", "globetrotter"),
		Password:        getEnv("DB_PASSWORD", "globetrotter"),
		Name:            getEnv("DB_NAME", "globetrotter_db"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
		Port:            getEnvInt("DB_PORT", 5432),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifeTime: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 30),
	}

	// minimal validation
	if cfg.Host == "" || cfg.User == "" || cfg.Name == "" {
		return nil, fmt.Errorf("invalid DB config: host/user/name must not be empty")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
