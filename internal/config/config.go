package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	"wcl-rankings/internal/constants"
	"wcl-rankings/internal/domain"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

type Config struct {
	DBPath      string
	ServerPort  string
	LogLevel    string
	LogFile     string
	WCLBaseURL  string
	WCLTimeout  time.Duration
	Tiers       []domain.TierKey
	ArmoryURL   string
	ProfilePage string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	timeout, err := time.ParseDuration(getEnv("WCL_TIMEOUT", constants.ExternalAPITimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid WCL_TIMEOUT: %w", err)
	}

	cfg := &Config{
		DBPath:      getEnv("DB_PATH", "wcl.db"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
		WCLBaseURL:  strings.TrimRight(getEnv("WCL_BASE_URL", "https://www.warcraftlogs.com"), "/"),
		WCLTimeout:  timeout,
		Tiers:       parseTiers(getEnv("WCL_TIERS", "T31,T33")),
		ArmoryURL:   getEnv("ARMORY_URL", ""),
		ProfilePage: getEnv("PROFILE_PAGE", ""),
	}

	if cfg.WCLTimeout <= 0 {
		return nil, fmt.Errorf("WCL_TIMEOUT must be positive")
	}
	if len(cfg.Tiers) == 0 {
		return nil, fmt.Errorf("WCL_TIERS is required")
	}
	if cfg.ArmoryURL == "" && cfg.ProfilePage == "" {
		return nil, fmt.Errorf("ARMORY_URL or PROFILE_PAGE is required")
	}

	return cfg, nil
}

func parseTiers(raw string) []domain.TierKey {
	var tiers []domain.TierKey
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tiers = append(tiers, domain.TierKey(t))
		}
	}
	return tiers
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
