package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	KeyClientID         = "KEY_WCL_CLIENT_ID"
	KeyClientSecret     = "KEY_WCL_CLIENT_SECRET"
	KeyAccessToken      = "KEY_WCL_ACCESS_TOKEN"
	KeyFilterMetric     = "KEY_FILTER_METRIC"
	KeyFilterDifficulty = "KEY_FILTER_DIFFICULTY"
)

// SettingsRepository is the durable key/value store behind the session.
type SettingsRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSettingsRepository(sqlDB *sql.DB, logger zerolog.Logger) *SettingsRepository {
	return &SettingsRepository{db: sqlDB, logger: logger}
}

func (r *SettingsRepository) Get(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Debug().Str("key", key).Msg("setting not found, using default")
		return fallback, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("failed to read setting")
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("failed to write setting")
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}

	r.logger.Debug().Str("key", key).Int("len", len(value)).Msg("setting written")
	return nil
}
