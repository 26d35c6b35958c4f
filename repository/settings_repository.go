package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tooly/database"

	"github.com/jackc/pgx/v5"
)

// SettingsRepository stores free-form guild settings as JSONB values
type SettingsRepository struct {
	q Queryable
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{q: db.Pool}
}

// GetSetting returns a raw JSON value, nil when the key is unset
func (r *SettingsRepository) GetSetting(ctx context.Context, guildID, key string) (json.RawMessage, error) {
	query := `SELECT value FROM guild_settings WHERE guild_id = $1 AND key = $2`

	var value []byte
	err := r.q.QueryRow(ctx, query, guildID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s for guild %s: %w", key, guildID, err)
	}
	return json.RawMessage(value), nil
}

// SetSetting upserts a raw JSON value
func (r *SettingsRepository) SetSetting(ctx context.Context, guildID, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return fmt.Errorf("setting %s is not valid JSON", key)
	}

	query := `
		INSERT INTO guild_settings (guild_id, key, value, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (guild_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, guildID, key, string(value)); err != nil {
		return fmt.Errorf("failed to set setting %s for guild %s: %w", key, guildID, err)
	}
	return nil
}
