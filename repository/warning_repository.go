package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tooly/database"
	"tooly/domain/entities"

	"github.com/jackc/pgx/v5"
)

// WarningRepository stores each user's warnings as a JSONB array
type WarningRepository struct {
	q Queryable
}

// NewWarningRepository creates a new warning repository
func NewWarningRepository(db *database.DB) *WarningRepository {
	return &WarningRepository{q: db.Pool}
}

// GetWarnings retrieves a user's warnings, nil when no row exists
func (r *WarningRepository) GetWarnings(ctx context.Context, guildID, userID string) ([]entities.Warning, error) {
	query := `
		SELECT entries
		FROM warnings
		WHERE guild_id = $1 AND user_id = $2
	`

	var entriesJSON []byte
	err := r.q.QueryRow(ctx, query, guildID, userID).Scan(&entriesJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get warnings for user %s in guild %s: %w", userID, guildID, err)
	}

	var warnings []entities.Warning
	if err := json.Unmarshal(entriesJSON, &warnings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
	}
	return warnings, nil
}

// AddWarning appends a warning in a single statement and returns the new count
func (r *WarningRepository) AddWarning(ctx context.Context, guildID, userID string, warning entities.Warning) (int, error) {
	warningJSON, err := json.Marshal(warning)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal warning: %w", err)
	}

	query := `
		INSERT INTO warnings (guild_id, user_id, entries, updated_at)
		VALUES ($1, $2, jsonb_build_array($3::jsonb), NOW())
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			entries = warnings.entries || jsonb_build_array($3::jsonb),
			updated_at = NOW()
		RETURNING jsonb_array_length(entries)
	`

	var count int
	if err := r.q.QueryRow(ctx, query, guildID, userID, string(warningJSON)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to add warning for user %s in guild %s: %w", userID, guildID, err)
	}
	return count, nil
}

// SetWarnings upserts a user's whole warning list
func (r *WarningRepository) SetWarnings(ctx context.Context, guildID, userID string, warnings []entities.Warning) error {
	if warnings == nil {
		warnings = []entities.Warning{}
	}
	entriesJSON, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	query := `
		INSERT INTO warnings (guild_id, user_id, entries, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			entries = EXCLUDED.entries,
			updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, guildID, userID, string(entriesJSON)); err != nil {
		return fmt.Errorf("failed to set warnings for user %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}

// ClearWarnings deletes a user's warning list
func (r *WarningRepository) ClearWarnings(ctx context.Context, guildID, userID string) error {
	query := `DELETE FROM warnings WHERE guild_id = $1 AND user_id = $2`

	if _, err := r.q.Exec(ctx, query, guildID, userID); err != nil {
		return fmt.Errorf("failed to clear warnings for user %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}
