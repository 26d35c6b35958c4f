package repository

import (
	"context"
	"errors"
	"fmt"

	"tooly/database"
	"tooly/domain/entities"

	"github.com/jackc/pgx/v5"
)

// LevelRepository stores level records in the levels table
type LevelRepository struct {
	q Queryable
}

// NewLevelRepository creates a new level repository
func NewLevelRepository(db *database.DB) *LevelRepository {
	return &LevelRepository{q: db.Pool}
}

// GetLevel retrieves a user's level record, nil when no row exists
func (r *LevelRepository) GetLevel(ctx context.Context, guildID, userID string) (*entities.LevelRecord, error) {
	query := `
		SELECT level, xp, last_message_at
		FROM levels
		WHERE guild_id = $1 AND user_id = $2
	`

	var rec entities.LevelRecord
	var lastMessage float64
	err := r.q.QueryRow(ctx, query, guildID, userID).Scan(&rec.Level, &rec.XP, &lastMessage)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get level for user %s in guild %s: %w", userID, guildID, err)
	}
	rec.LastMessageAt = entities.UnixTime(lastMessage)
	return &rec, nil
}

// SetLevel upserts a user's level record
func (r *LevelRepository) SetLevel(ctx context.Context, guildID, userID string, record *entities.LevelRecord) error {
	query := `
		INSERT INTO levels (guild_id, user_id, level, xp, last_message_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			level = EXCLUDED.level,
			xp = EXCLUDED.xp,
			last_message_at = EXCLUDED.last_message_at,
			updated_at = NOW()
	`

	_, err := r.q.Exec(ctx, query, guildID, userID, record.Level, record.XP, float64(record.LastMessageAt))
	if err != nil {
		return fmt.Errorf("failed to set level for user %s in guild %s: %w", userID, guildID, err)
	}
	return nil
}

// ListLevels returns every level record of a guild
func (r *LevelRepository) ListLevels(ctx context.Context, guildID string) (map[string]*entities.LevelRecord, error) {
	query := `
		SELECT user_id, level, xp, last_message_at
		FROM levels
		WHERE guild_id = $1
	`

	rows, err := r.q.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	out := make(map[string]*entities.LevelRecord)
	for rows.Next() {
		var userID string
		var rec entities.LevelRecord
		var lastMessage float64
		if err := rows.Scan(&userID, &rec.Level, &rec.XP, &lastMessage); err != nil {
			return nil, fmt.Errorf("failed to scan level row: %w", err)
		}
		rec.LastMessageAt = entities.UnixTime(lastMessage)
		out[userID] = &rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate level rows: %w", err)
	}
	return out, nil
}
