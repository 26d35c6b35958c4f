package repository

import (
	"context"
	"errors"
	"fmt"

	"tooly/database"
	"tooly/domain/entities"

	"github.com/jackc/pgx/v5"
)

// LeaderboardPointerRepository stores one leaderboard message pointer per guild
type LeaderboardPointerRepository struct {
	q Queryable
}

// NewLeaderboardPointerRepository creates a new leaderboard pointer repository
func NewLeaderboardPointerRepository(db *database.DB) *LeaderboardPointerRepository {
	return &LeaderboardPointerRepository{q: db.Pool}
}

// GetLeaderboardPointer returns the guild's pointer, nil when none is stored
func (r *LeaderboardPointerRepository) GetLeaderboardPointer(ctx context.Context, guildID string) (*entities.LeaderboardPointer, error) {
	query := `SELECT channel_id, message_id FROM leaderboard_pointers WHERE guild_id = $1`

	var pointer entities.LeaderboardPointer
	err := r.q.QueryRow(ctx, query, guildID).Scan(&pointer.ChannelID, &pointer.MessageID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard pointer for guild %s: %w", guildID, err)
	}
	return &pointer, nil
}

// SetLeaderboardPointer replaces the guild's pointer
func (r *LeaderboardPointerRepository) SetLeaderboardPointer(ctx context.Context, guildID string, pointer *entities.LeaderboardPointer) error {
	query := `
		INSERT INTO leaderboard_pointers (guild_id, channel_id, message_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (guild_id) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			message_id = EXCLUDED.message_id,
			updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, guildID, pointer.ChannelID, pointer.MessageID); err != nil {
		return fmt.Errorf("failed to set leaderboard pointer for guild %s: %w", guildID, err)
	}
	return nil
}

// DeleteLeaderboardPointer removes the guild's pointer
func (r *LeaderboardPointerRepository) DeleteLeaderboardPointer(ctx context.Context, guildID string) error {
	query := `DELETE FROM leaderboard_pointers WHERE guild_id = $1`

	if _, err := r.q.Exec(ctx, query, guildID); err != nil {
		return fmt.Errorf("failed to delete leaderboard pointer for guild %s: %w", guildID, err)
	}
	return nil
}

// DeleteLeaderboardPointerIfMatches removes the pointer only if it still
// references messageID, so a pointer replaced meanwhile survives
func (r *LeaderboardPointerRepository) DeleteLeaderboardPointerIfMatches(ctx context.Context, guildID, messageID string) (bool, error) {
	query := `DELETE FROM leaderboard_pointers WHERE guild_id = $1 AND message_id = $2`

	tag, err := r.q.Exec(ctx, query, guildID, messageID)
	if err != nil {
		return false, fmt.Errorf("failed to delete leaderboard pointer for guild %s: %w", guildID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListLeaderboardPointers returns every stored pointer keyed by guild
func (r *LeaderboardPointerRepository) ListLeaderboardPointers(ctx context.Context) (map[string]*entities.LeaderboardPointer, error) {
	query := `SELECT guild_id, channel_id, message_id FROM leaderboard_pointers`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard pointers: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*entities.LeaderboardPointer)
	for rows.Next() {
		var guildID string
		var pointer entities.LeaderboardPointer
		if err := rows.Scan(&guildID, &pointer.ChannelID, &pointer.MessageID); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard pointer: %w", err)
		}
		out[guildID] = &pointer
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard pointers: %w", err)
	}
	return out, nil
}
