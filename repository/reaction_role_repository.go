package repository

import (
	"context"
	"fmt"

	"tooly/database"
	"tooly/domain/entities"
)

// ReactionRoleRepository stores emoji to role bindings per message
type ReactionRoleRepository struct {
	q Queryable
}

// NewReactionRoleRepository creates a new reaction role repository
func NewReactionRoleRepository(db *database.DB) *ReactionRoleRepository {
	return &ReactionRoleRepository{q: db.Pool}
}

// GetReactionRoles returns every binding of a guild
func (r *ReactionRoleRepository) GetReactionRoles(ctx context.Context, guildID string) (entities.ReactionRoles, error) {
	query := `SELECT message_id, emoji, role_id FROM reaction_roles WHERE guild_id = $1`

	rows, err := r.q.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reaction roles for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	out := make(entities.ReactionRoles)
	for rows.Next() {
		var messageID, emoji, roleID string
		if err := rows.Scan(&messageID, &emoji, &roleID); err != nil {
			return nil, fmt.Errorf("failed to scan reaction role: %w", err)
		}
		if out[messageID] == nil {
			out[messageID] = make(map[string]string)
		}
		out[messageID][emoji] = roleID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reaction roles: %w", err)
	}
	return out, nil
}

// SetReactionRole binds emoji on a message to a role
func (r *ReactionRoleRepository) SetReactionRole(ctx context.Context, guildID, messageID, emoji, roleID string) error {
	query := `
		INSERT INTO reaction_roles (guild_id, message_id, emoji, role_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, message_id, emoji) DO UPDATE SET role_id = EXCLUDED.role_id
	`

	if _, err := r.q.Exec(ctx, query, guildID, messageID, emoji, roleID); err != nil {
		return fmt.Errorf("failed to set reaction role in guild %s: %w", guildID, err)
	}
	return nil
}

// RemoveReactionRole removes one binding, or all bindings of the message when emoji is empty
func (r *ReactionRoleRepository) RemoveReactionRole(ctx context.Context, guildID, messageID, emoji string) error {
	query := `
		DELETE FROM reaction_roles
		WHERE guild_id = $1 AND message_id = $2 AND ($3 = '' OR emoji = $3)
	`

	if _, err := r.q.Exec(ctx, query, guildID, messageID, emoji); err != nil {
		return fmt.Errorf("failed to remove reaction role in guild %s: %w", guildID, err)
	}
	return nil
}
