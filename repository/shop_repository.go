package repository

import (
	"context"
	"fmt"

	"tooly/database"
	"tooly/domain/entities"
)

// ShopRepository stores guild shop catalogs
type ShopRepository struct {
	q Queryable
}

// NewShopRepository creates a new shop repository
func NewShopRepository(db *database.DB) *ShopRepository {
	return &ShopRepository{q: db.Pool}
}

// GetShopItems returns a guild's catalog keyed by item id
func (r *ShopRepository) GetShopItems(ctx context.Context, guildID string) (map[string]*entities.ShopItem, error) {
	query := `
		SELECT item_id, name, description, emoji, price, kind, role_id
		FROM shop_items
		WHERE guild_id = $1
	`

	rows, err := r.q.Query(ctx, query, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shop items for guild %s: %w", guildID, err)
	}
	defer rows.Close()

	items := make(map[string]*entities.ShopItem)
	for rows.Next() {
		var item entities.ShopItem
		var kind string
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Emoji, &item.Price, &kind, &item.RoleID); err != nil {
			return nil, fmt.Errorf("failed to scan shop item: %w", err)
		}
		item.Kind = entities.ShopItemKind(kind)
		items[item.ID] = &item
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shop items: %w", err)
	}
	return items, nil
}

// CreateShopItem inserts an item unless the id is taken in the guild
func (r *ShopRepository) CreateShopItem(ctx context.Context, guildID string, item *entities.ShopItem) (bool, error) {
	query := `
		INSERT INTO shop_items (guild_id, item_id, name, description, emoji, price, kind, role_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (guild_id, item_id) DO NOTHING
	`

	tag, err := r.q.Exec(ctx, query, guildID, item.ID, item.Name, item.Description, item.Emoji, item.Price, string(item.Kind), item.RoleID)
	if err != nil {
		return false, fmt.Errorf("failed to create shop item %s in guild %s: %w", item.ID, guildID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// PutShopItem inserts or replaces an item
func (r *ShopRepository) PutShopItem(ctx context.Context, guildID string, item *entities.ShopItem) error {
	query := `
		INSERT INTO shop_items (guild_id, item_id, name, description, emoji, price, kind, role_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (guild_id, item_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			emoji = EXCLUDED.emoji,
			price = EXCLUDED.price,
			kind = EXCLUDED.kind,
			role_id = EXCLUDED.role_id
	`

	_, err := r.q.Exec(ctx, query, guildID, item.ID, item.Name, item.Description, item.Emoji, item.Price, string(item.Kind), item.RoleID)
	if err != nil {
		return fmt.Errorf("failed to put shop item %s in guild %s: %w", item.ID, guildID, err)
	}
	return nil
}

// DeleteShopItem removes an item from the catalog. Inventories keep their copies.
func (r *ShopRepository) DeleteShopItem(ctx context.Context, guildID, itemID string) (bool, error) {
	query := `DELETE FROM shop_items WHERE guild_id = $1 AND item_id = $2`

	tag, err := r.q.Exec(ctx, query, guildID, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to delete shop item %s in guild %s: %w", itemID, guildID, err)
	}
	return tag.RowsAffected() > 0, nil
}
