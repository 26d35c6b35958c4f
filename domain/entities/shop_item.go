package entities

// ShopItemKind classifies what a shop item grants
type ShopItemKind string

const (
	ShopItemKindRole       ShopItemKind = "role"
	ShopItemKindBadge      ShopItemKind = "badge"
	ShopItemKindConsumable ShopItemKind = "consumable"
)

// IsValid checks that the kind is one the shop knows how to sell
func (k ShopItemKind) IsValid() bool {
	switch k {
	case ShopItemKindRole, ShopItemKindBadge, ShopItemKindConsumable:
		return true
	default:
		return false
	}
}

// ShopItem is an entry of a guild's shop catalog
type ShopItem struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Emoji       string       `json:"emoji,omitempty"`
	Price       int64        `json:"price"`
	Kind        ShopItemKind `json:"type"`
	RoleID      string       `json:"role_id,omitempty"`
}

// IsConsumable reports whether the item can be bought more than once
func (s *ShopItem) IsConsumable() bool {
	return s.Kind == ShopItemKindConsumable
}

// GrantsRole reports whether buying the item should grant a platform role
func (s *ShopItem) GrantsRole() bool {
	return s.Kind == ShopItemKindRole && s.RoleID != ""
}
