package entities

import "fmt"

// RecordKind names the per-user collections of the ledger
type RecordKind string

const (
	RecordKindLevel     RecordKind = "level"
	RecordKindEconomy   RecordKind = "economy"
	RecordKindInventory RecordKind = "inventory"
	RecordKindWarnings  RecordKind = "warnings"
)

// Key returns the identity of one user's record of this kind
func (k RecordKind) Key(guildID, userID string) string {
	return fmt.Sprintf("%s:%s:%s", k, guildID, userID)
}
