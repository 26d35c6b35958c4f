package infrastructure

import (
	"fmt"

	"tooly/domain/events"
)

// LedgerEventStream is the JetStream stream every ledger subject belongs to
const LedgerEventStream = "ledger_events"

var subjectsByType = map[events.EventType]string{
	events.EventTypeBalanceChange:            "ledger.economy.balance_changed",
	events.EventTypeLevelUp:                  "ledger.levels.level_up",
	events.EventTypeWarningIssued:            "ledger.moderation.warning_issued",
	events.EventTypeItemPurchased:            "ledger.shop.item_purchased",
	events.EventTypeGambleResolved:           "ledger.gambling.resolved",
	events.EventTypeGuildEconomyReset:        "ledger.economy.guild_reset",
	events.EventTypeLeaderboardPointerPruned: "ledger.leaderboard.pointer_pruned",
	events.EventTypeLegacyMigrationCompleted: "ledger.migration.completed",
}

// EventSubjectMapper maps ledger events to NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("ledger.unknown.%s", event.Type())
}

// GetAllSubjects returns every subject the ledger publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{"ledger.>"}
}
