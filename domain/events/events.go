package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange            EventType = "balance_change"
	EventTypeLevelUp                  EventType = "level_up"
	EventTypeWarningIssued            EventType = "warning_issued"
	EventTypeItemPurchased            EventType = "item_purchased"
	EventTypeGambleResolved           EventType = "gamble_resolved"
	EventTypeGuildEconomyReset        EventType = "guild_economy_reset"
	EventTypeLeaderboardPointerPruned EventType = "leaderboard_pointer_pruned"
	EventTypeLegacyMigrationCompleted EventType = "legacy_migration_completed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeReason describes why a wallet or bank changed
type BalanceChangeReason string

const (
	ReasonDaily       BalanceChangeReason = "daily"
	ReasonWork        BalanceChangeReason = "work"
	ReasonDeposit     BalanceChangeReason = "deposit"
	ReasonWithdraw    BalanceChangeReason = "withdraw"
	ReasonTransferIn  BalanceChangeReason = "transfer_in"
	ReasonTransferOut BalanceChangeReason = "transfer_out"
	ReasonAdminGrant  BalanceChangeReason = "admin_grant"
	ReasonPurchase    BalanceChangeReason = "purchase"
	ReasonFishSale    BalanceChangeReason = "fish_sale"
	ReasonGamble      BalanceChangeReason = "gamble"
	ReasonLevelUp     BalanceChangeReason = "level_up"
)

// BalanceChangeEvent represents a wallet or bank change that was committed
type BalanceChangeEvent struct {
	GuildID      string
	UserID       string
	OldWallet    int64
	NewWallet    int64
	OldBank      int64
	NewBank      int64
	Reason       BalanceChangeReason
	ChangeAmount int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// LevelUpEvent is emitted when a user reaches a new level
type LevelUpEvent struct {
	GuildID    string
	UserID     string
	NewLevel   int64
	CoinReward int64
}

func (e LevelUpEvent) Type() EventType {
	return EventTypeLevelUp
}

// WarningIssuedEvent is emitted after a warning is appended
type WarningIssuedEvent struct {
	GuildID           string
	UserID            string
	IssuedBy          string
	Reason            string
	WarningCount      int
	ThresholdExceeded bool
}

func (e WarningIssuedEvent) Type() EventType {
	return EventTypeWarningIssued
}

// ItemPurchasedEvent is emitted after a shop purchase is committed
type ItemPurchasedEvent struct {
	GuildID string
	UserID  string
	ItemID  string
	Price   int64
	RoleID  string
}

func (e ItemPurchasedEvent) Type() EventType {
	return EventTypeItemPurchased
}

// GambleResolvedEvent is emitted after a gambling round is settled
type GambleResolvedEvent struct {
	GuildID string
	UserID  string
	Game    string
	Wager   int64
	Net     int64
	Won     bool
}

func (e GambleResolvedEvent) Type() EventType {
	return EventTypeGambleResolved
}

// GuildEconomyResetEvent is emitted after an administrative guild wipe
type GuildEconomyResetEvent struct {
	GuildID string
}

func (e GuildEconomyResetEvent) Type() EventType {
	return EventTypeGuildEconomyReset
}

// LeaderboardPointerPrunedEvent is emitted when a dead leaderboard message is forgotten
type LeaderboardPointerPrunedEvent struct {
	GuildID   string
	ChannelID string
	MessageID string
}

func (e LeaderboardPointerPrunedEvent) Type() EventType {
	return EventTypeLeaderboardPointerPruned
}

// LegacyMigrationCompletedEvent summarizes an import of a legacy data file
type LegacyMigrationCompletedEvent struct {
	RunID     string
	Source    string
	Counts    map[string]int
	Conflicts int
	Skipped   int
}

func (e LegacyMigrationCompletedEvent) Type() EventType {
	return EventTypeLegacyMigrationCompleted
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Publish dispatches an event to all registered handlers.
// Handlers run asynchronously so a slow subscriber never holds up a ledger write.
func (b *Bus) Publish(event Event) error {
	b.Emit(context.Background(), event)
	return nil
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}
