package services

import (
	log "github.com/sirupsen/logrus"

	"tooly/domain/events"
	"tooly/domain/interfaces"
)

// balanceSnapshot captures the coins of a record before a mutation
type balanceSnapshot struct {
	Wallet int64
	Bank   int64
}

// publishBalanceChange emits a BalanceChangeEvent for a committed mutation.
// Publishing failures are logged and never undo the mutation.
func publishBalanceChange(publisher interfaces.EventPublisher, guildID, userID string, before, after balanceSnapshot, reason events.BalanceChangeReason) {
	if before == after {
		return
	}
	event := events.BalanceChangeEvent{
		GuildID:      guildID,
		UserID:       userID,
		OldWallet:    before.Wallet,
		NewWallet:    after.Wallet,
		OldBank:      before.Bank,
		NewBank:      after.Bank,
		Reason:       reason,
		ChangeAmount: (after.Wallet + after.Bank) - (before.Wallet + before.Bank),
	}
	log.WithFields(log.Fields{
		"guildID":      guildID,
		"userID":       userID,
		"oldWallet":    before.Wallet,
		"newWallet":    after.Wallet,
		"reason":       reason,
		"changeAmount": event.ChangeAmount,
	}).Debug("Publishing BalanceChangeEvent")
	publish(publisher, event)
}

func publish(publisher interfaces.EventPublisher, event events.Event) {
	if err := publisher.Publish(event); err != nil {
		log.WithFields(log.Fields{
			"eventType": event.Type(),
			"error":     err,
		}).Error("Failed to publish event")
	}
}
