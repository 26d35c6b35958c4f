package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tooly/domain/events"
	"tooly/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// LeaderboardReaperWorker forgets leaderboard pointers whose message was
// deleted on the platform
type LeaderboardReaperWorker struct {
	ledger         interfaces.LedgerService
	checker        interfaces.MessageChecker
	eventPublisher interfaces.EventPublisher
	interval       time.Duration
}

// NewLeaderboardReaperWorker creates a new leaderboard reaper worker
func NewLeaderboardReaperWorker(
	ledger interfaces.LedgerService,
	checker interfaces.MessageChecker,
	eventPublisher interfaces.EventPublisher,
	interval time.Duration,
) *LeaderboardReaperWorker {
	return &LeaderboardReaperWorker{
		ledger:         ledger,
		checker:        checker,
		eventPublisher: eventPublisher,
		interval:       interval,
	}
}

// Start runs a sweep immediately and then once per interval. The returned
// function stops the worker and waits for a running sweep to finish.
func (w *LeaderboardReaperWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	doneChan := make(chan struct{})

	go func() {
		defer close(doneChan)
		log.WithField("interval", w.interval).Info("Leaderboard reaper worker started")

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			if _, err := w.Sweep(ctx); err != nil {
				log.Errorf("Error reaping leaderboard pointers: %v", err)
			}

			select {
			case <-ctx.Done():
				log.Info("Leaderboard reaper worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Leaderboard reaper worker shutting down (stop requested)...")
				return
			case <-ticker.C:
			}
		}
	}()

	var stopOnce sync.Once
	return func() {
		stopOnce.Do(func() { close(stopChan) })
		<-doneChan
	}
}

// Sweep checks every stored pointer once and returns how many were cleared.
// A pointer is only cleared when the platform confirms the message is gone
// and the stored message id still matches the one that was checked.
func (w *LeaderboardReaperWorker) Sweep(ctx context.Context) (int, error) {
	pointers, err := w.ledger.ListLeaderboardPointers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list leaderboard pointers: %w", err)
	}

	pruned := 0
	for guildID, pointer := range pointers {
		if ctx.Err() != nil {
			return pruned, ctx.Err()
		}

		logger := log.WithFields(log.Fields{
			"guildID":   guildID,
			"channelID": pointer.ChannelID,
			"messageID": pointer.MessageID,
		})

		exists, err := w.checker.MessageExists(ctx, pointer.ChannelID, pointer.MessageID)
		if err != nil {
			logger.WithError(err).Warn("Could not check leaderboard message, keeping pointer")
			continue
		}
		if exists {
			continue
		}

		cleared, err := w.ledger.ClearLeaderboardPointerIfMatches(ctx, guildID, pointer.MessageID)
		if err != nil {
			logger.WithError(err).Error("Failed to clear leaderboard pointer")
			continue
		}
		if !cleared {
			logger.Debug("Leaderboard pointer was replaced while checking, skipping")
			continue
		}

		pruned++
		logger.Info("Cleared pointer to deleted leaderboard message")
		if err := w.eventPublisher.Publish(events.LeaderboardPointerPrunedEvent{
			GuildID:   guildID,
			ChannelID: pointer.ChannelID,
			MessageID: pointer.MessageID,
		}); err != nil {
			logger.WithError(err).Error("Failed to publish pointer pruned event")
		}
	}
	return pruned, nil
}
