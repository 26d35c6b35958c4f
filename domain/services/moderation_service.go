package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"tooly/config"
	"tooly/domain"
	"tooly/domain/entities"
	"tooly/domain/events"
	"tooly/domain/interfaces"
)

const defaultWarnReason = "No reason provided"

// SettingModeration holds guild moderation overrides such as {"warn_threshold": 5}
const SettingModeration = "moderation"

type moderationSettings struct {
	WarnThreshold int `json:"warn_threshold"`
}

type moderationService struct {
	ledger         interfaces.LedgerService
	eventPublisher interfaces.EventPublisher
	cfg            *config.Config
	now            func() time.Time
}

// NewModerationService creates a new moderation service
func NewModerationService(ledger interfaces.LedgerService, eventPublisher interfaces.EventPublisher, cfg *config.Config) interfaces.ModerationService {
	return &moderationService{
		ledger:         ledger,
		eventPublisher: eventPublisher,
		cfg:            cfg,
		now:            time.Now,
	}
}

func (s *moderationService) Warn(ctx context.Context, guildID, userID, issuedBy, reason string) (*entities.WarnResult, error) {
	if userID == issuedBy {
		return nil, domain.NewValidationError(domain.CodeInvalidRecord, "❌ You can't warn yourself!")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = defaultWarnReason
	}

	count, err := s.ledger.AddWarning(ctx, guildID, userID, entities.Warning{
		Reason:   reason,
		IssuedBy: issuedBy,
		IssuedAt: entities.UnixTimeOf(s.now()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add warning: %w", err)
	}

	result := &entities.WarnResult{
		Count:             count,
		ThresholdExceeded: count >= s.warnThreshold(ctx, guildID),
	}

	log.WithFields(log.Fields{
		"guildID":  guildID,
		"userID":   userID,
		"issuedBy": issuedBy,
		"count":    count,
	}).Info("Warning issued")

	publish(s.eventPublisher, events.WarningIssuedEvent{
		GuildID:           guildID,
		UserID:            userID,
		IssuedBy:          issuedBy,
		Reason:            reason,
		WarningCount:      count,
		ThresholdExceeded: result.ThresholdExceeded,
	})
	return result, nil
}

// warnThreshold returns the guild override when one is stored, else the configured default
func (s *moderationService) warnThreshold(ctx context.Context, guildID string) int {
	raw, err := s.ledger.GetSetting(ctx, guildID, SettingModeration)
	if err != nil {
		log.WithFields(log.Fields{
			"guildID": guildID,
			"error":   err,
		}).Warn("Failed to load moderation settings, using default warn threshold")
		return s.cfg.WarnThreshold
	}
	if raw == nil {
		return s.cfg.WarnThreshold
	}

	var settings moderationSettings
	if err := json.Unmarshal(raw, &settings); err != nil || settings.WarnThreshold < 1 {
		return s.cfg.WarnThreshold
	}
	return settings.WarnThreshold
}

func (s *moderationService) Warnings(ctx context.Context, guildID, userID string) ([]entities.Warning, error) {
	warnings, err := s.ledger.GetWarnings(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get warnings: %w", err)
	}
	return warnings, nil
}

func (s *moderationService) ClearWarnings(ctx context.Context, guildID, userID string) error {
	if err := s.ledger.ClearWarnings(ctx, guildID, userID); err != nil {
		return fmt.Errorf("failed to clear warnings: %w", err)
	}
	return nil
}
