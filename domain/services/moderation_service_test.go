package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"tooly/config"
	"tooly/domain"
	"tooly/domain/entities"
	"tooly/domain/events"
	"tooly/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestModerationService_Warn(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.moderationService()

	for i := 1; i <= 2; i++ {
		result, err := svc.Warn(ctx, TestGuildID, TestUser1ID, TestAdminID, "spam")
		require.NoError(t, err)
		assert.Equal(t, i, result.Count)
		assert.False(t, result.ThresholdExceeded)
	}

	result, err := svc.Warn(ctx, TestGuildID, TestUser1ID, TestAdminID, "  ")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.True(t, result.ThresholdExceeded)

	warnings, err := svc.Warnings(ctx, TestGuildID, TestUser1ID)
	require.NoError(t, err)
	require.Len(t, warnings, 3)
	assert.Equal(t, "spam", warnings[0].Reason)
	assert.Equal(t, TestAdminID, warnings[0].IssuedBy)
	assert.Equal(t, defaultWarnReason, warnings[2].Reason)
	assert.Equal(t, entities.UnixTimeOf(env.clock.Now()), warnings[2].IssuedAt)

	env.publisher.AssertCalled(t, "Publish", events.WarningIssuedEvent{
		GuildID:           TestGuildID,
		UserID:            TestUser1ID,
		IssuedBy:          TestAdminID,
		Reason:            defaultWarnReason,
		WarningCount:      3,
		ThresholdExceeded: true,
	})

	require.NoError(t, svc.ClearWarnings(ctx, TestGuildID, TestUser1ID))
	warnings, err = svc.Warnings(ctx, TestGuildID, TestUser1ID)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestModerationService_SelfWarnRejected(t *testing.T) {
	env := newTestEnv(t)
	svc := env.moderationService()

	_, err := svc.Warn(context.Background(), TestGuildID, TestAdminID, TestAdminID, "oops")
	assert.ErrorIs(t, err, domain.ErrValidation)
	env.publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestModerationService_GuildThresholdOverride(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.moderationService()

	require.NoError(t, env.ledger.SetSetting(ctx, TestGuildID, SettingModeration, json.RawMessage(`{"warn_threshold": 1}`)))

	result, err := svc.Warn(ctx, TestGuildID, TestUser1ID, TestAdminID, "first strike")
	require.NoError(t, err)
	assert.True(t, result.ThresholdExceeded)

	result, err = svc.Warn(ctx, "777", TestUser1ID, TestAdminID, "first strike")
	require.NoError(t, err)
	assert.False(t, result.ThresholdExceeded)
}

func TestModerationService_WarnThresholdFallback(t *testing.T) {
	ctx := context.Background()
	cfg := config.NewTestConfig()

	tests := []struct {
		name    string
		setting json.RawMessage
		err     error
		want    int
	}{
		{"no setting", nil, nil, cfg.WarnThreshold},
		{"override", json.RawMessage(`{"warn_threshold": 7}`), nil, 7},
		{"zero ignored", json.RawMessage(`{"warn_threshold": 0}`), nil, cfg.WarnThreshold},
		{"malformed ignored", json.RawMessage(`"loud"`), nil, cfg.WarnThreshold},
		{"storage failure", nil, errors.New("disk gone"), cfg.WarnThreshold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(testhelpers.MockLedgerStore)
			if tt.setting == nil {
				store.On("GetSetting", ctx, TestGuildID, SettingModeration).Return(nil, tt.err)
			} else {
				store.On("GetSetting", ctx, TestGuildID, SettingModeration).Return(tt.setting, tt.err)
			}

			svc := &moderationService{
				ledger: NewLedgerService(store, new(testhelpers.MockKeyLocker)),
				cfg:    cfg,
			}
			assert.Equal(t, tt.want, svc.warnThreshold(ctx, TestGuildID))
		})
	}
}
