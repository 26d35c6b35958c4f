package services

import (
	"context"
	"fmt"
	"testing"

	"tooly/domain"
	"tooly/domain/entities"
	"tooly/domain/events"
	"tooly/domain/rewards"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGamblingService_WholeWalletRejected(t *testing.T) {
	ctx := context.Background()
	for _, wallet := range []int64{0, 1, 100, 100000} {
		t.Run(fmt.Sprintf("wallet %d", wallet), func(t *testing.T) {
			env := newTestEnv(t)
			svc := env.gamblingService()
			setWallet(t, env, TestUser1ID, wallet, 0)

			for _, game := range []string{"slots", "dice", "coinflip", "roulette"} {
				_, err := svc.Gamble(ctx, TestGuildID, TestUser1ID, game, wallet, "")
				assert.ErrorIs(t, err, domain.ErrValidation, game)
			}

			rec := getEconomy(t, env, TestUser1ID)
			assert.Equal(t, wallet, rec.Wallet)
			assert.Zero(t, rec.TotalWagered)
			env.publisher.AssertNotCalled(t, "Publish", mock.AnythingOfType("events.GambleResolvedEvent"))
		})
	}
}

func TestGamblingService_Preconditions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.gamblingService()
	setWallet(t, env, TestUser1ID, 1000, 0)

	tests := []struct {
		name  string
		game  string
		wager int64
		code  string
	}{
		{"below minimum", "slots", 5, domain.CodeWagerBelowMinimum},
		{"over half the wallet", "dice", 501, domain.CodeWagerOverLimit},
		{"non positive", "coinflip", 0, domain.CodeInvalidAmount},
		{"unknown game", "poker", 100, domain.CodeUnknownGame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Gamble(ctx, TestGuildID, TestUser1ID, tt.game, tt.wager, "")
			assert.ErrorIs(t, err, &domain.ValidationError{Code: tt.code})
		})
	}
	assert.Equal(t, int64(1000), getEconomy(t, env, TestUser1ID).Wallet)
}

func TestGamblingService_SettlesRounds(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.gamblingService()
	setWallet(t, env, TestUser1ID, 1_000_000, 0)

	const rounds = 200
	const wager = int64(100)
	var net int64
	var wins, losses, pushes int64
	for i := 0; i < rounds; i++ {
		game := []string{"slots", "dice", "coinflip", "roulette"}[i%4]
		result, err := svc.Gamble(ctx, TestGuildID, TestUser1ID, game, wager, "")
		require.NoError(t, err)
		net += result.Net
		switch {
		case result.Push:
			pushes++
			assert.Zero(t, result.Net)
		case result.Won:
			wins++
			assert.Positive(t, result.Net)
		default:
			losses++
			assert.Equal(t, -wager, result.Net)
		}
	}

	rec := getEconomy(t, env, TestUser1ID)
	assert.Equal(t, 1_000_000+net, rec.Wallet)
	assert.Equal(t, wins, rec.GamblingWins)
	assert.Equal(t, losses, rec.GamblingLosses)
	assert.Equal(t, int64(rounds), wins+losses+pushes)
	assert.Equal(t, int64(rounds)*wager, rec.TotalWagered)
	assert.GreaterOrEqual(t, rec.BestStreak, rec.CurrentStreak)

	env.publisher.AssertCalled(t, "Publish", mock.AnythingOfType("events.GambleResolvedEvent"))
}

func TestApplyOutcome(t *testing.T) {
	tests := []struct {
		name    string
		start   entities.EconomyRecord
		outcome rewards.Result
		want    entities.EconomyRecord
	}{
		{
			name:    "win extends streak and records biggest win",
			start:   entities.EconomyRecord{Wallet: 100, CurrentStreak: 2, BestStreak: 2, BiggestWin: 10},
			outcome: rewards.Result{Wager: 20, Won: true, Net: 40},
			want:    entities.EconomyRecord{Wallet: 140, GamblingWins: 1, CurrentStreak: 3, BestStreak: 3, BiggestWin: 40, TotalWagered: 20},
		},
		{
			name:    "loss resets streak and records biggest loss",
			start:   entities.EconomyRecord{Wallet: 100, CurrentStreak: 4, BestStreak: 6},
			outcome: rewards.Result{Wager: 30, Net: -30},
			want:    entities.EconomyRecord{Wallet: 70, GamblingLosses: 1, BestStreak: 6, BiggestLoss: 30, TotalWagered: 30},
		},
		{
			name:    "push only counts the wager",
			start:   entities.EconomyRecord{Wallet: 100, CurrentStreak: 1, BestStreak: 1},
			outcome: rewards.Result{Wager: 50, Push: true},
			want:    entities.EconomyRecord{Wallet: 100, CurrentStreak: 1, BestStreak: 1, TotalWagered: 50},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.start
			outcome := tt.outcome
			applyOutcome(&rec, &outcome)
			assert.Equal(t, tt.want, rec)
		})
	}
}

func TestGamblingService_PublishesBalanceChange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.gamblingService()
	setWallet(t, env, TestUser1ID, 1000, 0)

	result, err := svc.Gamble(ctx, TestGuildID, TestUser1ID, "coinflip", 10, "heads")
	require.NoError(t, err)
	assert.Equal(t, "heads", result.Choice)

	var found bool
	for _, event := range env.published() {
		if e, ok := event.(events.BalanceChangeEvent); ok && e.Reason == events.ReasonGamble {
			found = true
			assert.Equal(t, int64(1000), e.OldWallet)
		}
	}
	assert.True(t, found)
}
