package rewards

import (
	"errors"
	"testing"

	"tooly/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWager(t *testing.T) {
	tests := []struct {
		name     string
		wager    int64
		wallet   int64
		minimum  int64
		wantCode string
	}{
		{"valid half wallet", 50, 100, 10, ""},
		{"zero wager", 0, 100, 10, domain.CodeInvalidAmount},
		{"negative wager", -5, 100, 10, domain.CodeInvalidAmount},
		{"below minimum", 5, 100, 10, domain.CodeWagerBelowMinimum},
		{"over half wallet", 51, 100, 10, domain.CodeWagerOverLimit},
		{"odd wallet rounds down", 50, 101, 10, ""},
		{"odd wallet over limit", 51, 101, 10, domain.CodeWagerOverLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWager(tt.wager, tt.wallet, tt.minimum)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var validationErr *domain.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.wantCode, validationErr.Code)
		})
	}
}

func TestValidateWager_WholeWalletAlwaysRejected(t *testing.T) {
	for _, wallet := range []int64{0, 1, 100, 100000} {
		err := ValidateWager(wallet, wallet, 1)
		assert.ErrorIs(t, err, domain.ErrValidation, "wallet %d", wallet)
	}
}

func TestParseGame(t *testing.T) {
	game, err := ParseGame(" Slots ")
	require.NoError(t, err)
	assert.Equal(t, GameSlots, game)

	_, err = ParseGame("poker")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEngine_ResolveSlots(t *testing.T) {
	engine := NewEngineWithSeed(11)
	for i := 0; i < 2000; i++ {
		r, err := engine.ResolveSlots(100)
		require.NoError(t, err)
		require.Len(t, r.Symbols, 3)

		a, b, c := r.Symbols[0], r.Symbols[1], r.Symbols[2]
		switch {
		case a == b && b == c:
			assert.True(t, r.Won)
			assert.Equal(t, int64(500), r.Net)
		case a == b || b == c || a == c:
			assert.True(t, r.Won)
			assert.Equal(t, int64(150), r.Net)
		default:
			assert.False(t, r.Won)
			assert.Equal(t, int64(-100), r.Net)
		}
	}
}

func TestEngine_ResolveDice(t *testing.T) {
	engine := NewEngineWithSeed(5)
	var sawPush bool
	for i := 0; i < 2000; i++ {
		r := engine.ResolveDice(100)
		assert.GreaterOrEqual(t, r.PlayerRoll, 1)
		assert.LessOrEqual(t, r.PlayerRoll, 6)

		switch {
		case r.PlayerRoll > r.HouseRoll:
			assert.True(t, r.Won)
			assert.GreaterOrEqual(t, r.Net, int64(150))
			assert.LessOrEqual(t, r.Net, int64(250))
		case r.PlayerRoll == r.HouseRoll:
			sawPush = true
			assert.True(t, r.Push)
			assert.False(t, r.Won)
			assert.Zero(t, r.Net)
		default:
			assert.False(t, r.Won)
			assert.Equal(t, int64(-100), r.Net)
		}
	}
	assert.True(t, sawPush)
}

func TestEngine_ResolveCoinflip(t *testing.T) {
	engine := NewEngineWithSeed(9)

	r, err := engine.ResolveCoinflip(40, "HEADS")
	require.NoError(t, err)
	assert.Equal(t, CoinHeads, r.Choice)
	if r.Won {
		assert.Equal(t, int64(80), r.Net)
	} else {
		assert.Equal(t, int64(-40), r.Net)
	}

	r, err = engine.ResolveCoinflip(40, "")
	require.NoError(t, err)
	assert.Contains(t, []string{CoinHeads, CoinTails}, r.Choice)

	_, err = engine.ResolveCoinflip(40, "edge")
	assert.ErrorIs(t, err, &domain.ValidationError{Code: domain.CodeInvalidChoice})
}

func TestEngine_ResolveRoulette(t *testing.T) {
	engine := NewEngineWithSeed(13)
	counts := map[string]int{}
	for i := 0; i < 10000; i++ {
		r, err := engine.ResolveRoulette(10, RouletteRed)
		require.NoError(t, err)
		counts[r.Landed]++

		switch r.Landed {
		case RouletteGreen:
			assert.Equal(t, int64(100), r.Net)
		case RouletteRed:
			assert.Equal(t, int64(20), r.Net)
		default:
			assert.Equal(t, int64(-10), r.Net)
		}
	}
	assert.Greater(t, counts[RouletteRed], counts[RouletteGreen])
	assert.Greater(t, counts[RouletteBlack], counts[RouletteGreen])

	_, err := engine.ResolveRoulette(10, "blue")
	assert.ErrorIs(t, err, &domain.ValidationError{Code: domain.CodeInvalidChoice})
}

func TestEngine_Resolve_UnknownGame(t *testing.T) {
	engine := NewEngineWithSeed(1)
	_, err := engine.Resolve(Game("poker"), 10, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
