package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tooly/domain"
	"tooly/domain/entities"
	"tooly/domain/testhelpers"
	"tooly/infrastructure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLedgerService_GetEconomy_NeverWrittenReturnsDefault(t *testing.T) {
	ctx := context.Background()

	// Document-store semantics: a miss is nil, nil
	mockStore := new(testhelpers.MockLedgerStore)
	mockStore.On("GetEconomy", ctx, TestGuildID, TestUser1ID).Return(nil, nil)

	ledger := NewLedgerService(mockStore, infrastructure.NewMutexLocker())
	rec, err := ledger.GetEconomy(ctx, TestGuildID, TestUser1ID)

	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.Wallet)
	assert.Equal(t, int64(0), rec.Bank)
	assert.True(t, rec.LastDailyAt.IsZero())
	assert.True(t, rec.LastWorkAt.IsZero())
	assert.NotNil(t, rec.FishInventory)
	mockStore.AssertNotCalled(t, "SetEconomy", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerService_GetLevel_DefaultLevelIsOne(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.ledger.GetLevel(context.Background(), TestGuildID, TestUser1ID)

	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Level)
	assert.Equal(t, int64(0), rec.XP)
}

func TestLedgerService_ReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	rec := entities.NewEconomyRecord()
	rec.Wallet = 1234
	rec.Bank = 56
	require.NoError(t, env.ledger.SetEconomy(ctx, TestGuildID, TestUser1ID, rec))

	got, err := env.ledger.GetEconomy(ctx, TestGuildID, TestUser1ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), got.Wallet)
	assert.Equal(t, int64(56), got.Bank)

	// Other guilds never see the record
	other, err := env.ledger.GetEconomy(ctx, "another-guild", TestUser1ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), other.Wallet)
}

func TestLedgerService_SetEconomy_RejectsNegativeBalance(t *testing.T) {
	ctx := context.Background()
	mockStore := new(testhelpers.MockLedgerStore)
	ledger := NewLedgerService(mockStore, infrastructure.NewMutexLocker())

	rec := entities.NewEconomyRecord()
	rec.Wallet = -1

	err := ledger.SetEconomy(ctx, TestGuildID, TestUser1ID, rec)

	assert.ErrorIs(t, err, domain.ErrValidation)
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.CodeNegativeBalance, validationErr.Code)
	mockStore.AssertNotCalled(t, "SetEconomy", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerService_MutateLevel_RejectsDecrease(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.ledger.SetLevel(ctx, TestGuildID, TestUser1ID, &entities.LevelRecord{Level: 5, XP: 10}))

	_, err := env.ledger.MutateLevel(ctx, TestGuildID, TestUser1ID, func(rec *entities.LevelRecord) error {
		rec.Level = 4
		return nil
	})
	assert.ErrorIs(t, err, &domain.ValidationError{Code: domain.CodeLevelDecreased})

	rec, err := env.ledger.GetLevel(ctx, TestGuildID, TestUser1ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.Level)
}

func TestLedgerService_MutateEconomy_RejectsWagerDecrease(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	rec := entities.NewEconomyRecord()
	rec.TotalWagered = 500
	require.NoError(t, env.ledger.SetEconomy(ctx, TestGuildID, TestUser1ID, rec))

	_, err := env.ledger.MutateEconomy(ctx, TestGuildID, TestUser1ID, func(rec *entities.EconomyRecord) error {
		rec.TotalWagered = 100
		return nil
	})
	assert.ErrorIs(t, err, &domain.ValidationError{Code: domain.CodeWagerDecreased})
}

func TestLedgerService_MutateEconomy_CallbackErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	mockStore := new(testhelpers.MockLedgerStore)
	mockStore.On("GetEconomy", ctx, TestGuildID, TestUser1ID).Return(&entities.EconomyRecord{Wallet: 10}, nil)

	ledger := NewLedgerService(mockStore, infrastructure.NewMutexLocker())
	sentinel := errors.New("nope")

	_, err := ledger.MutateEconomy(ctx, TestGuildID, TestUser1ID, func(rec *entities.EconomyRecord) error {
		rec.Wallet = 999
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	mockStore.AssertNotCalled(t, "SetEconomy", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerService_MutateEconomy_StorageFailure(t *testing.T) {
	ctx := context.Background()
	mockStore := new(testhelpers.MockLedgerStore)
	mockStore.On("GetEconomy", ctx, TestGuildID, TestUser1ID).Return(nil, nil)
	mockStore.On("SetEconomy", ctx, TestGuildID, TestUser1ID, mock.Anything).Return(errors.New("disk full"))

	ledger := NewLedgerService(mockStore, infrastructure.NewMutexLocker())
	_, err := ledger.MutateEconomy(ctx, TestGuildID, TestUser1ID, func(rec *entities.EconomyRecord) error {
		rec.Wallet = 10
		return nil
	})

	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Equal(t, domain.GenericUserMessage, domain.UserMessage(err))
	assert.False(t, domain.IsUserError(err))
}

func TestLedgerService_MutateEconomies_RollsBackOnPartialFailure(t *testing.T) {
	ctx := context.Background()
	mockStore := new(testhelpers.MockLedgerStore)
	mockStore.On("GetEconomy", ctx, TestGuildID, TestUser1ID).Return(&entities.EconomyRecord{Wallet: 100}, nil)
	mockStore.On("GetEconomy", ctx, TestGuildID, TestUser2ID).Return(&entities.EconomyRecord{Wallet: 0}, nil)

	walletIs := func(amount int64) any {
		return mock.MatchedBy(func(rec *entities.EconomyRecord) bool { return rec.Wallet == amount })
	}
	mockStore.On("SetEconomy", ctx, TestGuildID, TestUser1ID, walletIs(40)).Return(nil).Once()
	mockStore.On("SetEconomy", ctx, TestGuildID, TestUser2ID, walletIs(60)).Return(errors.New("connection reset")).Once()
	mockStore.On("SetEconomy", ctx, TestGuildID, TestUser1ID, walletIs(100)).Return(nil).Once()

	ledger := NewLedgerService(mockStore, infrastructure.NewMutexLocker())
	_, err := ledger.MutateEconomies(ctx, TestGuildID, []string{TestUser2ID, TestUser1ID}, func(records map[string]*entities.EconomyRecord) error {
		records[TestUser1ID].Wallet -= 60
		records[TestUser2ID].Wallet += 60
		return nil
	})

	assert.ErrorIs(t, err, domain.ErrStorage)
	mockStore.AssertExpectations(t)
}

func TestLedgerService_MutateEconomies_LocksInSortedOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	var mu sync.Mutex
	var locked []string
	mockLocker := new(testhelpers.MockKeyLocker)
	mockLocker.On("Lock", ctx, mock.AnythingOfType("string")).Return(func() {}, nil).Run(func(args mock.Arguments) {
		mu.Lock()
		defer mu.Unlock()
		locked = append(locked, args.String(1))
	})

	ledger := NewLedgerService(env.store, mockLocker)
	_, err := ledger.MutateEconomies(ctx, TestGuildID, []string{TestUser3ID, TestUser1ID, TestUser2ID, TestUser1ID}, func(map[string]*entities.EconomyRecord) error {
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		entities.RecordKindEconomy.Key(TestGuildID, TestUser1ID),
		entities.RecordKindEconomy.Key(TestGuildID, TestUser2ID),
		entities.RecordKindEconomy.Key(TestGuildID, TestUser3ID),
	}, locked)
}

func TestLedgerService_LockFailureTouchesNothing(t *testing.T) {
	ctx := context.Background()
	mockStore := new(testhelpers.MockLedgerStore)
	mockLocker := new(testhelpers.MockKeyLocker)
	mockLocker.On("Lock", ctx, mock.Anything).Return(nil, context.DeadlineExceeded)

	ledger := NewLedgerService(mockStore, mockLocker)
	_, err := ledger.MutateEconomy(ctx, TestGuildID, TestUser1ID, func(*entities.EconomyRecord) error { return nil })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	mockStore.AssertNotCalled(t, "GetEconomy", mock.Anything, mock.Anything, mock.Anything)
}

func TestLedgerService_ShopItems(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	vip := &entities.ShopItem{ID: TestItemID, Name: "VIP", Price: 1000, Kind: entities.ShopItemKindRole, RoleID: "role-1"}
	require.NoError(t, env.ledger.AddShopItem(ctx, TestGuildID, vip))

	err := env.ledger.AddShopItem(ctx, TestGuildID, vip)
	assert.ErrorIs(t, err, &domain.ValidationError{Code: domain.CodeDuplicateShopItem})

	tests := []struct {
		name string
		item *entities.ShopItem
	}{
		{"zero price", &entities.ShopItem{ID: "a", Name: "A", Price: 0, Kind: entities.ShopItemKindBadge}},
		{"unknown kind", &entities.ShopItem{ID: "b", Name: "B", Price: 5, Kind: "pet"}},
		{"role without role id", &entities.ShopItem{ID: "c", Name: "C", Price: 5, Kind: entities.ShopItemKindRole}},
		{"missing id", &entities.ShopItem{Name: "D", Price: 5, Kind: entities.ShopItemKindBadge}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.ledger.AddShopItem(ctx, TestGuildID, tt.item)
			assert.ErrorIs(t, err, &domain.ValidationError{Code: domain.CodeInvalidShopItem})
		})
	}

	got, err := env.ledger.GetShopItem(ctx, TestGuildID, TestItemID)
	require.NoError(t, err)
	assert.Equal(t, "VIP", got.Name)

	require.NoError(t, env.ledger.RemoveShopItem(ctx, TestGuildID, TestItemID))
	err = env.ledger.RemoveShopItem(ctx, TestGuildID, TestItemID)
	assert.ErrorIs(t, err, &domain.ValidationError{Code: domain.CodeUnknownShopItem})
}

func TestLedgerService_AddToInventory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.ledger.AddToInventory(ctx, TestGuildID, TestUser1ID, "potion", 2))
	require.NoError(t, env.ledger.AddToInventory(ctx, TestGuildID, TestUser1ID, "potion", 1))

	inv, err := env.ledger.GetInventory(ctx, TestGuildID, TestUser1ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), inv["potion"].Quantity)
	assert.Equal(t, entities.UnixTimeOf(env.clock.Now()), inv["potion"].PurchasedAt)

	err = env.ledger.AddToInventory(ctx, TestGuildID, TestUser1ID, "potion", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLedgerService_LeaderboardPointer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	err := env.ledger.SetLeaderboardPointer(ctx, TestGuildID, &entities.LeaderboardPointer{ChannelID: "c1"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, env.ledger.SetLeaderboardPointer(ctx, TestGuildID, &entities.LeaderboardPointer{ChannelID: "c1", MessageID: "m1"}))

	cleared, err := env.ledger.ClearLeaderboardPointerIfMatches(ctx, TestGuildID, "m-other")
	require.NoError(t, err)
	assert.False(t, cleared)

	cleared, err = env.ledger.ClearLeaderboardPointerIfMatches(ctx, TestGuildID, "m1")
	require.NoError(t, err)
	assert.True(t, cleared)

	pointer, err := env.ledger.GetLeaderboardPointer(ctx, TestGuildID)
	require.NoError(t, err)
	assert.Nil(t, pointer)
}

func TestLedgerService_Settings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	err := env.ledger.SetSetting(ctx, TestGuildID, "moderation", []byte("{not json"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, env.ledger.SetSetting(ctx, TestGuildID, "moderation", []byte(`{"warn_threshold":5}`)))
	value, err := env.ledger.GetSetting(ctx, TestGuildID, "moderation")
	require.NoError(t, err)
	assert.JSONEq(t, `{"warn_threshold":5}`, string(value))
}

func TestLedgerService_ResetGuildEconomy_WaitsForMutation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	setWallet(t, env, TestUser1ID, 100, 0)

	inCallback := make(chan struct{})
	proceed := make(chan struct{})
	mutated := make(chan error, 1)
	go func() {
		_, err := env.ledger.MutateEconomy(ctx, TestGuildID, TestUser1ID, func(rec *entities.EconomyRecord) error {
			close(inCallback)
			<-proceed
			rec.Wallet += 10
			return nil
		})
		mutated <- err
	}()
	<-inCallback

	reset := make(chan error, 1)
	go func() { reset <- env.ledger.ResetGuildEconomy(ctx, TestGuildID) }()

	select {
	case <-reset:
		t.Fatal("reset ran while a mutation held the record")
	case <-time.After(50 * time.Millisecond):
	}

	close(proceed)
	require.NoError(t, <-mutated)
	require.NoError(t, <-reset)

	economies, err := env.store.ListEconomies(ctx, TestGuildID)
	require.NoError(t, err)
	assert.Empty(t, economies)
}

func TestLedgerService_ResetGuildEconomy_ConcurrentPurchases(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.ledger.AddShopItem(ctx, TestGuildID, &entities.ShopItem{
		ID: "potion", Name: "Potion", Price: 1, Kind: entities.ShopItemKindConsumable,
	}))
	for _, userID := range []string{TestUser1ID, TestUser2ID, TestUser3ID} {
		setWallet(t, env, userID, 1000, 0)
	}
	svc := env.economyService()

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < 30; i++ {
			wg.Add(1)
			userID := []string{TestUser1ID, TestUser2ID, TestUser3ID}[i%3]
			go func() {
				defer wg.Done()
				_, _ = svc.Buy(ctx, TestGuildID, userID, "potion")
			}()
		}
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, env.ledger.ResetGuildEconomy(ctx, TestGuildID))
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("purchases and resets deadlocked")
	}
}
