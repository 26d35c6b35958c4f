package repository

import (
	"context"
	"sync"
	"testing"

	"tooly/domain/entities"
	"tooly/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	return NewStore(testDB.DB)
}

func TestStore_Economy(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := context.Background()

	t.Run("miss returns nil without creating a row", func(t *testing.T) {
		rec, err := store.GetEconomy(ctx, "g1", "nobody")
		require.NoError(t, err)
		assert.Nil(t, rec)

		economies, err := store.ListEconomies(ctx, "g1")
		require.NoError(t, err)
		assert.Empty(t, economies)
	})

	t.Run("read after write keeps every field", func(t *testing.T) {
		want := testutil.CreateTestEconomyWithStats()
		require.NoError(t, store.SetEconomy(ctx, "g1", "u1", want))

		got, err := store.GetEconomy(ctx, "g1", "u1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("upsert replaces the record", func(t *testing.T) {
		require.NoError(t, store.SetEconomy(ctx, "g1", "u2", testutil.CreateTestEconomy(10, 20)))
		require.NoError(t, store.SetEconomy(ctx, "g1", "u2", testutil.CreateTestEconomy(30, 0)))

		got, err := store.GetEconomy(ctx, "g1", "u2")
		require.NoError(t, err)
		assert.Equal(t, int64(30), got.Wallet)
		assert.Equal(t, int64(0), got.Bank)
	})

	t.Run("writes are guild scoped", func(t *testing.T) {
		require.NoError(t, store.SetEconomy(ctx, "g2", "u1", testutil.CreateTestEconomy(5, 5)))

		got, err := store.GetEconomy(ctx, "g1", "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(1500), got.Wallet)

		economies, err := store.ListEconomies(ctx, "g2")
		require.NoError(t, err)
		assert.Len(t, economies, 1)
	})

	t.Run("negative balance violates the table constraint", func(t *testing.T) {
		err := store.SetEconomy(ctx, "g1", "u3", testutil.CreateTestEconomy(-1, 0))
		assert.Error(t, err)
	})
}

func TestStore_Levels(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := context.Background()

	rec, err := store.GetLevel(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	want := testutil.CreateTestLevel(5, 80)
	require.NoError(t, store.SetLevel(ctx, "g1", "u1", want))
	require.NoError(t, store.SetLevel(ctx, "g1", "u2", testutil.CreateTestLevel(3, 99)))

	got, err := store.GetLevel(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	levels, err := store.ListLevels(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, levels, 2)
	assert.Equal(t, int64(3), levels["u2"].Level)
}

func TestStore_Inventory(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := context.Background()

	inv, err := store.GetInventory(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, inv)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.AddToInventory(ctx, "g1", "u1", "potion", 1700000000.5, 1))
		}()
	}
	wg.Wait()

	inv, err = store.GetInventory(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(20), inv["potion"].Quantity)
	assert.Equal(t, entities.UnixTime(1700000000.5), inv["potion"].PurchasedAt)

	replacement := entities.Inventory{"vip": {PurchasedAt: 1, Quantity: 1}}
	require.NoError(t, store.SetInventory(ctx, "g1", "u1", replacement))

	inv, err = store.GetInventory(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, replacement, inv)
}

func TestStore_Warnings(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.AddWarning(ctx, "g1", "u1", entities.Warning{Reason: "spam", IssuedBy: "m1", IssuedAt: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	warnings, err := store.GetWarnings(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Len(t, warnings, 10)

	count, err := store.AddWarning(ctx, "g1", "u1", entities.Warning{Reason: "caps"})
	require.NoError(t, err)
	assert.Equal(t, 11, count)

	require.NoError(t, store.ClearWarnings(ctx, "g1", "u1"))
	warnings, err = store.GetWarnings(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestStore_ShopItems(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := context.Background()

	item := testutil.CreateTestShopItem("badge", 100)
	created, err := store.CreateShopItem(ctx, "g1", item)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.CreateShopItem(ctx, "g1", item)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = store.CreateShopItem(ctx, "g2", item)
	require.NoError(t, err)
	assert.True(t, created)

	items, err := store.GetShopItems(ctx, "g1")
	require.NoError(t, err)
	require.Contains(t, items, "badge")
	assert.Equal(t, item, items["badge"])

	deleted, err := store.DeleteShopItem(ctx, "g1", "badge")
	require.NoError(t, err)
	assert.True(t, deleted)

	items, err = store.GetShopItems(ctx, "g2")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestStore_LeaderboardPointers(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetLeaderboardPointer(ctx, "g1", &entities.LeaderboardPointer{ChannelID: "c1", MessageID: "m1"}))
	require.NoError(t, store.SetLeaderboardPointer(ctx, "g1", &entities.LeaderboardPointer{ChannelID: "c1", MessageID: "m2"}))

	pointer, err := store.GetLeaderboardPointer(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "m2", pointer.MessageID)

	deleted, err := store.DeleteLeaderboardPointerIfMatches(ctx, "g1", "m1")
	require.NoError(t, err)
	assert.False(t, deleted)

	pointers, err := store.ListLeaderboardPointers(ctx)
	require.NoError(t, err)
	assert.Len(t, pointers, 1)

	require.NoError(t, store.DeleteLeaderboardPointer(ctx, "g1"))
	pointer, err = store.GetLeaderboardPointer(ctx, "g1")
	require.NoError(t, err)
	assert.Nil(t, pointer)
}

func TestStore_ReactionRolesAndSettings(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetReactionRole(ctx, "g1", "msg", "👍", "r1"))
	require.NoError(t, store.SetReactionRole(ctx, "g1", "msg", "🎉", "r2"))
	require.NoError(t, store.RemoveReactionRole(ctx, "g1", "msg", "👍"))

	roles, err := store.GetReactionRoles(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, entities.ReactionRoles{"msg": {"🎉": "r2"}}, roles)

	require.NoError(t, store.RemoveReactionRole(ctx, "g1", "msg", ""))
	roles, err = store.GetReactionRoles(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, roles)

	require.NoError(t, store.SetSetting(ctx, "g1", "log_channel", []byte(`{"id":"c9"}`)))
	value, err := store.GetSetting(ctx, "g1", "log_channel")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"c9"}`, string(value))

	assert.Error(t, store.SetSetting(ctx, "g1", "broken", []byte(`{`)))
}

func TestStore_ResetGuildEconomy(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetEconomy(ctx, "g1", "u1", testutil.CreateTestEconomy(100, 0)))
	require.NoError(t, store.SetEconomy(ctx, "g2", "u1", testutil.CreateTestEconomy(100, 0)))
	require.NoError(t, store.AddToInventory(ctx, "g1", "u1", "vip", 1, 1))
	require.NoError(t, store.SetLevel(ctx, "g1", "u1", testutil.CreateTestLevel(2, 0)))

	require.NoError(t, store.ResetGuildEconomy(ctx, "g1"))

	rec, err := store.GetEconomy(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	inv, err := store.GetInventory(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Nil(t, inv)

	rec, err = store.GetEconomy(ctx, "g2", "u1")
	require.NoError(t, err)
	assert.NotNil(t, rec)

	level, err := store.GetLevel(ctx, "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), level.Level)

	guilds, err := store.ListGuilds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, guilds)
}
