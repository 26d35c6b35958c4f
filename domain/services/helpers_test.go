package services

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tooly/config"
	"tooly/domain/interfaces"
	"tooly/domain/rewards"
	"tooly/domain/testhelpers"
	"tooly/infrastructure"
	"tooly/storage/flatfile"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Test constants for consistent test data
const (
	TestGuildID  = "555555555"
	TestUser1ID  = "100"
	TestUser2ID  = "200"
	TestUser3ID  = "300"
	TestAdminID  = "999999"
	TestItemID   = "vip"
	TestFishName = "Trout"
)

// fakeClock is a manually advanced clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testEnv wires real services over a flat-file store in a temp dir
type testEnv struct {
	store     *flatfile.Store
	ledger    interfaces.LedgerService
	publisher *testhelpers.MockEventPublisher
	engine    *rewards.Engine
	cfg       *config.Config
	clock     *fakeClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := flatfile.Open(flatfile.Options{
		Path:      filepath.Join(t.TempDir(), "bot_data.json"),
		FlushMode: flatfile.FlushImmediate,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	publisher := new(testhelpers.MockEventPublisher)
	publisher.On("Publish", mock.Anything).Return(nil)

	clock := newFakeClock()
	ledger := NewLedgerService(store, infrastructure.NewMutexLocker())
	ledger.(*ledgerService).now = clock.Now

	return &testEnv{
		store:     store,
		ledger:    ledger,
		publisher: publisher,
		engine:    rewards.NewEngineWithSeed(42),
		cfg:       config.NewTestConfig(),
		clock:     clock,
	}
}

func (e *testEnv) economyService() *economyService {
	svc := NewEconomyService(e.ledger, e.engine, e.publisher, e.cfg).(*economyService)
	svc.now = e.clock.Now
	return svc
}

func (e *testEnv) fishingService() *fishingService {
	svc := NewFishingService(e.ledger, e.engine, e.publisher, e.cfg).(*fishingService)
	svc.now = e.clock.Now
	return svc
}

func (e *testEnv) gamblingService() *gamblingService {
	return NewGamblingService(e.ledger, e.engine, e.publisher, e.cfg).(*gamblingService)
}

func (e *testEnv) levelingService() *levelingService {
	svc := NewLevelingService(e.ledger, e.engine, e.publisher, e.cfg).(*levelingService)
	svc.now = e.clock.Now
	return svc
}

func (e *testEnv) moderationService() *moderationService {
	svc := NewModerationService(e.ledger, e.publisher, e.cfg).(*moderationService)
	svc.now = e.clock.Now
	return svc
}

// published returns every event passed to the mock publisher
func (e *testEnv) published() []any {
	var out []any
	for _, call := range e.publisher.Calls {
		if call.Method == "Publish" {
			out = append(out, call.Arguments.Get(0))
		}
	}
	return out
}
