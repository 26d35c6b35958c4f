package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"tooly/domain/entities"
	"tooly/domain/events"
	"tooly/domain/interfaces"
	"tooly/domain/services"
	"tooly/domain/testhelpers"
	"tooly/infrastructure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReaperLedger(t *testing.T) interfaces.LedgerService {
	t.Helper()
	store, _ := openFlatFileTarget(t)
	ledger := services.NewLedgerService(store, infrastructure.NewMutexLocker())

	ctx := context.Background()
	require.NoError(t, ledger.SetLeaderboardPointer(ctx, "g-live", &entities.LeaderboardPointer{ChannelID: "c1", MessageID: "m1"}))
	require.NoError(t, ledger.SetLeaderboardPointer(ctx, "g-dead", &entities.LeaderboardPointer{ChannelID: "c2", MessageID: "m2"}))
	require.NoError(t, ledger.SetLeaderboardPointer(ctx, "g-flaky", &entities.LeaderboardPointer{ChannelID: "c3", MessageID: "m3"}))
	return ledger
}

func TestLeaderboardReaperWorker_Sweep(t *testing.T) {
	ctx := context.Background()
	ledger := newReaperLedger(t)

	checker := new(testhelpers.MockMessageChecker)
	checker.On("MessageExists", mock.Anything, "c1", "m1").Return(true, nil)
	checker.On("MessageExists", mock.Anything, "c2", "m2").Return(false, nil)
	checker.On("MessageExists", mock.Anything, "c3", "m3").Return(false, errors.New("rate limited"))
	publisher := newPublisher()

	worker := NewLeaderboardReaperWorker(ledger, checker, publisher, time.Hour)
	pruned, err := worker.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned)

	pointers, err := ledger.ListLeaderboardPointers(ctx)
	require.NoError(t, err)
	assert.Contains(t, pointers, "g-live")
	assert.Contains(t, pointers, "g-flaky")
	assert.NotContains(t, pointers, "g-dead")

	publisher.AssertCalled(t, "Publish", events.LeaderboardPointerPrunedEvent{
		GuildID:   "g-dead",
		ChannelID: "c2",
		MessageID: "m2",
	})
	publisher.AssertNumberOfCalls(t, "Publish", 1)
	checker.AssertExpectations(t)
}

func TestLeaderboardReaperWorker_KeepsReplacedPointer(t *testing.T) {
	ctx := context.Background()
	ledger := newReaperLedger(t)

	checker := new(testhelpers.MockMessageChecker)
	checker.On("MessageExists", mock.Anything, "c1", "m1").Return(true, nil)
	checker.On("MessageExists", mock.Anything, "c3", "m3").Return(true, nil)
	checker.On("MessageExists", mock.Anything, "c2", "m2").
		Run(func(args mock.Arguments) {
			// A new leaderboard is posted while the old one is being checked
			require.NoError(t, ledger.SetLeaderboardPointer(ctx, "g-dead", &entities.LeaderboardPointer{ChannelID: "c2", MessageID: "m2-new"}))
		}).
		Return(false, nil)
	publisher := newPublisher()

	pruned, err := NewLeaderboardReaperWorker(ledger, checker, publisher, time.Hour).Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, pruned)

	pointer, err := ledger.GetLeaderboardPointer(ctx, "g-dead")
	require.NoError(t, err)
	assert.Equal(t, "m2-new", pointer.MessageID)
	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestLeaderboardReaperWorker_ListFailure(t *testing.T) {
	store := new(testhelpers.MockLedgerStore)
	store.On("ListLeaderboardPointers", mock.Anything).Return(nil, errors.New("connection refused"))
	ledger := services.NewLedgerService(store, infrastructure.NewMutexLocker())

	checker := new(testhelpers.MockMessageChecker)
	_, err := NewLeaderboardReaperWorker(ledger, checker, newPublisher(), time.Hour).Sweep(context.Background())
	assert.Error(t, err)
	checker.AssertNotCalled(t, "MessageExists", mock.Anything, mock.Anything, mock.Anything)
}

func TestLeaderboardReaperWorker_StartStops(t *testing.T) {
	ledger := newReaperLedger(t)

	swept := make(chan struct{}, 3)
	checker := new(testhelpers.MockMessageChecker)
	checker.On("MessageExists", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { swept <- struct{}{} }).
		Return(true, nil)

	stop := NewLeaderboardReaperWorker(ledger, checker, newPublisher(), time.Hour).Start(context.Background())
	defer stop()

	for i := 0; i < 3; i++ {
		select {
		case <-swept:
		case <-time.After(5 * time.Second):
			t.Fatal("initial sweep did not run")
		}
	}
}

func TestLeaderboardReaperWorker_StopWaitsForSweep(t *testing.T) {
	ledger := newReaperLedger(t)

	entered := make(chan struct{}, 3)
	release := make(chan struct{})
	checker := new(testhelpers.MockMessageChecker)
	checker.On("MessageExists", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			entered <- struct{}{}
			<-release
		}).
		Return(true, nil)

	stop := NewLeaderboardReaperWorker(ledger, checker, newPublisher(), time.Hour).Start(context.Background())

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("initial sweep did not run")
	}

	stopped := make(chan struct{})
	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while a sweep was running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not return after the sweep finished")
	}

	// A second call is a no-op
	stop()
}
