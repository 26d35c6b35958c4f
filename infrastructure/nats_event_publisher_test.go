package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"tooly/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMessagePublisher struct {
	mock.Mock
}

func (m *mockMessagePublisher) Publish(ctx context.Context, subject string, data []byte) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type recordingPublisher struct {
	published []events.Event
}

func (r *recordingPublisher) Publish(event events.Event) error {
	r.published = append(r.published, event)
	return nil
}

func TestNATSEventPublisher_Publish(t *testing.T) {
	client := new(mockMessagePublisher)
	local := &recordingPublisher{}
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), local, "tooly-test")

	event := events.LevelUpEvent{GuildID: "g1", UserID: "u1", NewLevel: 4, CoinReward: 200}

	var sent []byte
	client.On("Publish", mock.Anything, "ledger.levels.level_up", mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(2).([]byte) }).
		Return(nil)

	require.NoError(t, publisher.Publish(event))
	client.AssertExpectations(t)

	require.Len(t, local.published, 1)
	assert.Equal(t, event, local.published[0])

	var envelope EventEnvelope
	require.NoError(t, json.Unmarshal(sent, &envelope))
	assert.Equal(t, string(events.EventTypeLevelUp), envelope.EventType)
	assert.Equal(t, "tooly-test", envelope.SourceService)
	assert.NotEmpty(t, envelope.EventID)

	var payload events.LevelUpEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, event, payload)
}

func TestNATSEventPublisher_PublishError(t *testing.T) {
	client := new(mockMessagePublisher)
	publisher := NewNATSEventPublisher(client, NewEventSubjectMapper(), nil, "tooly-test")

	client.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("no responders"))

	err := publisher.Publish(events.GuildEconomyResetEvent{GuildID: "g1"})
	assert.Error(t, err)
}

func TestEventSubjectMapper(t *testing.T) {
	mapper := NewEventSubjectMapper()

	subject := mapper.MapEventToSubject(events.BalanceChangeEvent{})
	assert.Equal(t, "ledger.economy.balance_changed", subject)

	seen := make(map[string]events.EventType, len(subjectsByType))
	for eventType, s := range subjectsByType {
		assert.True(t, strings.HasPrefix(s, "ledger."), s)
		prev, dup := seen[s]
		assert.False(t, dup, "%s shared by %s and %s", s, prev, eventType)
		seen[s] = eventType
	}

	assert.Equal(t, "ledger.unknown.mystery", mapper.MapEventToSubject(unknownEvent{}))
}

type unknownEvent struct{}

func (unknownEvent) Type() events.EventType { return "mystery" }

func TestNoopEventPublisher(t *testing.T) {
	assert.NoError(t, NewNoopEventPublisher().Publish(events.GuildEconomyResetEvent{}))
}
