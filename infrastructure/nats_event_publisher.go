package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tooly/domain/events"
	"tooly/domain/interfaces"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var _ interfaces.EventPublisher = (*NATSEventPublisher)(nil)

// EventEnvelope wraps every event published to NATS
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// messagePublisher is the part of NATSClient the publisher needs
type messagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// NATSEventPublisher forwards events to a local publisher and to NATS
type NATSEventPublisher struct {
	client        messagePublisher
	subjectMapper *EventSubjectMapper
	local         interfaces.EventPublisher
	source        string
	timeout       time.Duration
}

// NewNATSEventPublisher creates a new NATS event publisher. local may be nil.
func NewNATSEventPublisher(client messagePublisher, subjectMapper *EventSubjectMapper, local interfaces.EventPublisher, source string) *NATSEventPublisher {
	return &NATSEventPublisher{
		client:        client,
		subjectMapper: subjectMapper,
		local:         local,
		source:        source,
		timeout:       5 * time.Second,
	}
}

// Publish hands the event to the local publisher, then publishes it to NATS
func (p *NATSEventPublisher) Publish(event events.Event) error {
	if p.local != nil {
		if err := p.local.Publish(event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Local event publisher failed")
		}
	}

	subject := p.subjectMapper.MapEventToSubject(event)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: p.source,
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.client.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")
	return nil
}
