// Package events provides best-effort trip event publishing over NATS.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/tripsync-ai/trip-planning-platform/internal/model"
	"github.com/tripsync-ai/trip-planning-platform/pkg/logger"
)

// Config holds NATS connection configuration.
type Config struct {
	URL   string
	Token string
}

// Publisher emits trip events for downstream consumers. A nil Publisher is
// valid and drops everything, so callers never need to branch on whether
// the event bus is configured.
type Publisher struct {
	conn   *nats.Conn
	logger *logger.Logger
}

// Connect establishes a connection to the NATS server. An empty URL
// returns a nil Publisher (events disabled).
func Connect(cfg Config, log *logger.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("events: connect to NATS: %w", err)
	}

	return &Publisher{conn: nc, logger: log}, nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p != nil && p.conn != nil {
		p.conn.Close()
	}
}

// IsConnected reports whether the event bus is up.
func (p *Publisher) IsConnected() bool {
	return p != nil && p.conn != nil && p.conn.IsConnected()
}

// MessageCreated publishes a trip.message.created event.
func (p *Publisher) MessageCreated(tripID, messageID string) {
	p.publish(model.TripEvent{
		ID:        uuid.New().String(),
		TripID:    tripID,
		Type:      model.EventTypeMessageCreated,
		MessageID: messageID,
		CreatedAt: time.Now().UTC(),
	})
}

// ConsensusUpdated publishes a trip.consensus.updated event.
func (p *Publisher) ConsensusUpdated(tripID string, status model.ConsensusStatus) {
	p.publish(model.TripEvent{
		ID:        uuid.New().String(),
		TripID:    tripID,
		Type:      model.EventTypeConsensusUpdated,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	})
}

func (p *Publisher) publish(event model.TripEvent) {
	if p == nil || p.conn == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode trip event", zap.Error(err))
		return
	}

	subject := string(event.Type) + "." + event.TripID
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Warn("failed to publish trip event",
			zap.String("subject", subject), zap.Error(err))
	}
}
