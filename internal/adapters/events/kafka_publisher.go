package events

import (
	"context"
	"encoding/json"
	"fmt"
	"navigation-session-service/internal/ports"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher writes session events keyed by session ID so that
// events of one session keep their order within a partition.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt ports.SessionEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("publish %s: marshal event: %w", evt.Type, err)
	}

	msg := kafkago.Message{
		Key:   []byte(evt.SessionID),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(evt.Type)},
		},
		Time: evt.At,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: write message: %w", evt.Type, err)
	}

	p.logger.Debug("session event published",
		zap.String("type", evt.Type),
		zap.String("session_id", evt.SessionID),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
