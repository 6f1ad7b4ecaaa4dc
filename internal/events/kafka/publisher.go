package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/yourorg/paper-broker/internal/domain"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer MessageWriter
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
		},
	}
}

func NewPublisherWithWriter(w MessageWriter) *Publisher {
	return &Publisher{writer: w}
}

// PublishTrade keys messages by user so a user's trades stay ordered.
func (p *Publisher) PublishTrade(ctx context.Context, ev domain.TradeExecuted) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.UserID.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte("trade.executed")},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
