package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"recoverydesk/internal/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const NotificationCreatedEvent = "notification.created"

// NotificationEvent is the JSON payload written to the notifications topic.
type NotificationEvent struct {
	Type         string              `json:"type"`
	OccurredAt   time.Time           `json:"occurred_at"`
	Notification models.Notification `json:"notification"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes notification events keyed by user id.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Transport: &kafka.Transport{
			ClientID: "recoverydesk",
		},
	}
	return &KafkaPublisher{writer: writer, topic: topic, log: log}
}

// PublishNotification implements EventPublisher.
func (p *KafkaPublisher) PublishNotification(ctx context.Context, n models.Notification) error {
	value, err := json.Marshal(NotificationEvent{
		Type:         NotificationCreatedEvent,
		OccurredAt:   time.Now().UTC(),
		Notification: n,
	})
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(n.UserID), 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(NotificationCreatedEvent)},
		},
		Time: time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return err
	}

	p.log.Debug("notification published", zap.String("topic", p.topic), zap.Uint("notification_id", n.ID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
