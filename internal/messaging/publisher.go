package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventType - тип события истории.
type EventType string

const (
	EventStoryCreated     EventType = "story.created"
	EventStoryContinued   EventType = "story.continued"
	EventStoryDeleted     EventType = "story.deleted"
	EventStoryShared      EventType = "story.shared"
	EventCharacterDeleted EventType = "character.deleted"
)

// StoryEvent - сообщение об изменении истории или персонажа.
type StoryEvent struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	Email       string    `json:"email"`
	CharacterID string    `json:"characterId,omitempty"`
	StoryID     string    `json:"storyId,omitempty"`
	SharedID    string    `json:"sharedId,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Entries     int       `json:"entries,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// StoryEventPublisher публикует события историй.
type StoryEventPublisher interface {
	Publish(ctx context.Context, event StoryEvent) error
}

// rabbitMQPublisher публикует события в durable-очередь RabbitMQ.
type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQPublisher объявляет очередь событий и возвращает публикатор.
// Канал открывается и закрывается вызывающим (main.go).
func NewRabbitMQPublisher(ch *amqp.Channel, queueName string, logger *zap.Logger) (StoryEventPublisher, error) {
	_, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		amqp.Table{"x-queue-mode": "lazy"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue '%s': %w", queueName, err)
	}
	logger.Info("Story events queue declared", zap.String("queue", queueName))

	return &rabbitMQPublisher{channel: ch, queueName: queueName, logger: logger.Named("StoryEventPublisher")}, nil
}

// Publish сериализует событие в JSON и отправляет его persistent-сообщением.
func (p *rabbitMQPublisher) Publish(ctx context.Context, event StoryEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal story event %s: %w", event.ID, err)
	}

	err = p.channel.PublishWithContext(ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
			Timestamp:    event.OccurredAt,
			AppId:        "story-server",
			MessageId:    event.ID,
			Type:         string(event.Type),
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish story event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish story event %s: %w", event.ID, err)
	}

	p.logger.Debug("Story event published",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("queue", p.queueName),
	)
	return nil
}

// NoopPublisher используется, когда RABBITMQ_URL не задан.
type NoopPublisher struct{}

// Publish ничего не делает.
func (NoopPublisher) Publish(context.Context, StoryEvent) error { return nil }
