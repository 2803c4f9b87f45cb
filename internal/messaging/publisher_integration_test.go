package messaging

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"go.uber.org/zap"
)

func TestNoopPublisher(t *testing.T) {
	var p StoryEventPublisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), StoryEvent{ID: "1", Type: EventStoryCreated}))
}

func TestRabbitMQPublisher_Publish(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION_TESTS") != "1" {
		t.Skip("Skipping integration tests: set RUN_INTEGRATION_TESTS=1")
	}
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.13-management-alpine")
	require.NoError(t, err)
	defer func() { _ = container.Terminate(ctx) }()

	url, err := container.AmqpURL(ctx)
	require.NoError(t, err)

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	publisher, err := NewRabbitMQPublisher(ch, "story_events_test", zap.NewNop())
	require.NoError(t, err)

	event := StoryEvent{
		ID:         "evt-1",
		Type:       EventStoryContinued,
		Email:      "a@example.com",
		StoryID:    "s1",
		Entries:    3,
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, publisher.Publish(ctx, event))

	msgs, err := ch.Consume("story_events_test", "", true, false, false, false, nil)
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		assert.Equal(t, "application/json", msg.ContentType)
		assert.Equal(t, string(EventStoryContinued), msg.Type)
		var got StoryEvent
		require.NoError(t, json.Unmarshal(msg.Body, &got))
		assert.Equal(t, "evt-1", got.ID)
		assert.Equal(t, 3, got.Entries)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for story event")
	}
}
