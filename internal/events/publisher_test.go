package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewResultSubmittedEvent(t *testing.T) {
	event := NewResultSubmittedEvent(ResultSubmittedEvent{ResultID: 1, TestID: 2, Percent: 50})

	_, err := uuid.Parse(event.ID)
	assert.NoError(t, err)
	assert.Equal(t, EventResultSubmitted, event.Type)
	assert.Equal(t, "quiz-service", event.Source)
	assert.Equal(t, "1.0", event.Version)
	assert.WithinDuration(t, time.Now(), event.Timestamp, time.Minute)

	other := NewResultSubmittedEvent(ResultSubmittedEvent{})
	assert.NotEqual(t, event.ID, other.ID)
}

func TestToMessage(t *testing.T) {
	event := NewTestImportedEvent(TestImportedEvent{TestID: 4, TestName: "physics_1", QuestionCount: 12})

	msg, err := ToMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.ID, msg.UUID)
	assert.Equal(t, "test.imported", msg.Metadata.Get("event_type"))
	assert.Equal(t, "quiz-service", msg.Metadata.Get("source"))
	assert.Equal(t, "1.0", msg.Metadata.Get("version"))
	assert.NotEmpty(t, msg.Metadata.Get("timestamp"))

	var decoded struct {
		Type EventType         `json:"type"`
		Data TestImportedEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, EventTestImported, decoded.Type)
	assert.Equal(t, 12, decoded.Data.QuestionCount)
}

func TestWatermillEventPublisher_Publish(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "quiz-results")
	require.NoError(t, err)

	publisher := NewWatermillEventPublisher(pubSub, "quiz-results", discardLogger())
	event := NewResultSubmittedEvent(ResultSubmittedEvent{ResultID: 10, TestID: 3, TotalScore: 6, MaxScore: 9})
	require.NoError(t, publisher.Publish(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, "result.submitted", msg.Metadata.Get("event_type"))
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}

func TestMockEventPublisher(t *testing.T) {
	publisher := NewMockEventPublisher(discardLogger())

	require.NoError(t, publisher.Publish(context.Background(), NewResultSubmittedEvent(ResultSubmittedEvent{ResultID: 1})))
	assert.Len(t, publisher.GetPublishedEvents(), 1)

	publisher.Err = errors.New("broker down")
	assert.Error(t, publisher.Publish(context.Background(), NewResultSubmittedEvent(ResultSubmittedEvent{ResultID: 2})))
	assert.Len(t, publisher.GetPublishedEvents(), 1)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
	assert.NoError(t, publisher.Close())
}
