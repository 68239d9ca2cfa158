package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/scavhunt/internal/shared/events"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestKafkaPublisher_UsesTopicAndPartitionKey(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w, zap.NewNop())

	evt := sharedEvents.IntegrationEvent{Type: "hunt.created", Key: "h1", Data: json.RawMessage(`{"id":"h1"}`)}
	require.NoError(t, p.Publish(context.Background(), "hunt", evt))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "hunt", w.msgs[0].Topic)
	assert.Equal(t, []byte("h1"), w.msgs[0].Key)

	var decoded sharedEvents.IntegrationEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, "hunt.created", decoded.Type)
}

func TestKafkaPublisher_PropagatesWriteErrors(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := NewKafkaPublisher(w, zap.NewNop())

	assert.EqualError(t, p.Publish(context.Background(), "hunt", map[string]string{}), "broker down")
}
