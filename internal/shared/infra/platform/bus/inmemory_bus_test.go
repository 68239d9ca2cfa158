package bus

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventBus_DeliversOnlyToTopicSubscribers(t *testing.T) {
	b := NewInMemoryEventBus()
	defer b.Close()

	hunts := b.Subscribe("hunt", 1)
	users := b.Subscribe("user", 1)

	require.NoError(t, b.Publish(context.Background(), "hunt", map[string]string{"id": "h1"}))

	select {
	case msg := <-hunts:
		var got map[string]string
		require.NoError(t, json.Unmarshal(msg.([]byte), &got))
		assert.Equal(t, "h1", got["id"])
	case <-time.After(time.Second):
		t.Fatal("el evento no llegó al suscriptor del topic")
	}

	select {
	case <-users:
		t.Fatal("un topic distinto no debe recibir el evento")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInMemoryEventBus_PublishWithoutSubscribers(t *testing.T) {
	b := NewInMemoryEventBus()
	defer b.Close()
	assert.NoError(t, b.Publish(context.Background(), "nadie", struct{}{}))
}

func TestInMemoryEventBus_MarshalError(t *testing.T) {
	b := NewInMemoryEventBus()
	defer b.Close()
	assert.Error(t, b.Publish(context.Background(), "hunt", make(chan int)))
}
