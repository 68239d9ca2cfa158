package bus

import (
	"context"
	"encoding/json"
	"sync"
)

// InMemoryEventBus reparte cada evento, serializado a JSON, entre los suscriptores de su topic.
type InMemoryEventBus struct {
	subscribers map[string][]chan interface{}
	mu          sync.RWMutex
	stop        chan struct{}
	once        sync.Once
}

var _ EventBus = (*InMemoryEventBus)(nil)

func NewInMemoryEventBus() *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make(map[string][]chan interface{}),
		stop:        make(chan struct{}),
	}
}

// Publish no bloquea: la entrega a los suscriptores ocurre en segundo plano.
func (b *InMemoryEventBus) Publish(ctx context.Context, topic string, event interface{}) error {
	payloadBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	b.mu.RLock()
	subs := append([]chan interface{}(nil), b.subscribers[topic]...)
	b.mu.RUnlock()

	if len(subs) > 0 {
		go b.distribute(subs, payloadBytes)
	}
	return nil
}

func (b *InMemoryEventBus) distribute(subs []chan interface{}, event []byte) {
	for _, subChan := range subs {
		select {
		case subChan <- event:
		case <-b.stop:
			return
		}
	}
}

// Subscribe devuelve un canal que recibe los payloads ([]byte) del topic.
func (b *InMemoryEventBus) Subscribe(topic string, bufferSize int) <-chan interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()

	subChan := make(chan interface{}, bufferSize)
	b.subscribers[topic] = append(b.subscribers[topic], subChan)
	return subChan
}

// Close detiene las entregas pendientes. Es idempotente.
func (b *InMemoryEventBus) Close() {
	b.once.Do(func() { close(b.stop) })
}
