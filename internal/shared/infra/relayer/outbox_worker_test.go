package relayer

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	sharedEvents "github.com/davicafu/scavhunt/internal/shared/events"
	sharedBus "github.com/davicafu/scavhunt/internal/shared/infra/platform/bus"
	"github.com/davicafu/scavhunt/tests/mocks"
)

const huntCreated = "hunt.created"

func registry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		huntCreated: {Type: reflect.TypeOf(sharedEvents.HuntCreated{}), Topic: "hunt"},
	}
}

func TestOutboxWorker_ProcessBatch_Success(t *testing.T) {
	// ARRANGE
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)

	huntID := uuid.New()
	eventID := uuid.New()
	testEvent := sharedDomain.OutboxEvent{
		ID:          eventID,
		AggregateID: huntID.String(),
		EventType:   huntCreated,
		Payload:     map[string]interface{}{"id": huntID.String(), "title": "Parque", "difficulty": "easy"},
	}

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{testEvent}, nil).Once()
	publisher.On("Publish", mock.Anything, "hunt", mock.AnythingOfType("events.IntegrationEvent")).Return(nil).Once()
	repo.On("MarkOutboxProcessed", mock.Anything, eventID).Return(nil).Once()

	worker := NewOutboxWorker("hunts", repo, publisher, registry(), 0, 10, zap.NewNop())

	// ACT
	n := worker.ProcessBatch(context.Background())

	// ASSERT
	assert.Equal(t, 1, n)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)

	published := publisher.Calls[0].Arguments.Get(2).(sharedEvents.IntegrationEvent)
	assert.Equal(t, huntCreated, published.Type)
	assert.Equal(t, huntID.String(), published.PartitionKey())

	var contract sharedEvents.HuntCreated
	require.NoError(t, json.Unmarshal(published.Data, &contract))
	assert.Equal(t, huntID, contract.ID)
	assert.Equal(t, "Parque", contract.Title)
}

func TestOutboxWorker_ProcessBatch_PublisherFails(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)

	testEvent := sharedDomain.OutboxEvent{ID: uuid.New(), EventType: huntCreated, Payload: map[string]interface{}{}}

	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{testEvent}, nil).Once()
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("kafka is down")).Once()

	worker := NewOutboxWorker("hunts", repo, publisher, registry(), 0, 10, zap.NewNop())

	n := worker.ProcessBatch(context.Background())

	assert.Zero(t, n)
	publisher.AssertCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkOutboxProcessed", mock.Anything, mock.Anything)
}

func TestOutboxWorker_ProcessBatch_UnknownEventType(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)

	testEvent := sharedDomain.OutboxEvent{ID: uuid.New(), EventType: "unregistered.event", Payload: map[string]interface{}{}}
	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent{testEvent}, nil).Once()

	worker := NewOutboxWorker("hunts", repo, publisher, make(map[string]sharedEvents.EventMetadata), 0, 10, zap.NewNop())

	worker.ProcessBatch(context.Background())

	repo.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "MarkOutboxProcessed", mock.Anything, mock.Anything)
}

func TestOutboxWorker_ProcessBatch_FetchFails(t *testing.T) {
	repo := new(mocks.MockOutboxRepository)
	publisher := new(mocks.MockPublisher)
	repo.On("FetchPendingOutbox", mock.Anything, 10).Return([]sharedDomain.OutboxEvent(nil), errors.New("db down")).Once()

	worker := NewOutboxWorker("hunts", repo, publisher, registry(), 0, 10, zap.NewNop())

	assert.Zero(t, worker.ProcessBatch(context.Background()))
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

// Verificación estática de que los mocks cumplen las interfaces.
var _ sharedDomain.OutboxRepository = (*mocks.MockOutboxRepository)(nil)
var _ sharedBus.EventBus = (*mocks.MockPublisher)(nil)
