package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

// MockHuntRepository simula HuntRepository con testify/mock.
type MockHuntRepository struct {
	mock.Mock
}

func (m *MockHuntRepository) Find(ctx context.Context, d query.Descriptor) ([]query.Document, error) {
	args := m.Called(ctx, d)
	docs, _ := args.Get(0).([]query.Document)
	return docs, args.Error(1)
}

func (m *MockHuntRepository) Count(ctx context.Context, filter query.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockHuntRepository) GetByID(ctx context.Context, id uuid.UUID) (*huntDomain.Hunt, error) {
	args := m.Called(ctx, id)
	h, _ := args.Get(0).(*huntDomain.Hunt)
	return h, args.Error(1)
}

func (m *MockHuntRepository) Create(ctx context.Context, h *huntDomain.Hunt, evt sharedDomain.OutboxEvent) error {
	return m.Called(ctx, h, evt).Error(0)
}

func (m *MockHuntRepository) Update(ctx context.Context, h *huntDomain.Hunt, evt sharedDomain.OutboxEvent) error {
	return m.Called(ctx, h, evt).Error(0)
}

func (m *MockHuntRepository) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return m.Called(ctx, id, evt).Error(0)
}

var _ huntDomain.HuntRepository = (*MockHuntRepository)(nil)
