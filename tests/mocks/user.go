package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
	userDomain "github.com/davicafu/scavhunt/internal/user/domain"
)

// MockUserRepository simula UserRepository con testify/mock.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Find(ctx context.Context, d query.Descriptor) ([]query.Document, error) {
	args := m.Called(ctx, d)
	docs, _ := args.Get(0).([]query.Document)
	return docs, args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, filter query.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*userDomain.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*userDomain.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	return m.Called(ctx, u, evt).Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, u *userDomain.User, evt sharedDomain.OutboxEvent) error {
	return m.Called(ctx, u, evt).Error(0)
}

func (m *MockUserRepository) DeleteByID(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return m.Called(ctx, id, evt).Error(0)
}

var _ userDomain.UserRepository = (*MockUserRepository)(nil)
