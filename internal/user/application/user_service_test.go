package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/infra/platform/db/sqldb"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
	userDomain "github.com/davicafu/scavhunt/internal/user/domain"
	userSQL "github.com/davicafu/scavhunt/internal/user/infra/outbound/db/sqldb"
	"github.com/davicafu/scavhunt/tests/mocks"
)

func setupService(t *testing.T) (*UserService, *userSQL.UserRepoSQL, *mocks.DummyCache) {
	t.Helper()
	db, err := sqldb.Open(context.Background(), sqldb.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, userSQL.InitSchema(context.Background(), db))

	repo := userSQL.NewUserRepoSQL(db, sqldb.SQLite)
	cache := mocks.NewDummyCache()
	return NewUserService(repo, cache, zap.NewNop()), repo, cache
}

func TestCreateUser_HashesPasswordAndWritesOutbox(t *testing.T) {
	svc, repo, cache := setupService(t)
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, NewUserInput{Username: " ana ", Email: "ana@example.com", Password: "s3cretpass"})

	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)
	assert.True(t, u.CheckPassword("s3cretpass"))

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cretpass", stored.PasswordHash)

	pending, err := repo.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, userDomain.UserCreated, pending[0].EventType)

	assert.Eventually(t, func() bool { return cache.Has(userDomain.CacheKeyByID(u.ID)) }, time.Second, 10*time.Millisecond)

	_, err = svc.CreateUser(ctx, NewUserInput{Username: "other", Email: "ANA@example.com", Password: "s3cretpass"})
	assert.ErrorIs(t, err, userDomain.ErrUserAlreadyExists)
	assert.ErrorIs(t, err, sharedDomain.ErrConflict)
}

func TestCreateUser_RejectsInvalidInput(t *testing.T) {
	svc, _, _ := setupService(t)

	_, err := svc.CreateUser(context.Background(), NewUserInput{Username: "ana", Email: "ana@example.com", Password: "short"})

	var verr *sharedDomain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Fields[0].Field)
}

func TestListUsers_HidesVersionByDefault(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	for _, name := range []string{"carla", "ana", "bea"} {
		_, err := svc.CreateUser(ctx, NewUserInput{Username: name, Email: name + "@example.com", Password: "s3cretpass"})
		require.NoError(t, err)
	}

	docs, err := svc.ListUsers(ctx, query.Params{"sort": "username"})

	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "ana", docs[0]["username"])
	assert.NotContains(t, docs[0], "__v")
	assert.Contains(t, docs[0], "createdAt")

	_, err = svc.ListUsers(ctx, query.Params{"password": "x"})
	var clientErr *query.ClientRequestError
	assert.ErrorAs(t, err, &clientErr)
}

func TestGetUser_CachedCopyHasNoPasswordHash(t *testing.T) {
	svc, _, cache := setupService(t)
	ctx := context.Background()
	u, err := svc.CreateUser(ctx, NewUserInput{Username: "ana", Email: "ana@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	key := userDomain.CacheKeyByID(u.ID)
	require.Eventually(t, func() bool { return cache.Has(key) }, time.Second, 10*time.Millisecond)

	got, err := svc.GetUser(ctx, u.ID)

	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Empty(t, got.PasswordHash)

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "password")
}

func TestUpdateUser_RehashesPassword(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()
	u, err := svc.CreateUser(ctx, NewUserInput{Username: "ana", Email: "ana@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	pass := "brand-new-pass"
	updated, err := svc.UpdateUser(ctx, u.ID, userDomain.Patch{Password: &pass})
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Version)

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.CheckPassword("brand-new-pass"))
	assert.False(t, stored.CheckPassword("s3cretpass"))

	_, err = svc.UpdateUser(ctx, uuid.New(), userDomain.Patch{Password: &pass})
	assert.ErrorIs(t, err, userDomain.ErrUserNotFound)
}

func TestAttachDetachHunt_AreIdempotent(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()
	u, err := svc.CreateUser(ctx, NewUserInput{Username: "ana", Email: "ana@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	require.NoError(t, svc.AttachHunt(ctx, u.ID, "h1"))
	require.NoError(t, svc.AttachHunt(ctx, u.ID, "h1"))
	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"h1"}, stored.Hunts)

	require.NoError(t, svc.DetachHunt(ctx, u.ID, "h1"))
	require.NoError(t, svc.DetachHunt(ctx, u.ID, "h1"))
	stored, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Hunts)

	// alta + un attach + un detach
	pending, err := repo.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestDeleteUser(t *testing.T) {
	svc, _, cache := setupService(t)
	ctx := context.Background()
	u, err := svc.CreateUser(ctx, NewUserInput{Username: "ana", Email: "ana@example.com", Password: "s3cretpass"})
	require.NoError(t, err)
	key := userDomain.CacheKeyByID(u.ID)
	require.Eventually(t, func() bool { return cache.Has(key) }, time.Second, 10*time.Millisecond)

	require.NoError(t, svc.DeleteUser(ctx, u.ID))
	assert.Eventually(t, func() bool { return !cache.Has(key) }, time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, svc.DeleteUser(ctx, u.ID), userDomain.ErrUserNotFound)
}

func TestGetUser_RetriesTransientFailures(t *testing.T) {
	repo := new(mocks.MockUserRepository)
	svc := NewUserService(repo, nil, zap.NewNop())
	id := uuid.New()
	want := &userDomain.User{ID: id, Username: "ana"}

	repo.On("GetByID", mock.Anything, id).Return(nil, errors.New("connection reset")).Once()
	repo.On("GetByID", mock.Anything, id).Return(want, nil).Once()

	got, err := svc.GetUser(context.Background(), id)

	require.NoError(t, err)
	assert.Same(t, want, got)
	repo.AssertExpectations(t)
}

func TestListUsers_StorageErrorsPassThrough(t *testing.T) {
	repo := new(mocks.MockUserRepository)
	svc := NewUserService(repo, nil, zap.NewNop())
	down := &sharedDomain.StorageUnavailableError{Store: "sqlite", Err: errors.New("down")}
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(0), down)

	_, err := svc.ListUsers(context.Background(), query.Params{"page": "2"})

	assert.Same(t, down, err)
}
