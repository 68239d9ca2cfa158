package application

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	huntDomain "github.com/davicafu/scavhunt/internal/hunt/domain"
	analyticsMemory "github.com/davicafu/scavhunt/internal/hunt/infra/outbound/analytics/memory"
	huntMemory "github.com/davicafu/scavhunt/internal/hunt/infra/outbound/db/memory"
	"github.com/davicafu/scavhunt/internal/hunt/infra/outbound/filesystem"
	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	sharedEvents "github.com/davicafu/scavhunt/internal/shared/events"
	"github.com/davicafu/scavhunt/internal/shared/infra/platform/docstore"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
	"github.com/davicafu/scavhunt/tests/mocks"
)

func setupService(t *testing.T) (*HuntService, *huntMemory.HuntRepoMemory, *mocks.DummyCache) {
	t.Helper()
	repo := huntMemory.NewHuntRepoMemory(docstore.New())
	cache := mocks.NewDummyCache()
	svc := NewHuntService(repo, analyticsMemory.NewHuntAnalyticsMemory(), cache, zap.NewNop())
	return svc, repo, cache
}

func newHunt(title string, start time.Time) *huntDomain.Hunt {
	return &huntDomain.Hunt{
		Title:       title,
		Description: "Encuentra todos los objetos",
		Difficulty:  "easy",
		Items:       []huntDomain.Item{{Name: "llave", Clue: "bajo el felpudo"}},
		StartDate:   start,
		EndDate:     start.Add(3 * time.Hour),
	}
}

func TestCreateHunt_PersistsAndWritesOutbox(t *testing.T) {
	svc, repo, cache := setupService(t)
	ctx := context.Background()

	h, err := svc.CreateHunt(ctx, newHunt("  Retiro  ", time.Now()))

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, h.ID)
	assert.Equal(t, "Retiro", h.Title)
	assert.Equal(t, huntDomain.DefaultItemImage, h.Items[0].Image)
	assert.False(t, h.CreatedAt.IsZero())

	pending, err := repo.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, huntDomain.HuntCreated, pending[0].EventType)
	assert.Equal(t, h.ID.String(), pending[0].AggregateID)
	payload := pending[0].Payload.(sharedEvents.HuntCreated)
	assert.Equal(t, 1, payload.NumOfItems)

	assert.Eventually(t, func() bool { return cache.Has(huntDomain.HuntCacheKeyByID(h.ID)) }, time.Second, 10*time.Millisecond)
}

func TestCreateHunt_ValidationError(t *testing.T) {
	svc, repo, _ := setupService(t)
	h := newHunt("", time.Now())

	_, err := svc.CreateHunt(context.Background(), h)

	assert.ErrorIs(t, err, sharedDomain.ErrValidation)
	pending, _ := repo.FetchPendingOutbox(context.Background(), 10)
	assert.Empty(t, pending)
}

func TestGetHunt_CacheAside(t *testing.T) {
	svc, _, cache := setupService(t)
	ctx := context.Background()
	created, err := svc.CreateHunt(ctx, newHunt("Retiro", time.Now()))
	require.NoError(t, err)

	got, err := svc.GetHunt(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Eventually(t, func() bool { return cache.Has(huntDomain.HuntCacheKeyByID(created.ID)) }, time.Second, 10*time.Millisecond)

	_, err = svc.GetHunt(ctx, uuid.New())
	assert.ErrorIs(t, err, huntDomain.ErrHuntNotFound)
}

func TestGetHunt_RetriesTransientErrors(t *testing.T) {
	repo := new(mocks.MockHuntRepository)
	svc := NewHuntService(repo, nil, nil, zap.NewNop())
	id := uuid.New()
	h := newHunt("Retiro", time.Now())
	h.ID = id

	repo.On("GetByID", mock.Anything, id).Return(nil, errors.New("transient")).Once()
	repo.On("GetByID", mock.Anything, id).Return(h, nil).Once()

	got, err := svc.GetHunt(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	repo.AssertNumberOfCalls(t, "GetByID", 2)
}

func TestGetHunt_NotFoundIsNotRetried(t *testing.T) {
	repo := new(mocks.MockHuntRepository)
	svc := NewHuntService(repo, nil, nil, zap.NewNop())
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, huntDomain.ErrHuntNotFound)

	_, err := svc.GetHunt(context.Background(), id)

	assert.ErrorIs(t, err, sharedDomain.ErrNotFound)
	repo.AssertNumberOfCalls(t, "GetByID", 1)
}

func TestUpdateHunt_PartialAndRevalidated(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()
	created, err := svc.CreateHunt(ctx, newHunt("Retiro", time.Now()))
	require.NoError(t, err)

	done := true
	winner := uuid.NewString()
	updated, err := svc.UpdateHunt(ctx, created.ID, huntDomain.Patch{Completed: &done, Winner: &winner})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Retiro", updated.Title)
	assert.Equal(t, int64(1), updated.Version)

	// runValidators: una fecha de fin anterior al inicio se rechaza.
	early := created.StartDate.Add(-time.Hour)
	_, err = svc.UpdateHunt(ctx, created.ID, huntDomain.Patch{EndDate: &early})
	assert.ErrorIs(t, err, sharedDomain.ErrValidation)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)

	_, err = svc.UpdateHunt(ctx, uuid.New(), huntDomain.Patch{})
	assert.ErrorIs(t, err, huntDomain.ErrHuntNotFound)
}

func TestDeleteHunt(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()
	created, err := svc.CreateHunt(ctx, newHunt("Retiro", time.Now()))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteHunt(ctx, created.ID))
	assert.ErrorIs(t, svc.DeleteHunt(ctx, created.ID), huntDomain.ErrHuntNotFound)

	pending, err := repo.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestListHunts_CompilesAndExecutes(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		h := newHunt("hunt", base)
		h.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_, err := svc.CreateHunt(ctx, h)
		require.NoError(t, err)
	}

	docs, err := svc.ListHunts(ctx, query.Params{"page": "3", "limit": "10"})
	require.NoError(t, err)
	assert.Len(t, docs, 5)
	// La proyección por defecto oculta __v y createdAt.
	_, hasVersion := docs[0]["__v"]
	_, hasCreatedAt := docs[0]["createdAt"]
	assert.False(t, hasVersion)
	assert.False(t, hasCreatedAt)

	_, err = svc.ListHunts(ctx, query.Params{"page": "4", "limit": "10"})
	var pageErr *query.PageOutOfRangeError
	require.ErrorAs(t, err, &pageErr)
	assert.Equal(t, 3, pageErr.LastPage)

	_, err = svc.ListHunts(ctx, query.Params{"fields": "title,-__v"})
	var clientErr *query.ClientRequestError
	assert.ErrorAs(t, err, &clientErr)

	docs, err = svc.ListHunts(ctx, query.Params{"startDate": map[string]interface{}{"gte": "2026-01-01"}, "fields": "title"})
	require.NoError(t, err)
	assert.Len(t, docs, 25)
}

func TestListHunts_StorageUnavailablePropagates(t *testing.T) {
	repo := new(mocks.MockHuntRepository)
	svc := NewHuntService(repo, nil, nil, zap.NewNop())
	down := &sharedDomain.StorageUnavailableError{Store: "mongodb", Err: errors.New("server selection timeout")}
	repo.On("Count", mock.Anything, mock.Anything).Return(int64(0), down)

	_, err := svc.ListHunts(context.Background(), query.Params{"page": "2"})

	assert.Same(t, down, err)
	repo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}

func TestDailyStats(t *testing.T) {
	svc, _, _ := setupService(t)
	now := time.Now().UTC()

	_, err := svc.DailyStats(context.Background(), now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, sharedDomain.ErrInvalidInput)

	trend, err := svc.DailyStats(context.Background(), now.Add(-time.Hour), now)
	require.NoError(t, err)
	assert.Empty(t, trend)
}

func TestImportHunts_SkipsExisting(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	storage := filesystem.NewJSONHuntStorage(filepath.Join(t.TempDir(), "hunts.json"))

	h := newHunt("Importada", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	h.ID = uuid.New()
	require.NoError(t, storage.Save(ctx, []*huntDomain.Hunt{h}))

	n, err := svc.ImportHunts(ctx, storage)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.ImportHunts(ctx, storage)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
