package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/infra/platform/db/sqldb"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
	userDomain "github.com/davicafu/scavhunt/internal/user/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqldb.Open(context.Background(), sqldb.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSchema(context.Background(), db))
	return db
}

func newUser(i int) *userDomain.User {
	return &userDomain.User{
		ID:           uuid.New(),
		Username:     fmt.Sprintf("user%02d", i),
		Email:        fmt.Sprintf("user%02d@example.com", i),
		PasswordHash: "hash",
		CreatedAt:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
		Hunts:        []string{},
	}
}

func evt(u *userDomain.User, typ string) sharedDomain.OutboxEvent {
	return sharedDomain.NewOutboxEvent(userDomain.AggregateType, u.ID.String(), typ, map[string]interface{}{"id": u.ID.String()})
}

// runRepoSuite se comparte entre SQLite y Postgres.
func runRepoSuite(t *testing.T, repo *UserRepoSQL) {
	ctx := context.Background()

	t.Run("crud", func(t *testing.T) {
		u := newUser(99)
		require.NoError(t, repo.Create(ctx, u, evt(u, userDomain.UserCreated)))

		dup := newUser(99)
		assert.ErrorIs(t, repo.Create(ctx, dup, evt(dup, userDomain.UserCreated)), userDomain.ErrUserAlreadyExists)

		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u, got)

		u.Hunts = []string{"h1"}
		u.Version = 1
		require.NoError(t, repo.Update(ctx, u, evt(u, userDomain.UserUpdated)))
		got, err = repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"h1"}, got.Hunts)
		assert.Equal(t, int64(1), got.Version)

		require.NoError(t, repo.DeleteByID(ctx, u.ID, evt(u, userDomain.UserDeleted)))
		_, err = repo.GetByID(ctx, u.ID)
		assert.ErrorIs(t, err, userDomain.ErrUserNotFound)
		assert.ErrorIs(t, repo.DeleteByID(ctx, u.ID, evt(u, userDomain.UserDeleted)), userDomain.ErrUserNotFound)
		assert.ErrorIs(t, repo.Update(ctx, u, evt(u, userDomain.UserUpdated)), userDomain.ErrUserNotFound)
	})

	t.Run("descriptor", func(t *testing.T) {
		for i := 0; i < 12; i++ {
			u := newUser(i)
			if i%3 == 0 {
				u.Hunts = []string{"shared-hunt"}
			}
			require.NoError(t, repo.Create(ctx, u, evt(u, userDomain.UserCreated)))
		}

		raw := query.Params{
			"createdAt": map[string]interface{}{"gte": "2026-03-01T02:00:00Z"},
			"sort":      "-username",
			"fields":    "username,email",
			"page":      "2",
			"limit":     "3",
		}
		d, err := query.Compile(ctx, userDomain.Collection, raw, repo.Count, userDomain.QueryOptions()...)
		require.NoError(t, err)

		docs, err := repo.Find(ctx, d)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "user08", docs[0]["username"])
		assert.Equal(t, "user06", docs[2]["username"])
		assert.Contains(t, docs[0], "_id")
		assert.NotContains(t, docs[0], "createdAt")
		assert.NotContains(t, docs[0], "password")

		n, err := repo.Count(ctx, query.Filter{{Field: "hunts", Op: sharedDomain.OpEq, Value: "shared-hunt"}})
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)

		_, err = query.Compile(ctx, userDomain.Collection, query.Params{"page": "9", "limit": "3"}, repo.Count, userDomain.QueryOptions()...)
		var pageErr *query.PageOutOfRangeError
		require.ErrorAs(t, err, &pageErr)
		assert.Equal(t, 4, pageErr.LastPage)
	})

	t.Run("hunts membership is literal", func(t *testing.T) {
		a, b := newUser(50), newUser(51)
		a.Hunts = []string{"abc"}
		b.Hunts = []string{"xyz"}
		require.NoError(t, repo.Create(ctx, a, evt(a, userDomain.UserCreated)))
		require.NoError(t, repo.Create(ctx, b, evt(b, userDomain.UserCreated)))

		for value, want := range map[string]int{"%": 0, "a_c": 0, `ab\`: 0, "ab": 0, "ABC": 0, "abc": 1} {
			d, err := query.Compile(ctx, userDomain.Collection, query.Params{"hunts": value}, repo.Count, userDomain.QueryOptions()...)
			require.NoError(t, err)
			docs, err := repo.Find(ctx, d)
			require.NoError(t, err)
			assert.Len(t, docs, want, "hunts=%s", value)
		}
	})

	t.Run("excluding every field returns empty documents", func(t *testing.T) {
		raw := query.Params{"fields": "-_id,-username,-email,-createdAt,-hunts,-__v", "limit": "2", "page": "1"}
		d, err := query.Compile(ctx, userDomain.Collection, raw, repo.Count, userDomain.QueryOptions()...)
		require.NoError(t, err)

		docs, err := repo.Find(ctx, d)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Empty(t, docs[0])
		assert.Empty(t, docs[1])
	})
}

func TestUserRepoSQL_SQLite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepoSQL(db, sqldb.SQLite)

	runRepoSuite(t, repo)

	pending, err := repo.FetchPendingOutbox(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, pending, 17)
}

func TestUserRepoSQL_RejectsUnknownColumns(t *testing.T) {
	repo := NewUserRepoSQL(setupTestDB(t), sqldb.SQLite)
	ctx := context.Background()

	_, err := repo.Count(ctx, query.Filter{{Field: "password_hash", Op: sharedDomain.OpEq, Value: "x"}})
	assert.ErrorIs(t, err, sharedDomain.ErrInvalidInput)

	_, err = repo.Find(ctx, query.Descriptor{Sort: []query.SortField{{Field: "password"}}})
	assert.ErrorIs(t, err, sharedDomain.ErrInvalidInput)

	_, err = repo.Count(ctx, query.Filter{{Field: "hunts", Op: sharedDomain.OpGt, Value: "x"}})
	assert.ErrorIs(t, err, sharedDomain.ErrInvalidInput)
}
